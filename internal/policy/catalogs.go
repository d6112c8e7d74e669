package policy

import "strings"

// ProhibitedClause pairs a canonical clause identifier with the literal
// phrase variations that flag it when found in agent or critic text, and
// the canned replacement text substituted for the matched variation during
// auto-revision.
type ProhibitedClause struct {
	Canonical  string
	Variations []string
	Rewrite    string
}

// RequiredClause pairs a canonical clause identifier with the literal
// phrase variations that satisfy its presence requirement.
type RequiredClause struct {
	Canonical  string
	Variations []string
}

// defaultProhibitedClauses is the built-in prohibited-phrase catalog.
func defaultProhibitedClauses() []ProhibitedClause {
	return []ProhibitedClause{
		{
			Canonical: "liability_waiver",
			Variations: []string{
				"liability waiver", "waiver of liability", "waive liability",
				"waives liability", "waives all liability",
			},
			Rewrite: "limited liability provision",
		},
		{
			Canonical:  "indemnification",
			Variations: []string{"indemnification", "indemnify", "hold harmless"},
			Rewrite:    "mutual indemnification with a liability cap",
		},
		{
			Canonical:  "unlimited_liability",
			Variations: []string{"unlimited liability", "unlimited damages", "no liability cap"},
			Rewrite:    "liability capped at twelve months' fees",
		},
	}
}

// defaultRequiredClauses is the built-in required-clause catalog.
func defaultRequiredClauses() []RequiredClause {
	return []RequiredClause{
		{Canonical: "warranty", Variations: []string{"warranty", "warranties", "guarantee"}},
		{Canonical: "data_protection", Variations: []string{"data protection", "privacy", "gdpr", "data security"}},
		{Canonical: "termination_rights", Variations: []string{"termination", "terminate", "end agreement"}},
	}
}

// defaultBudgetThresholds is the fallback per-category spend threshold
// table used when BUDGET_THRESHOLDS fails to parse.
func defaultBudgetThresholds() map[string]float64 {
	return map[string]float64{
		"software": 50000,
		"hardware": 100000,
		"services": 25000,
	}
}

// matchesAny reports whether any variation of clause appears as a
// case-insensitive substring of the already-lowercased haystack.
func (c ProhibitedClause) matchesAny(lowerText string) (bool, string) {
	for _, v := range c.Variations {
		if strings.Contains(lowerText, strings.ToLower(v)) {
			return true, v
		}
	}
	return false, ""
}

func (c RequiredClause) presentIn(lowerText string) bool {
	for _, v := range c.Variations {
		if strings.Contains(lowerText, strings.ToLower(v)) {
			return true
		}
	}
	return false
}
