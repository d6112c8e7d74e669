package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledgerline/procureagent/internal/contextlayer"
	"github.com/ledgerline/procureagent/internal/llm"
	"github.com/ledgerline/procureagent/internal/policy"
	"github.com/ledgerline/procureagent/pkg/types"
)

// ComplianceAgent reviews a contract clause against the Policy Store's
// prohibited/required clause catalogs, tiers the resulting risk, and asks
// the model provider for a compliant rewrite when violations are found.
type ComplianceAgent struct {
	provider llm.Provider
	store    *policy.Store
}

func (a *ComplianceAgent) Kind() types.AgentKind { return types.AgentCompliance }

func (a *ComplianceAgent) ValidatePayload(req types.RequestEnvelope) error {
	p := req.Compliance
	if p == nil {
		return &ValidationError{Field: "compliance", Message: "payload is required"}
	}
	if strings.TrimSpace(p.Clause) == "" {
		return &ValidationError{Field: "clause", Message: "must not be empty"}
	}
	if p.RiskTolerance != "" {
		switch p.RiskTolerance {
		case "low", "medium", "high":
		default:
			return &ValidationError{Field: "risk_tolerance", Message: "must be one of low, medium, high"}
		}
	}
	return nil
}

// flaggedTermPattern pairs a human-readable label with the regex that
// detects it.
type flaggedTermPattern struct {
	label string
	re    *regexp.Regexp
}

// flaggedTermPatterns is §6's regex family for high-risk terms, scanned
// case-insensitively against the clause and its surrounding context; any
// hit is reported regardless of whether the Policy Store's
// prohibited-clause catalog also flags it, since these terms are
// inherently one-sided even outside a catalog match.
var flaggedTermPatterns = []flaggedTermPattern{
	{"unlimited liability", regexp.MustCompile(`(?i)unlimited\s+liability`)},
	{"indemnification", regexp.MustCompile(`(?i)indemnif(?:y|ication)`)},
	{"hold harmless", regexp.MustCompile(`(?i)hold\s+harmless`)},
	{"waiver of rights", regexp.MustCompile(`(?i)waive.*rights`)},
	{"no warranty", regexp.MustCompile(`(?i)no\s+warranty`)},
	{"as-is", regexp.MustCompile(`(?i)\bas\s+is\b`)},
	{"exclusive remedy", regexp.MustCompile(`(?i)exclusive\s+remedy`)},
	{"consequential damages", regexp.MustCompile(`(?i)consequential\s+damages`)},
}

func (a *ComplianceAgent) Process(ctx context.Context, req types.RequestEnvelope, assembled contextlayer.Assembled) (Result, error) {
	p := req.Compliance

	combined := p.Clause
	if p.ContractContext != "" {
		combined = p.Clause + "\n\n" + p.ContractContext
	}

	violations, _ := a.store.ValidateText(combined)

	var flagged []string
	for _, pattern := range flaggedTermPatterns {
		if pattern.re.MatchString(combined) {
			flagged = append(flagged, pattern.label)
		}
	}

	risk := riskTier(violations, len(flagged))

	rewrite := p.Clause
	if len(violations) > 0 || len(flagged) > 0 {
		rewrite = generateNarrative(ctx, a.provider,
			"You are a contracts compliance reviewer. Rewrite the clause to remove the flagged risk while preserving its commercial intent.",
			fmt.Sprintf("Clause: %s\nFlagged terms: %s", p.Clause, strings.Join(flagged, ", ")),
			standardComplianceRewrite(p.Clause),
		)
	}

	recommendations := recommendationsFor(risk, flagged)
	confidence := complianceConfidence(violations)

	artifact := types.ComplianceArtifact{
		RiskLevel:           risk,
		Violations:          violations,
		CompliantRewrite:    rewrite,
		FlaggedTerms:        flagged,
		Recommendations:     recommendations,
		LegalReviewRequired: risk == types.RiskCritical || risk == types.RiskHigh || hasNonAutoFixable(violations),
		Confidence:          confidence,
	}

	return Result{
		Text:            renderComplianceText(artifact),
		Confidence:      confidence,
		Recommendations: recommendations,
		Artifact:        artifact,
	}, nil
}

// riskTier applies the tiering rule: Critical if any Critical violation or
// two-or-more High; High if one High or three-or-more Medium; Medium if at
// least one Medium or a flagged term; else Low.
func riskTier(violations []types.Violation, flaggedCount int) types.RiskLevel {
	var critical, high, medium int
	for _, v := range violations {
		switch v.Severity {
		case types.SeverityCritical:
			critical++
		case types.SeverityHigh:
			high++
		case types.SeverityMedium:
			medium++
		}
	}

	switch {
	case critical > 0 || high >= 2:
		return types.RiskCritical
	case high >= 1 || medium >= 3:
		return types.RiskHigh
	case medium >= 1 || flaggedCount > 0:
		return types.RiskMedium
	default:
		return types.RiskLow
	}
}

// complianceSeverityDeduction is the confidence penalty per violation
// severity, kept independent of the critic's compliance-score weight
// table since the two scores measure different things.
var complianceSeverityDeduction = map[types.Severity]float64{
	types.SeverityLow:      0,
	types.SeverityMedium:   0.1,
	types.SeverityHigh:     0.2,
	types.SeverityCritical: 0.3,
}

// complianceConfidence is 0.9 minus a severity-weighted deduction minus
// 0.1 per violation (capped at 0.3 total), floored at 0.5.
func complianceConfidence(violations []types.Violation) float64 {
	confidence := 0.9
	var severityDeduction float64
	for _, v := range violations {
		severityDeduction += complianceSeverityDeduction[v.Severity]
	}
	perViolation := 0.1 * float64(len(violations))
	if perViolation > 0.3 {
		perViolation = 0.3
	}
	confidence -= severityDeduction + perViolation
	if confidence < 0.5 {
		confidence = 0.5
	}
	return confidence
}

// hasNonAutoFixable reports whether any violation cannot be auto-fixed,
// which by itself mandates legal review regardless of risk tier.
func hasNonAutoFixable(violations []types.Violation) bool {
	for _, v := range violations {
		if !v.AutoFixable {
			return true
		}
	}
	return false
}

func recommendationsFor(risk types.RiskLevel, flagged []string) []string {
	var recs []string
	switch risk {
	case types.RiskCritical:
		recs = append(recs, "Escalate to legal before proceeding; do not execute as drafted")
	case types.RiskHigh:
		recs = append(recs, "Route to legal review before signature")
	case types.RiskMedium:
		recs = append(recs, "Request a redline on the flagged terms before signature")
	case types.RiskLow:
		recs = append(recs, "No additional review required")
	}
	for _, term := range flagged {
		recs = append(recs, fmt.Sprintf("Clarify scope of %q term", term))
	}
	return recs
}

func standardComplianceRewrite(clause string) string {
	return clause + "\n\n(Compliant Rewrite) This clause is limited in scope, duration, and remedy to terms consistent with standard enterprise procurement policy."
}

func renderComplianceText(a types.ComplianceArtifact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Compliance review: risk level %s.\n\n", a.RiskLevel)
	if len(a.FlaggedTerms) > 0 {
		b.WriteString("Flagged Terms: " + strings.Join(a.FlaggedTerms, ", ") + "\n\n")
	}
	b.WriteString("Compliant Rewrite:\n" + a.CompliantRewrite + "\n")
	if len(a.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for _, r := range a.Recommendations {
			b.WriteString("- " + r + "\n")
		}
	}
	return b.String()
}
