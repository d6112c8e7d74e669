// Package policy holds the enterprise Policy Store: the single source of
// truth for prohibited/required clauses, per-category spend thresholds,
// OKRs, guardrails, legal requirements, and compliance rules.
//
// The store is loaded once at startup and is read-mostly afterward;
// Reload swaps in a new snapshot atomically so concurrent readers never
// observe a half-updated policy set. This mirrors the immutable-rules-
// plus-mutex-guarded-snapshot shape the rest of this codebase's
// configuration and policy components use.
package policy

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ledgerline/procureagent/pkg/types"
)

// requiredClausePresenceThreshold (T) gates the required-clause check: it
// only runs on text long enough that a missing clause is meaningfully
// suspicious, avoiding false positives on short single-clause fragments.
const requiredClausePresenceThreshold = 200

// Layer is the immutable Policy-layer payload: the P layer of the
// four-layer context, copied verbatim into every assembled context.
type Layer struct {
	OKRs              []string
	ProhibitedClauses []ProhibitedClause
	RequiredClauses   []RequiredClause
	BudgetThresholds  map[string]float64
	Guardrails        []string
	LegalRequirements []string
}

// Text renders the Policy layer to the deterministic markdown form the
// Context Assembler embeds in every request's Policy layer. Field order
// is fixed so token counts are stable across calls.
func (l Layer) Text() string {
	var sb strings.Builder
	sb.WriteString("## Policy\n")

	sb.WriteString("### OKRs\n")
	for _, o := range l.OKRs {
		sb.WriteString("- " + o + "\n")
	}

	sb.WriteString("### Prohibited Clauses\n")
	for _, c := range l.ProhibitedClauses {
		sb.WriteString("- " + c.Canonical + "\n")
	}

	sb.WriteString("### Required Clauses\n")
	for _, c := range l.RequiredClauses {
		sb.WriteString("- " + c.Canonical + "\n")
	}

	sb.WriteString("### Budget Thresholds\n")
	for _, cat := range sortedKeys(l.BudgetThresholds) {
		sb.WriteString(fmt.Sprintf("- %s: %.2f\n", cat, l.BudgetThresholds[cat]))
	}

	sb.WriteString("### Guardrails\n")
	for _, g := range l.Guardrails {
		sb.WriteString("- " + g + "\n")
	}

	sb.WriteString("### Legal Requirements\n")
	for _, r := range l.LegalRequirements {
		sb.WriteString("- " + r + "\n")
	}

	return sb.String()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

type snapshot struct {
	layer Layer
	rules []types.ComplianceRule
}

// Store is the atomically-reloadable Policy Store singleton.
type Store struct {
	mu   sync.RWMutex
	snap *snapshot
}

// New constructs a Store from the given layer and compliance rules.
func New(layer Layer, rules []types.ComplianceRule) *Store {
	return &Store{snap: &snapshot{layer: layer, rules: rules}}
}

// NewDefault constructs a Store using the built-in catalogs and an empty
// rule set, suitable for tests and as a fallback when configuration
// fails to parse.
func NewDefault() *Store {
	return New(Layer{
		ProhibitedClauses: defaultProhibitedClauses(),
		RequiredClauses:   defaultRequiredClauses(),
		BudgetThresholds:  defaultBudgetThresholds(),
	}, nil)
}

// FromConfig builds a Layer from the §6 environment-sourced canonical
// phrase lists and budget thresholds. A canonical phrase already present
// in the built-in catalog keeps its known variations and canned rewrite;
// an unrecognized phrase is treated as its own sole variation with a
// generic rewrite suggestion, so operator-supplied clauses are still
// enforceable even without a hand-curated synonym list. Empty inputs fall
// back to the built-in catalog for that field.
func FromConfig(prohibited, required []string, thresholds map[string]float64) Layer {
	layer := Layer{BudgetThresholds: thresholds}
	if len(layer.BudgetThresholds) == 0 {
		layer.BudgetThresholds = defaultBudgetThresholds()
	}

	if len(prohibited) == 0 {
		layer.ProhibitedClauses = defaultProhibitedClauses()
	} else {
		known := make(map[string]ProhibitedClause, len(prohibited))
		for _, c := range defaultProhibitedClauses() {
			known[c.Canonical] = c
		}
		for _, name := range prohibited {
			if c, ok := known[name]; ok {
				layer.ProhibitedClauses = append(layer.ProhibitedClauses, c)
				continue
			}
			layer.ProhibitedClauses = append(layer.ProhibitedClauses, ProhibitedClause{
				Canonical:  name,
				Variations: []string{name},
				Rewrite:    "a compliant alternative to " + name,
			})
		}
	}

	if len(required) == 0 {
		layer.RequiredClauses = defaultRequiredClauses()
	} else {
		known := make(map[string]RequiredClause, len(required))
		for _, c := range defaultRequiredClauses() {
			known[c.Canonical] = c
		}
		for _, name := range required {
			if c, ok := known[name]; ok {
				layer.RequiredClauses = append(layer.RequiredClauses, c)
				continue
			}
			layer.RequiredClauses = append(layer.RequiredClauses, RequiredClause{
				Canonical:  name,
				Variations: []string{name},
			})
		}
	}

	return layer
}

// Reload atomically swaps in a new policy snapshot. Readers in flight
// continue to see the prior, fully-consistent snapshot.
func (s *Store) Reload(layer Layer, rules []types.ComplianceRule) {
	next := &snapshot{layer: layer, rules: rules}
	s.mu.Lock()
	s.snap = next
	s.mu.Unlock()
}

// PolicyLayer returns an immutable copy of the current Policy-layer
// payload.
func (s *Store) PolicyLayer() Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.layer
}

// ComplianceRules returns the current compliance rule list.
func (s *Store) ComplianceRules() []types.ComplianceRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.rules
}

// ValidateText lowercases text once, flags every prohibited clause one of
// whose detection variations appears, and — only when the text exceeds
// requiredClausePresenceThreshold characters — flags every required
// clause none of whose detection variations appears. It returns the
// violations found and a compliance score of
// max(0, (checks-violations)/checks).
func (s *Store) ValidateText(text string) ([]types.Violation, float64) {
	layer := s.PolicyLayer()
	lower := strings.ToLower(text)

	var violations []types.Violation
	checks := 0

	for _, clause := range layer.ProhibitedClauses {
		checks++
		if hit, variant := clause.matchesAny(lower); hit {
			violations = append(violations, types.Violation{
				Kind:        types.ViolationProhibitedClause,
				Severity:    types.SeverityHigh,
				Description: fmt.Sprintf("prohibited clause %q detected (matched %q)", clause.Canonical, variant),
				AutoFixable: true,
				PolicyRef:   clause.Canonical,
			})
		}
	}

	if len(text) > requiredClausePresenceThreshold {
		for _, clause := range layer.RequiredClauses {
			checks++
			if !clause.presentIn(lower) {
				violations = append(violations, types.Violation{
					Kind:        types.ViolationKind("missing_required_clause"),
					Severity:    types.SeverityMedium,
					Description: fmt.Sprintf("required clause %q is missing", clause.Canonical),
					AutoFixable: false,
					PolicyRef:   clause.Canonical,
				})
			}
		}
	}

	if checks == 0 {
		return violations, 1.0
	}
	score := float64(checks-len(violations)) / float64(checks)
	if score < 0 {
		score = 0
	}
	return violations, score
}

// ValidateBudget compares amount against the category's configured
// threshold. If the category has no threshold, it is treated as
// unconstrained (score 1.0, no violation).
func (s *Store) ValidateBudget(category string, amount float64) ([]types.Violation, float64) {
	layer := s.PolicyLayer()
	threshold, ok := layer.BudgetThresholds[strings.ToLower(category)]
	if !ok || amount <= threshold {
		return nil, 1.0
	}
	return []types.Violation{{
		Kind:        types.ViolationBudgetThresholdExceeded,
		Severity:    types.SeverityMedium,
		Description: fmt.Sprintf("amount %.2f exceeds %s threshold %.2f", amount, category, threshold),
		AutoFixable: false,
		PolicyRef:   category,
	}}, 0.5
}

// ValidateComprehensive runs ValidateText and, when category/amount are
// supplied, ValidateBudget, combining both violation lists and taking
// the minimum of the two scores.
func (s *Store) ValidateComprehensive(text string, category string, amount float64, hasAmount bool) ([]types.Violation, float64) {
	violations, textScore := s.ValidateText(text)
	score := textScore
	if category != "" && hasAmount {
		budgetViolations, budgetScore := s.ValidateBudget(category, amount)
		violations = append(violations, budgetViolations...)
		if budgetScore < score {
			score = budgetScore
		}
	}
	return violations, score
}
