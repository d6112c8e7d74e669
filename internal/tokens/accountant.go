// Package tokens provides deterministic token-count estimation for the
// context budgeting pipeline.
//
// Responsibilities:
//   - Estimate the token cost of a string without calling the model provider
//   - Validate an estimate against a budget with a fixed tolerance
//   - Sum estimates over ordered sequences and key-value mappings
//
// The estimator is a contract, not an oracle: callers rely on it being
// deterministic and monotone (appending content never lowers the count),
// since the Context Assembler's pruning hierarchy and the enterprise-
// alignment invariant both depend on that property holding exactly.
package tokens

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ContentKind declares the flavor of text being estimated; the estimator
// applies a different per-word multiplier for each.
type ContentKind string

const (
	KindPlain      ContentKind = "plain"
	KindCode       ContentKind = "code"
	KindStructured ContentKind = "structured"
	KindTechnical  ContentKind = "technical"
)

func multiplier(kind ContentKind) float64 {
	switch kind {
	case KindCode:
		return 1.5
	case KindStructured:
		return 1.2
	case KindTechnical:
		return 1.4
	default:
		return 1.3
	}
}

// Accountant estimates and validates token budgets. It is stateless and
// safe for concurrent use.
type Accountant struct{}

// NewAccountant returns a ready-to-use Token Accountant.
func NewAccountant() *Accountant {
	return &Accountant{}
}

// Estimate returns the estimated token count of text under the given
// content kind. Empty or whitespace-only input yields 0; any other
// non-empty input yields at least 1.
func (a *Accountant) Estimate(text string, kind ContentKind) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	words := len(strings.Fields(text))
	punct := 0
	for _, r := range text {
		if strings.ContainsRune(".,;:!?\"'()[]{}-", r) {
			punct++
		}
	}

	raw := (float64(words) + 0.5*float64(punct)) * multiplier(kind)
	count := int(math.Ceil(raw))
	if count < 1 {
		count = 1
	}
	return count
}

// EstimatePlain is a convenience wrapper for the common plain-text case.
func (a *Accountant) EstimatePlain(text string) int {
	return a.Estimate(text, KindPlain)
}

// Validate reports whether actual is within budget, allowing the given
// fractional tolerance (e.g. 0.05 for 5%).
func (a *Accountant) Validate(actual, budget int, tolerance float64) bool {
	limit := float64(budget) * (1 + tolerance)
	return float64(actual) <= limit
}

// SumStrings estimates and sums tokens over an ordered sequence of
// strings, all under the same content kind.
func (a *Accountant) SumStrings(items []string, kind ContentKind) int {
	total := 0
	for _, item := range items {
		total += a.Estimate(item, kind)
	}
	return total
}

// SumMapping serializes a key-value mapping to its printable form
// (sorted by key for determinism) and estimates tokens over that form.
func (a *Accountant) SumMapping(m map[string]string, kind ContentKind) int {
	if len(m) == 0 {
		return 0
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("%s=%s\n", k, m[k]))
	}
	return a.Estimate(sb.String(), kind)
}
