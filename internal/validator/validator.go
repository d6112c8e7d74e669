// Package validator implements the Policy Validator: four stateless check
// families run against a text-and-request pair, each producing typed
// violations the Global Policy Critic later decides and acts on.
//
// Every check here is pure and deterministic; the validator makes no
// model-provider call, so no violation depends on a model being reachable.
// There is no model-assisted pass.
package validator

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ledgerline/procureagent/internal/policy"
	"github.com/ledgerline/procureagent/pkg/types"
)

const (
	missingWarrantyThreshold     = 0.15
	unauthorizedDiscountThreshold = 0.25
	unauthorizedDiscountCap       = 0.25
)

var (
	percentPattern  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	currencyPattern = regexp.MustCompile(`\$?\s*(\d{1,3}(?:,\d{3})*(?:\.\d+)?|\d+(?:\.\d+)?)`)
	warrantyWords   = []string{"warranty", "warranties", "guarantee", "protection"}
)

// Validator runs the four policy check families against a Policy Store
// snapshot.
type Validator struct {
	store *policy.Store
}

// New constructs a Validator backed by the given Policy Store.
func New(store *policy.Store) *Validator {
	return &Validator{store: store}
}

// Check bundles the inputs the four check families may each need: the
// candidate text, an optional explicit discount fraction (already
// normalized to [0,1]), and an optional category for the budget check.
type Check struct {
	Text           string
	DiscountFrac   float64
	HasDiscount    bool
	Category       string
}

// Validate runs all four check families and returns the combined
// violation list.
func (v *Validator) Validate(c Check) []types.Violation {
	var violations []types.Violation
	violations = append(violations, v.scanProhibitedClauses(c.Text)...)
	violations = append(violations, v.checkMissingWarranty(c)...)
	violations = append(violations, v.checkUnauthorizedDiscount(c)...)
	violations = append(violations, v.checkBudget(c)...)
	return violations
}

// scanProhibitedClauses is check family 1: case-insensitive substring
// match against the prohibited-clause catalog, reporting byte offsets and
// a canned rewrite suggestion.
func (v *Validator) scanProhibitedClauses(text string) []types.Violation {
	lower := strings.ToLower(text)
	layer := v.store.PolicyLayer()

	var violations []types.Violation
	for _, clause := range layer.ProhibitedClauses {
		for _, variant := range clause.Variations {
			idx := strings.Index(lower, strings.ToLower(variant))
			if idx < 0 {
				continue
			}
			violations = append(violations, types.Violation{
				Kind:         types.ViolationProhibitedClause,
				Severity:     types.SeverityHigh,
				Description:  fmt.Sprintf("prohibited clause %q detected", clause.Canonical),
				Location:     fmt.Sprintf("%d-%d", idx, idx+len(variant)),
				SuggestedFix: clause.Rewrite,
				AutoFixable:  true,
				PolicyRef:    clause.Canonical,
			})
			break
		}
	}
	return violations
}

// checkMissingWarranty is check family 2: a discount above the threshold
// with no warranty-family word present is a MEDIUM, auto-fixable
// violation.
func (v *Validator) checkMissingWarranty(c Check) []types.Violation {
	discount, ok := extractDiscount(c)
	if !ok || discount <= missingWarrantyThreshold {
		return nil
	}
	lower := strings.ToLower(c.Text)
	for _, w := range warrantyWords {
		if strings.Contains(lower, w) {
			return nil
		}
	}
	return []types.Violation{{
		Kind:         types.ViolationMissingWarranty,
		Severity:     types.SeverityMedium,
		Description:  "discount exceeds 15% with no warranty language present",
		SuggestedFix: "append a standard warranty paragraph",
		AutoFixable:  true,
	}}
}

// checkUnauthorizedDiscount is check family 3: any discount above 25% is
// a HIGH, auto-fixable violation (cap to 25%).
func (v *Validator) checkUnauthorizedDiscount(c Check) []types.Violation {
	discount, ok := extractDiscount(c)
	if !ok || discount <= unauthorizedDiscountThreshold {
		return nil
	}
	return []types.Violation{{
		Kind:         types.ViolationUnauthorizedDiscount,
		Severity:     types.SeverityHigh,
		Description:  fmt.Sprintf("discount %.1f%% exceeds the 25%% authorization ceiling", discount*100),
		SuggestedFix: "cap discount at 25%",
		AutoFixable:  true,
	}}
}

// checkBudget is check family 4: the first currency-like number in the
// text compared against the category threshold is a CRITICAL violation,
// auto-fixable only by annotation (the amount itself cannot be silently
// changed).
func (v *Validator) checkBudget(c Check) []types.Violation {
	if c.Category == "" {
		return nil
	}
	amount, ok := firstCurrencyAmount(c.Text)
	if !ok {
		return nil
	}
	layer := v.store.PolicyLayer()
	threshold, ok := layer.BudgetThresholds[strings.ToLower(c.Category)]
	if !ok || amount <= threshold {
		return nil
	}
	return []types.Violation{{
		Kind:         types.ViolationBudgetExceeded,
		Severity:     types.SeverityCritical,
		Description:  fmt.Sprintf("amount %.2f exceeds %s threshold %.2f", amount, c.Category, threshold),
		SuggestedFix: "annotate for manual budget review",
		AutoFixable:  true,
		PolicyRef:    c.Category,
	}}
}

// extractDiscount prefers the explicit DiscountFrac field; failing that,
// it extracts the first "NN%" occurrence in the text and returns it as a
// fraction.
func extractDiscount(c Check) (float64, bool) {
	if c.HasDiscount {
		return c.DiscountFrac, true
	}
	m := percentPattern.FindStringSubmatch(c.Text)
	if m == nil {
		return 0, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return pct / 100, true
}

// firstCurrencyAmount returns the first currency-like number in text.
func firstCurrencyAmount(text string) (float64, bool) {
	m := currencyPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	clean := strings.ReplaceAll(m[1], ",", "")
	amount, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	return math.Abs(amount), true
}
