// Package critic implements the Global Policy Critic: an independent
// second pass over any agent's draft text that decides approve /
// auto-revise / manual-review, applies deterministic auto-revisions, and
// emits a compliance score.
//
// Grounded on internal/validator (the four check families it orchestrates)
// and internal/policy (the Policy Store snapshot it reads); its isolation
// invariant — receiving only the Policy and Domain layers, never Session
// or Ephemeral — is enforced structurally: Input below carries no session
// or ephemeral fields at all, so a caller cannot accidentally leak
// transient context into a policy decision.
package critic

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ledgerline/procureagent/internal/validator"
	"github.com/ledgerline/procureagent/pkg/types"
)

// Input is everything the critic is allowed to see: the agent's draft
// text and the same discount/category facts the validator's check
// families need. No session or ephemeral material ever reaches here.
type Input struct {
	Text         string
	Category     string
	DiscountFrac float64
	HasDiscount  bool
}

// Critic runs the Policy Validator and decides/executes on its findings.
type Critic struct {
	validator *validator.Validator
}

// New constructs a Critic backed by the given Validator.
func New(v *validator.Validator) *Critic {
	return &Critic{validator: v}
}

// Review runs the four check families against in, decides the action to
// take, applies auto-revisions where the decision calls for it, and
// returns the full critic outcome with its compliance score.
func (c *Critic) Review(in Input) types.CriticOutcome {
	start := time.Now()

	violations := c.validator.Validate(validator.Check{
		Text:         in.Text,
		DiscountFrac: in.DiscountFrac,
		HasDiscount:  in.HasDiscount,
		Category:     in.Category,
	})

	action := decideAction(violations)

	var revised string
	if action == types.ActionAutoRevised {
		revised = applyAutoRevisions(in.Text, violations)
	}

	return types.CriticOutcome{
		OriginalText:    in.Text,
		RevisedText:     revised,
		Violations:      violations,
		ActionTaken:     action,
		ComplianceScore: complianceScore(violations),
		Notes:           notesFor(action, violations),
		ElapsedMs:       time.Since(start).Milliseconds(),
		ChecksPerformed: policyChecksPerformed,
	}
}

// policyChecksPerformed names the four check families the Policy
// Validator always runs, for the audit trail's record of what a review
// actually verified.
var policyChecksPerformed = []string{
	"prohibited clause detection",
	"missing warranty check",
	"unauthorized discount check",
	"budget threshold check",
}

// decideAction is a pure function of the violation list, per §4.5:
//   - no violations -> Approved
//   - every violation auto-fixable -> AutoRevised
//   - any CRITICAL non-fixable, or anything else -> ManualReviewRequired
func decideAction(violations []types.Violation) types.ActionTaken {
	if len(violations) == 0 {
		return types.ActionApproved
	}
	for _, v := range violations {
		if !v.AutoFixable {
			return types.ActionManualReviewRequired
		}
	}
	return types.ActionAutoRevised
}

// complianceScore is max(0, 1 - sum(severity weight) / max(1, n)).
func complianceScore(violations []types.Violation) float64 {
	if len(violations) == 0 {
		return 1.0
	}
	var sum float64
	for _, v := range violations {
		sum += v.Severity.Weight()
	}
	score := 1 - sum/float64(len(violations))
	if score < 0 {
		return 0
	}
	return score
}

func notesFor(action types.ActionTaken, violations []types.Violation) []string {
	if len(violations) == 0 {
		return nil
	}
	notes := make([]string, 0, len(violations))
	for _, v := range violations {
		notes = append(notes, string(v.Kind)+": "+v.Description)
	}
	return notes
}

// FinalStatus maps a critic outcome to the workflow's externally visible
// compliance status, per §4.5: a score >= 0.9 with no violations is
// Compliant; AutoRevised maps to Revised; ManualReviewRequired to
// Flagged; anything else to NonCompliant.
func FinalStatus(outcome types.CriticOutcome) types.FinalStatus {
	switch {
	case len(outcome.Violations) == 0 && outcome.ComplianceScore >= 0.9:
		return types.StatusCompliant
	case outcome.ActionTaken == types.ActionAutoRevised:
		return types.StatusRevised
	case outcome.ActionTaken == types.ActionManualReviewRequired:
		return types.StatusFlagged
	default:
		return types.StatusNonCompliant
	}
}

var discountPercentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)

const standardWarrantyParagraph = "\n\nStandard Warranty: Vendor warrants all deliverables against defects for twelve months from acceptance, with commercially reasonable remediation at no additional cost."

const complianceNoteParagraph = "\n\nCompliance Note: This amount exceeds the configured category budget threshold and requires manual budget review before execution."

// applyAutoRevisions applies the per-kind deterministic transform from
// §4.5 for every violation in the AutoRevised branch.
func applyAutoRevisions(text string, violations []types.Violation) string {
	revised := applyProhibitedClauseFixes(text, violations)
	appliedWarranty := false
	appliedBudgetNote := false

	for _, v := range violations {
		switch v.Kind {
		case types.ViolationMissingWarranty:
			if !appliedWarranty {
				revised += standardWarrantyParagraph
				appliedWarranty = true
			}
		case types.ViolationUnauthorizedDiscount:
			revised = capDiscountsAbove25(revised)
		case types.ViolationBudgetExceeded:
			if !appliedBudgetNote {
				revised += complianceNoteParagraph
				appliedBudgetNote = true
			}
		}
	}

	return revised
}

// applyProhibitedClauseFixes substitutes every ViolationProhibitedClause's
// matched phrase (recovered from its byte-offset location in the original
// text) with its canonical rewrite. Every violation's Location is an offset
// into the original, unmodified text, so spans are collected up front and
// applied right-to-left by start offset: each substitution only rewrites
// text to its right, leaving the not-yet-applied spans' offsets (all to its
// left) valid for the next substitution.
func applyProhibitedClauseFixes(text string, violations []types.Violation) string {
	type span struct {
		start, end int
		fix        string
	}
	var spans []span
	for _, v := range violations {
		if v.Kind != types.ViolationProhibitedClause {
			continue
		}
		start, end, ok := parseLocation(v.Location)
		if !ok || start < 0 || end > len(text) || start >= end || v.SuggestedFix == "" {
			continue
		}
		spans = append(spans, span{start, end, v.SuggestedFix})
	}
	if len(spans) == 0 {
		return text
	}

	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start > spans[j].start })

	revised := text
	for _, s := range spans {
		revised = revised[:s.start] + s.fix + revised[s.end:]
	}
	return revised
}

func parseLocation(location string) (int, int, bool) {
	parts := strings.SplitN(location, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, err1 := strconv.Atoi(parts[0])
	end, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return start, end, true
}

// capDiscountsAbove25 replaces every "NN%" occurrence exceeding 25% with
// "25%", per §4.5's unauthorized-discount auto-revision.
func capDiscountsAbove25(text string) string {
	return discountPercentPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := discountPercentPattern.FindStringSubmatch(match)
		if len(groups) != 2 {
			return match
		}
		value, err := strconv.ParseFloat(groups[1], 64)
		if err != nil || value <= 25 {
			return match
		}
		return "25%"
	})
}
