package agents

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ledgerline/procureagent/internal/contextlayer"
	"github.com/ledgerline/procureagent/internal/llm"
	"github.com/ledgerline/procureagent/pkg/types"
)

// ForecastAgent projects a planned spend against its category budget,
// tiers the resulting variance, scores OKR alignment by keyword overlap,
// and routes the result to the approval path its variance and dollar
// amount require.
type ForecastAgent struct {
	provider llm.Provider
}

func (a *ForecastAgent) Kind() types.AgentKind { return types.AgentForecast }

func (a *ForecastAgent) ValidatePayload(req types.RequestEnvelope) error {
	p := req.Forecast
	if p == nil {
		return &ValidationError{Field: "forecast", Message: "payload is required"}
	}
	if strings.TrimSpace(p.Category) == "" {
		return &ValidationError{Field: "category", Message: "must not be empty"}
	}
	if !matchesQuarter(p.Quarter, time.Now().Year()) {
		return &ValidationError{Field: "quarter", Message: "must match 'Q[1-4] YYYY' with YYYY in [current_year, current_year+5]"}
	}
	if p.CurrentBudget < 0 {
		return &ValidationError{Field: "current_budget", Message: "must not be negative"}
	}
	if p.PlannedSpend < 0 {
		return &ValidationError{Field: "planned_spend", Message: "must not be negative"}
	}
	return nil
}

// matchesQuarter checks the 'Q[1-4] YYYY' format and that YYYY falls in
// [currentYear, currentYear+5], per §3's Forecast payload constraint.
func matchesQuarter(q string, currentYear int) bool {
	if len(q) != 7 {
		return false
	}
	if q[0] != 'Q' || q[1] < '1' || q[1] > '4' || q[2] != ' ' {
		return false
	}
	for _, r := range q[3:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	year, err := strconv.Atoi(q[3:])
	if err != nil {
		return false
	}
	return year >= currentYear && year <= currentYear+5
}

// strategicOKRs is the fixed OKR catalog each forecast is scored against
// by keyword overlap with Justification and StrategicPriority.
var strategicOKRs = []struct {
	name     string
	keywords []string
}{
	{"Reduce vendor concentration risk", []string{"vendor", "diversif", "single-source", "supplier"}},
	{"Improve unit economics", []string{"cost", "efficien", "margin", "unit economics"}},
	{"Accelerate product delivery", []string{"roadmap", "launch", "delivery", "velocity"}},
	{"Strengthen compliance posture", []string{"compliance", "audit", "risk", "regulat"}},
}

func (a *ForecastAgent) Process(ctx context.Context, req types.RequestEnvelope, assembled contextlayer.Assembled) (Result, error) {
	p := req.Forecast

	variance := p.PlannedSpend - p.CurrentBudget
	variancePercent := 0.0
	if p.CurrentBudget != 0 {
		variancePercent = variance / p.CurrentBudget * 100
	}
	tier := varianceTier(variancePercent)

	alignments := scoreOKRAlignments(p.Justification + " " + p.StrategicPriority)

	tradeOffs := tradeOffRecommendations(tier, p)
	adjustments := budgetAdjustments(tier, variance)
	riskFactors := riskFactorsFor(tier, alignments)
	approvals, executiveRequired := approvalRouting(tier, p.PlannedSpend)

	confidence := 0.8
	if tier == types.VarianceCriticalOverage {
		confidence -= 0.2
	}

	narrative := generateNarrative(ctx, a.provider,
		"You are a budget forecasting analyst. Summarize the variance and its business impact in two sentences.",
		fmt.Sprintf("Category %s, quarter %s, planned %.2f vs budget %.2f (%.1f%% variance).",
			p.Category, p.Quarter, p.PlannedSpend, p.CurrentBudget, variancePercent),
		fmt.Sprintf("Spend trajectory for %s in %s is %.1f%% off budget, tier %s.", p.Category, p.Quarter, variancePercent, tier),
	)

	artifact := types.ForecastArtifact{
		VarianceAmount:            variance,
		VariancePercent:           variancePercent,
		VarianceTier:              tier,
		OKRAlignments:             alignments,
		TradeOffRecommendations:   tradeOffs,
		BudgetAdjustments:         adjustments,
		RiskFactors:               riskFactors,
		ApprovalRequirements:      approvals,
		RequiresExecutiveApproval: executiveRequired,
		Confidence:                confidence,
	}

	return Result{
		Text:            renderForecastText(artifact, narrative),
		Confidence:      confidence,
		Recommendations: tradeOffs,
		Artifact:        artifact,
	}, nil
}

// varianceTier buckets |variancePercent|: >=25% critical (over), >=15%
// significant (over), and in both bands under_budget when negative; >=5%
// minor (over only); else on_target.
func varianceTier(variancePercent float64) types.VarianceTier {
	abs := variancePercent
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 25:
		if variancePercent < 0 {
			return types.VarianceUnderBudget
		}
		return types.VarianceCriticalOverage
	case abs >= 15:
		if variancePercent < 0 {
			return types.VarianceUnderBudget
		}
		return types.VarianceSignificantOverage
	case abs >= 5 && variancePercent > 0:
		return types.VarianceMinorOverage
	default:
		return types.VarianceOnTarget
	}
}

func scoreOKRAlignments(text string) []types.OKRAlignment {
	lower := strings.ToLower(text)
	alignments := make([]types.OKRAlignment, 0, len(strategicOKRs))
	for _, okr := range strategicOKRs {
		hits := 0
		for _, kw := range okr.keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		score := float64(hits) / float64(len(okr.keywords))
		status := types.OKRUnknown
		switch {
		case hits == 0:
			status = types.OKRUnknown
		case score >= 0.5:
			status = types.OKRAligned
		case score > 0:
			status = types.OKRPartiallyAligned
		default:
			status = types.OKRMisaligned
		}
		alignments = append(alignments, types.OKRAlignment{OKR: okr.name, Status: status, Score: score})
	}
	return alignments
}

func tradeOffRecommendations(tier types.VarianceTier, p *types.ForecastPayload) []string {
	switch tier {
	case types.VarianceCriticalOverage:
		return []string{"Defer non-critical line items to the following quarter", "Renegotiate vendor pricing before committing spend"}
	case types.VarianceSignificantOverage:
		return []string{"Phase spend across two quarters to smooth the overage"}
	case types.VarianceMinorOverage:
		return []string{"Absorb within contingency reserve if available"}
	case types.VarianceUnderBudget:
		return []string{"Reallocate unspent budget to adjacent strategic priorities"}
	default:
		return nil
	}
}

func budgetAdjustments(tier types.VarianceTier, variance float64) []string {
	if tier == types.VarianceOnTarget {
		return nil
	}
	return []string{fmt.Sprintf("Adjust category budget by %.2f to reconcile projected variance", -variance)}
}

func riskFactorsFor(tier types.VarianceTier, alignments []types.OKRAlignment) []string {
	var risks []string
	if tier == types.VarianceCriticalOverage || tier == types.VarianceSignificantOverage {
		risks = append(risks, "Spend trajectory threatens quarterly budget commitments")
	}
	misaligned := 0
	for _, a := range alignments {
		if a.Status == types.OKRMisaligned {
			misaligned++
		}
	}
	if misaligned > 0 {
		risks = append(risks, "Spend does not clearly trace to a strategic OKR")
	}
	return risks
}

// approvalRouting returns the required approval chain and whether
// executive sign-off is mandatory: >= $500k requires board approval,
// >= $100k requires executive approval, a critical-overage tier requires
// CFO sign-off, a significant-overage tier requires finance director
// sign-off, otherwise standard manager approval suffices.
func approvalRouting(tier types.VarianceTier, plannedSpend float64) ([]string, bool) {
	var chain []string
	executive := false

	switch {
	case plannedSpend >= 500000:
		chain = append(chain, "Board approval required")
		executive = true
	case plannedSpend >= 100000:
		chain = append(chain, "Executive approval required")
		executive = true
	}

	switch tier {
	case types.VarianceCriticalOverage:
		chain = append(chain, "CFO sign-off required")
		executive = true
	case types.VarianceSignificantOverage:
		chain = append(chain, "Finance director sign-off required")
	}

	if len(chain) == 0 {
		chain = append(chain, "Standard manager approval")
	}
	return chain, executive
}

func renderForecastText(a types.ForecastArtifact, narrative string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Forecast analysis: variance %.2f (%.1f%%), tier %s.\n\n", a.VarianceAmount, a.VariancePercent, a.VarianceTier)
	b.WriteString("OKR Alignment:\n")
	for _, o := range a.OKRAlignments {
		fmt.Fprintf(&b, "- %s: %s (%.2f)\n", o.OKR, o.Status, o.Score)
	}
	if len(a.TradeOffRecommendations) > 0 {
		b.WriteString("\nTrade-Off Recommendations:\n")
		for _, t := range a.TradeOffRecommendations {
			b.WriteString("- " + t + "\n")
		}
	}
	if len(a.ApprovalRequirements) > 0 {
		b.WriteString("\nApproval Requirements:\n")
		for _, ap := range a.ApprovalRequirements {
			b.WriteString("- " + ap + "\n")
		}
	}
	if narrative != "" {
		b.WriteString("\nNarrative: " + narrative + "\n")
	}
	return b.String()
}
