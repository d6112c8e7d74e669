package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledgerline/procureagent/internal/contextlayer"
	"github.com/ledgerline/procureagent/internal/llm"
	"github.com/ledgerline/procureagent/pkg/types"
)

// NegotiationAgent drafts a vendor negotiation proposal: contract terms,
// warranty coverage scaled to the requested discount depth, and risk
// mitigations, then asks the model provider for a short narrative framing
// of the strategy.
type NegotiationAgent struct {
	provider llm.Provider
}

func (a *NegotiationAgent) Kind() types.AgentKind { return types.AgentNegotiation }

// ValidatePayload enforces the Negotiation payload's required fields and
// normalizes TargetDiscount exactly once: values already in [0,1] are left
// alone; values in (1,100] are assumed to be a percentage and divided by
// 100. A value still above 1.0 after that single normalization pass is
// rejected rather than normalized again.
func (a *NegotiationAgent) ValidatePayload(req types.RequestEnvelope) error {
	p := req.Negotiation
	if p == nil {
		return &ValidationError{Field: "negotiation", Message: "payload is required"}
	}
	if strings.TrimSpace(p.Vendor) == "" {
		return &ValidationError{Field: "vendor", Message: "must not be empty"}
	}
	if strings.TrimSpace(p.Category) == "" {
		return &ValidationError{Field: "category", Message: "must not be empty"}
	}
	if p.CurrentPrice < 0 {
		return &ValidationError{Field: "current_price", Message: "must not be negative"}
	}
	if p.TargetDiscount < 0 {
		return &ValidationError{Field: "target_discount", Message: "must not be negative"}
	}
	normalized := p.TargetDiscount
	if normalized > 1 {
		normalized = normalized / 100
	}
	if normalized > 1.0 {
		return &ValidationError{Field: "target_discount", Message: "exceeds 100% even after percentage normalization"}
	}
	p.TargetDiscount = normalized
	return nil
}

// warrantyLexicon maps a category prefix to the warranty clauses a
// proposal in that category should carry, in addition to the tiered
// discount-depth warranties below.
var warrantyLexicon = map[string][]string{
	"software": {"90-day defect remediation SLA", "security patch commitment for the contract term"},
	"hardware": {"12-month parts and labor coverage", "advance replacement for dead-on-arrival units"},
	"service":  {"service level credits for missed availability targets"},
}

func (a *NegotiationAgent) Process(ctx context.Context, req types.RequestEnvelope, assembled contextlayer.Assembled) (Result, error) {
	p := req.Negotiation

	terms := []string{
		fmt.Sprintf("Base price %.2f with a %.1f%% negotiated discount", p.CurrentPrice, p.TargetDiscount*100),
	}
	if p.ContractDuration != "" {
		terms = append(terms, "Contract duration: "+p.ContractDuration)
	}
	if p.VolumeCommitment != "" {
		terms = append(terms, "Volume commitment: "+p.VolumeCommitment)
	}
	terms = append(terms, "Net-30 payment terms", "Termination for convenience with 30 days' notice")

	var warranties []string
	if p.TargetDiscount >= 0.15 {
		warranties = append(warranties,
			"Standard one-year defect warranty",
			"Extended support coverage for the contract term",
			"Price protection against list-price increases",
		)
	}
	if p.TargetDiscount >= 0.25 {
		warranties = append(warranties,
			"Liquidated-damages carve-out review before signature",
			"Quarterly business review with the vendor's account team",
			"Right to audit invoiced volumes against committed minimums",
		)
	}
	for prefix, clauses := range warrantyLexicon {
		if strings.HasPrefix(strings.ToLower(p.Category), prefix) {
			warranties = append(warranties, clauses...)
		}
	}

	risk := []string{
		"Cap vendor liability exposure at twelve months of fees paid",
		"Require a named escalation contact for service disruptions",
	}
	if p.TargetDiscount >= 0.25 {
		risk = append(risk, "Escalate for legal review given the depth of the requested discount")
	}

	narrative := generateNarrative(ctx, a.provider,
		"You are a procurement negotiation strategist. Summarize the negotiation approach in two sentences.",
		fmt.Sprintf("Vendor %s, current price %.2f, target discount %.1f%%, category %s.",
			p.Vendor, p.CurrentPrice, p.TargetDiscount*100, p.Category),
		fmt.Sprintf("Lead with the %.1f%% volume-backed discount ask and trade contract duration for price protection on %s.",
			p.TargetDiscount*100, p.Vendor),
	)

	confidence := 0.85
	if p.TargetDiscount >= 0.25 {
		confidence -= 0.15
	}

	artifact := types.NegotiationArtifact{
		Vendor:            p.Vendor,
		Price:             p.CurrentPrice * (1 - p.TargetDiscount),
		Discount:          p.TargetDiscount,
		ContractTerms:     terms,
		WarrantyList:      warranties,
		RiskMitigation:    risk,
		NarrativeStrategy: narrative,
		Confidence:        confidence,
	}

	text := renderNegotiationText(artifact)

	return Result{
		Text:            text,
		Confidence:      confidence,
		Recommendations: risk,
		Artifact:        artifact,
	}, nil
}

func renderNegotiationText(a types.NegotiationArtifact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Negotiation proposal for %s at %.2f (%.1f%% discount).\n\n", a.Vendor, a.Price, a.Discount*100)
	b.WriteString("Contract Terms:\n")
	for _, t := range a.ContractTerms {
		b.WriteString("- " + t + "\n")
	}
	if len(a.WarrantyList) > 0 {
		b.WriteString("\nWarranties:\n")
		for _, w := range a.WarrantyList {
			b.WriteString("- " + w + "\n")
		}
	}
	if len(a.RiskMitigation) > 0 {
		b.WriteString("\nRisk Mitigation:\n")
		for _, r := range a.RiskMitigation {
			b.WriteString("- " + r + "\n")
		}
	}
	if a.NarrativeStrategy != "" {
		b.WriteString("\nStrategy: " + a.NarrativeStrategy + "\n")
	}
	return b.String()
}
