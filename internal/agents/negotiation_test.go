package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/ledgerline/procureagent/internal/contextlayer"
	"github.com/ledgerline/procureagent/internal/llm"
	"github.com/ledgerline/procureagent/pkg/types"
)

func TestNegotiationValidatePayloadNormalizesPercent(t *testing.T) {
	a := &NegotiationAgent{provider: llm.NewMockProvider()}
	req := types.RequestEnvelope{Negotiation: &types.NegotiationPayload{
		Vendor: "Acme", Category: "software", CurrentPrice: 1000, TargetDiscount: 20,
	}}
	if err := a.ValidatePayload(req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Negotiation.TargetDiscount != 0.20 {
		t.Errorf("expected normalized discount 0.20, got %f", req.Negotiation.TargetDiscount)
	}
}

func TestNegotiationValidatePayloadRejectsDoublyLargeDiscount(t *testing.T) {
	a := &NegotiationAgent{provider: llm.NewMockProvider()}
	req := types.RequestEnvelope{Negotiation: &types.NegotiationPayload{
		Vendor: "Acme", Category: "software", CurrentPrice: 1000, TargetDiscount: 150,
	}}
	if err := a.ValidatePayload(req); err == nil {
		t.Fatal("expected an error for a discount still above 1.0 after normalization")
	}
}

func TestNegotiationValidatePayloadRequiresVendor(t *testing.T) {
	a := &NegotiationAgent{provider: llm.NewMockProvider()}
	req := types.RequestEnvelope{Negotiation: &types.NegotiationPayload{
		Category: "software", CurrentPrice: 1000, TargetDiscount: 0.1,
	}}
	if err := a.ValidatePayload(req); err == nil {
		t.Fatal("expected an error for missing vendor")
	}
}

func TestNegotiationValidatePayloadAllowsMissingCurrentPrice(t *testing.T) {
	a := &NegotiationAgent{provider: llm.NewMockProvider()}
	req := types.RequestEnvelope{Negotiation: &types.NegotiationPayload{
		Vendor: "Acme", Category: "software", TargetDiscount: 25.0,
	}}
	if err := a.ValidatePayload(req); err != nil {
		t.Fatalf("current_price is optional, unexpected error: %v", err)
	}
}

func TestNegotiationProcessInjectsTieredWarranties(t *testing.T) {
	a := &NegotiationAgent{provider: llm.NewMockProvider()}
	req := types.RequestEnvelope{Negotiation: &types.NegotiationPayload{
		Vendor: "Acme", Category: "software", CurrentPrice: 1000, TargetDiscount: 0.30,
	}}
	result, err := a.Process(context.Background(), req, contextlayer.Assembled{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	artifact := result.Artifact.(types.NegotiationArtifact)
	if len(artifact.WarrantyList) < 5 {
		t.Errorf("expected both discount-depth tiers plus category warranties, got %v", artifact.WarrantyList)
	}
	if !strings.Contains(result.Text, "Negotiation proposal for Acme") {
		t.Errorf("expected rendered text to include vendor name, got: %s", result.Text)
	}
}

func TestNegotiationProcessLowDiscountSkipsTieredWarranties(t *testing.T) {
	a := &NegotiationAgent{provider: llm.NewMockProvider()}
	req := types.RequestEnvelope{Negotiation: &types.NegotiationPayload{
		Vendor: "Acme", Category: "office supplies", CurrentPrice: 1000, TargetDiscount: 0.05,
	}}
	result, err := a.Process(context.Background(), req, contextlayer.Assembled{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	artifact := result.Artifact.(types.NegotiationArtifact)
	if len(artifact.WarrantyList) != 0 {
		t.Errorf("expected no tiered warranties below 15%% discount, got %v", artifact.WarrantyList)
	}
}
