package agents

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ledgerline/procureagent/internal/contextlayer"
	"github.com/ledgerline/procureagent/internal/llm"
	"github.com/ledgerline/procureagent/pkg/types"
)

func TestForecastValidatePayloadRejectsMalformedQuarter(t *testing.T) {
	a := &ForecastAgent{provider: llm.NewMockProvider()}
	req := types.RequestEnvelope{Forecast: &types.ForecastPayload{
		Category: "software", Quarter: "Q5 2026", CurrentBudget: 1000, PlannedSpend: 900,
	}}
	if err := a.ValidatePayload(req); err == nil {
		t.Fatal("expected an error for an invalid quarter")
	}
}

func TestForecastValidatePayloadRejectsQuarterTooFarInFuture(t *testing.T) {
	a := &ForecastAgent{provider: llm.NewMockProvider()}
	req := types.RequestEnvelope{Forecast: &types.ForecastPayload{
		Category: "software", Quarter: "Q3 2099", CurrentBudget: 1000, PlannedSpend: 900,
	}}
	if err := a.ValidatePayload(req); err == nil {
		t.Fatal("expected an error for a quarter year beyond current_year+5")
	}
}

func TestForecastValidatePayloadAcceptsWellFormedQuarter(t *testing.T) {
	a := &ForecastAgent{provider: llm.NewMockProvider()}
	quarter := fmt.Sprintf("Q3 %d", time.Now().Year())
	req := types.RequestEnvelope{Forecast: &types.ForecastPayload{
		Category: "software", Quarter: quarter, CurrentBudget: 1000, PlannedSpend: 900,
	}}
	if err := a.ValidatePayload(req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVarianceTierBuckets(t *testing.T) {
	cases := []struct {
		percent float64
		want    types.VarianceTier
	}{
		{2, types.VarianceOnTarget},
		{10, types.VarianceMinorOverage},
		{20, types.VarianceSignificantOverage},
		{30, types.VarianceCriticalOverage},
		{-30, types.VarianceUnderBudget},
		{-20, types.VarianceUnderBudget},
	}
	for _, tc := range cases {
		if got := varianceTier(tc.percent); got != tc.want {
			t.Errorf("varianceTier(%.0f) = %s, want %s", tc.percent, got, tc.want)
		}
	}
}

func TestApprovalRoutingEscalatesOnLargeSpend(t *testing.T) {
	chain, executive := approvalRouting(types.VarianceOnTarget, 600000)
	if !executive {
		t.Error("expected executive approval to be required above $500k")
	}
	if len(chain) == 0 {
		t.Error("expected a non-empty approval chain")
	}
}

func TestApprovalRoutingDoesNotEscalateOnUnderBudget(t *testing.T) {
	chain, executive := approvalRouting(types.VarianceUnderBudget, 1000)
	if executive {
		t.Error("expected no executive approval for an under-budget variance")
	}
	for _, c := range chain {
		if c == "Finance director sign-off required" || c == "CFO sign-off required" {
			t.Errorf("expected no finance escalation for an under-budget variance, got %v", chain)
		}
	}
}

func TestApprovalRoutingDefaultsToStandardManager(t *testing.T) {
	chain, executive := approvalRouting(types.VarianceOnTarget, 1000)
	if executive {
		t.Error("expected no executive approval for a small on-target spend")
	}
	if len(chain) != 1 || chain[0] != "Standard manager approval" {
		t.Errorf("expected standard manager approval, got %v", chain)
	}
}

func TestForecastProcessComputesVarianceAndAlignment(t *testing.T) {
	a := &ForecastAgent{provider: llm.NewMockProvider()}
	req := types.RequestEnvelope{Forecast: &types.ForecastPayload{
		Category:          "software",
		Quarter:           "Q1 2027",
		CurrentBudget:     100000,
		PlannedSpend:      130000,
		Justification:     "Consolidating vendor contracts to reduce supplier risk.",
		StrategicPriority: "vendor diversification",
	}}
	result, err := a.Process(context.Background(), req, contextlayer.Assembled{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	artifact := result.Artifact.(types.ForecastArtifact)
	if artifact.VarianceTier != types.VarianceCriticalOverage {
		t.Errorf("expected critical overage, got %s", artifact.VarianceTier)
	}
	aligned := false
	for _, o := range artifact.OKRAlignments {
		if o.OKR == "Reduce vendor concentration risk" && o.Status == types.OKRAligned {
			aligned = true
		}
	}
	if !aligned {
		t.Errorf("expected the vendor-concentration OKR to align, got %v", artifact.OKRAlignments)
	}
}
