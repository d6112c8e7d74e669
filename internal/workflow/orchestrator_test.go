package workflow

import (
	"context"
	"testing"

	"github.com/ledgerline/procureagent/internal/agents"
	"github.com/ledgerline/procureagent/internal/contextlayer"
	"github.com/ledgerline/procureagent/internal/llm"
	"github.com/ledgerline/procureagent/internal/policy"
	"github.com/ledgerline/procureagent/pkg/types"
)

type fakeRecorder struct {
	results []types.WorkflowResult
}

func (f *fakeRecorder) Record(result types.WorkflowResult) {
	f.results = append(f.results, result)
}

func newTestOrchestrator(recorder Recorder) *Orchestrator {
	store := policy.NewDefault()
	assembler := contextlayer.NewDefault(store)
	dispatch := agents.NewDispatch(llm.NewMockProvider(), store)
	return New(store, assembler, dispatch, 2000, nil, recorder)
}

func TestOrchestratorRunsNegotiationToCompletion(t *testing.T) {
	o := newTestOrchestrator(nil)
	req := types.RequestEnvelope{
		Agent:     types.AgentNegotiation,
		SessionID: "sess-1",
		Negotiation: &types.NegotiationPayload{
			Vendor:         "Acme",
			TargetDiscount: 0.25,
			Category:       "software",
		},
	}

	result := o.Run(context.Background(), req)

	if !result.Success {
		t.Fatalf("expected success, got error %q", result.ErrorMessage)
	}
	if result.FinalStatus == "" {
		t.Fatal("expected a final status to be set")
	}
	if result.FinalText == "" {
		t.Fatal("expected non-empty final text")
	}
	if result.TotalMs < 0 {
		t.Fatal("expected non-negative total duration")
	}
}

func TestOrchestratorRejectsInvalidPayload(t *testing.T) {
	o := newTestOrchestrator(nil)
	req := types.RequestEnvelope{
		Agent:       types.AgentNegotiation,
		SessionID:   "sess-1",
		Negotiation: &types.NegotiationPayload{Vendor: "", Category: "software"},
	}

	result := o.Run(context.Background(), req)

	if result.Success {
		t.Fatal("expected validation failure")
	}
	if result.FinalStatus != types.StatusError {
		t.Fatalf("expected error status, got %q", result.FinalStatus)
	}
}

func TestOrchestratorReportsToRecorder(t *testing.T) {
	rec := &fakeRecorder{}
	o := newTestOrchestrator(rec)
	req := types.RequestEnvelope{
		Agent:     types.AgentCompliance,
		SessionID: "sess-1",
		Compliance: &types.CompliancePayload{
			Clause: "Standard service terms with a warranty and termination rights.",
		},
	}

	o.Run(context.Background(), req)

	if len(rec.results) != 1 {
		t.Fatalf("expected exactly one recorded result, got %d", len(rec.results))
	}
}
