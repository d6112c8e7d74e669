// Package agents implements the three specialist agents — Negotiation,
// Compliance, Forecast — as variants sharing one capability set, per the
// design notes' "tagged variants + dispatch table" preference over a
// class hierarchy.
//
// Each agent: validates its typed payload, calls the model provider for
// narrative supplementation, then
// applies its own deterministic domain rules (warranty injection, risk
// tiering, variance tiering) before returning a structured artifact. That
// post-processing runs before the critic; the critic runs after and may
// still revise the rendered text. Process receives the assembled context,
// but none of the three agents reads it when building its prompt or
// artifact.
package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgerline/procureagent/internal/contextlayer"
	"github.com/ledgerline/procureagent/internal/llm"
	"github.com/ledgerline/procureagent/internal/policy"
	"github.com/ledgerline/procureagent/pkg/types"
)

// ValidationError reports a malformed agent payload; the §7 taxonomy maps
// this to an HTTP 422 at the transport boundary.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Result is the common envelope every agent returns: the rendered text
// the critic will review (RawArtifact), the agent's self-reported
// confidence, and the typed structured artifact.
type Result struct {
	Text            string
	Confidence      float64
	Recommendations []string
	Artifact        interface{}
}

// Agent is the shared capability set every specialist agent implements:
// validate_payload, process, report_capabilities (Kind), report_metrics
// is left to the caller via the returned Result and timings it measures.
type Agent interface {
	Kind() types.AgentKind
	ValidatePayload(req types.RequestEnvelope) error
	Process(ctx context.Context, req types.RequestEnvelope, assembled contextlayer.Assembled) (Result, error)
}

// Dispatch is the agent-kind -> Agent lookup table the orchestrator uses
// instead of a type switch or class hierarchy.
type Dispatch map[types.AgentKind]Agent

// NewDispatch constructs the standard three-agent dispatch table backed by
// the given model provider and Policy Store.
func NewDispatch(provider llm.Provider, store *policy.Store) Dispatch {
	return Dispatch{
		types.AgentNegotiation: &NegotiationAgent{provider: provider},
		types.AgentCompliance:  &ComplianceAgent{provider: provider, store: store},
		types.AgentForecast:    &ForecastAgent{provider: provider},
	}
}

// generateNarrative calls the model provider for a short narrative
// completion, falling back to a deterministic template on any error since
// a model-response failure must never fail the agent (§7:
// ModelResponseError falls back to a deterministic template).
func generateNarrative(ctx context.Context, provider llm.Provider, systemPrompt, userPrompt, fallback string) string {
	if provider == nil {
		return fallback
	}
	text, err := provider.Generate(ctx, llm.GenerateRequest{
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   256,
		Temperature: 0.3,
	})
	if err != nil || text == "" {
		return fallback
	}
	return text
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
