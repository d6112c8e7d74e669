// Package httpapi documents the external interface as typed Go DTOs and
// a Service that shapes a workflow.Orchestrator run into the
// AgentResponse/ErrorResponse schema an HTTP transport would marshal to
// JSON. The transport itself — route registration, request decoding,
// status-code writing — is left to an external collaborator; this
// package stops at the last piece of logic that belongs to the
// orchestration service rather than to whichever HTTP framework fronts
// it.
//
// Grounded on a request-DTO/response-DTO/handler-method shape for REST
// endpoints, narrowed to the marshalling-adjacent mapping
// layer and stripped of the net/http plumbing that belongs to the
// (unreimplemented) transport.
package httpapi

import (
	"context"
	"time"

	"github.com/ledgerline/procureagent/internal/integration"
	"github.com/ledgerline/procureagent/internal/workflow"
	"github.com/ledgerline/procureagent/pkg/types"
)

// PolicyViolationView is the wire-shaped view of a types.Violation for
// the AgentResponse.policy_violations list (§6).
type PolicyViolationView struct {
	Kind        types.ViolationKind `json:"kind"`
	Severity    types.Severity      `json:"severity"`
	Description string              `json:"description"`
	AutoFixable bool                `json:"auto_fixable"`
}

// ContextUsageView is the wire-shaped per-layer token accounting for the
// AgentResponse.context_usage field.
type ContextUsageView struct {
	PolicyTokens    int `json:"policy_tokens"`
	DomainTokens    int `json:"domain_tokens"`
	SessionTokens   int `json:"session_tokens"`
	EphemeralTokens int `json:"ephemeral_tokens"`
	TotalTokens     int `json:"total_tokens"`
}

// AgentResponse is the JSON body every `/agent/*` endpoint returns (spec
// §6 "Agent endpoints return an AgentResponse...").
type AgentResponse struct {
	AgentResponseText string                 `json:"agent_response"`
	ComplianceStatus  string                 `json:"compliance_status"` // compliant | revised | flagged
	PolicyViolations  []PolicyViolationView  `json:"policy_violations"`
	Recommendations   []string               `json:"recommendations"`
	ConfidenceScore   float64                `json:"confidence_score"`
	ContextUsage      ContextUsageView       `json:"context_usage"`
	ProcessingTimeMs  int64                  `json:"processing_time_ms"`
	RequestID         string                 `json:"request_id"`
}

// ErrorResponse is the JSON body for validation (422) and internal (500)
// failures (§6).
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id"`
}

// AgentStatus is one row of the GET /status/agents response.
type AgentStatus struct {
	Agent          types.AgentKind `json:"agent"`
	RequestCount   int64           `json:"request_count"`
	AverageLatency float64         `json:"average_latency_ms"`
}

// HealthStatus is the GET /health response body.
type HealthStatus struct {
	Status     string            `json:"status"` // ok | degraded
	Components map[string]string `json:"components"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Service wires a workflow.Orchestrator and an Integration Manager into
// the documented route table. Each exported method corresponds to exactly
// one HTTP endpoint; a transport package maps the route to the method and
// owns request decoding / response encoding / status codes.
type Service struct {
	orchestrator *workflow.Orchestrator
	integration  *integration.Manager
}

// NewService constructs a Service. integration may be nil only in tests
// that don't exercise the /integration/* routes.
func NewService(orchestrator *workflow.Orchestrator, mgr *integration.Manager) *Service {
	return &Service{orchestrator: orchestrator, integration: mgr}
}

// complianceStatusFor maps a workflow's final status to the §6 wire enum.
// FinalStatus values Error and NonCompliant both still return an
// AgentResponse per §7 ("Policy is never fatal... flagged and revised
// outputs are still delivered"); callers distinguish a true transport
// failure by the ErrorMessage/Success fields of the underlying result,
// which RunX also returns via the error return value.
func complianceStatusFor(status types.FinalStatus) string {
	switch status {
	case types.StatusCompliant:
		return "compliant"
	case types.StatusRevised:
		return "revised"
	case types.StatusFlagged:
		return "flagged"
	case types.StatusNonCompliant:
		return "flagged"
	default:
		return "flagged"
	}
}

func toAgentResponse(result types.WorkflowResult) AgentResponse {
	violations := make([]PolicyViolationView, 0, len(result.Critic.Violations))
	for _, v := range result.Critic.Violations {
		violations = append(violations, PolicyViolationView{
			Kind:        v.Kind,
			Severity:    v.Severity,
			Description: v.Description,
			AutoFixable: v.AutoFixable,
		})
	}

	return AgentResponse{
		AgentResponseText: result.FinalText,
		ComplianceStatus:  complianceStatusFor(result.FinalStatus),
		PolicyViolations:  violations,
		Recommendations:   result.Recommendations,
		ConfidenceScore:   result.ConfidenceScore,
		ContextUsage: ContextUsageView{
			PolicyTokens:    result.ContextUsage.PolicyTokens,
			DomainTokens:    result.ContextUsage.DomainTokens,
			SessionTokens:   result.ContextUsage.SessionTokens,
			EphemeralTokens: result.ContextUsage.EphemeralTokens,
			TotalTokens:     result.ContextUsage.TotalTokens,
		},
		ProcessingTimeMs: result.TotalMs,
		RequestID:        result.RequestID,
	}
}

// RunNegotiation backs POST /agent/negotiation.
func (s *Service) RunNegotiation(ctx context.Context, payload types.NegotiationPayload, sessionID string, session types.SessionData, ephemeral types.EphemeralData) (AgentResponse, error) {
	req := types.RequestEnvelope{
		Agent:       types.AgentNegotiation,
		SessionID:   sessionID,
		Negotiation: &payload,
		Session:     session,
		Ephemeral:   ephemeral,
	}
	return s.run(ctx, req)
}

// RunCompliance backs POST /agent/compliance.
func (s *Service) RunCompliance(ctx context.Context, payload types.CompliancePayload, sessionID string, session types.SessionData, ephemeral types.EphemeralData) (AgentResponse, error) {
	req := types.RequestEnvelope{
		Agent:      types.AgentCompliance,
		SessionID:  sessionID,
		Compliance: &payload,
		Session:    session,
		Ephemeral:  ephemeral,
	}
	return s.run(ctx, req)
}

// RunForecast backs POST /agent/forecast.
func (s *Service) RunForecast(ctx context.Context, payload types.ForecastPayload, sessionID string, session types.SessionData, ephemeral types.EphemeralData) (AgentResponse, error) {
	req := types.RequestEnvelope{
		Agent:     types.AgentForecast,
		SessionID: sessionID,
		Forecast:  &payload,
		Session:   session,
		Ephemeral: ephemeral,
	}
	return s.run(ctx, req)
}

// run executes the request and maps a workflow failure (result.Success
// == false) to a non-nil error so a transport can still distinguish a
// hard 500 from a delivered-but-flagged response, while always returning
// a populated AgentResponse per §7's "always try to return an
// AgentResponse" requirement.
func (s *Service) run(ctx context.Context, req types.RequestEnvelope) (AgentResponse, error) {
	result := s.orchestrator.Run(ctx, req)
	resp := toAgentResponse(result)
	if !result.Success {
		if result.ValidationFailed {
			return resp, &ValidationError{RequestID: result.RequestID, Message: result.ErrorMessage}
		}
		return resp, &WorkflowError{RequestID: result.RequestID, Message: result.ErrorMessage}
	}
	return resp, nil
}

// WorkflowError reports that the underlying workflow failed outright
// (§7 InternalError / ModelConnectionError after retries exhausted),
// distinct from a policy-flagged-but-delivered response. A transport maps
// this to HTTP 500.
type WorkflowError struct {
	RequestID string
	Message   string
}

func (e *WorkflowError) Error() string { return e.Message }

// ValidationError reports a malformed request payload (§7 ValidationError).
// A transport maps this to HTTP 422 with the ErrorResponse schema's
// error field set to "validation_error".
type ValidationError struct {
	RequestID string
	Message   string
}

func (e *ValidationError) Error() string { return e.Message }

// Status backs GET /status/agents: one row per agent with that agent's
// request count, read from the Integration Manager's lifetime snapshot.
// AverageLatency is the service-wide average total latency across all
// agents, repeated on every row; it is not broken down per agent.
func (s *Service) Status() []AgentStatus {
	if s.integration == nil {
		return nil
	}
	snap := s.integration.Snapshot()
	out := make([]AgentStatus, 0, len(snap.PerAgentRequests))
	for _, kind := range []types.AgentKind{types.AgentNegotiation, types.AgentCompliance, types.AgentForecast} {
		out = append(out, AgentStatus{
			Agent:          kind,
			RequestCount:   snap.PerAgentRequests[kind],
			AverageLatency: snap.AvgTotalMs,
		})
	}
	return out
}

// Metrics backs GET /integration/metrics.
func (s *Service) Metrics() integration.Metrics {
	if s.integration == nil {
		return integration.Metrics{}
	}
	return s.integration.Snapshot()
}

// Recent backs GET /integration/recent?limit=N.
func (s *Service) Recent(limit int) []types.WorkflowResult {
	if s.integration == nil {
		return nil
	}
	return s.integration.Recent(limit)
}

// ComplianceReport backs GET /integration/compliance-report?hours=H.
func (s *Service) ComplianceReport(hours float64) integration.ComplianceReport {
	if s.integration == nil {
		return integration.ComplianceReport{}
	}
	return s.integration.ComplianceReport(time.Duration(hours * float64(time.Hour)))
}

// ResetMetrics backs POST /integration/reset-metrics.
func (s *Service) ResetMetrics() {
	if s.integration == nil {
		return
	}
	s.integration.Reset()
}
