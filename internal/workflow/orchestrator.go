// Package workflow implements the sequential orchestration pipeline:
// Context Assembler -> Agent -> Critic, producing the complete
// types.WorkflowResult the rest of the service reports and audits.
//
// Grounded on an investigation-pipeline runner, generalized from a single linear phase list into the
// assemble/process/review sequence the procurement domain calls for,
// with the same per-phase timing capture and audit/metric emission
// shape.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ledgerline/procureagent/internal/agents"
	"github.com/ledgerline/procureagent/internal/audit"
	"github.com/ledgerline/procureagent/internal/contextlayer"
	"github.com/ledgerline/procureagent/internal/critic"
	"github.com/ledgerline/procureagent/internal/metrics"
	"github.com/ledgerline/procureagent/internal/policy"
	"github.com/ledgerline/procureagent/internal/validator"
	"github.com/ledgerline/procureagent/pkg/types"
)

// Recorder is the subset of the Integration Manager the orchestrator
// reports each completed workflow into. Declared here rather than
// imported directly from internal/integration so the orchestrator never
// depends on the manager's concrete aggregation strategy.
type Recorder interface {
	Record(result types.WorkflowResult)
}

// Orchestrator runs one request through the assembler, the agent its
// envelope addresses, and the Global Policy Critic, in that order.
type Orchestrator struct {
	assembler *contextlayer.Assembler
	dispatch  agents.Dispatch
	critic    *critic.Critic
	budget    int
	logger    audit.Logger
	recorder  Recorder
}

// New constructs an Orchestrator. logger may be nil, in which case audit
// events are skipped (useful in tests). recorder may be nil, in which
// case workflow results are not reported to the Integration Manager.
func New(store *policy.Store, assembler *contextlayer.Assembler, dispatch agents.Dispatch, budget int, logger audit.Logger, recorder Recorder) *Orchestrator {
	return &Orchestrator{
		assembler: assembler,
		dispatch:  dispatch,
		critic:    critic.New(validator.New(store)),
		budget:    budget,
		logger:    logger,
		recorder:  recorder,
	}
}

// Run executes the full pipeline for req and returns the complete
// workflow result. It never returns an error itself: any agent or
// validation failure is captured in the result's Success/ErrorMessage
// fields so the caller always has a reportable, auditable outcome.
func (o *Orchestrator) Run(ctx context.Context, req types.RequestEnvelope) types.WorkflowResult {
	start := time.Now()
	requestID := uuid.NewString()
	ctx = audit.WithCorrelationID(ctx, requestID)

	result := types.WorkflowResult{
		RequestID: requestID,
		Agent:     req.Agent,
		Timestamp: start,
	}

	_ = o.logAudit(ctx, func(l audit.Logger) error {
		return l.LogWorkflowStarted(ctx, requestID, string(req.Agent))
	})

	agent, ok := o.dispatch[req.Agent]
	if !ok {
		result.ErrorMessage = fmt.Sprintf("no agent registered for kind %q", req.Agent)
		result.FinalStatus = types.StatusError
		o.finish(ctx, requestID, start, &result)
		return result
	}

	if err := agent.ValidatePayload(req); err != nil {
		result.ErrorMessage = err.Error()
		result.FinalStatus = types.StatusError
		result.ValidationFailed = true
		o.finish(ctx, requestID, start, &result)
		return result
	}

	category := categoryFor(req)
	assembled := o.assembler.Build(o.budget, category, req.Session, req.Ephemeral)
	result.ContextUsage = assembled.Usage
	result.PolicyChecksRun++

	if assembled.Usage.BudgetOverflow {
		metrics.TokenBudgetExceededTotal.WithLabelValues(string(req.Agent)).Inc()
		_ = o.logAudit(ctx, func(l audit.Logger) error {
			return l.LogBudgetOverflow(ctx, requestID, assembled.Usage.TotalTokens, o.budget)
		})
	}
	for _, layer := range assembled.PrunedLayers {
		_ = o.logAudit(ctx, func(l audit.Logger) error {
			return l.LogContextPruned(ctx, requestID, assembled.Usage.TotalTokens)
		})
		metrics.ContextPrunedTokensTotal.WithLabelValues(layer).Inc()
	}

	agentStart := time.Now()
	agentResult, err := agent.Process(ctx, req, assembled)
	result.AgentMs = time.Since(agentStart).Milliseconds()
	metrics.AgentDuration.WithLabelValues(string(req.Agent)).Observe(time.Since(agentStart).Seconds())

	if err != nil {
		metrics.AgentRequestsTotal.WithLabelValues(string(req.Agent), "failure").Inc()
		result.ErrorMessage = err.Error()
		result.FinalStatus = types.StatusError
		o.finish(ctx, requestID, start, &result)
		_ = o.logAudit(ctx, func(l audit.Logger) error { return l.LogWorkflowFailed(ctx, requestID, err) })
		return result
	}
	metrics.AgentRequestsTotal.WithLabelValues(string(req.Agent), "success").Inc()

	result.RawArtifact = agentResult.Text
	result.Payload = agentResult.Artifact
	result.ConfidenceScore = agentResult.Confidence
	result.Recommendations = agentResult.Recommendations

	criticInput := critic.Input{Text: agentResult.Text, Category: category}
	if req.Negotiation != nil {
		criticInput.DiscountFrac = req.Negotiation.TargetDiscount
		criticInput.HasDiscount = true
	}

	criticStart := time.Now()
	outcome := o.critic.Review(criticInput)
	result.CriticMs = time.Since(criticStart).Milliseconds()
	metrics.CriticDuration.WithLabelValues(string(req.Agent)).Observe(time.Since(criticStart).Seconds())
	metrics.CriticDecisionsTotal.WithLabelValues(string(outcome.ActionTaken)).Inc()
	metrics.ComplianceScore.WithLabelValues(string(req.Agent)).Observe(outcome.ComplianceScore)
	result.PolicyChecksRun += len(outcome.Violations)

	for _, v := range outcome.Violations {
		metrics.PolicyViolationsTotal.WithLabelValues(string(v.Kind), string(v.Severity)).Inc()
		_ = o.logAudit(ctx, func(l audit.Logger) error {
			return l.LogPolicyViolationDetected(ctx, requestID, string(v.Kind))
		})
	}

	result.Critic = outcome
	result.FinalText = agentResult.Text
	if outcome.RevisedText != "" {
		result.FinalText = outcome.RevisedText
		result.AutoRevisions++
		metrics.AutoRevisionsTotal.WithLabelValues(string(req.Agent)).Inc()
		_ = o.logAudit(ctx, func(l audit.Logger) error {
			return l.LogAutoRevisionApplied(ctx, requestID, result.AutoRevisions)
		})
	}
	if outcome.ActionTaken == types.ActionManualReviewRequired {
		_ = o.logAudit(ctx, func(l audit.Logger) error {
			return l.LogManualReviewRequired(ctx, requestID, "non-auto-fixable policy violation")
		})
	}

	result.FinalStatus = critic.FinalStatus(outcome)
	result.Success = true
	o.finish(ctx, requestID, start, &result)
	return result
}

// finish records the closing bookkeeping for a completed workflow: the
// audit trail entry and the Integration Manager report. Neither reads
// the other's output, so they run as two goroutines under an errgroup
// rather than back to back.
func (o *Orchestrator) finish(ctx context.Context, requestID string, start time.Time, result *types.WorkflowResult) {
	result.TotalMs = time.Since(start).Milliseconds()
	metrics.WorkflowTotal.WithLabelValues(string(result.Agent), string(result.FinalStatus)).Inc()
	metrics.WorkflowDuration.WithLabelValues(string(result.Agent)).Observe(time.Since(start).Seconds())

	var g errgroup.Group
	if result.Success {
		g.Go(func() error {
			return o.logAudit(ctx, func(l audit.Logger) error {
				return l.LogWorkflowCompleted(ctx, requestID, string(result.FinalStatus), time.Since(start))
			})
		})
	}
	if o.recorder != nil {
		snapshot := *result
		g.Go(func() error {
			o.recorder.Record(snapshot)
			return nil
		})
	}
	_ = g.Wait()
}

func (o *Orchestrator) logAudit(ctx context.Context, fn func(audit.Logger) error) error {
	if o.logger == nil {
		return nil
	}
	return fn(o.logger)
}

func categoryFor(req types.RequestEnvelope) string {
	switch req.Agent {
	case types.AgentNegotiation:
		if req.Negotiation != nil {
			return req.Negotiation.Category
		}
	case types.AgentCompliance:
		if req.Compliance != nil {
			return req.Compliance.ContractType
		}
	case types.AgentForecast:
		if req.Forecast != nil {
			return req.Forecast.Category
		}
	}
	return ""
}
