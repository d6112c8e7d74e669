package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Procurement orchestration metrics for production monitoring.
var (
	// Workflow metrics
	WorkflowTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procureagent_workflow_total",
			Help: "Total number of orchestrator workflow runs",
		},
		[]string{"agent", "final_status"},
	)

	WorkflowDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "procureagent_workflow_duration_seconds",
			Help:    "Workflow run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1min
		},
		[]string{"agent"},
	)

	// Agent metrics
	AgentRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procureagent_agent_requests_total",
			Help: "Total number of specialist agent invocations",
		},
		[]string{"agent", "status"},
	)

	AgentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "procureagent_agent_duration_seconds",
			Help:    "Specialist agent processing duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
		[]string{"agent"},
	)

	// Critic metrics
	CriticDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procureagent_critic_decisions_total",
			Help: "Total number of critic decisions by outcome",
		},
		[]string{"action_taken"},
	)

	CriticDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "procureagent_critic_duration_seconds",
			Help:    "Critic review duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~10s
		},
		[]string{"agent"},
	)

	ComplianceScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "procureagent_compliance_score",
			Help:    "Distribution of critic compliance scores (0.0-1.0)",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
		[]string{"agent"},
	)

	// Policy metrics
	PolicyViolationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procureagent_policy_violations_total",
			Help: "Total number of policy violations detected",
		},
		[]string{"violation_kind", "severity"},
	)

	PolicyChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procureagent_policy_checks_total",
			Help: "Total number of policy validator checks run",
		},
		[]string{"result"}, // result: pass/fail
	)

	AutoRevisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procureagent_auto_revisions_total",
			Help: "Total number of deterministic auto-revisions applied",
		},
		[]string{"agent"},
	)

	// Context assembly metrics
	ContextTokensUsed = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "procureagent_context_tokens_used",
			Help:    "Tokens consumed by assembled context per layer",
			Buckets: prometheus.ExponentialBuckets(16, 2, 10), // 16 to ~8k tokens
		},
		[]string{"layer"},
	)

	ContextPrunedTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procureagent_context_pruned_tokens_total",
			Help: "Total number of tokens removed by context pruning",
		},
		[]string{"layer"},
	)

	TokenBudgetExceededTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procureagent_token_budget_exceeded_total",
			Help: "Total number of requests where the token budget could not be satisfied even at maximal pruning",
		},
		[]string{"agent"},
	)

	// Model-provider metrics
	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procureagent_llm_requests_total",
			Help: "Total number of model-provider generate calls",
		},
		[]string{"provider", "model", "status"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "procureagent_llm_request_duration_seconds",
			Help:    "Model-provider generate call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1min
		},
		[]string{"provider", "model"},
	)

	LLMRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procureagent_llm_retries_total",
			Help: "Total number of model-provider retry attempts",
		},
		[]string{"provider"},
	)

	// Integration manager metrics
	IntegrationReportsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "procureagent_integration_reports_total",
			Help: "Total number of compliance reports generated by the integration manager",
		},
	)

	RollingWindowSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "procureagent_rolling_window_size",
			Help: "Current number of workflow results held in the integration manager's rolling window",
		},
	)
)
