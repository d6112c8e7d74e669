// Package types holds the data transfer objects shared across the
// procurement orchestration pipeline: request envelopes, agent payloads,
// policy violations, and the workflow result returned to callers.
package types

import "time"

// AgentKind identifies which specialist agent a request is addressed to.
type AgentKind string

const (
	AgentNegotiation AgentKind = "negotiation"
	AgentCompliance  AgentKind = "compliance"
	AgentForecast    AgentKind = "forecast"
)

// Priority is the requested urgency of a workflow.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// NegotiationPayload is the Negotiation agent's typed request body.
type NegotiationPayload struct {
	Vendor           string
	TargetDiscount   float64 // fraction in [0,1] after normalization
	Category         string
	CurrentPrice     float64
	ContractDuration string
	VolumeCommitment string
	Extra            string
}

// CompliancePayload is the Compliance agent's typed request body.
type CompliancePayload struct {
	Clause         string
	ContractContext string
	ContractType    string
	RiskTolerance   string // low, medium, high
	Jurisdiction    string
}

// ForecastPayload is the Forecast agent's typed request body.
type ForecastPayload struct {
	Category          string
	Quarter           string // "Q[1-4] YYYY"
	PlannedSpend      float64
	CurrentBudget     float64
	Justification     string
	StrategicPriority string
}

// RequestEnvelope is the common wrapper around every inbound request,
// carrying exactly one agent-specific payload.
type RequestEnvelope struct {
	Agent       AgentKind
	SessionID   string
	Priority    Priority
	UserContext string

	Negotiation *NegotiationPayload
	Compliance  *CompliancePayload
	Forecast    *ForecastPayload

	// Session carries prior conversation/tool-interaction state for the
	// Session context layer; nil/zero for a fresh session.
	Session SessionData

	// Ephemeral carries the request's short-lived tool payloads for the
	// Ephemeral context layer; nil/zero for none.
	Ephemeral EphemeralData
}

// SessionData is the raw material for the Session context layer.
type SessionData struct {
	ConversationTurns []ConversationTurn
	ToolInteractions  []ToolInteraction
	Findings          []Finding
	UserPreferences   map[string]string
}

// ConversationTurn is one turn of a session's conversation history.
type ConversationTurn struct {
	Topic string // procurement, negotiation, compliance, forecast
	Text  string
}

// ToolInteraction is one recorded tool call within a session.
type ToolInteraction struct {
	Category string // api, database, calculation
	Text     string
}

// Finding is an accumulated observation within a session.
type Finding struct {
	Tags string // free text scanned for {critical, violation, risk, required}
	Text string
}

// EphemeralData is the raw material for the Ephemeral context layer.
type EphemeralData struct {
	Quotes       []string
	Budgets      []string
	VendorData   []string
	APIResponses []string
}

// Severity is the severity tier of a policy violation.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityWeight is the weight used by the critic's compliance score formula.
func (s Severity) Weight() float64 {
	switch s {
	case SeverityLow:
		return 0.1
	case SeverityMedium:
		return 0.3
	case SeverityHigh:
		return 0.6
	case SeverityCritical:
		return 1.0
	default:
		return 0
	}
}

// ViolationKind enumerates the kinds of policy violation the validator
// and critic can detect.
type ViolationKind string

const (
	ViolationProhibitedClause    ViolationKind = "prohibited_clause"
	ViolationMissingWarranty     ViolationKind = "missing_warranty"
	ViolationUnauthorizedDiscount ViolationKind = "unauthorized_discount"
	ViolationBudgetExceeded      ViolationKind = "budget_exceeded"
	ViolationBudgetThresholdExceeded ViolationKind = "budget_threshold_exceeded"
)

// Violation is a single detected policy violation.
type Violation struct {
	Kind           ViolationKind
	Severity       Severity
	Description    string
	Location       string // byte offsets ("start-end") or a layer name
	SuggestedFix   string
	AutoFixable    bool
	PolicyRef      string
}

// ComplianceRule is a named enterprise compliance rule.
type ComplianceRule struct {
	ID              string
	Description     string
	Category        string
	EnforcementLevel string // warning, error, block
}

// ActionTaken is what the critic did with an agent's draft artifact.
type ActionTaken string

const (
	ActionApproved             ActionTaken = "approved"
	ActionAutoRevised          ActionTaken = "auto_revised"
	ActionManualReviewRequired ActionTaken = "manual_review_required"
)

// FinalStatus is the workflow's externally visible compliance outcome.
type FinalStatus string

const (
	StatusCompliant    FinalStatus = "compliant"
	StatusRevised      FinalStatus = "revised"
	StatusFlagged      FinalStatus = "flagged"
	StatusNonCompliant FinalStatus = "non_compliant"
	StatusError        FinalStatus = "error"
)

// CriticOutcome is the Global Policy Critic's verdict on an agent artifact.
type CriticOutcome struct {
	OriginalText    string
	RevisedText     string // empty if no revision was applied
	Violations      []Violation
	ActionTaken     ActionTaken
	ComplianceScore float64
	Notes           []string
	ElapsedMs       int64
	// ChecksPerformed names the Policy Validator check families that ran,
	// for the audit trail's record of what was actually verified.
	ChecksPerformed []string
}

// ContextUsage reports the token accounting for an assembled context.
type ContextUsage struct {
	PolicyTokens    int
	DomainTokens    int
	SessionTokens   int
	EphemeralTokens int
	TotalTokens     int
	BudgetOverflow  bool
}

// RiskLevel is the Compliance agent's risk tiering.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// VarianceTier buckets a Forecast payload's budget variance.
type VarianceTier string

const (
	VarianceOnTarget          VarianceTier = "on_target"
	VarianceMinorOverage      VarianceTier = "minor_overage"
	VarianceSignificantOverage VarianceTier = "significant_overage"
	VarianceCriticalOverage   VarianceTier = "critical_overage"
	VarianceUnderBudget       VarianceTier = "under_budget"
)

// OKRAlignmentStatus is the per-OKR keyword-heuristic alignment verdict.
type OKRAlignmentStatus string

const (
	OKRAligned          OKRAlignmentStatus = "aligned"
	OKRPartiallyAligned OKRAlignmentStatus = "partially_aligned"
	OKRMisaligned       OKRAlignmentStatus = "misaligned"
	OKRUnknown          OKRAlignmentStatus = "unknown"
)

// OKRAlignment is one OKR's scored alignment against a Forecast request.
type OKRAlignment struct {
	OKR    string
	Status OKRAlignmentStatus
	Score  float64
}

// NegotiationArtifact is the Negotiation agent's structured proposal.
type NegotiationArtifact struct {
	Vendor          string
	Price           float64
	Discount        float64
	ContractTerms   []string
	WarrantyList    []string
	RiskMitigation  []string
	NarrativeStrategy string
	Confidence      float64
}

// ComplianceArtifact is the Compliance agent's structured review.
type ComplianceArtifact struct {
	RiskLevel           RiskLevel
	Violations          []Violation
	CompliantRewrite     string
	FlaggedTerms         []string
	Recommendations      []string
	LegalReviewRequired  bool
	Confidence           float64
}

// ForecastArtifact is the Forecast agent's structured budget analysis.
type ForecastArtifact struct {
	VarianceAmount         float64
	VariancePercent        float64
	VarianceTier           VarianceTier
	OKRAlignments          []OKRAlignment
	TradeOffRecommendations []string
	BudgetAdjustments      []string
	RiskFactors            []string
	ApprovalRequirements   []string
	RequiresExecutiveApproval bool
	Confidence             float64
}

// WorkflowResult is the complete record of one request's trip through
// Context Assembler → Agent → Critic → Orchestrator.
type WorkflowResult struct {
	RequestID       string
	Agent           AgentKind
	Payload         interface{}
	RawArtifact     string
	Critic          CriticOutcome
	FinalText       string
	FinalStatus     FinalStatus
	ContextUsage    ContextUsage
	PolicyChecksRun int
	AutoRevisions   int
	AgentMs         int64
	CriticMs        int64
	TotalMs         int64
	Timestamp       time.Time
	Success         bool
	ErrorMessage    string
	ValidationFailed bool
	ConfidenceScore float64
	Recommendations []string
}
