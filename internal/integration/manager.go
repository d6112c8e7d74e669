// Package integration implements the Integration Manager (§4.8): the
// fan-in aggregator that every completed workflow reports into. It tracks
// lifetime counters, running-average timings, cumulative token usage, and
// a bounded rolling window of recent workflow results used to produce
// time-windowed compliance reports.
//
// Grounded on a cost-calculator / analytics-engine shape (a small struct holding accumulated state behind a single mutex, with
// plain accessor methods returning value-type snapshots) generalized from
// per-resource cost/statistics aggregation to per-workflow compliance
// aggregation.
package integration

import (
	"sync"
	"time"

	"github.com/ledgerline/procureagent/internal/metrics"
	"github.com/ledgerline/procureagent/pkg/types"
)

// DefaultWindowCapacity is the maximum number of recent workflow results
// retained in the rolling window (§3: "bounded list of the most
// recent N<=100 results").
const DefaultWindowCapacity = 100

// AgentCounts tracks the lifetime request count for one agent kind.
type AgentCounts struct {
	Total int64
}

// Metrics is a point-in-time snapshot of the Integration Manager's
// lifetime counters and running averages. It is a plain value type so
// callers never observe a half-updated record.
type Metrics struct {
	TotalRequests     int64
	SuccessCount      int64
	FailureCount      int64
	ViolationsTotal   int64
	AutoRevisions     int64
	ManualReviews     int64
	PerAgentRequests  map[types.AgentKind]int64

	AvgTotalMs  float64
	AvgAgentMs  float64
	AvgCriticMs float64

	TokensTotal  int64
	TokensPolicy int64
	TokensDomain int64

	RollingWindowSize int
}

// StatusCounts buckets final-status counts for a compliance report.
type StatusCounts struct {
	Compliant    int
	Revised      int
	Flagged      int
	NonCompliant int
	Error        int
}

// ComplianceReport summarizes the rolling window entries falling within a
// requested time window (§4.8 / S6).
type ComplianceReport struct {
	WindowHours           float64
	TotalInWindow         int
	Statuses              StatusCounts
	CompliantPct          float64
	Violations            int
	AutoRevisions         int
	RevisionSuccessRate   float64
	GeneratedAt           time.Time
}

// Manager is the process-wide Integration Manager singleton. All mutable
// state is guarded by mu; readers and writers serialize through it so no
// caller ever observes a partially-updated counter set or rolling window.
//
// Manager must be constructed with New; the zero value is not usable
// (PerAgentRequests and the rolling buffer both need initialization).
type Manager struct {
	mu sync.Mutex

	totalRequests    int64
	successCount     int64
	failureCount     int64
	violationsTotal  int64
	autoRevisions    int64
	manualReviews    int64
	perAgentRequests map[types.AgentKind]int64

	avgTotalMs  float64
	avgAgentMs  float64
	avgCriticMs float64
	sampleCount int64

	tokensTotal  int64
	tokensPolicy int64
	tokensDomain int64

	window   []types.WorkflowResult
	capacity int
}

// New constructs an Integration Manager with the default rolling window
// capacity.
func New() *Manager {
	return NewWithCapacity(DefaultWindowCapacity)
}

// NewWithCapacity constructs an Integration Manager whose rolling window
// holds at most capacity entries. capacity<=0 is treated as 1.
func NewWithCapacity(capacity int) *Manager {
	if capacity <= 0 {
		capacity = 1
	}
	return &Manager{
		perAgentRequests: make(map[types.AgentKind]int64),
		window:           make([]types.WorkflowResult, 0, capacity),
		capacity:         capacity,
	}
}

// Record folds one completed workflow result into the aggregate state.
// A failed workflow (result.Success == false) increments only the total
// and failure counters — it never touches compliance, violation, or
// auto-revision counters, matching §7's "Integration counters never
// double-count" requirement.
func (m *Manager) Record(result types.WorkflowResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalRequests++
	m.perAgentRequests[result.Agent]++

	if !result.Success {
		m.failureCount++
		m.pushWindow(result)
		m.refreshGauge()
		return
	}

	m.successCount++
	m.violationsTotal += int64(len(result.Critic.Violations))
	m.autoRevisions += int64(result.AutoRevisions)
	if result.FinalStatus == types.StatusFlagged {
		m.manualReviews++
	}

	m.tokensTotal += int64(result.ContextUsage.TotalTokens)
	m.tokensPolicy += int64(result.ContextUsage.PolicyTokens)
	m.tokensDomain += int64(result.ContextUsage.DomainTokens)

	m.sampleCount++
	m.avgTotalMs = runningAverage(m.avgTotalMs, float64(result.TotalMs), m.sampleCount)
	m.avgAgentMs = runningAverage(m.avgAgentMs, float64(result.AgentMs), m.sampleCount)
	m.avgCriticMs = runningAverage(m.avgCriticMs, float64(result.CriticMs), m.sampleCount)

	m.pushWindow(result)
	m.refreshGauge()
}

// runningAverage applies the incremental-mean update:
// avg' = ((avg*(k-1)) + x) / k, with avg'=x when k==1.
func runningAverage(avg, x float64, k int64) float64 {
	if k <= 1 {
		return x
	}
	return ((avg * float64(k-1)) + x) / float64(k)
}

// pushWindow appends result to the rolling window, evicting the oldest
// entry once capacity is reached. Caller must hold mu.
func (m *Manager) pushWindow(result types.WorkflowResult) {
	if len(m.window) >= m.capacity {
		copy(m.window, m.window[1:])
		m.window = m.window[:len(m.window)-1]
	}
	m.window = append(m.window, result)
}

func (m *Manager) refreshGauge() {
	metrics.RollingWindowSize.Set(float64(len(m.window)))
}

// Snapshot returns a point-in-time copy of the lifetime counters and
// running averages.
func (m *Manager) Snapshot() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	perAgent := make(map[types.AgentKind]int64, len(m.perAgentRequests))
	for k, v := range m.perAgentRequests {
		perAgent[k] = v
	}

	return Metrics{
		TotalRequests:     m.totalRequests,
		SuccessCount:      m.successCount,
		FailureCount:      m.failureCount,
		ViolationsTotal:   m.violationsTotal,
		AutoRevisions:     m.autoRevisions,
		ManualReviews:     m.manualReviews,
		PerAgentRequests:  perAgent,
		AvgTotalMs:        m.avgTotalMs,
		AvgAgentMs:        m.avgAgentMs,
		AvgCriticMs:       m.avgCriticMs,
		TokensTotal:       m.tokensTotal,
		TokensPolicy:      m.tokensPolicy,
		TokensDomain:      m.tokensDomain,
		RollingWindowSize: len(m.window),
	}
}

// Recent returns up to limit of the most recently recorded workflow
// results, newest first. limit<=0 returns the full window.
func (m *Manager) Recent(limit int) []types.WorkflowResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.window)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]types.WorkflowResult, n)
	for i := 0; i < n; i++ {
		out[i] = m.window[len(m.window)-1-i]
	}
	return out
}

// ComplianceReport computes the §4.8 window report over the rolling
// window entries timestamped within [now-window, now].
func (m *Manager) ComplianceReport(window time.Duration) ComplianceReport {
	m.mu.Lock()
	entries := make([]types.WorkflowResult, len(m.window))
	copy(entries, m.window)
	m.mu.Unlock()

	metrics.IntegrationReportsTotal.Inc()

	now := time.Now()
	cutoff := now.Add(-window)

	report := ComplianceReport{
		WindowHours: window.Hours(),
		GeneratedAt: now,
	}

	for _, r := range entries {
		if r.Timestamp.Before(cutoff) {
			continue
		}
		report.TotalInWindow++
		switch r.FinalStatus {
		case types.StatusCompliant:
			report.Statuses.Compliant++
		case types.StatusRevised:
			report.Statuses.Revised++
		case types.StatusFlagged:
			report.Statuses.Flagged++
		case types.StatusNonCompliant:
			report.Statuses.NonCompliant++
		case types.StatusError:
			report.Statuses.Error++
		}
		report.Violations += len(r.Critic.Violations)
		report.AutoRevisions += r.AutoRevisions
	}

	if report.TotalInWindow > 0 {
		report.CompliantPct = 100 * float64(report.Statuses.Compliant) / float64(report.TotalInWindow)
	}
	denom := report.Violations
	if denom < 1 {
		denom = 1
	}
	report.RevisionSuccessRate = float64(report.AutoRevisions) / float64(denom)

	return report
}

// Reset zeroes every counter, average, and token total, and empties the
// rolling window. Used by the reset-metrics administrative operation.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalRequests = 0
	m.successCount = 0
	m.failureCount = 0
	m.violationsTotal = 0
	m.autoRevisions = 0
	m.manualReviews = 0
	m.perAgentRequests = make(map[types.AgentKind]int64)
	m.avgTotalMs = 0
	m.avgAgentMs = 0
	m.avgCriticMs = 0
	m.sampleCount = 0
	m.tokensTotal = 0
	m.tokensPolicy = 0
	m.tokensDomain = 0
	m.window = m.window[:0]
	m.refreshGauge()
}
