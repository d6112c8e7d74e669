package integration

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/procureagent/pkg/types"
)

func result(agent types.AgentKind, status types.FinalStatus, success bool, violations int, revisions int, totalMs int64) types.WorkflowResult {
	r := types.WorkflowResult{
		Agent:       agent,
		FinalStatus: status,
		Success:     success,
		TotalMs:     totalMs,
		AgentMs:     totalMs / 2,
		CriticMs:    totalMs / 2,
		Timestamp:   time.Now(),
		AutoRevisions: revisions,
	}
	r.Critic.Violations = make([]types.Violation, violations)
	return r
}

func TestRunningAverageExactMean(t *testing.T) {
	m := New()
	samples := []int64{10, 20, 30, 40}
	for _, s := range samples {
		m.Record(result(types.AgentNegotiation, types.StatusCompliant, true, 0, 0, s))
	}
	snap := m.Snapshot()
	assert.InDelta(t, 25.0, snap.AvgTotalMs, 1e-9)
}

func TestFailedRequestOnlyTouchesTotalAndFailure(t *testing.T) {
	m := New()
	m.Record(result(types.AgentCompliance, types.StatusError, false, 3, 2, 100))

	snap := m.Snapshot()
	assert.EqualValues(t, 1, snap.TotalRequests)
	assert.EqualValues(t, 1, snap.FailureCount)
	assert.EqualValues(t, 0, snap.SuccessCount)
	assert.EqualValues(t, 0, snap.ViolationsTotal)
	assert.EqualValues(t, 0, snap.AutoRevisions)
}

func TestRollingWindowEvictsOldest(t *testing.T) {
	m := NewWithCapacity(3)
	for i := 0; i < 5; i++ {
		m.Record(result(types.AgentForecast, types.StatusCompliant, true, 0, 0, int64(i)))
	}
	snap := m.Snapshot()
	require.Equal(t, 3, snap.RollingWindowSize)

	recent := m.Recent(0)
	require.Len(t, recent, 3)
	assert.EqualValues(t, 4, recent[0].TotalMs)
	assert.EqualValues(t, 2, recent[2].TotalMs)
}

func TestComplianceReportWindow(t *testing.T) {
	m := New()
	statuses := []types.FinalStatus{
		types.StatusCompliant, types.StatusCompliant, types.StatusCompliant,
		types.StatusCompliant, types.StatusCompliant,
		types.StatusRevised, types.StatusRevised, types.StatusRevised,
		types.StatusFlagged, types.StatusFlagged,
	}
	for _, s := range statuses {
		m.Record(result(types.AgentNegotiation, s, true, 1, 1, 10))
	}

	report := m.ComplianceReport(time.Hour)
	assert.Equal(t, 10, report.TotalInWindow)
	assert.Equal(t, 5, report.Statuses.Compliant)
	assert.Equal(t, 3, report.Statuses.Revised)
	assert.Equal(t, 2, report.Statuses.Flagged)
	assert.InDelta(t, 50.0, report.CompliantPct, 1e-9)
}

func TestComplianceReportExcludesOutsideWindow(t *testing.T) {
	m := New()
	stale := result(types.AgentNegotiation, types.StatusCompliant, true, 0, 0, 10)
	stale.Timestamp = time.Now().Add(-2 * time.Hour)
	m.Record(stale)

	fresh := result(types.AgentNegotiation, types.StatusCompliant, true, 0, 0, 10)
	m.Record(fresh)

	report := m.ComplianceReport(time.Hour)
	assert.Equal(t, 1, report.TotalInWindow)
}

func TestResetZeroesEverything(t *testing.T) {
	m := New()
	m.Record(result(types.AgentCompliance, types.StatusRevised, true, 2, 1, 50))
	m.Reset()

	snap := m.Snapshot()
	assert.Zero(t, snap.TotalRequests)
	assert.Zero(t, snap.SuccessCount)
	assert.Zero(t, snap.RollingWindowSize)
	assert.Empty(t, m.Recent(0))
}

func TestConcurrentRecordIsRace_Free(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Record(result(types.AgentForecast, types.StatusCompliant, true, 0, 0, int64(i)))
		}(i)
	}
	wg.Wait()

	snap := m.Snapshot()
	assert.EqualValues(t, 50, snap.TotalRequests)
}
