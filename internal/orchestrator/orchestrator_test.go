package orchestrator

import (
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specguard/sentinel/internal/agent"
	"github.com/specguard/sentinel/internal/appspec"
	"github.com/specguard/sentinel/internal/finding"
	"github.com/specguard/sentinel/internal/store"
)

type stubHeuristic struct {
	id       string
	emit     []finding.Finding
	panicMsg string
	sleep    time.Duration
}

func (s stubHeuristic) Meta() agent.HeuristicMeta {
	return agent.HeuristicMeta{ID: s.id, Category: "test", Title: "stub " + s.id}
}

func (s stubHeuristic) Run(spec *appspec.AppSpec) []finding.Finding {
	if s.sleep > 0 {
		time.Sleep(s.sleep)
	}
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	out := make([]finding.Finding, len(s.emit))
	copy(out, s.emit)
	return out
}

// emits builds a stub that reports one finding per named entity.
func emits(id string, severity finding.Severity, entities ...string) stubHeuristic {
	var out []finding.Finding
	for _, e := range entities {
		out = append(out, finding.Finding{
			Severity:      severity,
			Confidence:    finding.ConfidenceConfirmed,
			EntityName:    e,
			ConstructType: "entity",
		})
	}
	return stubHeuristic{id: id, emit: out}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(t.TempDir(), hclog.NewNullLogger())
	require.NoError(t, err)
	return st
}

func newOrchestrator(st *store.Store, agents ...*agent.Agent) *Orchestrator {
	return New(st, agents, hclog.NewNullLogger())
}

func TestScanRejectsUnknownAgent(t *testing.T) {
	o := newOrchestrator(newTestStore(t), agent.New("auth"))

	_, err := o.Scan(&appspec.AppSpec{Name: "app"}, finding.ScanConfig{Agents: []string{"billing"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "billing")
}

func TestScanSelectsRequestedAgents(t *testing.T) {
	st := newTestStore(t)
	o := newOrchestrator(st,
		agent.New("auth", emits("AU-01", finding.SeverityHigh, "Invoice")),
		agent.New("tenancy", emits("MT-01", finding.SeverityHigh, "Invoice")),
	)

	result, err := o.Scan(&appspec.AppSpec{Name: "app"}, finding.ScanConfig{Agents: []string{"auth"}})
	require.NoError(t, err)

	require.Len(t, result.AgentResults, 1)
	assert.Equal(t, "auth", result.AgentResults[0].Agent)
	require.Len(t, result.Findings, 1)
	assert.Equal(t, "AU-01", result.Findings[0].HeuristicID)
}

func TestFirstScanFindingsAreNewAndOpen(t *testing.T) {
	st := newTestStore(t)
	o := newOrchestrator(st, agent.New("integrity", emits("DI-03", finding.SeverityCritical, "Invoice")))

	result, err := o.Scan(&appspec.AppSpec{Name: "app"}, finding.ScanConfig{Trigger: finding.TriggerPipeline})
	require.NoError(t, err)

	require.Len(t, result.Findings, 1)
	f := result.Findings[0]
	assert.Equal(t, finding.StatusOpen, f.Status)
	assert.Equal(t, finding.TriggerPipeline, f.ScanTrigger)
	assert.Equal(t, f.FirstDetected, f.LastChecked)
	assert.Equal(t, 1, result.Summary.NewFindings)
	assert.Equal(t, 0, result.Summary.Resolved)
}

func TestDedupStabilityAcrossScans(t *testing.T) {
	st := newTestStore(t)
	spec := &appspec.AppSpec{Name: "app"}
	o := newOrchestrator(st, agent.New("integrity", emits("DI-03", finding.SeverityCritical, "Invoice")))

	first, err := o.Scan(spec, finding.ScanConfig{})
	require.NoError(t, err)
	require.Len(t, first.Findings, 1)

	// A human marks the finding a false positive between the two scans.
	ok, err := st.SuppressFinding(first.Findings[0].ID, "pk handled upstream")
	require.NoError(t, err)
	require.True(t, ok)

	second, err := o.Scan(spec, finding.ScanConfig{IncludeSuppressed: true})
	require.NoError(t, err)
	require.Len(t, second.Findings, 1)

	f1, f2 := first.Findings[0], second.Findings[0]
	assert.Equal(t, f1.DedupKey(), f2.DedupKey())
	assert.NotEqual(t, f1.ID, f2.ID, "finding ids are regenerated every scan")
	assert.Equal(t, finding.StatusFalsePositive, f2.Status, "carry-forward must not reset a human decision")
	assert.Equal(t, "pk handled upstream", f2.SuppressionReason)
	assert.True(t, f2.FirstDetected.Equal(f1.FirstDetected), "first_detected survives reruns")
	assert.True(t, f2.LastChecked.After(f1.LastChecked) || f2.LastChecked.Equal(f1.LastChecked))
}

func TestIdempotentRerun(t *testing.T) {
	st := newTestStore(t)
	spec := &appspec.AppSpec{Name: "app"}
	o := newOrchestrator(st,
		agent.New("auth", emits("AU-01", finding.SeverityHigh, "Invoice", "Payment")),
		agent.New("integrity", emits("DI-03", finding.SeverityCritical, "Invoice")),
	)

	first, err := o.Scan(spec, finding.ScanConfig{})
	require.NoError(t, err)
	second, err := o.Scan(spec, finding.ScanConfig{})
	require.NoError(t, err)

	assert.Equal(t, first.Summary.NewFindings, second.Summary.NewFindings)
	assert.Equal(t, 0, second.Summary.Resolved)
	for _, f := range second.Findings {
		assert.Equal(t, finding.StatusOpen, f.Status)
	}
}

func TestResolutionAccounting(t *testing.T) {
	st := newTestStore(t)
	spec := &appspec.AppSpec{Name: "app"}

	first := newOrchestrator(st, agent.New("auth", emits("AU-01", finding.SeverityHigh, "Invoice")))
	_, err := first.Scan(spec, finding.ScanConfig{})
	require.NoError(t, err)

	// The rule no longer fires on the second scan: the issue was fixed.
	second := newOrchestrator(st, agent.New("auth"))
	result, err := second.Scan(spec, finding.ScanConfig{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Summary.Resolved)
	assert.Empty(t, result.Findings)
}

func TestResolutionIgnoresTerminalFindings(t *testing.T) {
	st := newTestStore(t)
	spec := &appspec.AppSpec{Name: "app"}

	first := newOrchestrator(st, agent.New("auth", emits("AU-01", finding.SeverityHigh, "Invoice")))
	res, err := first.Scan(spec, finding.ScanConfig{})
	require.NoError(t, err)

	ok, err := st.SuppressFinding(res.Findings[0].ID, "not real")
	require.NoError(t, err)
	require.True(t, ok)

	// A suppressed finding disappearing is not a fix.
	second := newOrchestrator(st, agent.New("auth"))
	result, err := second.Scan(spec, finding.ScanConfig{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Summary.Resolved)
}

func TestSeverityFilteringMonotonicity(t *testing.T) {
	spec := &appspec.AppSpec{Name: "app"}
	newAgents := func() []*agent.Agent {
		return []*agent.Agent{agent.New("mixed",
			emits("XX-01", finding.SeverityCritical, "A"),
			emits("XX-02", finding.SeverityHigh, "B"),
			emits("XX-03", finding.SeverityMedium, "C"),
			emits("XX-04", finding.SeverityLow, "D"),
			emits("XX-05", finding.SeverityInfo, "E"),
		)}
	}

	thresholds := []finding.Severity{
		finding.SeverityCritical,
		finding.SeverityHigh,
		finding.SeverityMedium,
		finding.SeverityLow,
		finding.SeverityInfo,
	}

	previousCount := -1
	for _, threshold := range thresholds {
		o := New(newTestStore(t), newAgents(), hclog.NewNullLogger())
		result, err := o.Scan(spec, finding.ScanConfig{SeverityThreshold: threshold})
		require.NoError(t, err)

		assert.GreaterOrEqual(t, result.Summary.TotalFindings, previousCount,
			"lowering the threshold toward info must never shrink the filtered set")
		previousCount = result.Summary.TotalFindings

		for _, f := range result.Findings {
			assert.True(t, f.Severity.AtLeast(threshold))
		}
	}
	assert.Equal(t, 5, previousCount, "info threshold keeps everything")
}

// Covers the documented persistence choice: a suppressed finding is dropped
// from the filtered list and its filtered summary, but stays in the record's
// complete list so later scans keep carrying the suppression forward.
func TestSuppressionPermanence(t *testing.T) {
	st := newTestStore(t)
	spec := &appspec.AppSpec{Name: "app"}
	o := newOrchestrator(st, agent.New("integrity", emits("DI-03", finding.SeverityCritical, "Invoice")))

	first, err := o.Scan(spec, finding.ScanConfig{})
	require.NoError(t, err)
	require.Len(t, first.Findings, 1)
	firstDetected := first.Findings[0].FirstDetected

	ok, err := st.SuppressFinding(first.Findings[0].ID, "pk is synthetic")
	require.NoError(t, err)
	require.True(t, ok)

	second, err := o.Scan(spec, finding.ScanConfig{})
	require.NoError(t, err)

	assert.Empty(t, second.Findings, "suppressed finding is filtered from the visible list")
	assert.Equal(t, 0, second.Summary.ByStatus[finding.StatusFalsePositive],
		"the filtered summary does not count the dropped finding")
	require.Len(t, second.AllFindings, 1, "the complete list retains it")
	assert.Equal(t, finding.StatusFalsePositive, second.AllFindings[0].Status)

	// Third scan: the suppression still holds, read from all_findings.
	third, err := o.Scan(spec, finding.ScanConfig{})
	require.NoError(t, err)
	assert.Empty(t, third.Findings)
	require.Len(t, third.AllFindings, 1)
	assert.Equal(t, finding.StatusFalsePositive, third.AllFindings[0].Status)
	assert.Equal(t, "pk is synthetic", third.AllFindings[0].SuppressionReason)
	assert.True(t, third.AllFindings[0].FirstDetected.Equal(firstDetected))
}

func TestDuplicateDedupKeysArePreserved(t *testing.T) {
	st := newTestStore(t)
	duplicate := emits("XX-01", finding.SeverityHigh, "Invoice", "Invoice")
	o := newOrchestrator(st, agent.New("test", duplicate))

	result, err := o.Scan(&appspec.AppSpec{Name: "app"}, finding.ScanConfig{})
	require.NoError(t, err)

	require.Len(t, result.Findings, 2, "duplicate keys within one scan are not collapsed")
	assert.Equal(t, result.Findings[0].DedupKey(), result.Findings[1].DedupKey())
	assert.NotEqual(t, result.Findings[0].ID, result.Findings[1].ID)
}

func TestHeuristicErrorsSurfaceAsWarnings(t *testing.T) {
	st := newTestStore(t)
	o := newOrchestrator(st,
		agent.New("flaky",
			emits("FL-01", finding.SeverityHigh, "Invoice"),
			stubHeuristic{id: "FL-02", panicMsg: "boom"},
		),
		agent.New("steady", emits("ST-01", finding.SeverityMedium, "Payment")),
	)

	result, err := o.Scan(&appspec.AppSpec{Name: "app"}, finding.ScanConfig{})
	require.NoError(t, err, "a partially failed scan is still a scan")

	assert.Len(t, result.Findings, 2)
	require.Len(t, result.AgentResults, 2)
	require.Len(t, result.AgentResults[0].Errors, 1)
	assert.Contains(t, result.AgentResults[0].Errors[0], "FL-02")
	assert.Empty(t, result.AgentResults[1].Errors)
}

func TestEntityAndSurfaceFilters(t *testing.T) {
	st := newTestStore(t)
	o := newOrchestrator(st, agent.New("auth",
		emits("AU-01", finding.SeverityHigh, "Invoice", "Payment"),
	))

	result, err := o.Scan(&appspec.AppSpec{Name: "app"}, finding.ScanConfig{Entities: []string{"Invoice"}})
	require.NoError(t, err)

	require.Len(t, result.Findings, 1)
	assert.Equal(t, "Invoice", result.Findings[0].EntityName)
	assert.Len(t, result.AllFindings, 2, "name filters only shape the visible list")
}

func TestScanTimeoutMarksSlowAgents(t *testing.T) {
	st := newTestStore(t)
	o := newOrchestrator(st,
		agent.New("fast", emits("FA-01", finding.SeverityHigh, "Invoice")),
		agent.New("slow", stubHeuristic{id: "SL-01", sleep: 500 * time.Millisecond}),
	)

	result, err := o.Scan(&appspec.AppSpec{Name: "app"}, finding.ScanConfig{Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	require.Len(t, result.AgentResults, 2)
	byAgent := map[string]finding.AgentResult{}
	for _, res := range result.AgentResults {
		byAgent[res.Agent] = res
	}

	assert.Empty(t, byAgent["fast"].Errors)
	assert.Len(t, byAgent["fast"].Findings, 1)
	require.Len(t, byAgent["slow"].Errors, 1)
	assert.Contains(t, byAgent["slow"].Errors[0], "timed out")
}
