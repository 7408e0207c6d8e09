// Package orchestrator coordinates one scan: agent selection, bounded
// parallel execution, dedup/carry-forward against the previous scan,
// resolution accounting, filtering, summarizing, and persistence.
//
// The orchestrator is stateless per call aside from the store handle: no
// scan leaves anything behind in memory for the next one.
package orchestrator

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/specguard/sentinel/internal/agent"
	"github.com/specguard/sentinel/internal/appspec"
	"github.com/specguard/sentinel/internal/finding"
	"github.com/specguard/sentinel/internal/store"
)

type Orchestrator struct {
	store  *store.Store
	agents []*agent.Agent
	logger hclog.Logger
}

// New builds an orchestrator over the given store and agent set.
func New(st *store.Store, agents []*agent.Agent, logger hclog.Logger) *Orchestrator {
	return &Orchestrator{
		store:  st,
		agents: agents,
		logger: logger,
	}
}

// AgentIDs returns the ids of all registered agents.
func (o *Orchestrator) AgentIDs() []string {
	ids := make([]string, 0, len(o.agents))
	for _, a := range o.agents {
		ids = append(ids, a.ID())
	}
	return ids
}

// Scan runs the selected agents against the spec and persists the result.
// A scan with per-heuristic errors is still a successful scan; only config
// validation and the final store write are fatal.
//
// Findings carrying a dedup key already present in the same scan's raw
// output are preserved as-is, duplicates included: heuristics own the
// responsibility of not emitting duplicate keys.
func (o *Orchestrator) Scan(spec *appspec.AppSpec, cfg finding.ScanConfig) (*finding.ScanResult, error) {
	start := time.Now()

	if err := cfg.Validate(o.AgentIDs()); err != nil {
		return nil, fmt.Errorf("invalid scan config: %w", err)
	}

	selected := o.selectAgents(cfg.Agents)
	o.logger.Info("starting scan", "app", spec.Name, "agents", len(selected), "trigger", cfg.Trigger)

	agentResults := o.runAgents(spec, selected, cfg.Timeout)

	var raw []finding.Finding
	for _, res := range agentResults {
		if len(res.Errors) > 0 {
			o.logger.Warn("agent finished with heuristic errors", "agent", res.Agent, "errors", len(res.Errors))
		}
		raw = append(raw, res.Findings...)
	}

	now := time.Now().UTC()
	for i := range raw {
		raw[i].ScanTrigger = cfg.Trigger
		raw[i].FirstDetected = now
		raw[i].LastChecked = now
	}

	var previous []finding.Finding
	switch prevScan, err := o.store.LoadLatestScan(); {
	case err == nil:
		// The complete pre-filter list keeps the dedup chain alive for
		// findings the previous scan filtered out of its visible list.
		previous = prevScan.AllFindings
	case errors.Is(err, store.ErrNoScans):
		// First scan ever.
	default:
		// Unreadable history means no previous data; the scan proceeds fresh.
		o.logger.Warn("failed to load previous scan, treating scan as first", "error", err)
	}

	prevByKey := make(map[finding.DedupKey]finding.Finding, len(previous))
	for _, prev := range previous {
		key := prev.DedupKey()
		if _, ok := prevByKey[key]; !ok {
			prevByKey[key] = prev
		}
	}

	currentKeys := make(map[finding.DedupKey]struct{}, len(raw))
	for i := range raw {
		key := raw[i].DedupKey()
		currentKeys[key] = struct{}{}
		if prev, ok := prevByKey[key]; ok {
			// A rule firing again must not reset a human decision.
			raw[i].Status = prev.Status
			raw[i].FirstDetected = prev.FirstDetected
			raw[i].SuppressionReason = prev.SuppressionReason
		}
	}

	resolved := 0
	for key, prev := range prevByKey {
		if _, stillPresent := currentKeys[key]; stillPresent {
			continue
		}
		if !prev.Status.Terminal() {
			resolved++
		}
	}

	filtered := filterFindings(raw, cfg)
	summary := summarize(filtered, resolved)

	result := &finding.ScanResult{
		ScanID:       uuid.NewString(),
		Timestamp:    now,
		Trigger:      cfg.Trigger,
		AgentResults: agentResults,
		Findings:     filtered,
		AllFindings:  raw,
		Summary:      summary,
		DurationMS:   time.Since(start).Milliseconds(),
		Config:       cfg,
	}

	path, err := o.store.SaveScan(result)
	if err != nil {
		// An un-persisted scan would break the dedup chain for every future
		// scan, so a write failure fails the whole invocation.
		return nil, fmt.Errorf("failed to persist scan %q: %w", result.ScanID, err)
	}

	o.logger.Info("scan complete",
		"scan_id", result.ScanID,
		"findings", summary.TotalFindings,
		"new", summary.NewFindings,
		"resolved", summary.Resolved,
		"path", path,
	)
	return result, nil
}

// selectAgents intersects the registered set with the requested ids,
// preserving registration order. An empty request selects everything.
func (o *Orchestrator) selectAgents(requested []string) []*agent.Agent {
	if len(requested) == 0 {
		return o.agents
	}
	want := make(map[string]struct{}, len(requested))
	for _, id := range requested {
		want[id] = struct{}{}
	}
	var selected []*agent.Agent
	for _, a := range o.agents {
		if _, ok := want[a.ID()]; ok {
			selected = append(selected, a)
		}
	}
	return selected
}

// runAgents fans agents out across goroutines bounded by CPU count and joins
// the results in registration order. When a timeout is configured, agents
// that miss the deadline contribute a result with a timed-out error entry;
// their late output is discarded.
func (o *Orchestrator) runAgents(spec *appspec.AppSpec, agents []*agent.Agent, timeout time.Duration) []finding.AgentResult {
	type indexedResult struct {
		index  int
		result finding.AgentResult
	}

	results := make([]finding.AgentResult, len(agents))
	done := make([]bool, len(agents))
	resultCh := make(chan indexedResult, len(agents))
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))

	for i, a := range agents {
		i, a := i, a
		go func() {
			sem <- struct{}{}
			defer func() { <-sem }()
			resultCh <- indexedResult{index: i, result: a.Run(spec)}
		}()
	}

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for remaining := len(agents); remaining > 0; {
		select {
		case r := <-resultCh:
			results[r.index] = r.result
			done[r.index] = true
			remaining--
		case <-deadline:
			for i, a := range agents {
				if done[i] {
					continue
				}
				o.logger.Warn("agent timed out", "agent", a.ID(), "timeout", timeout)
				results[i] = finding.AgentResult{
					Agent:         a.ID(),
					HeuristicsRun: len(a.Heuristics()),
					DurationMS:    timeout.Milliseconds(),
					Errors:        []string{fmt.Sprintf("timed out after %s", timeout)},
				}
			}
			return results
		}
	}
	return results
}

// filterFindings applies the severity threshold, the suppression filter, and
// the optional entity/surface name restrictions.
func filterFindings(raw []finding.Finding, cfg finding.ScanConfig) []finding.Finding {
	entityFilter := toSet(cfg.Entities)
	surfaceFilter := toSet(cfg.Surfaces)

	filtered := make([]finding.Finding, 0, len(raw))
	for _, f := range raw {
		if !f.Severity.AtLeast(cfg.SeverityThreshold) {
			continue
		}
		if !cfg.IncludeSuppressed && f.Status == finding.StatusFalsePositive {
			continue
		}
		if len(entityFilter) > 0 {
			if _, ok := entityFilter[f.EntityName]; !ok {
				continue
			}
		}
		if len(surfaceFilter) > 0 {
			if _, ok := surfaceFilter[f.SurfaceName]; !ok {
				continue
			}
		}
		filtered = append(filtered, f)
	}
	return filtered
}

func summarize(filtered []finding.Finding, resolved int) finding.ScanSummary {
	summary := finding.ScanSummary{
		TotalFindings: len(filtered),
		BySeverity:    make(map[finding.Severity]int),
		ByAgent:       make(map[string]int),
		ByStatus:      make(map[finding.Status]int),
		Resolved:      resolved,
	}
	for _, f := range filtered {
		summary.BySeverity[f.Severity]++
		summary.ByAgent[f.Agent]++
		summary.ByStatus[f.Status]++
		if f.Status == finding.StatusOpen {
			summary.NewFindings++
		}
	}
	return summary
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
