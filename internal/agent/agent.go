// Package agent implements detection agents: named bundles of heuristics
// sharing a concern area. Heuristics are registered statically at agent
// construction and run in a deterministic order sorted by heuristic id.
package agent

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/specguard/sentinel/internal/appspec"
	"github.com/specguard/sentinel/internal/finding"
)

// HeuristicMeta identifies and classifies one rule.
type HeuristicMeta struct {
	ID          string
	Category    string
	Subcategory string
	Title       string
}

// Heuristic is a single pure rule: no I/O, no mutation of the spec,
// deterministic output for a given spec. One small struct per rule.
type Heuristic interface {
	Meta() HeuristicMeta
	Run(spec *appspec.AppSpec) []finding.Finding
}

// Agent groups heuristics by concern area.
type Agent struct {
	id         string
	heuristics []Heuristic
}

// New builds an agent with the given heuristics, sorted by heuristic id so
// scan output is reproducible regardless of registration order.
func New(id string, heuristics ...Heuristic) *Agent {
	sorted := make([]Heuristic, len(heuristics))
	copy(sorted, heuristics)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Meta().ID < sorted[j].Meta().ID
	})
	return &Agent{id: id, heuristics: sorted}
}

// ID returns the stable agent id.
func (a *Agent) ID() string {
	return a.id
}

// Heuristics returns the registered heuristics in run order.
func (a *Agent) Heuristics() []Heuristic {
	out := make([]Heuristic, len(a.heuristics))
	copy(out, a.heuristics)
	return out
}

// Run invokes every heuristic in registry order against the spec. A panic in
// one heuristic is recorded in Errors and never aborts the others. Findings
// are stamped with the agent id, heuristic metadata, a fresh finding id, and
// the initial open status; scan-level stamping (trigger, timestamps) belongs
// to the orchestrator.
func (a *Agent) Run(spec *appspec.AppSpec) finding.AgentResult {
	start := time.Now()
	result := finding.AgentResult{
		Agent:         a.id,
		HeuristicsRun: len(a.heuristics),
	}

	for _, h := range a.heuristics {
		meta := h.Meta()
		found, err := runHeuristic(h, spec)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", meta.ID, err))
			continue
		}
		for i := range found {
			f := &found[i]
			f.ID = uuid.NewString()
			f.Agent = a.id
			f.HeuristicID = meta.ID
			f.Category = meta.Category
			f.Subcategory = meta.Subcategory
			f.Status = finding.StatusOpen
			if f.Title == "" {
				f.Title = meta.Title
			}
		}
		result.Findings = append(result.Findings, found...)
	}

	result.DurationMS = time.Since(start).Milliseconds()
	return result
}

// runHeuristic isolates a single rule invocation, converting panics to errors.
func runHeuristic(h Heuristic, spec *appspec.AppSpec) (found []finding.Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			found = nil
			err = fmt.Errorf("heuristic panicked: %v", r)
		}
	}()
	return h.Run(spec), nil
}
