// Package rules carries the built-in detection agents and their exemplar
// heuristics. Every rule follows the same contract: inspect one structural
// aspect of the AppSpec and emit one finding per violating instance, with
// evidence pointing at the exact spec location and a concrete remediation in
// the spec's own syntax.
package rules

import "github.com/specguard/sentinel/internal/agent"

// Agents returns the full built-in agent set. A fresh slice is built per
// call; agents carry no state between scans.
func Agents() []*agent.Agent {
	return []*agent.Agent{
		AuthAgent(),
		TenancyAgent(),
		IntegrityAgent(),
		PerformanceAgent(),
	}
}

// AgentIDs returns the ids of the built-in agents.
func AgentIDs() []string {
	agents := Agents()
	ids := make([]string, 0, len(agents))
	for _, a := range agents {
		ids = append(ids, a.ID())
	}
	return ids
}
