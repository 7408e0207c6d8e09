package finding

import (
	"fmt"
	"time"
)

// AgentResult is the raw outcome of running one detection agent. Errors hold
// one entry per heuristic that failed; a non-empty list is a partial failure,
// not a failed agent.
type AgentResult struct {
	Agent         string    `json:"agent"`
	Findings      []Finding `json:"findings"`
	HeuristicsRun int       `json:"heuristics_run"`
	DurationMS    int64     `json:"duration_ms"`
	Errors        []string  `json:"errors,omitempty"`
}

// ScanConfig is the immutable input to one scan.
type ScanConfig struct {
	Agents            []string      `json:"agents,omitempty"`
	SeverityThreshold Severity      `json:"severity_threshold"`
	Entities          []string      `json:"entities,omitempty"`
	Surfaces          []string      `json:"surfaces,omitempty"`
	Trigger           Trigger       `json:"trigger"`
	IncludeSuppressed bool          `json:"include_suppressed"`
	Timeout           time.Duration `json:"timeout,omitempty"`
}

// Validate rejects unknown agent ids, severities, and triggers with a
// descriptive error. Nothing is silently defaulted except the omitted
// threshold (info, keep everything) and trigger (manual).
func (c *ScanConfig) Validate(knownAgents []string) error {
	if c.SeverityThreshold == "" {
		c.SeverityThreshold = SeverityInfo
	} else if _, err := ParseSeverity(string(c.SeverityThreshold)); err != nil {
		return err
	}

	if c.Trigger == "" {
		c.Trigger = TriggerManual
	} else if _, err := ParseTrigger(string(c.Trigger)); err != nil {
		return err
	}

	if c.Timeout < 0 {
		return fmt.Errorf("scan timeout %v must not be negative", c.Timeout)
	}

	known := make(map[string]struct{}, len(knownAgents))
	for _, id := range knownAgents {
		known[id] = struct{}{}
	}
	for _, id := range c.Agents {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("unknown agent id %q (registered agents: %v)", id, knownAgents)
		}
	}
	return nil
}

// ScanSummary tallies the filtered finding list of one scan.
type ScanSummary struct {
	TotalFindings int              `json:"total_findings"`
	BySeverity    map[Severity]int `json:"by_severity"`
	ByAgent       map[string]int   `json:"by_agent"`
	ByStatus      map[Status]int   `json:"by_status"`
	NewFindings   int              `json:"new_findings"`
	Resolved      int              `json:"resolved"`
}

// ScanResult is the unit of persistence: one full scan, stored verbatim.
//
// Findings is the filtered view callers consume. AllFindings is the complete
// post-carry-forward list before severity/suppression filtering; it is what
// the next scan's dedup reads, so suppressions and below-threshold findings
// survive being filtered out of the visible list.
type ScanResult struct {
	ScanID       string        `json:"scan_id"`
	Timestamp    time.Time     `json:"timestamp"`
	Trigger      Trigger       `json:"trigger"`
	AgentResults []AgentResult `json:"agent_results"`
	Findings     []Finding     `json:"findings"`
	AllFindings  []Finding     `json:"all_findings"`
	Summary      ScanSummary   `json:"summary"`
	DurationMS   int64         `json:"duration_ms"`
	Config       ScanConfig    `json:"config"`
}

// ScanListing is lightweight scan metadata for history listings.
type ScanListing struct {
	ScanID       string    `json:"scan_id"`
	Timestamp    time.Time `json:"timestamp"`
	Trigger      Trigger   `json:"trigger"`
	FindingCount int       `json:"finding_count"`
}
