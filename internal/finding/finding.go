package finding

import "time"

// Evidence cites the spot in the AppSpec where a condition was, or was not,
// found.
type Evidence struct {
	Type     EvidenceType `json:"evidence_type"`
	Location string       `json:"location"`
	Snippet  string       `json:"snippet,omitempty"`
	Context  string       `json:"context"`
}

// Remediation proposes a textual fix. Sentinel never applies fixes itself.
type Remediation struct {
	Summary    string   `json:"summary"`
	Effort     Effort   `json:"effort"`
	Guidance   string   `json:"guidance"`
	Example    string   `json:"example,omitempty"`
	References []string `json:"references,omitempty"`
}

// Finding is one detected issue instance. The ID is regenerated on every
// scan; cross-scan identity is the dedup key, nothing else.
type Finding struct {
	ID          string     `json:"finding_id"`
	Agent       string     `json:"agent"`
	HeuristicID string     `json:"heuristic_id"`
	Category    string     `json:"category"`
	Subcategory string     `json:"subcategory,omitempty"`
	Severity    Severity   `json:"severity"`
	Confidence  Confidence `json:"confidence"`
	Title       string     `json:"title"`
	Description string     `json:"description"`

	Evidence    []Evidence   `json:"evidence"`
	Remediation *Remediation `json:"remediation,omitempty"`

	Status            Status    `json:"status"`
	FirstDetected     time.Time `json:"first_detected"`
	LastChecked       time.Time `json:"last_checked"`
	ScanTrigger       Trigger   `json:"scan_trigger"`
	SuppressionReason string    `json:"suppression_reason,omitempty"`

	EntityName    string `json:"entity_name,omitempty"`
	SurfaceName   string `json:"surface_name,omitempty"`
	ConstructType string `json:"construct_type,omitempty"`
}

// DedupKey identifies "the same finding" across independent scans. It must
// be derived from the same four fields on every scan.
type DedupKey struct {
	HeuristicID   string
	EntityName    string
	SurfaceName   string
	ConstructType string
}

// DedupKey derives the cross-scan identity of the finding.
func (f *Finding) DedupKey() DedupKey {
	return DedupKey{
		HeuristicID:   f.HeuristicID,
		EntityName:    f.EntityName,
		SurfaceName:   f.SurfaceName,
		ConstructType: f.ConstructType,
	}
}
