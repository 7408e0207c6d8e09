package rules

import (
	"fmt"

	"github.com/specguard/sentinel/internal/agent"
	"github.com/specguard/sentinel/internal/appspec"
	"github.com/specguard/sentinel/internal/finding"
)

// IntegrityAgent detects data-integrity risks: missing identity, dangling
// relationships, unbalanced ledgers.
func IntegrityAgent() *agent.Agent {
	return agent.New("integrity",
		entityWithoutPrimaryKey{},
		danglingRelationship{},
		unbalancedLedger{},
	)
}

// DI-03: every entity needs exactly one field marked as primary key.
type entityWithoutPrimaryKey struct{}

func (entityWithoutPrimaryKey) Meta() agent.HeuristicMeta {
	return agent.HeuristicMeta{
		ID:          "DI-03",
		Category:    "data-integrity",
		Subcategory: "identity",
		Title:       "Entity has no primary key",
	}
}

func (entityWithoutPrimaryKey) Run(spec *appspec.AppSpec) []finding.Finding {
	var out []finding.Finding
	for _, e := range spec.Entities {
		hasPK := false
		for _, f := range e.Fields {
			if f.PrimaryKey {
				hasPK = true
				break
			}
		}
		if hasPK {
			continue
		}
		out = append(out, finding.Finding{
			Severity:    finding.SeverityCritical,
			Confidence:  finding.ConfidenceConfirmed,
			Description: fmt.Sprintf("Entity %q has no field marked as primary key; rows cannot be uniquely addressed and relationships to it are unenforceable.", e.Name),
			Evidence: []finding.Evidence{{
				Type:     finding.EvidenceMissingConstruct,
				Location: fmt.Sprintf("entities.%s.fields", e.Name),
				Context:  "no field with `primary_key: true` found",
			}},
			Remediation: &finding.Remediation{
				Summary:  "Mark an identity field as primary key",
				Effort:   finding.EffortTrivial,
				Guidance: "Add an id field, or mark an existing unique field as the primary key.",
				Example:  fmt.Sprintf("entity %s {\n  field id: uuid { primary_key: true }\n}", e.Name),
			},
			EntityName:    e.Name,
			ConstructType: "entity",
		})
	}
	return out
}

// DI-05: a relationship must target an entity that exists in the spec.
type danglingRelationship struct{}

func (danglingRelationship) Meta() agent.HeuristicMeta {
	return agent.HeuristicMeta{
		ID:          "DI-05",
		Category:    "data-integrity",
		Subcategory: "references",
		Title:       "Relationship targets an unknown entity",
	}
}

func (danglingRelationship) Run(spec *appspec.AppSpec) []finding.Finding {
	var out []finding.Finding
	for _, e := range spec.Entities {
		for _, r := range e.Relationships {
			if spec.Entity(r.Target) != nil {
				continue
			}
			out = append(out, finding.Finding{
				Severity:    finding.SeverityHigh,
				Confidence:  finding.ConfidenceConfirmed,
				Description: fmt.Sprintf("Relationship %q on entity %q targets %q, which is not defined in the spec.", r.Name, e.Name, r.Target),
				Evidence: []finding.Evidence{{
					Type:     finding.EvidenceStructuralPattern,
					Location: fmt.Sprintf("entities.%s.relationships.%s", e.Name, r.Name),
					Snippet:  fmt.Sprintf("target: %s", r.Target),
					Context:  fmt.Sprintf("no entity named %q exists", r.Target),
				}},
				Remediation: &finding.Remediation{
					Summary:  "Point the relationship at a defined entity",
					Effort:   finding.EffortSmall,
					Guidance: "Define the missing entity or correct the relationship target name.",
				},
				EntityName:    e.Name,
				ConstructType: "relationship",
			})
		}
	}
	return out
}

// DI-07: a ledger that is not double-entry, or that names no balancing
// field, cannot be reconciled.
type unbalancedLedger struct{}

func (unbalancedLedger) Meta() agent.HeuristicMeta {
	return agent.HeuristicMeta{
		ID:          "DI-07",
		Category:    "data-integrity",
		Subcategory: "ledgers",
		Title:       "Ledger cannot be reconciled",
	}
}

func (unbalancedLedger) Run(spec *appspec.AppSpec) []finding.Finding {
	var out []finding.Finding
	for _, l := range spec.Ledgers {
		if l.DoubleEntry && l.BalancedBy != "" {
			continue
		}
		context := "ledger is not marked double_entry"
		if l.DoubleEntry {
			context = "double-entry ledger names no balanced_by field"
		}
		out = append(out, finding.Finding{
			Severity:    finding.SeverityHigh,
			Confidence:  finding.ConfidenceLikely,
			Description: fmt.Sprintf("Ledger %q has no enforced balancing invariant; drift between debits and credits will go undetected.", l.Name),
			Evidence: []finding.Evidence{{
				Type:     finding.EvidenceConfigurationValue,
				Location: fmt.Sprintf("ledgers.%s", l.Name),
				Context:  context,
			}},
			Remediation: &finding.Remediation{
				Summary:  "Make the ledger double-entry with a balancing field",
				Effort:   finding.EffortMedium,
				Guidance: "Declare the ledger double_entry and name the field every pair of entries must balance on.",
				Example:  fmt.Sprintf("ledger %s {\n  double_entry: true\n  balanced_by: amount\n}", l.Name),
			},
			EntityName:    l.Name,
			ConstructType: "ledger",
		})
	}
	return out
}
