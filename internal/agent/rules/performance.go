package rules

import (
	"fmt"

	"github.com/specguard/sentinel/internal/agent"
	"github.com/specguard/sentinel/internal/appspec"
	"github.com/specguard/sentinel/internal/finding"
)

// PerformanceAgent detects query and paging hazards visible in the spec.
func PerformanceAgent() *agent.Agent {
	return agent.New("performance",
		unindexedFilterField{},
		unpaginatedListSurface{},
	)
}

// PF-02: a surface filter over an unindexed field degrades to a full scan.
// Whether that matters depends on row counts Sentinel cannot see, so the
// confidence is possible.
type unindexedFilterField struct{}

func (unindexedFilterField) Meta() agent.HeuristicMeta {
	return agent.HeuristicMeta{
		ID:          "PF-02",
		Category:    "performance",
		Subcategory: "indexes",
		Title:       "Surface filters on an unindexed field",
	}
}

func (unindexedFilterField) Run(spec *appspec.AppSpec) []finding.Finding {
	var out []finding.Finding
	for _, s := range spec.Surfaces {
		entity := spec.Entity(s.Entity)
		if entity == nil {
			continue
		}
		for _, filter := range s.Filters {
			field := fieldByName(*entity, filter)
			if field == nil || field.Indexed || field.PrimaryKey || field.Unique {
				continue
			}
			out = append(out, finding.Finding{
				Severity:    finding.SeverityMedium,
				Confidence:  finding.ConfidencePossible,
				Description: fmt.Sprintf("Surface %q filters on %s.%s, which is not indexed; the query scans the full table.", s.Name, s.Entity, filter),
				Evidence: []finding.Evidence{{
					Type:     finding.EvidenceStructuralPattern,
					Location: fmt.Sprintf("surfaces.%s.filters", s.Name),
					Snippet:  fmt.Sprintf("filters: [%q]", filter),
					Context:  fmt.Sprintf("field %s.%s has no index, primary key, or uniqueness", s.Entity, filter),
				}},
				Remediation: &finding.Remediation{
					Summary:  "Index the filtered field",
					Effort:   finding.EffortTrivial,
					Guidance: "Mark the field indexed so filtered reads stay bounded as the table grows.",
					Example:  fmt.Sprintf("entity %s {\n  field %s { indexed: true }\n}", s.Entity, filter),
				},
				EntityName:    s.Entity,
				SurfaceName:   s.Name,
				ConstructType: "surface",
			})
		}
	}
	return out
}

// PF-05: list surfaces without pagination return unbounded result sets.
type unpaginatedListSurface struct{}

func (unpaginatedListSurface) Meta() agent.HeuristicMeta {
	return agent.HeuristicMeta{
		ID:          "PF-05",
		Category:    "performance",
		Subcategory: "paging",
		Title:       "List surface returns unbounded results",
	}
}

func (unpaginatedListSurface) Run(spec *appspec.AppSpec) []finding.Finding {
	var out []finding.Finding
	for _, s := range spec.Surfaces {
		if s.Kind != "list" || s.Pagination != nil {
			continue
		}
		out = append(out, finding.Finding{
			Severity:    finding.SeverityMedium,
			Confidence:  finding.ConfidenceLikely,
			Description: fmt.Sprintf("List surface %q declares no pagination; response size grows with the table.", s.Name),
			Evidence: []finding.Evidence{{
				Type:     finding.EvidenceMissingConstruct,
				Location: fmt.Sprintf("surfaces.%s", s.Name),
				Context:  "no `pagination` block found on a list surface",
			}},
			Remediation: &finding.Remediation{
				Summary:  "Add a pagination block to the surface",
				Effort:   finding.EffortTrivial,
				Guidance: "Cap the page size so a single request cannot pull the whole table.",
				Example:  fmt.Sprintf("surface %s {\n  pagination { page_size: 50 }\n}", s.Name),
			},
			EntityName:    s.Entity,
			SurfaceName:   s.Name,
			ConstructType: "surface",
		})
	}
	return out
}

func fieldByName(e appspec.Entity, name string) *appspec.Field {
	for i := range e.Fields {
		if e.Fields[i].Name == name {
			return &e.Fields[i]
		}
	}
	return nil
}
