package rules

import (
	"fmt"

	"github.com/specguard/sentinel/internal/agent"
	"github.com/specguard/sentinel/internal/appspec"
	"github.com/specguard/sentinel/internal/finding"
)

// TenancyAgent detects cross-tenant data leak risks. All of its heuristics
// skip specs with no tenancy section: a single-tenant app has nothing to leak.
func TenancyAgent() *agent.Agent {
	return agent.New("tenancy",
		entityMissingTenantKey{},
		listSurfaceWithoutTenantFilter{},
	)
}

// MT-01: in a shared-tenancy app, every entity must carry the declared
// tenant key field; rows without it cannot be scoped to a tenant.
type entityMissingTenantKey struct{}

func (entityMissingTenantKey) Meta() agent.HeuristicMeta {
	return agent.HeuristicMeta{
		ID:          "MT-01",
		Category:    "multi-tenancy",
		Subcategory: "isolation",
		Title:       "Entity lacks the tenant key field",
	}
}

func (entityMissingTenantKey) Run(spec *appspec.AppSpec) []finding.Finding {
	if spec.Tenancy == nil || spec.Tenancy.Mode != "shared" || spec.Tenancy.TenantKeyField == "" {
		return nil
	}
	key := spec.Tenancy.TenantKeyField

	var out []finding.Finding
	for _, e := range spec.Entities {
		if hasField(e, key) {
			continue
		}
		out = append(out, finding.Finding{
			Severity:    finding.SeverityCritical,
			Confidence:  finding.ConfidenceConfirmed,
			Description: fmt.Sprintf("Tenancy mode is shared with tenant key %q, but entity %q has no such field; its rows are visible to every tenant.", key, e.Name),
			Evidence: []finding.Evidence{{
				Type:     finding.EvidenceMissingConstruct,
				Location: fmt.Sprintf("entities.%s.fields", e.Name),
				Context:  fmt.Sprintf("no field named %q found; tenancy.tenant_key_field requires it on every entity", key),
			}},
			Remediation: &finding.Remediation{
				Summary:  "Add the tenant key field to the entity",
				Effort:   finding.EffortSmall,
				Guidance: "Every entity in a shared-tenancy app must carry the tenant key so queries can be scoped per tenant.",
				Example:  fmt.Sprintf("entity %s {\n  field %s: uuid { required: true, indexed: true }\n}", e.Name, key),
			},
			EntityName:    e.Name,
			ConstructType: "entity",
		})
	}
	return out
}

// MT-02: a list surface over a tenant-scoped entity should filter by the
// tenant key, otherwise the listing enumerates every tenant's rows. The
// runtime may inject the filter implicitly, so confidence is likely.
type listSurfaceWithoutTenantFilter struct{}

func (listSurfaceWithoutTenantFilter) Meta() agent.HeuristicMeta {
	return agent.HeuristicMeta{
		ID:          "MT-02",
		Category:    "multi-tenancy",
		Subcategory: "queries",
		Title:       "List surface is not scoped to a tenant",
	}
}

func (listSurfaceWithoutTenantFilter) Run(spec *appspec.AppSpec) []finding.Finding {
	if spec.Tenancy == nil || spec.Tenancy.TenantKeyField == "" {
		return nil
	}
	key := spec.Tenancy.TenantKeyField

	var out []finding.Finding
	for _, s := range spec.Surfaces {
		if s.Kind != "list" {
			continue
		}
		entity := spec.Entity(s.Entity)
		if entity == nil || !hasField(*entity, key) {
			continue
		}
		if containsString(s.Filters, key) {
			continue
		}
		out = append(out, finding.Finding{
			Severity:    finding.SeverityHigh,
			Confidence:  finding.ConfidenceLikely,
			Description: fmt.Sprintf("List surface %q reads tenant-scoped entity %q without filtering on %q.", s.Name, s.Entity, key),
			Evidence: []finding.Evidence{{
				Type:     finding.EvidenceStructuralPattern,
				Location: fmt.Sprintf("surfaces.%s.filters", s.Name),
				Context:  fmt.Sprintf("filters %v do not include the tenant key %q", s.Filters, key),
			}},
			Remediation: &finding.Remediation{
				Summary:  "Filter the listing by the tenant key",
				Effort:   finding.EffortTrivial,
				Guidance: "Add the tenant key to the surface filters so the query is scoped to the caller's tenant.",
				Example:  fmt.Sprintf("surface %s {\n  entity: %s\n  filters: [%q]\n}", s.Name, s.Entity, key),
			},
			EntityName:    s.Entity,
			SurfaceName:   s.Name,
			ConstructType: "surface",
		})
	}
	return out
}

func hasField(e appspec.Entity, name string) bool {
	for _, f := range e.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
