package rules

import (
	"fmt"

	"github.com/specguard/sentinel/internal/agent"
	"github.com/specguard/sentinel/internal/appspec"
	"github.com/specguard/sentinel/internal/finding"
)

// AuthAgent detects missing or weak access-control declarations.
func AuthAgent() *agent.Agent {
	return agent.New("auth",
		unauthenticatedSurface{},
		entityWithoutAccessControl{},
		unauthenticatedWebhook{},
	)
}

// AU-01: every surface must require authentication or declare its own
// access-control block. A surface with neither is reachable anonymously.
type unauthenticatedSurface struct{}

func (unauthenticatedSurface) Meta() agent.HeuristicMeta {
	return agent.HeuristicMeta{
		ID:          "AU-01",
		Category:    "auth",
		Subcategory: "authentication",
		Title:       "Surface reachable without authentication",
	}
}

func (unauthenticatedSurface) Run(spec *appspec.AppSpec) []finding.Finding {
	var out []finding.Finding
	for _, s := range spec.Surfaces {
		if s.Authenticated || s.AccessControl != nil {
			continue
		}
		out = append(out, finding.Finding{
			Severity:    finding.SeverityHigh,
			Confidence:  finding.ConfidenceConfirmed,
			Description: fmt.Sprintf("Surface %q declares neither `authenticated` nor an access_control block, so it is exposed to anonymous callers.", s.Name),
			Evidence: []finding.Evidence{{
				Type:     finding.EvidenceMissingConstruct,
				Location: fmt.Sprintf("surfaces.%s", s.Name),
				Context:  "no `authenticated: true` and no `access_control` block found on the surface",
			}},
			Remediation: &finding.Remediation{
				Summary:  "Require authentication on the surface",
				Effort:   finding.EffortTrivial,
				Guidance: "Mark the surface authenticated, or attach an access_control block naming the roles allowed to reach it.",
				Example:  fmt.Sprintf("surface %s {\n  entity: %s\n  authenticated: true\n}", s.Name, s.Entity),
			},
			SurfaceName:   s.Name,
			ConstructType: "surface",
		})
	}
	return out
}

// AU-02: an entity exposed through a CRUD surface must carry an explicit
// access-control block; write access without one defaults to everyone.
type entityWithoutAccessControl struct{}

func (entityWithoutAccessControl) Meta() agent.HeuristicMeta {
	return agent.HeuristicMeta{
		ID:          "AU-02",
		Category:    "auth",
		Subcategory: "authorization",
		Title:       "CRUD-exposed entity has no access control",
	}
}

func (entityWithoutAccessControl) Run(spec *appspec.AppSpec) []finding.Finding {
	exposed := make(map[string]string) // entity name -> first CRUD surface
	for _, s := range spec.Surfaces {
		if s.Kind != "crud" {
			continue
		}
		if _, ok := exposed[s.Entity]; !ok {
			exposed[s.Entity] = s.Name
		}
	}

	var out []finding.Finding
	for _, e := range spec.Entities {
		surface, ok := exposed[e.Name]
		if !ok || e.AccessControl != nil {
			continue
		}
		out = append(out, finding.Finding{
			Severity:    finding.SeverityCritical,
			Confidence:  finding.ConfidenceConfirmed,
			Description: fmt.Sprintf("Entity %q is writable through CRUD surface %q but declares no access_control block.", e.Name, surface),
			Evidence: []finding.Evidence{{
				Type:     finding.EvidenceMissingConstruct,
				Location: fmt.Sprintf("entities.%s", e.Name),
				Context:  fmt.Sprintf("entity referenced by CRUD surface %q has no `access_control` block", surface),
			}},
			Remediation: &finding.Remediation{
				Summary:  "Declare an access_control block on the entity",
				Effort:   finding.EffortSmall,
				Guidance: "List the roles allowed to create, update, and delete the entity. Without a block, every authenticated persona can write it.",
				Example:  fmt.Sprintf("entity %s {\n  access_control {\n    rules: [{ action: \"write\", roles: [\"admin\"] }]\n  }\n}", e.Name),
			},
			EntityName:    e.Name,
			ConstructType: "entity",
		})
	}
	return out
}

// AU-03: inbound webhooks should verify their caller. Name-based check only,
// so confidence is likely rather than confirmed.
type unauthenticatedWebhook struct{}

func (unauthenticatedWebhook) Meta() agent.HeuristicMeta {
	return agent.HeuristicMeta{
		ID:          "AU-03",
		Category:    "auth",
		Subcategory: "webhooks",
		Title:       "Webhook accepts unverified calls",
	}
}

func (unauthenticatedWebhook) Run(spec *appspec.AppSpec) []finding.Finding {
	var out []finding.Finding
	for _, w := range spec.Webhooks {
		if w.Authenticated {
			continue
		}
		out = append(out, finding.Finding{
			Severity:    finding.SeverityMedium,
			Confidence:  finding.ConfidenceLikely,
			Description: fmt.Sprintf("Webhook %q (event %q) does not verify its caller; forged events will be accepted.", w.Name, w.Event),
			Evidence: []finding.Evidence{{
				Type:     finding.EvidenceConfigurationValue,
				Location: fmt.Sprintf("webhooks.%s", w.Name),
				Snippet:  "authenticated: false",
				Context:  "webhook is not marked authenticated",
			}},
			Remediation: &finding.Remediation{
				Summary:  "Require signature verification on the webhook",
				Effort:   finding.EffortSmall,
				Guidance: "Mark the webhook authenticated so the runtime enforces shared-secret or signature verification.",
				Example:  fmt.Sprintf("webhook %s {\n  event: %s\n  authenticated: true\n}", w.Name, w.Event),
			},
			EntityName:    w.Name,
			ConstructType: "webhook",
		})
	}
	return out
}
