// Package appspec defines the fully-resolved application specification graph
// Sentinel analyzes. The graph is produced by the external DSL pipeline and
// is read-only input: heuristics never mutate it.
//
// Optional sections are pointer or slice fields so that "section is absent"
// is an explicit nil/empty branch rather than an attribute probe.
package appspec

// AppSpec is the root of the specification object graph.
type AppSpec struct {
	Name     string    `json:"name" yaml:"name"`
	Entities []Entity  `json:"entities,omitempty" yaml:"entities"`
	Surfaces []Surface `json:"surfaces,omitempty" yaml:"surfaces"`
	Personas []Persona `json:"personas,omitempty" yaml:"personas"`
	Webhooks []Webhook `json:"webhooks,omitempty" yaml:"webhooks"`

	Integrations []Integration `json:"integrations,omitempty" yaml:"integrations"`
	Processes    []Process     `json:"processes,omitempty" yaml:"processes"`
	Ledgers      []Ledger      `json:"ledgers,omitempty" yaml:"ledgers"`
	SLAs         []SLA         `json:"slas,omitempty" yaml:"slas"`
	Approvals    []Approval    `json:"approvals,omitempty" yaml:"approvals"`

	Tenancy    *Tenancy    `json:"tenancy,omitempty" yaml:"tenancy"`
	DataPolicy *DataPolicy `json:"data_policy,omitempty" yaml:"data_policy"`
}

// Entity is a persisted domain object with fields, relations and policy.
type Entity struct {
	Name          string         `json:"name" yaml:"name"`
	Fields        []Field        `json:"fields,omitempty" yaml:"fields"`
	Relationships []Relationship `json:"relationships,omitempty" yaml:"relationships"`
	AccessControl *AccessControl `json:"access_control,omitempty" yaml:"access_control"`
	StateMachine  *StateMachine  `json:"state_machine,omitempty" yaml:"state_machine"`
	Audit         *AuditConfig   `json:"audit,omitempty" yaml:"audit"`
}

type Field struct {
	Name           string   `json:"name" yaml:"name"`
	Type           string   `json:"type" yaml:"type"`
	PrimaryKey     bool     `json:"primary_key,omitempty" yaml:"primary_key"`
	Required       bool     `json:"required,omitempty" yaml:"required"`
	Unique         bool     `json:"unique,omitempty" yaml:"unique"`
	Indexed        bool     `json:"indexed,omitempty" yaml:"indexed"`
	Classification string   `json:"classification,omitempty" yaml:"classification"`
	Enum           []string `json:"enum,omitempty" yaml:"enum"`
}

type Relationship struct {
	Name   string `json:"name" yaml:"name"`
	Target string `json:"target" yaml:"target"`
	Kind   string `json:"kind" yaml:"kind"`
}

// AccessControl declares who may act on an entity or surface.
type AccessControl struct {
	Roles        []string     `json:"roles,omitempty" yaml:"roles"`
	OwnerField   string       `json:"owner_field,omitempty" yaml:"owner_field"`
	TenantScoped bool         `json:"tenant_scoped,omitempty" yaml:"tenant_scoped"`
	Rules        []AccessRule `json:"rules,omitempty" yaml:"rules"`
}

type AccessRule struct {
	Action string   `json:"action" yaml:"action"`
	Roles  []string `json:"roles" yaml:"roles"`
}

type StateMachine struct {
	States      []string     `json:"states" yaml:"states"`
	Initial     string       `json:"initial" yaml:"initial"`
	Transitions []Transition `json:"transitions,omitempty" yaml:"transitions"`
}

type Transition struct {
	From    string `json:"from" yaml:"from"`
	To      string `json:"to" yaml:"to"`
	Trigger string `json:"trigger,omitempty" yaml:"trigger"`
}

type AuditConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled"`
	Events  []string `json:"events,omitempty" yaml:"events"`
}

// Surface is a UI or API view bound to an entity.
type Surface struct {
	Name          string         `json:"name" yaml:"name"`
	Entity        string         `json:"entity" yaml:"entity"`
	Kind          string         `json:"kind" yaml:"kind"` // crud, list, detail, api
	Authenticated bool           `json:"authenticated,omitempty" yaml:"authenticated"`
	AccessControl *AccessControl `json:"access_control,omitempty" yaml:"access_control"`
	Filters       []string       `json:"filters,omitempty" yaml:"filters"`
	Pagination    *Pagination    `json:"pagination,omitempty" yaml:"pagination"`
}

type Pagination struct {
	PageSize int `json:"page_size" yaml:"page_size"`
}

type Persona struct {
	Name  string   `json:"name" yaml:"name"`
	Roles []string `json:"roles,omitempty" yaml:"roles"`
}

type Webhook struct {
	Name          string `json:"name" yaml:"name"`
	Event         string `json:"event" yaml:"event"`
	Authenticated bool   `json:"authenticated,omitempty" yaml:"authenticated"`
}

type Integration struct {
	Name     string `json:"name" yaml:"name"`
	Provider string `json:"provider" yaml:"provider"`
	AuthKind string `json:"auth_kind,omitempty" yaml:"auth_kind"`
}

type Process struct {
	Name         string   `json:"name" yaml:"name"`
	Steps        []string `json:"steps,omitempty" yaml:"steps"`
	Compensation bool     `json:"compensation,omitempty" yaml:"compensation"`
}

// Ledger is a transaction log; double-entry ledgers name a balancing field.
type Ledger struct {
	Name        string `json:"name" yaml:"name"`
	Entity      string `json:"entity,omitempty" yaml:"entity"`
	DoubleEntry bool   `json:"double_entry,omitempty" yaml:"double_entry"`
	BalancedBy  string `json:"balanced_by,omitempty" yaml:"balanced_by"`
}

type SLA struct {
	Name      string `json:"name" yaml:"name"`
	Target    string `json:"target" yaml:"target"`
	Threshold string `json:"threshold,omitempty" yaml:"threshold"`
}

type Approval struct {
	Name      string   `json:"name" yaml:"name"`
	Entity    string   `json:"entity" yaml:"entity"`
	Approvers []string `json:"approvers,omitempty" yaml:"approvers"`
	Quorum    int      `json:"quorum,omitempty" yaml:"quorum"`
}

// Tenancy describes how the application isolates tenants.
type Tenancy struct {
	Mode           string `json:"mode" yaml:"mode"` // shared, siloed
	TenantKeyField string `json:"tenant_key_field,omitempty" yaml:"tenant_key_field"`
}

type DataPolicy struct {
	Classifications []string `json:"classifications,omitempty" yaml:"classifications"`
	RetentionDays   int      `json:"retention_days,omitempty" yaml:"retention_days"`
}

// Entity returns the entity with the given name, or nil.
func (s *AppSpec) Entity(name string) *Entity {
	for i := range s.Entities {
		if s.Entities[i].Name == name {
			return &s.Entities[i]
		}
	}
	return nil
}
