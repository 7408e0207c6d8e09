package finding

import (
	"fmt"
	"strings"
)

// Severity classifies the business impact of a finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Explicit rank tables keep ordering independent of declaration order.
var severityRank = map[Severity]int{
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
	SeverityLow:      1,
	SeverityInfo:     0,
}

// Rank returns the total-order position of the severity, higher is worse.
func (s Severity) Rank() int {
	return severityRank[s]
}

// AtLeast reports whether s is at least as severe as threshold.
func (s Severity) AtLeast(threshold Severity) bool {
	return severityRank[s] >= severityRank[threshold]
}

// ParseSeverity validates a severity name. Unknown names are an error, never
// a silent default.
func ParseSeverity(name string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := severityRank[s]; !ok {
		return "", fmt.Errorf("unknown severity %q (expected one of: critical, high, medium, low, info)", name)
	}
	return s, nil
}

// Confidence expresses how certain a static check is about its finding.
type Confidence string

const (
	ConfidenceConfirmed Confidence = "confirmed"
	ConfidenceLikely    Confidence = "likely"
	ConfidencePossible  Confidence = "possible"
)

var confidenceRank = map[Confidence]int{
	ConfidenceConfirmed: 2,
	ConfidenceLikely:    1,
	ConfidencePossible:  0,
}

// Rank returns the total-order position of the confidence, higher is surer.
func (c Confidence) Rank() int {
	return confidenceRank[c]
}

// Status is the review lifecycle state of a finding.
type Status string

const (
	StatusOpen          Status = "open"
	StatusAcknowledged  Status = "acknowledged"
	StatusMitigated     Status = "mitigated"
	StatusClosed        Status = "closed"
	StatusFalsePositive Status = "false_positive"
)

// Terminal reports whether the status excludes the finding from resolution
// accounting: a closed or suppressed finding disappearing is not a fix.
func (s Status) Terminal() bool {
	return s == StatusClosed || s == StatusFalsePositive
}

// Trigger records what provoked a scan.
type Trigger string

const (
	TriggerManual           Trigger = "manual"
	TriggerPipeline         Trigger = "pipeline"
	TriggerScheduled        Trigger = "scheduled"
	TriggerCommit           Trigger = "commit"
	TriggerDeployment       Trigger = "deployment"
	TriggerDependencyUpdate Trigger = "dependency_update"
)

var validTriggers = map[Trigger]struct{}{
	TriggerManual:           {},
	TriggerPipeline:         {},
	TriggerScheduled:        {},
	TriggerCommit:           {},
	TriggerDeployment:       {},
	TriggerDependencyUpdate: {},
}

// ParseTrigger validates a trigger name.
func ParseTrigger(name string) (Trigger, error) {
	t := Trigger(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := validTriggers[t]; !ok {
		return "", fmt.Errorf("unknown scan trigger %q", name)
	}
	return t, nil
}

// EvidenceType tells what kind of observation backs a finding.
type EvidenceType string

const (
	EvidenceStructuralPattern  EvidenceType = "structural-pattern"
	EvidenceConfigurationValue EvidenceType = "configuration-value"
	EvidenceMissingConstruct   EvidenceType = "missing-construct"
)

// Effort estimates the size of a remediation.
type Effort string

const (
	EffortTrivial     Effort = "trivial"
	EffortSmall       Effort = "small"
	EffortMedium      Effort = "medium"
	EffortLarge       Effort = "large"
	EffortSignificant Effort = "significant"
)
