// Package sarifexport renders a stored scan as a SARIF 2.1.0 report so other
// tooling can ingest Sentinel findings.
package sarifexport

import (
	"fmt"
	"os"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/specguard/sentinel/internal/finding"
)

const informationURI = "https://github.com/specguard/sentinel"

// ToReport converts one scan result into a single-run SARIF report. Each
// heuristic becomes a rule, each finding a result; suppressed findings carry
// a SARIF suppression.
func ToReport(result *finding.ScanResult) (*sarif.Report, error) {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("failed to create SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI("Sentinel", informationURI)
	seenRules := make(map[string]bool)

	for i := range result.Findings {
		f := &result.Findings[i]
		if !seenRules[f.HeuristicID] {
			run.AddRule(f.HeuristicID).
				WithDescription(f.Title).
				WithDefaultConfiguration(&sarif.ReportingConfiguration{
					Level: toSarifLevel(f.Severity),
				})
			seenRules[f.HeuristicID] = true
		}

		var locations []*sarif.Location
		for _, ev := range f.Evidence {
			locations = append(locations, sarif.NewLocation().WithPhysicalLocation(
				sarif.NewPhysicalLocation().
					WithArtifactLocation(sarif.NewArtifactLocation().WithUri(ev.Location)),
			))
		}

		sarifResult := sarif.NewRuleResult(f.HeuristicID).
			WithMessage(sarif.NewTextMessage(f.Description)).
			WithLevel(toSarifLevel(f.Severity)).
			WithLocations(locations)
		if f.Status == finding.StatusFalsePositive {
			sarifResult.Suppressions = []*sarif.Suppression{
				sarif.NewSuppression("external").WithJustifcation(f.SuppressionReason),
			}
		}
		run.AddResult(sarifResult)
	}

	report.AddRun(run)
	return report, nil
}

// WriteFile renders the scan result as SARIF to the given path.
func WriteFile(result *finding.ScanResult, path string) error {
	report, err := ToReport(result)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create SARIF file %q: %w", path, err)
	}
	defer file.Close()

	if err := report.PrettyWrite(file); err != nil {
		return fmt.Errorf("failed to write SARIF file %q: %w", path, err)
	}
	return nil
}

// toSarifLevel maps the severity taxonomy onto the three SARIF levels.
func toSarifLevel(s finding.Severity) string {
	switch s {
	case finding.SeverityCritical, finding.SeverityHigh:
		return "error"
	case finding.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}
