package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/specguard/sentinel/internal/agent/rules"
	"github.com/specguard/sentinel/internal/appspec"
	"github.com/specguard/sentinel/internal/finding"
	"github.com/specguard/sentinel/internal/orchestrator"
	"github.com/specguard/sentinel/pkg/shared"
)

var scanOptions struct {
	specPath          string
	agents            []string
	severity          string
	trigger           string
	entities          []string
	surfaces          []string
	includeSuppressed bool
	timeout           time.Duration
}

var exampleScanUsage = `  # Scan an appspec with every agent
  sentinel scan -f app.yml

  # Scan with only the auth and tenancy agents, keeping medium and worse
  sentinel scan -f app.yml --agents auth,tenancy --severity medium

  # Scan as part of a pipeline run
  sentinel scan -f app.yml --trigger pipeline`

var scanCmd = &cobra.Command{
	Use:                   "scan --file/-f APPSPEC_PATH [--agents IDS] [--severity LEVEL] [--trigger TRIGGER]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleScanUsage,
	Short:                 "Run the detection agents against an appspec and persist the result",
	RunE:                  runScanCommand,
}

func init() {
	scanCmd.Flags().StringVarP(&scanOptions.specPath, "file", "f", "", "path to the serialized appspec document")
	scanCmd.Flags().StringSliceVar(&scanOptions.agents, "agents", nil, "subset of agent ids to run (default all)")
	scanCmd.Flags().StringVar(&scanOptions.severity, "severity", "", "severity threshold, findings below it are dropped")
	scanCmd.Flags().StringVar(&scanOptions.trigger, "trigger", "", "scan trigger provenance (manual, pipeline, scheduled, commit, deployment, dependency_update)")
	scanCmd.Flags().StringSliceVar(&scanOptions.entities, "entities", nil, "restrict findings to the named entities")
	scanCmd.Flags().StringSliceVar(&scanOptions.surfaces, "surfaces", nil, "restrict findings to the named surfaces")
	scanCmd.Flags().BoolVar(&scanOptions.includeSuppressed, "include-suppressed", false, "keep previously suppressed findings in the output")
	scanCmd.Flags().DurationVar(&scanOptions.timeout, "timeout", 0, "per-scan wall-clock timeout (0 disables)")
	rootCmd.AddCommand(scanCmd)
}

// buildScanConfig merges flags over config-file defaults into a validated
// ScanConfig.
func buildScanConfig() (finding.ScanConfig, error) {
	cfg := finding.ScanConfig{
		Agents:            scanOptions.agents,
		Entities:          scanOptions.entities,
		Surfaces:          scanOptions.surfaces,
		IncludeSuppressed: scanOptions.includeSuppressed || AppConfig.Scan.IncludeSuppressed,
		Timeout:           scanOptions.timeout,
	}
	if len(cfg.Agents) == 0 {
		cfg.Agents = AppConfig.Scan.Agents
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Duration(AppConfig.Scan.Timeout)
	}

	severity := scanOptions.severity
	if severity == "" {
		severity = AppConfig.Scan.SeverityThreshold
	}
	if severity != "" {
		parsed, err := finding.ParseSeverity(severity)
		if err != nil {
			return finding.ScanConfig{}, err
		}
		cfg.SeverityThreshold = parsed
	}

	if scanOptions.trigger != "" {
		parsed, err := finding.ParseTrigger(scanOptions.trigger)
		if err != nil {
			return finding.ScanConfig{}, err
		}
		cfg.Trigger = parsed
	}

	if err := cfg.Validate(rules.AgentIDs()); err != nil {
		return finding.ScanConfig{}, err
	}
	return cfg, nil
}

func runScanCommand(cmd *cobra.Command, args []string) error {
	log := newLogger("scan")

	if scanOptions.specPath == "" {
		if !shared.HasFlags(cmd.Flags()) {
			return cmd.Help()
		}
		return fmt.Errorf("an appspec file is required (--file)")
	}

	cfg, err := buildScanConfig()
	if err != nil {
		log.Error("invalid scan arguments", "error", err)
		return fmt.Errorf("invalid scan arguments: %w", err)
	}

	spec, err := appspec.LoadFile(scanOptions.specPath)
	if err != nil {
		log.Error("failed to load appspec", "error", err)
		return err
	}

	st, err := openStore(log)
	if err != nil {
		log.Error("failed to open store", "error", err)
		return err
	}

	o := orchestrator.New(st, rules.Agents(), log)
	result, err := o.Scan(spec, cfg)
	if err != nil {
		log.Error("scan failed", "error", err)
		return err
	}

	for _, res := range result.AgentResults {
		for _, heuristicErr := range res.Errors {
			log.Warn("heuristic failed", "agent", res.Agent, "error", heuristicErr)
		}
	}

	printScanResult(result)
	return nil
}

func printScanResult(result *finding.ScanResult) {
	fmt.Printf("Scan %s (%s) finished in %dms\n", result.ScanID, result.Trigger, result.DurationMS)
	fmt.Printf("Findings: %d total, %d new, %d resolved\n",
		result.Summary.TotalFindings, result.Summary.NewFindings, result.Summary.Resolved)
	for _, f := range result.Findings {
		fmt.Printf("  [%s/%s] %s %s: %s\n", f.Severity, f.Confidence, f.HeuristicID, f.ID, f.Title)
	}
}
