package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/specguard/sentinel/cmd/version"
	"github.com/specguard/sentinel/internal/store"
	"github.com/specguard/sentinel/pkg/shared/config"
	"github.com/specguard/sentinel/pkg/shared/logger"
)

var (
	cfgFile   string
	project   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "sentinel [command]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Sentinel is a failure-mode static-analysis engine for application specs.",
		Long: `Sentinel inspects a compiled application specification (AppSpec) with a set of
detection agents and tracks the resulting findings across scans, so issues can
be suppressed, diffed, and watched for regressions over time.`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yml)")
	rootCmd.PersistentFlags().StringVar(&project, "project", "default", "project whose scan history to use")
	rootCmd.AddCommand(version.NewVersionCmd())
}

func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		return 1
	}
	return 0
}

func initConfig() {
	var err error

	if cfgFile == "" {
		cfgFile = "config.yml"
	}
	AppConfig, err = config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the command-scoped logger.
func newLogger(name string) hclog.Logger {
	return logger.NewLogger(AppConfig, name)
}

// openStore opens the scan history store for the selected project.
func openStore(log hclog.Logger) (*store.Store, error) {
	dir := filepath.Join(config.GetResultsHome(AppConfig), project)
	st, err := store.New(dir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open finding store: %w", err)
	}
	return st, nil
}
