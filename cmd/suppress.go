package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var suppressReason string

var exampleSuppressUsage = `  # Suppress a finding from the latest scan as a false positive
  sentinel suppress 7d9c1a9e-0b1f-4c5d-8f7e-2f4a6b8c0d1e -r "endpoint is internal-only"`

var suppressCmd = &cobra.Command{
	Use:                   "suppress FINDING_ID --reason/-r REASON",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleSuppressUsage,
	Short:                 "Mark a finding from the latest scan as a false positive",
	Args:                  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger("suppress")
		if suppressReason == "" {
			return fmt.Errorf("a suppression reason is required")
		}
		st, err := openStore(log)
		if err != nil {
			return err
		}
		ok, err := st.SuppressFinding(args[0], suppressReason)
		if err != nil {
			log.Error("suppression failed", "finding_id", args[0], "error", err)
			return err
		}
		if !ok {
			return fmt.Errorf("finding %q not found in the latest scan", args[0])
		}
		fmt.Printf("Finding %s suppressed.\n", args[0])
		return nil
	},
}

func init() {
	suppressCmd.Flags().StringVarP(&suppressReason, "reason", "r", "", "why the finding is a false positive")
	_ = suppressCmd.MarkFlagRequired("reason")
	rootCmd.AddCommand(suppressCmd)
}
