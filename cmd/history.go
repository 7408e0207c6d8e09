package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var scansLimit int

var scansCmd = &cobra.Command{
	Use:                   "scans [--limit N]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "List recorded scans, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger("scans")
		st, err := openStore(log)
		if err != nil {
			return err
		}
		listings, err := st.ListScans(scansLimit)
		if err != nil {
			log.Error("failed to list scans", "error", err)
			return err
		}
		if len(listings) == 0 {
			fmt.Println("No scans recorded.")
			return nil
		}
		for _, l := range listings {
			fmt.Printf("%s  %s  trigger=%s  findings=%d\n",
				l.ScanID, l.Timestamp.Format("2006-01-02 15:04:05"), l.Trigger, l.FindingCount)
		}
		return nil
	},
}

var findingsCmd = &cobra.Command{
	Use:                   "findings",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Print the findings of the most recent scan",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger("findings")
		st, err := openStore(log)
		if err != nil {
			return err
		}
		findings, err := st.LoadLatestFindings()
		if err != nil {
			log.Error("failed to load latest findings", "error", err)
			return err
		}
		data, err := json.MarshalIndent(findings, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling findings: %w", err)
		}
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:                   "show SCAN_ID",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Print one historical scan by id",
	Args:                  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger("show")
		st, err := openStore(log)
		if err != nil {
			return err
		}
		result, err := st.LoadScan(args[0])
		if err != nil {
			log.Error("failed to load scan", "scan_id", args[0], "error", err)
			return err
		}
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling scan: %w", err)
		}
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	},
}

func init() {
	scansCmd.Flags().IntVar(&scansLimit, "limit", 20, "maximum number of scans to list")
	rootCmd.AddCommand(scansCmd)
	rootCmd.AddCommand(findingsCmd)
	rootCmd.AddCommand(showCmd)
}
