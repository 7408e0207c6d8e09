package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specguard/sentinel/internal/sarifexport"
	"github.com/specguard/sentinel/internal/uploader"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:                   "export SCAN_ID --output/-o PATH",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Export one historical scan as a SARIF 2.1.0 report",
	Args:                  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger("export")
		st, err := openStore(log)
		if err != nil {
			return err
		}
		result, err := st.LoadScan(args[0])
		if err != nil {
			log.Error("failed to load scan", "scan_id", args[0], "error", err)
			return err
		}
		if err := sarifexport.WriteFile(result, exportOutput); err != nil {
			log.Error("failed to write SARIF report", "error", err)
			return err
		}
		log.Info("SARIF report written", "path", exportOutput)
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:                   "upload SCAN_ID",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Upload one historical scan to the configured review endpoint",
	Args:                  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger("upload")
		st, err := openStore(log)
		if err != nil {
			return err
		}
		result, err := st.LoadScan(args[0])
		if err != nil {
			log.Error("failed to load scan", "scan_id", args[0], "error", err)
			return err
		}
		history, err := st.ListScans(10)
		if err != nil {
			log.Warn("failed to list scan history, uploading without it", "error", err)
		}
		client, err := uploader.New(&AppConfig.Uploader)
		if err != nil {
			return fmt.Errorf("uploader is not available: %w", err)
		}
		if err := client.UploadScan(project, result, history); err != nil {
			log.Error("upload failed", "scan_id", args[0], "error", err)
			return err
		}
		log.Info("scan uploaded", "scan_id", args[0], "endpoint", AppConfig.Uploader.URL)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "sentinel.sarif", "path of the SARIF file to write")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(uploadCmd)
}
