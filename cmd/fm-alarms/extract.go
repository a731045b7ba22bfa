// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/fm-alarms/internal/logger"
	"github.com/pdiddy/fm-alarms/internal/pipeline"
	"github.com/pdiddy/fm-alarms/internal/report"
)

var extractCmd = &cobra.Command{
	Use:   "extract <pdf>",
	Short: "Extract alarm records from a PDF alarm list",
	Long: `Extract reads every page of the PDF, saves the extracted text for
debugging, and writes one SerialID,BrakeProg,RedAvail row per alarm block
found. Blocks missing a property are skipped. Statistics on the FM codes in
the document are printed, and checked against --expected when set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync(ctx)

		// An empty format is inferred from the output extension.
		var format report.Format
		if cfg.Report.Format != "" {
			if format, err = report.ParseFormat(cfg.Report.Format); err != nil {
				return err
			}
		}
		opts := pipeline.ExtractOptions{
			Input:    args[0],
			Output:   outputPath(cmd, "output", cfg, "alerts.csv"),
			TextDump: outputPath(cmd, "text-dump", cfg, "extracted_full_text.txt"),
			Format:   format,
		}
		if noDump, _ := cmd.Flags().GetBool("no-text-dump"); noDump {
			opts.TextDump = ""
		}
		_, err = pipeline.Extract(ctx, cfg, opts, os.Stdout)
		return err
	},
}

func init() {
	extractCmd.Flags().StringP("output", "o", "", "output file (default: <output-dir>/alerts.csv)")
	extractCmd.Flags().String("text-dump", "", "extracted text file (default: <output-dir>/extracted_full_text.txt)")
	extractCmd.Flags().Bool("no-text-dump", false, "do not save the extracted text")
	extractCmd.Flags().String("format", "", "output format: csv, xlsx, json, or yaml (default: from the output extension)")

	bindFlags(extractCmd.Flags(), map[string]string{"format": "report.format"})
	rootCmd.AddCommand(extractCmd)
}
