// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/fm-alarms/internal/logger"
	"github.com/pdiddy/fm-alarms/internal/pipeline"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Explain why FM codes in the text did not become alarm records",
	Long: `Analyze compares every FM code mentioned in the extracted text with the
alarm blocks the layout recognises. The report lists codes that are only
mentioned in passing, with the text around them, and alarm blocks that
could not be parsed, with the start of the block.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync(ctx)

		_, err = pipeline.Analyze(ctx, cfg, pipeline.LinesOptions{
			Input:  outputPath(cmd, "input", cfg, "extracted_full_text.txt"),
			Output: outputPath(cmd, "output", cfg, "fm_codes_analysis.txt"),
		}, os.Stdout)
		return err
	},
}

func init() {
	analyzeCmd.Flags().String("input", "", "extracted text file (default: <output-dir>/extracted_full_text.txt)")
	analyzeCmd.Flags().StringP("output", "o", "", "analysis report (default: <output-dir>/fm_codes_analysis.txt)")

	rootCmd.AddCommand(analyzeCmd)
}
