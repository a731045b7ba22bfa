// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/fm-alarms/internal/logger"
	"github.com/pdiddy/fm-alarms/internal/pipeline"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Keep the lines of the extracted text that start with an FM code",
	Long: `Filter reads the text saved by extract and writes one code,line entry
for every line that starts with an FM code followed by a capitalised word.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync(ctx)

		_, err = pipeline.FilterLines(ctx, cfg, pipeline.LinesOptions{
			Input:  outputPath(cmd, "input", cfg, "extracted_full_text.txt"),
			Output: outputPath(cmd, "output", cfg, "fm_lines_only.txt"),
		}, os.Stdout)
		return err
	},
}

func init() {
	filterCmd.Flags().String("input", "", "extracted text file (default: <output-dir>/extracted_full_text.txt)")
	filterCmd.Flags().StringP("output", "o", "", "filtered lines file (default: <output-dir>/fm_lines_only.txt)")

	rootCmd.AddCommand(filterCmd)
}
