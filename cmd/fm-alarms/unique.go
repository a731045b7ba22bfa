// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/fm-alarms/internal/logger"
	"github.com/pdiddy/fm-alarms/internal/pipeline"
)

var uniqueCmd = &cobra.Command{
	Use:   "unique",
	Short: "Count unique FM codes in the filtered lines",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync(ctx)

		_, err = pipeline.UniqueCodes(ctx, cfg, pipeline.LinesOptions{
			Input:  outputPath(cmd, "input", cfg, "fm_lines_only.txt"),
			Output: outputPath(cmd, "output", cfg, "unique_fm_codes.csv"),
		}, os.Stdout)
		return err
	},
}

func init() {
	uniqueCmd.Flags().String("input", "", "filtered lines file (default: <output-dir>/fm_lines_only.txt)")
	uniqueCmd.Flags().StringP("output", "o", "", "output CSV (default: <output-dir>/unique_fm_codes.csv)")

	rootCmd.AddCommand(uniqueCmd)
}
