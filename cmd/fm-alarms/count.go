// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/fm-alarms/internal/logger"
	"github.com/pdiddy/fm-alarms/internal/pipeline"
)

var countCmd = &cobra.Command{
	Use:   "count <pdf>",
	Short: "Count FM codes on each page",
	Long: `Count scans each page for FM codes at the start of a line and writes
the per-page totals, followed by a Total row. A companion
<output>_distribution.csv lists the pages each code was found on.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync(ctx)

		occ, _ := cmd.Flags().GetString("occurrences")
		_, err = pipeline.CountByPage(ctx, cfg, pipeline.CountOptions{
			Input:       args[0],
			Output:      outputPath(cmd, "output", cfg, "fm_counts_by_page.csv"),
			Occurrences: occ,
		}, os.Stdout)
		return err
	},
}

func init() {
	countCmd.Flags().StringP("output", "o", "", "output CSV (default: <output-dir>/fm_counts_by_page.csv)")
	countCmd.Flags().String("occurrences", "", "also write a Page,FMCode,Count CSV to this file")

	rootCmd.AddCommand(countCmd)
}
