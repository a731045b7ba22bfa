// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/fm-alarms/internal/parse"
)

var layoutsCmd = &cobra.Command{
	Use:   "layouts",
	Short: "List the available alarm list layouts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		ls, err := parse.LoadLayouts(cfg.Parse.LayoutsFile)
		if err != nil {
			return err
		}
		printLayouts(os.Stdout, ls, cfg.Parse.Layout)
		return nil
	},
}

func printLayouts(w io.Writer, ls parse.Layouts, selected string) {
	for _, name := range ls.Names() {
		mark := " "
		if name == selected {
			mark = "*"
		}
		l := ls[name]
		cols := make([]string, 0, 3)
		for _, c := range l.Columns() {
			cols = append(cols, string(c))
		}
		fmt.Fprintf(w, "%s %-10s %-18s %s\n", mark, name, strings.Join(cols, ","), l.Description)
	}
}

func init() {
	rootCmd.AddCommand(layoutsCmd)
}
