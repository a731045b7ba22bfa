// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/fm-alarms/internal/aggregate"
	"github.com/pdiddy/fm-alarms/internal/logger"
	"github.com/pdiddy/fm-alarms/internal/parse"
	"github.com/pdiddy/fm-alarms/internal/report"
	"github.com/pdiddy/fm-alarms/pkg/types"
)

const (
	topPages    = 5
	listedCodes = 10
)

// CountOptions names the files of a count run.
type CountOptions struct {
	Input  string
	Output string
	// Occurrences is an optional Page,FMCode,Count report.
	Occurrences string
}

// CountSummary describes a count run.
type CountSummary struct {
	Pages int
	Tally *aggregate.Tally
	Empty bool
}

// CountByPage counts code occurrences per page and writes the page summary
// and distribution reports.
func CountByPage(ctx context.Context, cfg types.Config, opts CountOptions, w io.Writer) (CountSummary, error) {
	var sum CountSummary
	l, err := layout(cfg.Parse)
	if err != nil {
		return sum, err
	}
	pages, err := loadPages(ctx, cfg, opts.Input)
	if err != nil {
		return sum, err
	}
	sum.Pages = len(pages)
	sum.Empty = isEmpty(pages)

	t := aggregate.Count(pages, l.Occurrence())
	sum.Tally = t
	for _, s := range t.PageSummaries() {
		logger.DebugKV(ctx, "page counted", "page", s.Page, "codes", s.Total, "unique", s.Unique)
	}

	if err := report.WritePageSummary(opts.Output, t); err != nil {
		return sum, err
	}
	fmt.Fprintf(w, "Results saved to %s\n", opts.Output)

	dist := report.DistributionPath(opts.Output)
	if err := report.WriteDistribution(dist, t.CodeCounts()); err != nil {
		return sum, err
	}
	fmt.Fprintf(w, "FM code distribution saved to %s\n", dist)

	if opts.Occurrences != "" {
		if err := report.WriteOccurrences(opts.Occurrences, t.Occurrences()); err != nil {
			return sum, err
		}
		fmt.Fprintf(w, "Occurrences saved to %s\n", opts.Occurrences)
	}

	st := t.Stats()
	fmt.Fprintf(w, "\nSummary:\n")
	fmt.Fprintf(w, "  Total FM code occurrences: %d\n", t.Total)
	fmt.Fprintf(w, "  Unique FM codes:           %d\n", t.Unique())
	fmt.Fprintf(w, "  Pages with FM codes:       %d / %d\n", st.PagesWithCodes, len(pages))
	fmt.Fprintf(w, "  Average per page with codes: %.2f\n", st.AveragePerPage)
	fmt.Fprintf(w, "  Most common count per page:  %d\n", st.MostCommonCount)
	if top := t.TopPages(topPages); len(top) > 0 {
		fmt.Fprintf(w, "\nPages with most FM codes:\n")
		for _, p := range top {
			fmt.Fprintf(w, "  Page %d: %d codes\n", p.Page, p.Total)
		}
	}
	return sum, nil
}

// LinesOptions names the files of a filter run.
type LinesOptions struct {
	Input  string
	Output string
}

// FilterSummary describes a filter run.
type FilterSummary struct {
	Lines    int
	Unique   int
	Expected int
}

// FilterLines keeps the lines of a text dump that start with a code.
func FilterLines(ctx context.Context, cfg types.Config, opts LinesOptions, w io.Writer) (FilterSummary, error) {
	var sum FilterSummary
	l, err := layout(cfg.Parse)
	if err != nil {
		return sum, err
	}
	text, err := readDump(ctx, cfg, opts.Input)
	if err != nil {
		return sum, err
	}

	lines := parse.FilterLines(text, l)
	if err := report.WriteFilteredLines(opts.Output, lines); err != nil {
		return sum, err
	}
	codes := make([]string, len(lines))
	for i, cl := range lines {
		codes[i] = cl.Code
	}
	sum.Lines = len(lines)
	sum.Unique = len(aggregate.CountCodes(codes))
	sum.Expected = cfg.Parse.ExpectedCodes

	fmt.Fprintf(w, "Filtered %d lines with FM codes to %s\n", sum.Lines, opts.Output)
	fmt.Fprintf(w, "Found %d unique FM codes\n", sum.Unique)
	printExpected(w, sum.Expected, sum.Unique)
	return sum, nil
}

// UniqueSummary describes a unique-codes run.
type UniqueSummary struct {
	Occurrences int
	Counts      []aggregate.CodeCount
	Duplicates  []aggregate.CodeCount
	Expected    int
}

// UniqueCodes counts the codes of a filtered line file.
func UniqueCodes(ctx context.Context, cfg types.Config, opts LinesOptions, w io.Writer) (UniqueSummary, error) {
	var sum UniqueSummary
	lines, err := report.ReadFilteredLines(opts.Input)
	if err != nil {
		return sum, err
	}
	codes := make([]string, len(lines))
	for i, cl := range lines {
		codes[i] = cl.Code
	}
	logger.DebugKV(ctx, "read filtered lines", "path", opts.Input, "lines", len(lines))

	sum.Occurrences = len(codes)
	sum.Counts = aggregate.CountCodes(codes)
	sum.Duplicates = aggregate.Duplicates(sum.Counts)
	sum.Expected = cfg.Parse.ExpectedCodes

	if err := report.WriteCodeCounts(opts.Output, sum.Counts); err != nil {
		return sum, err
	}

	fmt.Fprintf(w, "Total FM code occurrences: %d\n", sum.Occurrences)
	fmt.Fprintf(w, "Unique FM codes found: %d\n", len(sum.Counts))
	printExpected(w, sum.Expected, len(sum.Counts))
	fmt.Fprintf(w, "Results saved to %s\n", opts.Output)

	if len(sum.Counts) > 0 {
		fmt.Fprintf(w, "\nFirst %d unique FM codes:\n", min(listedCodes, len(sum.Counts)))
		for _, c := range sum.Counts[:min(listedCodes, len(sum.Counts))] {
			fmt.Fprintf(w, "  %s (%d occurrences)\n", c.Code, c.Occurrences)
		}
		fmt.Fprintf(w, "\nLast %d unique FM codes:\n", min(listedCodes, len(sum.Counts)))
		for _, c := range sum.Counts[max(0, len(sum.Counts)-listedCodes):] {
			fmt.Fprintf(w, "  %s (%d occurrences)\n", c.Code, c.Occurrences)
		}
	}
	if len(sum.Duplicates) > 0 {
		fmt.Fprintf(w, "\nFound %d codes appearing multiple times:\n", len(sum.Duplicates))
		for _, c := range sum.Duplicates {
			fmt.Fprintf(w, "  %s appears %d times\n", c.Code, c.Occurrences)
		}
	}
	return sum, nil
}

// Analyze explains the gap between codes mentioned in a text dump and codes
// parsed into records, and writes the analysis report.
func Analyze(ctx context.Context, cfg types.Config, opts LinesOptions, w io.Writer) (parse.Analysis, error) {
	l, err := layout(cfg.Parse)
	if err != nil {
		return parse.Analysis{}, err
	}
	text, err := readDump(ctx, cfg, opts.Input)
	if err != nil {
		return parse.Analysis{}, err
	}

	a := parse.New(l).Analyze(text)
	rep := report.Analysis{Source: opts.Input, Layout: l.Name, Result: a, Expected: cfg.Parse.ExpectedCodes}
	if err := report.WriteAnalysis(opts.Output, rep); err != nil {
		return a, err
	}

	fmt.Fprintf(w, "Analysis saved to %s\n", opts.Output)
	fmt.Fprintf(w, "  Mentions: %d (%d unique)\n", a.Mentions, a.UniqueMentions)
	fmt.Fprintf(w, "  Alarm headers: %d, parsed: %d\n", a.Headers, a.FullAlarms)
	fmt.Fprintf(w, "  Mentioned only: %d, unparsed: %d\n", len(a.MentionedOnly), len(a.Unparsed))
	if a.Typed {
		fmt.Fprintf(w, "  Typed codes: %d, inconsistent: %d, without type: %d\n", len(a.CodeTypes), len(a.TypeConflicts), len(a.Untyped))
	}
	printExpected(w, cfg.Parse.ExpectedCodes, a.UniqueMentions)
	return a, nil
}

func printExpected(w io.Writer, expected, found int) {
	if expected <= 0 {
		return
	}
	fmt.Fprintf(w, "Expected: %d | Found: %d | Difference: %+d\n", expected, found, found-expected)
}
