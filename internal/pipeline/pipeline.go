// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the tools end to end: it wires the text source,
// parser, aggregator and report writers together, prints progress for the
// user and decides which problems stop a run.
//
// Missing input, input that is not a PDF and unwritable output are fatal
// and returned as errors. A document without any extractable text is only
// a warning: the run continues and writes empty reports. Blocks that do not
// match the layout are counted and otherwise ignored.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/fm-alarms/internal/aggregate"
	"github.com/pdiddy/fm-alarms/internal/logger"
	"github.com/pdiddy/fm-alarms/internal/parse"
	"github.com/pdiddy/fm-alarms/internal/report"
	"github.com/pdiddy/fm-alarms/internal/source"
	"github.com/pdiddy/fm-alarms/pkg/types"
)

// Error taxonomy. ErrExtractionEmpty is never returned; summaries report it
// through their Empty field.
var (
	ErrInputNotFound   = source.ErrInputNotFound
	ErrNotPDF          = source.ErrNotPDF
	ErrOutputWrite     = report.ErrOutputWrite
	ErrExtractionEmpty = errors.New("no text could be extracted")
)

// loadPages validates input and extracts its pages with the configured
// backend. Text dumps skip the PDF checks.
func loadPages(ctx context.Context, cfg types.Config, input string) ([]types.Page, error) {
	src, err := source.New(cfg.Source)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithKV(ctx, "path", input, "backend", src.Name())
	if cfg.Source.Backend != types.BackendText {
		info, err := source.Inspect(input)
		if err != nil {
			return nil, err
		}
		logger.InfoKV(ctx, "input accepted", "pages", info.Pages, "bytes", info.Size)
	}

	pages, err := src.Pages(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("extracting text from %s: %w", input, err)
	}
	if isEmpty(pages) {
		logger.WarnKV(ctx, ErrExtractionEmpty.Error(), "pages", len(pages))
	}
	return pages, nil
}

func isEmpty(pages []types.Page) bool {
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			return false
		}
	}
	return true
}

// layout resolves the configured layout, loading the layouts file if set.
func layout(cfg types.ParseConfig) (*parse.Layout, error) {
	ls, err := parse.LoadLayouts(cfg.LayoutsFile)
	if err != nil {
		return nil, err
	}
	return ls.Get(cfg.Layout)
}

// readDump reads a text dump as one text.
func readDump(ctx context.Context, cfg types.Config, path string) (string, error) {
	src, err := source.New(types.SourceConfig{Backend: types.BackendText, MaxPages: cfg.Source.MaxPages})
	if err != nil {
		return "", err
	}
	pages, err := src.Pages(ctx, path)
	if err != nil {
		return "", err
	}
	if isEmpty(pages) {
		logger.WarnKV(ctx, ErrExtractionEmpty.Error(), "path", path)
	}
	return source.Join(pages), nil
}

// ExtractOptions names the files of an extract run.
type ExtractOptions struct {
	Input    string
	Output   string
	TextDump string // empty skips the dump
	Format   report.Format
}

// ExtractSummary describes an extract run.
type ExtractSummary struct {
	Pages    int
	Blocks   int
	Records  int
	Skipped  int
	Stats    parse.CodeStats
	Expected int
	Empty    bool
	// Types counts records per alarm type for layouts that read one.
	Types []aggregate.TypeCount
}

// Verified reports whether the number of unique alarm headers matches the
// expected count. It is true when no count is expected.
func (s ExtractSummary) Verified() bool {
	return s.Expected == 0 || s.Stats.UniqueValid == s.Expected
}

// Extract parses the alarm records of a document and writes them to
// opts.Output.
func Extract(ctx context.Context, cfg types.Config, opts ExtractOptions, w io.Writer) (ExtractSummary, error) {
	var sum ExtractSummary
	l, err := layout(cfg.Parse)
	if err != nil {
		return sum, err
	}
	format := opts.Format
	if format == "" {
		format = report.FormatFromPath(opts.Output)
	}

	pages, err := loadPages(ctx, cfg, opts.Input)
	if err != nil {
		return sum, err
	}
	sum.Pages = len(pages)
	sum.Empty = isEmpty(pages)
	fmt.Fprintf(w, "Read %d pages from %s\n", len(pages), opts.Input)

	if opts.TextDump != "" {
		if err := report.WriteText(opts.TextDump, source.Dump(pages)); err != nil {
			return sum, err
		}
		fmt.Fprintf(w, "Full text saved to %s\n", opts.TextDump)
	}

	res := parse.New(l).ParsePages(pages)
	sum.Blocks = res.Blocks
	sum.Records = len(res.Records)
	sum.Skipped = res.Skipped
	logger.DebugKV(ctx, "parsed alarm blocks", "layout", l.Name, "blocks", sum.Blocks, "records", sum.Records)

	if err := report.WriteAlarmsAs(opts.Output, format, l.Columns(), res.Records); err != nil {
		return sum, err
	}
	if l.Typed() {
		values := make([]string, len(res.Records))
		for i, r := range res.Records {
			values[i] = r.Type
		}
		sum.Types = aggregate.CountTypes(values)
	}

	sum.Stats = parse.Stats(source.Join(pages), l)
	sum.Expected = cfg.Parse.ExpectedCodes
	printExtractSummary(w, sum, opts.Output)
	return sum, nil
}

func printExtractSummary(w io.Writer, s ExtractSummary, output string) {
	fmt.Fprintf(w, "\nFM code statistics:\n")
	fmt.Fprintf(w, "  Total FM code occurrences: %d\n", s.Stats.Total)
	fmt.Fprintf(w, "  Unique FM codes:           %d\n", s.Stats.Unique)
	fmt.Fprintf(w, "  Alarm headers:             %d\n", s.Stats.ValidAlarms)
	fmt.Fprintf(w, "  Unique alarm codes:        %d\n", s.Stats.UniqueValid)
	if len(s.Stats.Sample) > 0 {
		more := ""
		if s.Stats.Unique > len(s.Stats.Sample) {
			more = ", ..."
		}
		fmt.Fprintf(w, "  First codes: %s%s\n", strings.Join(s.Stats.Sample, ", "), more)
	}
	if len(s.Types) > 0 {
		fmt.Fprintf(w, "\n  Type distribution:\n")
		for _, t := range s.Types {
			fmt.Fprintf(w, "    - %s: %d\n", t.Type, t.Codes)
		}
	}
	if s.Expected > 0 {
		if s.Verified() {
			fmt.Fprintf(w, "\nVerification passed: %d unique alarm codes as expected\n", s.Expected)
		} else {
			fmt.Fprintf(w, "\nVerification failed: found %d unique alarm codes, expected %d\n", s.Stats.UniqueValid, s.Expected)
		}
	}
	fmt.Fprintf(w, "\nExtracted %d alarm records (%d blocks skipped) to %s\n", s.Records, s.Skipped, output)
}
