// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdiddy/fm-alarms/internal/aggregate"
	"github.com/pdiddy/fm-alarms/internal/parse"
)

// WriteFilteredLines writes one code,line entry per line.
func WriteFilteredLines(path string, lines []parse.CodeLine) error {
	return writeFile(path, func(w io.Writer) error {
		for _, l := range lines {
			if _, err := fmt.Fprintf(w, "%s,%s\n", l.Code, l.Line); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadFilteredLines reads a file written by WriteFilteredLines. Lines
// without a code field are ignored.
func ReadFilteredLines(path string) ([]parse.CodeLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening filtered lines: %w", err)
	}
	defer f.Close()

	var out []parse.CodeLine
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		code, line, ok := strings.Cut(sc.Text(), ",")
		code = strings.TrimSpace(code)
		if !ok || code == "" {
			continue
		}
		out = append(out, parse.CodeLine{Code: code, Line: line})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return out, nil
}

// Analysis is the content of the plain-text analysis report.
type Analysis struct {
	Source   string
	Layout   string
	Result   parse.Analysis
	Expected int
}

// WriteAnalysis writes the analysis report. The expected-vs-found section
// is included when Expected is positive.
func WriteAnalysis(path string, a Analysis) error {
	return writeFile(path, func(w io.Writer) error {
		return FormatAnalysis(w, a)
	})
}

// FormatAnalysis renders the analysis report to w.
func FormatAnalysis(w io.Writer, a Analysis) error {
	r := a.Result
	bw := &errWriter{w: w}
	bw.printf("FM CODE ANALYSIS\n")
	bw.printf("================\n\n")
	bw.printf("Source: %s\n", a.Source)
	bw.printf("Layout: %s\n\n", a.Layout)
	bw.printf("Total FM code mentions:        %d\n", r.Mentions)
	bw.printf("Unique FM codes mentioned:     %d\n", r.UniqueMentions)
	bw.printf("FM codes at line start:        %d\n", r.LineStart)
	bw.printf("FM codes on alarm header line: %d\n", r.Headers)
	bw.printf("FM codes with full structure:  %d\n", r.FullAlarms)

	if a.Expected > 0 {
		bw.printf("\nExpected unique codes: %d\n", a.Expected)
		bw.printf("Found unique codes:    %d\n", r.UniqueMentions)
		bw.printf("Difference:            %+d\n", r.UniqueMentions-a.Expected)
	}

	bw.printf("\nCodes mentioned but never starting an alarm block (%d):\n", len(r.MentionedOnly))
	for _, f := range r.MentionedOnly {
		bw.printf("  %s: %s\n", f.Code, f.Context)
	}
	bw.printf("\nAlarm blocks that could not be parsed (%d):\n", len(r.Unparsed))
	for _, f := range r.Unparsed {
		bw.printf("  %s: %s\n", f.Code, f.Context)
	}
	if r.Typed {
		formatTypes(bw, r)
	}
	return bw.err
}

func formatTypes(bw *errWriter, r parse.Analysis) {
	values := make([]string, 0, len(r.CodeTypes))
	for _, t := range r.CodeTypes {
		values = append(values, t)
	}
	counts := aggregate.CountTypes(values)
	bw.printf("\nType distribution (%d types):\n", len(counts))
	for _, c := range counts {
		bw.printf("  %s: %d codes\n", c.Type, c.Codes)
	}
	bw.printf("\nCodes with inconsistent types (%d):\n", len(r.TypeConflicts))
	for _, c := range r.TypeConflicts {
		bw.printf("  %s: %s\n", c.Code, strings.Join(c.Types, " vs "))
	}
	bw.printf("\nCodes without type (%d):\n", len(r.Untyped))
	for _, code := range r.Untyped {
		bw.printf("  %s\n", code)
	}
}

// errWriter keeps the first write error so a report can be rendered
// without checking every line.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
