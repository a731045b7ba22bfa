// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pdiddy/fm-alarms/internal/aggregate"
	"github.com/pdiddy/fm-alarms/internal/logger"
	"github.com/pdiddy/fm-alarms/internal/report"
	"github.com/pdiddy/fm-alarms/pkg/types"
)

const dump = "Alarm list\n" +
	"FM1023 Brake pressure low Brake-Prog: 5 Red. Avail: yes\n" +
	"FM1024 Yaw error\nBrake-Prog.: 2\nRed. Avail.: no\n" +
	"\f" +
	"FM1025 Converter trip\nno properties here\n" +
	"see FM1023 for details\n" +
	"\f" +
	"FM1023 Brake pressure low Brake-Prog: 5 Red. Avail: yes\n"

func textConfig() types.Config {
	cfg := types.DefaultConfig()
	cfg.Source.Backend = types.BackendText
	return cfg
}

func writeDump(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dump.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtractFromDump(t *testing.T) {
	out := t.TempDir()
	opts := ExtractOptions{
		Input:    writeDump(t, dump),
		Output:   filepath.Join(out, "alerts.csv"),
		TextDump: filepath.Join(out, "full.txt"),
	}
	cfg := textConfig()
	cfg.Parse.ExpectedCodes = 3

	var buf bytes.Buffer
	sum, err := Extract(context.Background(), cfg, opts, &buf)
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Pages)
	assert.Equal(t, 4, sum.Blocks)
	assert.Equal(t, 3, sum.Records)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 3, sum.Stats.UniqueValid)
	assert.True(t, sum.Verified())
	assert.False(t, sum.Empty)

	recs, err := report.ReadAlarms(opts.Output)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "FM1023 Brake pressure low", recs[0].SerialID)
	assert.Equal(t, "FM1024 Yaw error", recs[1].SerialID)

	full, err := os.ReadFile(opts.TextDump)
	require.NoError(t, err)
	assert.Equal(t, dump, string(full))

	assert.Contains(t, buf.String(), "Verification passed")
	assert.Contains(t, buf.String(), "Extracted 3 alarm records (1 blocks skipped)")
}

func TestExtractVerificationMismatch(t *testing.T) {
	cfg := textConfig()
	cfg.Parse.ExpectedCodes = 1270

	var buf bytes.Buffer
	sum, err := Extract(context.Background(), cfg, ExtractOptions{
		Input:  writeDump(t, dump),
		Output: filepath.Join(t.TempDir(), "alerts.json"),
	}, &buf)
	require.NoError(t, err)
	assert.False(t, sum.Verified())
	assert.Contains(t, buf.String(), "expected 1270")
}

func TestExtractEmptyTextIsAWarning(t *testing.T) {
	out := filepath.Join(t.TempDir(), "alerts.csv")
	sum, err := Extract(context.Background(), textConfig(), ExtractOptions{
		Input:  writeDump(t, "  \f\n"),
		Output: out,
	}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.True(t, sum.Empty)
	assert.Zero(t, sum.Records)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "SerialID,BrakeProg,RedAvail\n", string(data))
}

func TestExtractFatalErrors(t *testing.T) {
	dir := t.TempDir()
	notPDF := filepath.Join(dir, "notes.pdf")
	require.NoError(t, os.WriteFile(notPDF, []byte("just text"), 0o644))
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	tests := []struct {
		name    string
		cfg     types.Config
		opts    ExtractOptions
		wantErr error
	}{
		{
			name:    "missing pdf",
			cfg:     types.DefaultConfig(),
			opts:    ExtractOptions{Input: filepath.Join(dir, "missing.pdf"), Output: filepath.Join(dir, "a.csv")},
			wantErr: ErrInputNotFound,
		},
		{
			name:    "not a pdf",
			cfg:     types.DefaultConfig(),
			opts:    ExtractOptions{Input: notPDF, Output: filepath.Join(dir, "a.csv")},
			wantErr: ErrNotPDF,
		},
		{
			name:    "missing dump",
			cfg:     textConfig(),
			opts:    ExtractOptions{Input: filepath.Join(dir, "missing.txt"), Output: filepath.Join(dir, "a.csv")},
			wantErr: ErrInputNotFound,
		},
		{
			name:    "unwritable output",
			cfg:     textConfig(),
			opts:    ExtractOptions{Input: writeDump(t, dump), Output: filepath.Join(blocker, "a.csv")},
			wantErr: ErrOutputWrite,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(context.Background(), tt.cfg, tt.opts, &bytes.Buffer{})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExtractUnknownLayout(t *testing.T) {
	cfg := textConfig()
	cfg.Parse.Layout = "missing"
	_, err := Extract(context.Background(), cfg, ExtractOptions{Input: writeDump(t, dump)}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown layout")
}

func TestExtractFromPDF(t *testing.T) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 11)
	doc.AddPage()
	doc.Text(20, 20, "FM1023 Brake pressure low Brake-Prog: 5 Red. Avail: yes")
	input := filepath.Join(t.TempDir(), "alarms.pdf")
	require.NoError(t, doc.OutputFileAndClose(input))

	out := filepath.Join(t.TempDir(), "alerts.csv")
	sum, err := Extract(context.Background(), types.DefaultConfig(), ExtractOptions{Input: input, Output: out}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Pages)

	_, err = report.ReadAlarms(out)
	require.NoError(t, err)
}

func TestCountByPage(t *testing.T) {
	out := t.TempDir()
	opts := CountOptions{
		Input:       writeDump(t, dump),
		Output:      filepath.Join(out, "counts.csv"),
		Occurrences: filepath.Join(out, "occ.csv"),
	}

	var buf bytes.Buffer
	sum, err := CountByPage(context.Background(), textConfig(), opts, &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Pages)
	assert.Equal(t, 4, sum.Tally.Total)
	assert.Equal(t, []int{1, 3}, sum.Tally.Distribution["FM1023"])

	dist, err := os.ReadFile(filepath.Join(out, "counts_distribution.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(dist), "FM1023,\"1, 3\",2\n")

	_, err = os.Stat(opts.Occurrences)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "Pages with most FM codes:\n  Page 1: 2 codes")
}

func TestFilterAndUnique(t *testing.T) {
	out := t.TempDir()
	cfg := textConfig()
	cfg.Parse.ExpectedCodes = 4
	lines := filepath.Join(out, "lines.txt")

	var buf bytes.Buffer
	fs, err := FilterLines(context.Background(), cfg, LinesOptions{Input: writeDump(t, dump), Output: lines}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 4, fs.Lines)
	assert.Equal(t, 3, fs.Unique)
	assert.Contains(t, buf.String(), "Difference: -1")

	buf.Reset()
	us, err := UniqueCodes(context.Background(), cfg, LinesOptions{Input: lines, Output: filepath.Join(out, "unique.csv")}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 4, us.Occurrences)
	assert.Len(t, us.Counts, 3)
	require.Len(t, us.Duplicates, 1)
	assert.Equal(t, "FM1023", us.Duplicates[0].Code)
	assert.Contains(t, buf.String(), "FM1023 appears 2 times")

	data, err := os.ReadFile(filepath.Join(out, "unique.csv"))
	require.NoError(t, err)
	assert.Equal(t, "FM Code,Occurrences\nFM1023,2\nFM1024,1\nFM1025,1\n", string(data))
}

func TestUniqueCodesMissingInput(t *testing.T) {
	_, err := UniqueCodes(context.Background(), textConfig(), LinesOptions{
		Input:  filepath.Join(t.TempDir(), "none.txt"),
		Output: filepath.Join(t.TempDir(), "u.csv"),
	}, &bytes.Buffer{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAnalyze(t *testing.T) {
	out := filepath.Join(t.TempDir(), "analysis.txt")
	var buf bytes.Buffer
	a, err := Analyze(context.Background(), textConfig(), LinesOptions{Input: writeDump(t, dump), Output: out}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 5, a.Mentions)
	assert.Equal(t, 4, a.Headers)
	assert.Equal(t, 3, a.FullAlarms)
	require.Len(t, a.Unparsed, 1)
	assert.Equal(t, "FM1025", a.Unparsed[0].Code)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "FM CODE ANALYSIS"))
	assert.Contains(t, buf.String(), "Analysis saved to")
}

const stDump = "Status list\n" +
	"ST10 Grid voltage low UID: 10\nType: Warning\n" +
	"ST11 Pitch battery UID: 11\nType: Alarm\n" +
	"\f" +
	"ST12 No type given UID: 12\n" +
	"ST10 Grid voltage low UID: 10\nType: Alarm\n"

func TestExtractStatusCodes(t *testing.T) {
	cfg := textConfig()
	cfg.Parse.Layout = "st"
	out := filepath.Join(t.TempDir(), "st_alerts.csv")

	var buf bytes.Buffer
	sum, err := Extract(context.Background(), cfg, ExtractOptions{Input: writeDump(t, stDump), Output: out}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Blocks)
	assert.Equal(t, 3, sum.Records)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, []aggregate.TypeCount{{Type: "Alarm", Codes: 2}, {Type: "Warning", Codes: 1}}, sum.Types)
	assert.Contains(t, buf.String(), "Type distribution:\n    - Alarm: 2\n    - Warning: 1\n")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t,
		"SerialID,Type\n"+
			"ST10 Grid voltage low,Warning\n"+
			"ST11 Pitch battery,Alarm\n"+
			"ST10 Grid voltage low,Alarm\n",
		string(data))

	recs, err := report.ReadAlarms(out)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "Warning", recs[0].Type)
}

func TestAnalyzeStatusCodes(t *testing.T) {
	cfg := textConfig()
	cfg.Parse.Layout = "st"
	out := filepath.Join(t.TempDir(), "st_analysis.txt")

	var buf bytes.Buffer
	a, err := Analyze(context.Background(), cfg, LinesOptions{Input: writeDump(t, stDump), Output: out}, &buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"ST12"}, a.Untyped)
	require.Len(t, a.TypeConflicts, 1)
	assert.Equal(t, "ST10", a.TypeConflicts[0].Code)
	assert.Contains(t, buf.String(), "Typed codes: 2, inconsistent: 1, without type: 1")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Codes without type (1):\n  ST12\n")
}

func TestCountByPageListsCodes(t *testing.T) {
	cfg := textConfig()
	cfg.Parse.Layout = "st"
	out := filepath.Join(t.TempDir(), "st_counts.csv")

	_, err := CountByPage(context.Background(), cfg, CountOptions{Input: writeDump(t, stDump), Output: out}, &bytes.Buffer{})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t,
		"Page,Total FM Codes,Unique FM Codes,Codes\n"+
			"1,2,2,\"ST10, ST11\"\n"+
			"2,2,2,\"ST10, ST12\"\n"+
			"\n"+
			"Total,4,3,\n",
		string(data))
}

func TestEmptyTextWarningNamesInput(t *testing.T) {
	var logs bytes.Buffer
	ctx := logger.ToContext(context.Background(), logger.New(zap.NewAtomicLevelAt(zap.InfoLevel), &logs))
	input := writeDump(t, "  \f\n")

	_, err := Extract(ctx, textConfig(), ExtractOptions{Input: input, Output: filepath.Join(t.TempDir(), "a.csv")}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Contains(t, logs.String(), ErrExtractionEmpty.Error())
	assert.Contains(t, logs.String(), input)
	assert.Contains(t, logs.String(), `"backend": "text"`)
}
