// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pdiddy/fm-alarms/internal/aggregate"
	"github.com/pdiddy/fm-alarms/pkg/types"
)

const serialIDColumn = "SerialID"

// alarmHeader returns SerialID followed by cols, or by the FM columns when
// cols is empty.
func alarmHeader(cols []types.Column) ([]string, []types.Column) {
	if len(cols) == 0 {
		cols = types.FMColumns
	}
	header := []string{serialIDColumn}
	for _, c := range cols {
		header = append(header, string(c))
	}
	return header, cols
}

// cellText renders one property of r as the alarm list prints it.
func cellText(r types.AlarmRecord, c types.Column) string {
	switch c {
	case types.ColumnBrakeProg:
		return strconv.Itoa(r.BrakeProg)
	case types.ColumnRedAvail:
		return r.RedAvailText()
	case types.ColumnType:
		return r.Type
	}
	return ""
}

// writeCSV writes a header and rows to path.
func writeCSV(path string, header []string, rows [][]string) error {
	return writeFile(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return err
		}
		if err := cw.WriteAll(rows); err != nil {
			return err
		}
		return cw.Error()
	})
}

// WriteAlarms writes records as SerialID,BrakeProg,RedAvail rows with
// RedAvail as yes or no. An empty slice produces a header-only file.
func WriteAlarms(path string, recs []types.AlarmRecord) error {
	return WriteAlarmColumns(path, nil, recs)
}

// WriteAlarmColumns writes records as SerialID followed by cols. Empty cols
// means the FM columns.
func WriteAlarmColumns(path string, cols []types.Column, recs []types.AlarmRecord) error {
	header, cols := alarmHeader(cols)
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		row := []string{r.SerialID}
		for _, c := range cols {
			row = append(row, cellText(r, c))
		}
		rows = append(rows, row)
	}
	return writeCSV(path, header, rows)
}

// ReadAlarms reads a file written by WriteAlarms or WriteAlarmColumns. The
// header names the property columns.
func ReadAlarms(path string) ([]types.AlarmRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening alarms file: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s is empty", path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}
	cols, err := headerColumns(header)
	if err != nil {
		return nil, fmt.Errorf("%s: unexpected header %q: %w", path, strings.Join(header, ","), err)
	}

	var recs []types.AlarmRecord
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return recs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, row, err)
		}
		code, _, _ := strings.Cut(rec[0], " ")
		r := types.AlarmRecord{SerialID: rec[0], Code: code}
		for i, c := range cols {
			if err := setCell(&r, c, rec[i+1]); err != nil {
				return nil, fmt.Errorf("%s row %d: %w", path, row, err)
			}
		}
		recs = append(recs, r)
	}
}

func headerColumns(header []string) ([]types.Column, error) {
	if strings.TrimSpace(header[0]) != serialIDColumn {
		return nil, fmt.Errorf("first column must be %s", serialIDColumn)
	}
	if len(header) < 2 {
		return nil, errors.New("no property columns")
	}
	cols := make([]types.Column, 0, len(header)-1)
	for _, h := range header[1:] {
		c, ok := types.ParseColumn(strings.TrimSpace(h))
		if !ok {
			return nil, fmt.Errorf("unknown column %q", h)
		}
		cols = append(cols, c)
	}
	return cols, nil
}

// setCell parses one property cell into r.
func setCell(r *types.AlarmRecord, c types.Column, v string) error {
	v = strings.TrimSpace(v)
	switch c {
	case types.ColumnBrakeProg:
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BrakeProg %q is not a number", v)
		}
		r.BrakeProg = n
	case types.ColumnRedAvail:
		switch strings.ToLower(v) {
		case "yes":
			r.RedAvail = true
		case "no":
			r.RedAvail = false
		default:
			return fmt.Errorf("RedAvail %q is not yes or no", v)
		}
	case types.ColumnType:
		r.Type = v
	}
	return nil
}

// WriteOccurrences writes one Page,FMCode,Count row per page and code.
func WriteOccurrences(path string, occs []types.FmCodeOccurrence) error {
	rows := make([][]string, 0, len(occs))
	for _, o := range occs {
		rows = append(rows, []string{strconv.Itoa(o.Page), o.Code, strconv.Itoa(o.Count)})
	}
	return writeCSV(path, []string{"Page", "FMCode", "Count"}, rows)
}

// WritePageSummary writes the per-page count report, listing the codes of
// each page, followed by a blank row and a Total row.
func WritePageSummary(path string, t *aggregate.Tally) error {
	summaries := t.PageSummaries()
	rows := make([][]string, 0, len(summaries)+2)
	for _, s := range summaries {
		rows = append(rows, []string{strconv.Itoa(s.Page), strconv.Itoa(s.Total), strconv.Itoa(s.Unique), strings.Join(s.Codes, ", ")})
	}
	rows = append(rows,
		[]string{""},
		[]string{"Total", strconv.Itoa(t.Total), strconv.Itoa(t.Unique()), ""},
	)
	return writeCSV(path, []string{"Page", "Total FM Codes", "Unique FM Codes", "Codes"}, rows)
}

// WriteDistribution writes the pages each code occurs on.
func WriteDistribution(path string, counts []aggregate.CodeCount) error {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		pages := make([]string, len(c.Pages))
		for i, p := range c.Pages {
			pages[i] = strconv.Itoa(p)
		}
		rows = append(rows, []string{c.Code, strings.Join(pages, ", "), strconv.Itoa(c.Occurrences)})
	}
	return writeCSV(path, []string{"FM Code", "Pages Found On", "Occurrences"}, rows)
}

// WriteCodeCounts writes the number of occurrences of each code.
func WriteCodeCounts(path string, counts []aggregate.CodeCount) error {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Code, strconv.Itoa(c.Occurrences)})
	}
	return writeCSV(path, []string{"FM Code", "Occurrences"}, rows)
}
