// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/fm-alarms/pkg/types"
)

// alarmSheet is the worksheet name used for xlsx exports.
const alarmSheet = "Alarms"

// alarmDoc is the JSON and YAML shape of an alarm export. Only the
// exported columns are set.
type alarmDoc struct {
	SerialID  string `json:"SerialID" yaml:"SerialID"`
	BrakeProg *int   `json:"BrakeProg,omitempty" yaml:"BrakeProg,omitempty"`
	RedAvail  *bool  `json:"RedAvail,omitempty" yaml:"RedAvail,omitempty"`
	Type      string `json:"Type,omitempty" yaml:"Type,omitempty"`
}

// WriteAlarmsAs writes records in format f with SerialID followed by cols.
// Empty cols means the FM columns.
func WriteAlarmsAs(path string, f Format, cols []types.Column, recs []types.AlarmRecord) error {
	switch f {
	case FormatCSV, "":
		return WriteAlarmColumns(path, cols, recs)
	case FormatXLSX:
		return writeFile(path, func(w io.Writer) error { return writeXLSX(w, cols, recs) })
	case FormatJSON:
		return writeFile(path, func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(docs(cols, recs))
		})
	case FormatYAML:
		return writeFile(path, func(w io.Writer) error {
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(docs(cols, recs)); err != nil {
				return err
			}
			return enc.Close()
		})
	default:
		return fmt.Errorf("unsupported format %q", f)
	}
}

func docs(cols []types.Column, recs []types.AlarmRecord) []alarmDoc {
	_, cols = alarmHeader(cols)
	out := make([]alarmDoc, 0, len(recs))
	for _, r := range recs {
		d := alarmDoc{SerialID: r.SerialID}
		for _, c := range cols {
			switch c {
			case types.ColumnBrakeProg:
				d.BrakeProg = &r.BrakeProg
			case types.ColumnRedAvail:
				d.RedAvail = &r.RedAvail
			case types.ColumnType:
				d.Type = r.Type
			}
		}
		out = append(out, d)
	}
	return out
}

func writeXLSX(w io.Writer, cols []types.Column, recs []types.AlarmRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", alarmSheet); err != nil {
		return err
	}
	names, cols := alarmHeader(cols)
	header := make([]any, len(names))
	for i, h := range names {
		header[i] = h
	}
	if err := f.SetSheetRow(alarmSheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range recs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{r.SerialID}
		for _, c := range cols {
			if c == types.ColumnBrakeProg {
				row = append(row, r.BrakeProg)
				continue
			}
			row = append(row, cellText(r, c))
		}
		if err := f.SetSheetRow(alarmSheet, cell, &row); err != nil {
			return err
		}
	}
	return f.Write(w)
}
