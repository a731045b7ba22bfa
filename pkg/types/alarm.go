// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Page is the text recovered from one PDF page.
type Page struct {
	// Number is the 1-based page number in the source document.
	Number int `json:"number" yaml:"number"`

	// Text is the extracted page text with lines separated by "\n".
	Text string `json:"text" yaml:"text"`
}

// AlarmRecord is one alarm block parsed from extracted text. Records are
// built once by the parser and never modified afterwards.
type AlarmRecord struct {
	// SerialID joins the FM code and the alert name, e.g.
	// "FM1023 Brake pressure low".
	SerialID string `json:"serial_id" yaml:"serial_id"`

	// BrakeProg is the brake program number of the alarm.
	BrakeProg int `json:"brake_prog" yaml:"brake_prog"`

	// RedAvail reports whether the alarm reduces availability.
	RedAvail bool `json:"red_avail" yaml:"red_avail"`

	// Type is the alarm type printed on status code lists, e.g. "Warning".
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// Code is the FM code the block started with. Not part of the CSV schema.
	Code string `json:"code,omitempty" yaml:"code,omitempty"`

	// Page is the page the block started on, 0 when unknown.
	// Not part of the CSV schema.
	Page int `json:"page,omitempty" yaml:"page,omitempty"`
}

// Column names one property column of an alarm export. Every export
// starts with SerialID, followed by the columns of the layout in use.
type Column string

const (
	ColumnBrakeProg Column = "BrakeProg"
	ColumnRedAvail  Column = "RedAvail"
	ColumnType      Column = "Type"
)

// FMColumns are the property columns of an FM alarm list.
var FMColumns = []Column{ColumnBrakeProg, ColumnRedAvail}

// ParseColumn returns the column named s.
func ParseColumn(s string) (Column, bool) {
	switch c := Column(s); c {
	case ColumnBrakeProg, ColumnRedAvail, ColumnType:
		return c, true
	}
	return "", false
}

// RedAvailText renders RedAvail the way the alarm list prints it.
func (r AlarmRecord) RedAvailText() string {
	if r.RedAvail {
		return "yes"
	}
	return "no"
}

// FmCodeOccurrence counts how often a code appears on one page.
type FmCodeOccurrence struct {
	Code  string `json:"code" yaml:"code"`
	Page  int    `json:"page" yaml:"page"`
	Count int    `json:"count" yaml:"count"`
}
