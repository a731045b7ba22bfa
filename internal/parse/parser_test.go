// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/fm-alarms/pkg/types"
)

// scadaText mimics the text recovered from the wind farm alarm list.
const scadaText = `Alarm List WT CTRL Rev: 4
FM1023 Brake pressure low UID: 1023 Type: Alarm
ResetLevel: 2 Severity: High
DeacLevel: 1
accumulator
Properties
Red. Avail.: yes Stop: no
Brake-Prog.: 5
FM1024 Yaw error UID: 1024
ResetLevel: 1
DeacLevel: 0
The yaw system reports an error while turning into wind
Properties
Red. Avail.: no
Brake-Prog.: 2
FM1025 Converter trip UID: 1025
ResetLevel: 1
DeacLevel: 3
Page: 3 / 120
Properties
Red. Avail.: no
Brake-Prog.: 7
FM1026 Missing properties UID: 1026
ResetLevel: 1
DeacLevel: 0
`

func defaultParser(t *testing.T) *Parser {
	t.Helper()
	l, err := Builtin().Get("default")
	require.NoError(t, err)
	return New(l)
}

func scadaParser(t *testing.T) *Parser {
	t.Helper()
	l, err := Builtin().Get("scada")
	require.NoError(t, err)
	return New(l)
}

func TestMatchSingleLine(t *testing.T) {
	p := defaultParser(t)

	rec, ok := p.Match("FM1023 Brake pressure low Brake-Prog: 5 Red. Avail: yes")
	require.True(t, ok)
	assert.Equal(t, types.AlarmRecord{
		SerialID:  "FM1023 Brake pressure low",
		BrakeProg: 5,
		RedAvail:  true,
		Code:      "FM1023",
	}, rec)
}

func TestMatchRejectsIncompleteBlocks(t *testing.T) {
	p := defaultParser(t)

	tests := []struct {
		name string
		text string
	}{
		{"no code", "Brake pressure low Brake-Prog: 5 Red. Avail: yes"},
		{"missing brake prog", "FM1023 Brake pressure low Red. Avail: yes"},
		{"missing red avail", "FM1023 Brake pressure low Brake-Prog: 5"},
		{"red avail not yes or no", "FM1023 Brake pressure low Brake-Prog: 5 Red. Avail: maybe"},
		{"code mid line", "see FM1023 Brake pressure low Brake-Prog: 5 Red. Avail: yes"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := p.Match(tt.text)
			assert.False(t, ok)
		})
	}
}

func TestRecordsWellFormedBlocks(t *testing.T) {
	p := defaultParser(t)

	const n = 25
	var b strings.Builder
	want := make([]string, 0, n)
	for i := range n {
		code := fmt.Sprintf("FM%d", 1000+i)
		name := fmt.Sprintf("Alarm number %d", i)
		fmt.Fprintf(&b, "%s %s\nsome detail text\nBrake-Prog.: %d\nRed. Avail.: %s\n",
			code, name, i%8, []string{"yes", "no"}[i%2])
		want = append(want, code+" "+name)
	}

	recs := slices.Collect(p.Records(b.String()))
	require.Len(t, recs, n)
	for i, r := range recs {
		assert.Equal(t, want[i], r.SerialID)
		assert.Equal(t, i%8, r.BrakeProg)
		assert.Equal(t, i%2 == 0, r.RedAvail)
	}
}

func TestRecordsNoCodes(t *testing.T) {
	p := defaultParser(t)

	recs := slices.Collect(p.Records("Table of contents\nIntroduction\nBrake-Prog.: 3\n"))
	assert.Empty(t, recs)

	res := p.Parse("")
	assert.Equal(t, Result{}, res)
}

func TestRecordsIdempotent(t *testing.T) {
	p := scadaParser(t)

	first := slices.Collect(p.Records(scadaText))
	second := slices.Collect(p.Records(scadaText))
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestRecordsStopsWhenConsumerStops(t *testing.T) {
	p := defaultParser(t)
	text := "FM1 A Brake-Prog: 1 Red. Avail: no\nFM2 B Brake-Prog: 2 Red. Avail: no\n"

	var got []string
	for r := range p.Records(text) {
		got = append(got, r.SerialID)
		break
	}
	assert.Equal(t, []string{"FM1 A"}, got)
}

func TestScadaLayout(t *testing.T) {
	p := scadaParser(t)

	res := p.Parse(scadaText)
	assert.Equal(t, 4, res.Blocks)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Records, 3)

	assert.Equal(t, types.AlarmRecord{
		SerialID: "FM1023 Brake pressure low accumulator", BrakeProg: 5, RedAvail: true, Code: "FM1023",
	}, res.Records[0])
	// Descriptions starting with "The " are not part of the name.
	assert.Equal(t, "FM1024 Yaw error", res.Records[1].SerialID)
	assert.False(t, res.Records[1].RedAvail)
	// Page furniture between header and properties is not part of the name.
	assert.Equal(t, "FM1025 Converter trip", res.Records[2].SerialID)
	assert.Equal(t, 7, res.Records[2].BrakeProg)

	rec, ok := p.Match("FM77 Hydraulic fault UID: 77\nResetLevel: 1\nDeacLevel: 2\nProperties\nRed. Avail.: yes\nBrake-Prog.: 12")
	require.True(t, ok)
	assert.Equal(t, 12, rec.BrakeProg, "multi-digit brake programs are read whole")
}

func TestScadaLayoutEnforcesPropertyOrder(t *testing.T) {
	p := scadaParser(t)

	text := "FM7 Reversed UID: 7\nProperties\nBrake-Prog.: 1\nRed. Avail.: yes\n"
	_, ok := p.Match(text)
	assert.False(t, ok)

	ok = false
	for range defaultParser(t).Records(text) {
		ok = true
	}
	assert.True(t, ok, "default layout accepts properties in any order")
}

func TestWindowBoundsPropertySearch(t *testing.T) {
	l, err := Compile(LayoutSpec{Name: "narrow", Window: 40})
	require.NoError(t, err)
	p := New(l)

	text := "FM1 Far away properties\n" + strings.Repeat("filler ", 20) + "\nBrake-Prog: 1 Red. Avail: yes\n"
	_, ok := p.Match(text)
	assert.False(t, ok)

	_, ok = defaultParser(t).Match(text)
	assert.True(t, ok)
}

func TestRecordsByPage(t *testing.T) {
	p := defaultParser(t)
	pages := []types.Page{
		{Number: 1, Text: "Cover page"},
		{Number: 2, Text: "FM1 First alarm\nBrake-Prog: 1\nRed. Avail: yes"},
		{Number: 3, Text: "FM2 Split alarm\nBrake-Prog: 4"},
		{Number: 4, Text: "Red. Avail: no\nFM3 Last alarm Brake-Prog: 2 Red. Avail: no"},
	}

	recs := slices.Collect(p.RecordsByPage(pages))
	require.Len(t, recs, 3)
	assert.Equal(t, 2, recs[0].Page)
	assert.Equal(t, "FM2 Split alarm", recs[1].SerialID)
	assert.Equal(t, 3, recs[1].Page)
	assert.False(t, recs[1].RedAvail)
	assert.Equal(t, 4, recs[2].Page)
}

func TestStats(t *testing.T) {
	l, err := Builtin().Get("scada")
	require.NoError(t, err)

	s := Stats(scadaText, l)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 4, s.Unique)
	assert.Equal(t, 4, s.ValidAlarms)
	assert.Equal(t, 4, s.UniqueValid)
	assert.Equal(t, []string{"FM1023", "FM1024", "FM1025", "FM1026"}, s.Sample)
}

func TestStatsSampleIsCapped(t *testing.T) {
	l, err := Builtin().Get("default")
	require.NoError(t, err)

	var b strings.Builder
	for i := range 30 {
		fmt.Fprintf(&b, "FM%d Alarm\n", 100+i)
	}
	s := Stats(b.String(), l)
	assert.Equal(t, 30, s.Unique)
	assert.Len(t, s.Sample, 20)
	assert.Equal(t, "FM100", s.Sample[0])
}

func TestAnalyze(t *testing.T) {
	p := scadaParser(t)
	text := scadaText + "Refer to FM2000 for the converter reset procedure.\n"

	a := p.Analyze(text)
	assert.Equal(t, 5, a.Mentions)
	assert.Equal(t, 5, a.UniqueMentions)
	assert.Equal(t, 4, a.LineStart)
	assert.Equal(t, 4, a.Headers)
	assert.Equal(t, 3, a.FullAlarms)

	require.Len(t, a.MentionedOnly, 1)
	assert.Equal(t, "FM2000", a.MentionedOnly[0].Code)
	assert.Contains(t, a.MentionedOnly[0].Context, ">>>FM2000<<<")
	assert.NotContains(t, a.MentionedOnly[0].Context, "\n")

	require.Len(t, a.Unparsed, 1)
	assert.Equal(t, "FM1026", a.Unparsed[0].Code)
	assert.True(t, strings.HasPrefix(a.Unparsed[0].Context, ">>>FM1026<<< Missing properties"))

	assert.False(t, a.Typed)
	assert.Nil(t, a.CodeTypes)
}

func TestClipRespectsRuneBoundaries(t *testing.T) {
	s := "ééé FM1 ééé"
	got := clip(s, 1, len(s)-1)
	assert.True(t, strings.HasPrefix(got, "é"))
	assert.Equal(t, "", clip(s, 50, 60))
	assert.Equal(t, s, clip(s, -10, 100))
}

func TestFilterLines(t *testing.T) {
	l, err := Builtin().Get("default")
	require.NoError(t, err)

	text := "FM1 Alarm one\n  FM2 Indented alarm  \nFM3 lowercase start\nsee FM4 Inline\nFM5\nFM6 Another"
	got := FilterLines(text, l)
	assert.Equal(t, []CodeLine{
		{Code: "FM1", Line: "FM1 Alarm one"},
		{Code: "FM2", Line: "FM2 Indented alarm"},
		{Code: "FM6", Line: "FM6 Another"},
	}, got)
}

func TestParsePages(t *testing.T) {
	p := defaultParser(t)
	pages := []types.Page{
		{Number: 7, Text: "FM1 Good alarm Brake-Prog: 1 Red. Avail: yes"},
		{Number: 8, Text: "FM2 No properties\nFM3 Late alarm\nBrake-Prog: 3 Red. Avail: no"},
	}

	res := p.ParsePages(pages)
	assert.Equal(t, 3, res.Blocks)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 7, res.Records[0].Page)
	assert.Equal(t, "FM3 Late alarm", res.Records[1].SerialID)
	assert.Equal(t, 8, res.Records[1].Page)
	assert.Equal(t, slices.Collect(p.RecordsByPage(pages)), res.Records)
}

// stText mimics a status code list, where alarms carry a type instead of
// brake program and availability.
const stText = `Status list Rev: 2
ST10 Grid voltage low UID: 10
Type: Warning
ST11 Pitch battery UID: 11
Type: Alarm
ST12 No type given UID: 12
Severity: 1
ST10 Grid voltage low UID: 10
Type: Alarm
ST13 Converter stop UID: 13 Type: Alarm
`

func stParser(t *testing.T) *Parser {
	t.Helper()
	l, err := Builtin().Get("st")
	require.NoError(t, err)
	return New(l)
}

func TestStLayoutReadsTypes(t *testing.T) {
	p := stParser(t)

	res := p.Parse(stText)
	assert.Equal(t, 5, res.Blocks)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []types.AlarmRecord{
		{SerialID: "ST10 Grid voltage low", Type: "Warning", Code: "ST10"},
		{SerialID: "ST11 Pitch battery", Type: "Alarm", Code: "ST11"},
		{SerialID: "ST10 Grid voltage low", Type: "Alarm", Code: "ST10"},
		{SerialID: "ST13 Converter stop", Type: "Alarm", Code: "ST13"},
	}, res.Records)

	_, ok := defaultParser(t).Match("FM1 Alarm\nType: Warning\n")
	assert.False(t, ok, "FM layouts still need brake program and availability")
}

func TestStLayoutAnalyzeTypes(t *testing.T) {
	a := stParser(t).Analyze(stText)
	assert.Equal(t, 5, a.Mentions)
	assert.Equal(t, 4, a.UniqueMentions)
	assert.Equal(t, 5, a.Headers)
	assert.Equal(t, 4, a.FullAlarms)

	assert.True(t, a.Typed)
	assert.Equal(t, map[string]string{"ST10": "Warning", "ST11": "Alarm", "ST13": "Alarm"}, a.CodeTypes)
	assert.Equal(t, []TypeConflict{{Code: "ST10", Types: []string{"Warning", "Alarm"}}}, a.TypeConflicts)
	assert.Equal(t, []string{"ST12"}, a.Untyped)
}
