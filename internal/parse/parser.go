// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parse turns extracted PDF text into alarm records.
//
// An alarm block starts at a header line carrying an alarm code and the
// alert name, and runs until the next header. The properties the layout
// reads (BrakeProg and RedAvail on FM lists, Type on status code lists) are
// looked up inside a bounded window of the block. PDF layouts vary, so
// extraction is best effort: a block that does not yield every field is
// skipped, never reported as an error. The patterns live in a Layout so
// that other document layouts can be supported without code changes.
package parse

import (
	"iter"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/fm-alarms/pkg/types"
)

const (
	// maxContinuationWords bounds wrapped alert-name text; longer runs are
	// descriptions, not names.
	maxContinuationWords = 10
	descriptionPrefix    = "The "
)

// Parser extracts alarm records using one layout.
type Parser struct {
	layout *Layout
}

// New returns a parser for layout.
func New(layout *Layout) *Parser {
	return &Parser{layout: layout}
}

// block is one header match and the text that belongs to it.
type block struct {
	start  int
	code   string
	header string
	body   string
}

// Result holds the outcome of parsing a whole text.
type Result struct {
	Records []types.AlarmRecord
	Blocks  int
	Skipped int
}

// blocks splits text at every header match.
func (p *Parser) blocks(text string) []block {
	locs := p.layout.block.FindAllStringSubmatchIndex(text, -1)
	out := make([]block, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if limit := loc[0] + p.layout.Window; end > limit {
			end = limit
		}
		out = append(out, block{
			start:  loc[0],
			code:   text[loc[2]:loc[3]],
			header: text[loc[4]:loc[5]],
			body:   text[loc[0]:end],
		})
	}
	return out
}

// Match parses the first alarm block in s. The second result is false when s
// holds no block or the block lacks a required field.
func (p *Parser) Match(s string) (types.AlarmRecord, bool) {
	bs := p.blocks(s)
	if len(bs) == 0 {
		return types.AlarmRecord{}, false
	}
	b := bs[0]
	// The block runs to the end of s, not to a later header.
	b.body = s[b.start:min(len(s), b.start+p.layout.Window)]
	return p.matchBlock(b)
}

func (p *Parser) matchBlock(b block) (types.AlarmRecord, bool) {
	name := b.header
	if p.layout.nameStop != nil {
		if loc := p.layout.nameStop.FindStringIndex(name); loc != nil {
			name = name[:loc[0]]
		}
	}
	name = normalizeSpace(name)
	if name == "" {
		return types.AlarmRecord{}, false
	}
	if cont := p.continuation(b.body); cont != "" {
		name = normalizeSpace(name + " " + cont)
	}

	rec := types.AlarmRecord{SerialID: b.code + " " + name, Code: b.code}
	if re := p.layout.redAvail; re != nil {
		m := re.FindStringSubmatch(b.body)
		if m == nil {
			return types.AlarmRecord{}, false
		}
		rec.RedAvail = strings.EqualFold(m[1], "yes")
	}
	if re := p.layout.brakeProg; re != nil {
		m := re.FindStringSubmatch(b.body)
		if m == nil {
			return types.AlarmRecord{}, false
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return types.AlarmRecord{}, false
		}
		rec.BrakeProg = n
	}
	if re := p.layout.typ; re != nil {
		m := re.FindStringSubmatch(b.body)
		if m == nil || m[1] == "" {
			return types.AlarmRecord{}, false
		}
		rec.Type = m[1]
	}
	return rec, true
}

// continuation returns wrapped alert-name text found between the header
// metadata and the properties section, or "" when there is none or it looks
// like a description or page furniture.
func (p *Parser) continuation(body string) string {
	if p.layout.continuation == nil {
		return ""
	}
	m := p.layout.continuation.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	cont := strings.TrimSpace(m[1])
	if cont == "" || strings.HasPrefix(cont, descriptionPrefix) {
		return ""
	}
	if p.layout.noise != nil && p.layout.noise.MatchString(cont) {
		return ""
	}
	if len(strings.Fields(cont)) > maxContinuationWords {
		return ""
	}
	return cont
}

// Records yields the alarm records in text in document order. Blocks that
// do not match are skipped.
func (p *Parser) Records(text string) iter.Seq[types.AlarmRecord] {
	return func(yield func(types.AlarmRecord) bool) {
		for _, b := range p.blocks(text) {
			rec, ok := p.matchBlock(b)
			if !ok {
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// RecordsByPage parses the pages as one text, so blocks may continue onto
// the next page, and stamps each record with the page its header is on.
func (p *Parser) RecordsByPage(pages []types.Page) iter.Seq[types.AlarmRecord] {
	return func(yield func(types.AlarmRecord) bool) {
		p.walkPages(pages, func(rec types.AlarmRecord, ok bool) bool {
			return !ok || yield(rec)
		})
	}
}

// ParsePages is Parse over pages, with page numbers set as in
// RecordsByPage.
func (p *Parser) ParsePages(pages []types.Page) Result {
	var res Result
	p.walkPages(pages, func(rec types.AlarmRecord, ok bool) bool {
		res.Blocks++
		if !ok {
			res.Skipped++
			return true
		}
		res.Records = append(res.Records, rec)
		return true
	})
	return res
}

// walkPages calls fn for every block of the joined pages until fn returns
// false.
func (p *Parser) walkPages(pages []types.Page, fn func(types.AlarmRecord, bool) bool) {
	text, starts := joinWithOffsets(pages)
	for _, b := range p.blocks(text) {
		rec, ok := p.matchBlock(b)
		if ok {
			i := sort.Search(len(starts), func(i int) bool { return starts[i] > b.start }) - 1
			if i >= 0 {
				rec.Page = pages[i].Number
			}
		}
		if !fn(rec, ok) {
			return
		}
	}
}

// Parse collects every record in text and counts the blocks skipped.
func (p *Parser) Parse(text string) Result {
	var res Result
	for _, b := range p.blocks(text) {
		res.Blocks++
		rec, ok := p.matchBlock(b)
		if !ok {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// joinWithOffsets joins page texts with "\n" and returns the byte offset at
// which each page starts.
func joinWithOffsets(pages []types.Page) (string, []int) {
	var b strings.Builder
	starts := make([]int, len(pages))
	for i, pg := range pages {
		if i > 0 {
			b.WriteByte('\n')
		}
		starts[i] = b.Len()
		b.WriteString(pg.Text)
	}
	return b.String(), starts
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
