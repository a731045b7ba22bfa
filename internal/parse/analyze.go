// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"slices"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	statsSampleSize = 20
	contextRadius   = 50
	excerptLength   = 200
)

// CodeStats summarises the codes found in a text.
type CodeStats struct {
	// Total is the number of counted code occurrences.
	Total int
	// Unique is the number of distinct counted codes.
	Unique int
	// ValidAlarms is the number of alarm block headers.
	ValidAlarms int
	// UniqueValid is the number of distinct codes with a block header.
	UniqueValid int
	// Sample holds up to 20 counted codes in sorted order.
	Sample []string
}

// Stats counts code occurrences and alarm headers in text.
func Stats(text string, l *Layout) CodeStats {
	occ := l.occurrence.FindAllStringSubmatch(text, -1)
	unique := map[string]bool{}
	for _, m := range occ {
		unique[m[1]] = true
	}

	headers := l.block.FindAllStringSubmatch(text, -1)
	valid := map[string]bool{}
	for _, m := range headers {
		valid[m[1]] = true
	}

	sample := sortedKeys(unique)
	if len(sample) > statsSampleSize {
		sample = sample[:statsSampleSize]
	}

	return CodeStats{
		Total:       len(occ),
		Unique:      len(unique),
		ValidAlarms: len(headers),
		UniqueValid: len(valid),
		Sample:      sample,
	}
}

// Finding points at one code the parser could not turn into a record.
type Finding struct {
	Code    string
	Context string
}

// Analysis compares the different ways a code can show up in the text, to
// explain why the record count differs from the number of codes mentioned.
type Analysis struct {
	// Mentions counts every code match anywhere in the text.
	Mentions int
	// UniqueMentions counts distinct codes mentioned anywhere.
	UniqueMentions int
	// LineStart counts codes at the start of a line.
	LineStart int
	// Headers counts alarm block headers.
	Headers int
	// FullAlarms counts blocks that parsed into a record.
	FullAlarms int

	// MentionedOnly lists codes that never start an alarm block, with the
	// text around their first mention.
	MentionedOnly []Finding
	// Unparsed lists codes with a header whose block never produced a
	// record, with the start of the block.
	Unparsed []Finding

	// The fields below are only filled for layouts that read a type.
	Typed bool
	// CodeTypes maps each code to the first type read from its blocks.
	CodeTypes map[string]string
	// TypeConflicts lists codes whose blocks carry different types.
	TypeConflicts []TypeConflict
	// Untyped lists codes with a header but no type in any of their blocks.
	Untyped []string
}

// TypeConflict is a code printed with more than one type.
type TypeConflict struct {
	Code string
	// Types holds the distinct types in the order they were read.
	Types []string
}

// Analyze runs every code pattern of the parser's layout over text.
func (p *Parser) Analyze(text string) Analysis {
	l := p.layout
	var a Analysis

	firstMention := map[string]int{}
	for _, loc := range l.code.FindAllStringIndex(text, -1) {
		a.Mentions++
		code := text[loc[0]:loc[1]]
		if _, ok := firstMention[code]; !ok {
			firstMention[code] = loc[0]
		}
	}
	a.UniqueMentions = len(firstMention)
	a.LineStart = len(l.lineStart.FindAllStringIndex(text, -1))

	headerAt := map[string]int{}
	full := map[string]bool{}
	seenTypes := map[string][]string{}
	for _, b := range p.blocks(text) {
		a.Headers++
		if _, ok := headerAt[b.code]; !ok {
			headerAt[b.code] = b.start
		}
		if _, ok := p.matchBlock(b); ok {
			a.FullAlarms++
			full[b.code] = true
		}
		if l.typ != nil {
			if m := l.typ.FindStringSubmatch(b.body); m != nil && m[1] != "" && !slices.Contains(seenTypes[b.code], m[1]) {
				seenTypes[b.code] = append(seenTypes[b.code], m[1])
			}
		}
	}
	if l.typ != nil {
		a.Typed = true
		a.CodeTypes = map[string]string{}
		for _, code := range sortedKeys(headerAt) {
			ts := seenTypes[code]
			if len(ts) == 0 {
				a.Untyped = append(a.Untyped, code)
				continue
			}
			a.CodeTypes[code] = ts[0]
			if len(ts) > 1 {
				a.TypeConflicts = append(a.TypeConflicts, TypeConflict{Code: code, Types: ts})
			}
		}
	}

	for _, code := range sortedKeys(firstMention) {
		if _, ok := headerAt[code]; ok {
			continue
		}
		i := firstMention[code]
		ctx := clip(text, i-contextRadius, i+len(code)+contextRadius)
		ctx = strings.ReplaceAll(ctx, code, ">>>"+code+"<<<")
		a.MentionedOnly = append(a.MentionedOnly, Finding{Code: code, Context: flatten(ctx)})
	}
	for _, code := range sortedKeys(headerAt) {
		if full[code] {
			continue
		}
		i := headerAt[code]
		excerpt := clip(text, i, i+excerptLength)
		excerpt = strings.ReplaceAll(excerpt, code, ">>>"+code+"<<<")
		a.Unparsed = append(a.Unparsed, Finding{Code: code, Context: flatten(excerpt)})
	}
	return a
}

// clip returns s[from:to] with both bounds clamped to s and moved back to
// rune boundaries.
func clip(s string, from, to int) string {
	from = max(0, min(from, len(s)))
	to = max(from, min(to, len(s)))
	for from > 0 && !utf8.RuneStart(s[from]) {
		from--
	}
	for to < len(s) && !utf8.RuneStart(s[to]) {
		to--
	}
	return s[from:to]
}

func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
