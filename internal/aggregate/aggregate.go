// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate counts code occurrences per page and across a document.
//
// The same occurrence pattern is applied to every page, so the per-page
// counts always add up to the document total.
package aggregate

import (
	"cmp"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/pdiddy/fm-alarms/pkg/types"
)

// Tally holds occurrence counts for one document.
type Tally struct {
	// ByPage maps page number to code to count.
	ByPage map[int]map[string]int

	// Distribution maps each code to the sorted, unique pages it occurs on.
	Distribution map[string][]int

	// Total is the number of occurrences in the document.
	Total int

	// textPages lists the pages that had any text, in page order.
	textPages []int
}

// PageSummary is one row of the per-page report.
type PageSummary struct {
	Page   int
	Total  int
	Unique int
	// Codes lists the distinct codes on the page in code order.
	Codes []string
}

// CodeCount is the number of occurrences of one code.
type CodeCount struct {
	Code        string
	Pages       []int
	Occurrences int
}

// PageStats describes how codes spread over pages.
type PageStats struct {
	// Pages is the number of pages with text.
	Pages int
	// PagesWithCodes is the number of pages holding at least one code.
	PagesWithCodes int
	// AveragePerPage is Total divided by PagesWithCodes.
	AveragePerPage float64
	// MostCommonCount is the per-page count seen on most pages with codes;
	// ties go to the smaller count.
	MostCommonCount int
}

// Count scans every page with pattern, whose group 1 is the code. Pages
// without text are left out of the summaries.
func Count(pages []types.Page, pattern *regexp.Regexp) *Tally {
	t := &Tally{
		ByPage:       map[int]map[string]int{},
		Distribution: map[string][]int{},
	}
	for _, p := range pages {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		t.textPages = append(t.textPages, p.Number)
		for _, m := range pattern.FindAllStringSubmatch(p.Text, -1) {
			t.add(p.Number, m[1])
		}
	}
	for _, pages := range t.Distribution {
		slices.Sort(pages)
	}
	return t
}

func (t *Tally) add(page int, code string) {
	counts, ok := t.ByPage[page]
	if !ok {
		counts = map[string]int{}
		t.ByPage[page] = counts
	}
	if counts[code] == 0 {
		t.Distribution[code] = append(t.Distribution[code], page)
	}
	counts[code]++
	t.Total++
}

// Unique returns the number of distinct codes.
func (t *Tally) Unique() int { return len(t.Distribution) }

// PagesWithCodes returns the number of pages holding at least one code.
func (t *Tally) PagesWithCodes() int { return len(t.ByPage) }

// PageTotal returns the number of occurrences on page.
func (t *Tally) PageTotal(page int) int {
	n := 0
	for _, c := range t.ByPage[page] {
		n += c
	}
	return n
}

// Occurrences returns one entry per page and code, ordered by page then
// code.
func (t *Tally) Occurrences() []types.FmCodeOccurrence {
	var out []types.FmCodeOccurrence
	for _, page := range sortedInts(t.ByPage) {
		counts := t.ByPage[page]
		codes := make([]string, 0, len(counts))
		for c := range counts {
			codes = append(codes, c)
		}
		SortCodes(codes)
		for _, c := range codes {
			out = append(out, types.FmCodeOccurrence{Code: c, Page: page, Count: counts[c]})
		}
	}
	return out
}

// PageSummaries returns a row for every page with text, including pages
// without codes.
func (t *Tally) PageSummaries() []PageSummary {
	out := make([]PageSummary, 0, len(t.textPages))
	for _, page := range t.textPages {
		out = append(out, t.summary(page))
	}
	return out
}

func (t *Tally) summary(page int) PageSummary {
	var codes []string
	for c := range t.ByPage[page] {
		codes = append(codes, c)
	}
	SortCodes(codes)
	return PageSummary{
		Page:   page,
		Total:  t.PageTotal(page),
		Unique: len(codes),
		Codes:  codes,
	}
}

// CodeCounts returns every code with its pages and total occurrences,
// ordered by code.
func (t *Tally) CodeCounts() []CodeCount {
	codes := make([]string, 0, len(t.Distribution))
	for c := range t.Distribution {
		codes = append(codes, c)
	}
	SortCodes(codes)

	out := make([]CodeCount, 0, len(codes))
	for _, c := range codes {
		pages := t.Distribution[c]
		n := 0
		for _, p := range pages {
			n += t.ByPage[p][c]
		}
		out = append(out, CodeCount{Code: c, Pages: slices.Clone(pages), Occurrences: n})
	}
	return out
}

// TopPages returns up to n pages with the most occurrences. Ties are
// ordered by page number.
func (t *Tally) TopPages(n int) []PageSummary {
	out := make([]PageSummary, 0, len(t.ByPage))
	for _, page := range sortedInts(t.ByPage) {
		out = append(out, t.summary(page))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Duplicates returns the codes occurring more than once.
func (t *Tally) Duplicates() []CodeCount {
	return Duplicates(t.CodeCounts())
}

// Stats summarises the spread of codes over pages.
func (t *Tally) Stats() PageStats {
	s := PageStats{Pages: len(t.textPages), PagesWithCodes: t.PagesWithCodes()}
	if s.PagesWithCodes == 0 {
		return s
	}
	s.AveragePerPage = float64(t.Total) / float64(s.PagesWithCodes)

	freq := map[int]int{}
	for page := range t.ByPage {
		freq[t.PageTotal(page)]++
	}
	best := -1
	for count, pages := range freq {
		if pages > best || (pages == best && count < s.MostCommonCount) {
			best, s.MostCommonCount = pages, count
		}
	}
	return s
}

// CountCodes counts a flat list of codes, ordered by code.
func CountCodes(codes []string) []CodeCount {
	counts := map[string]int{}
	for _, c := range codes {
		counts[c]++
	}
	keys := make([]string, 0, len(counts))
	for c := range counts {
		keys = append(keys, c)
	}
	SortCodes(keys)

	out := make([]CodeCount, 0, len(keys))
	for _, c := range keys {
		out = append(out, CodeCount{Code: c, Occurrences: counts[c]})
	}
	return out
}

// Duplicates filters counts down to codes occurring more than once.
func Duplicates(counts []CodeCount) []CodeCount {
	var out []CodeCount
	for _, c := range counts {
		if c.Occurrences > 1 {
			out = append(out, c)
		}
	}
	return out
}

// TypeCount is the number of codes of one alarm type.
type TypeCount struct {
	Type  string
	Codes int
}

// CountTypes counts type values, most frequent first and ties by type name.
// Empty values are not counted.
func CountTypes(values []string) []TypeCount {
	counts := map[string]int{}
	for _, v := range values {
		if v != "" {
			counts[v]++
		}
	}
	out := make([]TypeCount, 0, len(counts))
	for typ, n := range counts {
		out = append(out, TypeCount{Type: typ, Codes: n})
	}
	slices.SortFunc(out, func(a, b TypeCount) int {
		return cmp.Or(cmp.Compare(b.Codes, a.Codes), strings.Compare(a.Type, b.Type))
	})
	return out
}

// SortCodes orders codes by their letter prefix, then by the number that
// follows it, then by whatever trails the number. FM2 comes before FM10 and
// FM1x sorts between FM1 and FM2.
func SortCodes(codes []string) {
	slices.SortFunc(codes, compareCodes)
}

func compareCodes(a, b string) int {
	pa, da, sa := splitCode(a)
	pb, db, sb := splitCode(b)
	return cmp.Or(
		strings.Compare(pa, pb),
		cmp.Compare(len(da), len(db)),
		strings.Compare(da, db),
		strings.Compare(sa, sb),
		strings.Compare(a, b),
	)
}

// splitCode splits "FM0123a" into "FM", "123" and "a". The digits come
// back without leading zeros so that their length orders them.
func splitCode(s string) (prefix, digits, suffix string) {
	i := strings.IndexFunc(s, isDigit)
	if i < 0 {
		return s, "", ""
	}
	j := i
	for j < len(s) && isDigit(rune(s[j])) {
		j++
	}
	return s[:i], strings.TrimLeft(s[i:j], "0"), s[j:]
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func sortedInts[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
