// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import "strings"

// CodeLine is a text line that starts with a counted code occurrence.
type CodeLine struct {
	Code string
	Line string
}

// FilterLines keeps the lines of text that start with a code occurrence,
// trimmed of surrounding whitespace.
func FilterLines(text string, l *Layout) []CodeLine {
	var out []CodeLine
	for _, line := range strings.Split(text, "\n") {
		m := l.occurrence.FindStringSubmatchIndex(line)
		if m == nil || strings.TrimSpace(line[:m[0]]) != "" {
			continue
		}
		out = append(out, CodeLine{Code: line[m[2]:m[3]], Line: strings.TrimSpace(line)})
	}
	return out
}
