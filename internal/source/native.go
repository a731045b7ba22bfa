// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/fm-alarms/internal/logger"
	"github.com/pdiddy/fm-alarms/pkg/types"
)

// wordGap is the horizontal gap, as a fraction of the font size, above
// which two text runs on one row are separated by a space.
const wordGap = 0.2

// native extracts text in-process with github.com/ledongthuc/pdf.
type native struct {
	cfg types.SourceConfig
}

func (n *native) Name() string { return string(types.BackendNative) }

func (n *native) Pages(ctx context.Context, path string) ([]types.Page, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrNotPDF, path, err)
	}
	defer f.Close()

	total := limit(r.NumPage(), n.cfg)
	logger.DebugKV(ctx, "reading pages", "backend", n.Name(), "pages", total)

	pages := make([]types.Page, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := pageText(r.Page(i))
		if err != nil {
			pageWarning(ctx, n.cfg, i, err)
		}
		pages = append(pages, types.Page{Number: i, Text: Normalize(text)})
	}
	return pages, nil
}

// pageText rebuilds the visual lines of a page from its text rows, falling
// back to the plain text stream when rows are unavailable. The PDF reader
// panics on some malformed content streams; that is reported as an error.
func pageText(p pdf.Page) (text string, err error) {
	if p.V.IsNull() {
		return "", nil
	}
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed page content: %v", r)
		}
	}()

	rows, err := p.GetTextByRow()
	if err != nil || len(rows) == 0 {
		return p.GetPlainText(nil)
	}

	// Rows are ordered top to bottom; PDF y coordinates grow upwards.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Position > rows[j].Position })

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, rowText(row.Content))
	}
	return strings.Join(lines, "\n"), nil
}

// rowText joins the text runs of one row left to right, inserting a space
// where runs are visibly apart.
func rowText(runs pdf.TextHorizontal) string {
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].X < runs[j].X })

	var b strings.Builder
	end := 0.0
	for i, t := range runs {
		if i > 0 && t.X-end > wordGap*t.FontSize && !strings.HasSuffix(b.String(), " ") && !strings.HasPrefix(t.S, " ") {
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
		end = t.X + t.W
	}
	return strings.TrimRight(b.String(), " ")
}
