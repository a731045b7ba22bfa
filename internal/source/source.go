// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source turns an input document into page text.
//
// Three backends are available: native (pure Go PDF parsing), pdftotext
// (poppler, run once per page) and text (a previously dumped text file with
// form-feed page separators). Every backend returns pages numbered from 1
// with normalised text. A page that cannot be read comes back empty and is
// reported as a warning; only problems with the document as a whole are
// errors.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/fm-alarms/internal/logger"
	"github.com/pdiddy/fm-alarms/pkg/types"
)

// Sentinel errors for input problems. Callers test with errors.Is.
var (
	ErrInputNotFound = errors.New("input file not found")
	ErrNotPDF        = errors.New("input is not a PDF document")
)

const mimePDF = "application/pdf"

// pageBreak separates pages in a text dump.
const pageBreak = "\f"

// Source extracts page text from a document.
type Source interface {
	// Name returns the backend name.
	Name() string

	// Pages returns the text of every page in order.
	Pages(ctx context.Context, path string) ([]types.Page, error)
}

// New returns the backend selected by cfg.
func New(cfg types.SourceConfig) (Source, error) {
	switch cfg.Backend {
	case types.BackendNative, "":
		return &native{cfg: cfg}, nil
	case types.BackendPdftotext:
		return newPdftotext(cfg, defaultExec), nil
	case types.BackendText:
		return &textDump{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
	}
}

// Info describes a validated input document.
type Info struct {
	Path  string
	MIME  string
	Pages int
	Size  int64
}

// Inspect checks that path names a readable PDF and reads its page count.
func Inspect(path string) (Info, error) {
	st, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return Info{}, fmt.Errorf("%w: %s", ErrInputNotFound, path)
	}
	if err != nil {
		return Info{}, fmt.Errorf("checking input %s: %w", path, err)
	}
	if st.IsDir() {
		return Info{}, fmt.Errorf("%w: %s is a directory", ErrNotPDF, path)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("detecting type of %s: %w", path, err)
	}
	if !mt.Is(mimePDF) {
		return Info{}, fmt.Errorf("%w: %s has type %s", ErrNotPDF, path, mt.String())
	}

	n, err := PageCount(path)
	if err != nil {
		return Info{}, err
	}
	return Info{Path: path, MIME: mt.String(), Pages: n, Size: st.Size()}, nil
}

// PageCount reads the number of pages with pdfcpu in relaxed validation
// mode, which tolerates the minor defects common in generated documents.
func PageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(f, conf)
	if err != nil {
		return 0, fmt.Errorf("%w: reading %s: %v", ErrNotPDF, path, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("counting pages of %s: %w", path, err)
	}
	return ctx.PageCount, nil
}

// Normalize applies NFKC (ligatures, non-breaking spaces, full-width
// digits) and converts line endings to "\n".
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return norm.NFKC.String(s)
}

// Join concatenates page texts with "\n", the text the parser sees.
func Join(pages []types.Page) string {
	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.Text
	}
	return strings.Join(texts, "\n")
}

// Dump concatenates page texts with form feeds so that the text backend can
// recover the page boundaries.
func Dump(pages []types.Page) string {
	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.Text
	}
	return strings.Join(texts, pageBreak)
}

// SplitDump is the inverse of Dump. Empty input yields no pages.
func SplitDump(s string) []types.Page {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, pageBreak)
	pages := make([]types.Page, len(parts))
	for i, p := range parts {
		pages[i] = types.Page{Number: i + 1, Text: p}
	}
	return pages
}

// limit returns how many of n pages to read.
func limit(n int, cfg types.SourceConfig) int {
	if cfg.MaxPages > 0 && cfg.MaxPages < n {
		return cfg.MaxPages
	}
	return n
}

// pageWarning reports a page that could not be read. Suppressed warnings
// are still visible at debug level.
func pageWarning(ctx context.Context, cfg types.SourceConfig, page int, err error) {
	if cfg.SuppressWarnings {
		logger.DebugKV(ctx, "page extraction failed", "page", page, "error", err)
		return
	}
	logger.WarnKV(ctx, "page extraction failed", "page", page, "error", err)
}
