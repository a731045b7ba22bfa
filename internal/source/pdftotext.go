// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pdiddy/fm-alarms/pkg/types"
)

const binPdftotext = "pdftotext"

// maxPageBytes caps the text accepted for one page.
const maxPageBytes = 10 << 20

// Document-level failures reported by poppler. These stop extraction
// instead of producing a run of empty pages.
var (
	ErrPasswordProtected = errors.New("PDF is password protected")
	ErrDamaged           = errors.New("PDF file is damaged or corrupted")
)

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

var defaultExec = &osExecutor{}

// pdftotext runs poppler's pdftotext once per page in layout mode.
type pdftotext struct {
	cfg       types.SourceConfig
	exec      executor
	pageCount func(path string) (int, error)
	maxBytes  int
}

func newPdftotext(cfg types.SourceConfig, exec executor) *pdftotext {
	return &pdftotext{cfg: cfg, exec: exec, pageCount: PageCount, maxBytes: maxPageBytes}
}

func (p *pdftotext) Name() string { return binPdftotext }

func (p *pdftotext) Pages(ctx context.Context, path string) ([]types.Page, error) {
	if _, err := p.exec.LookPath(binPdftotext); err != nil {
		return nil, fmt.Errorf("%s not found on PATH (install poppler-utils or use --backend native): %w", binPdftotext, err)
	}
	n, err := p.pageCount(path)
	if err != nil {
		return nil, err
	}
	total := limit(n, p.cfg)

	pages := make([]types.Page, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := p.page(ctx, path, i)
		if errors.Is(err, ErrPasswordProtected) || errors.Is(err, ErrDamaged) {
			return nil, fmt.Errorf("extracting %s: %w", path, err)
		}
		if err != nil {
			pageWarning(ctx, p.cfg, i, err)
		}
		pages = append(pages, types.Page{Number: i, Text: Normalize(text)})
	}
	return pages, nil
}

func (p *pdftotext) page(ctx context.Context, path string, page int) (string, error) {
	timeout := p.cfg.PageTimeout
	if timeout <= 0 {
		timeout = types.DefaultPageTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		"-layout",
		"-nopgbrk",
		"-enc", "UTF-8",
		path,
		"-",
	}
	var stdout, stderr bytes.Buffer
	out := &limitedWriter{w: &stdout, n: p.maxBytes}
	err := p.exec.Run(ctx, binPdftotext, args, out, &stderr)
	// A capped child usually dies of a broken pipe, so the exit error says
	// nothing about the cause.
	if out.exceeded {
		return "", fmt.Errorf("page %d: %w", page, errOutputTooLarge)
	}
	if err != nil {
		return "", classify(ctx, err, stderr.String(), page)
	}
	return stdout.String(), nil
}

// classify maps a failed pdftotext run to an error, using the messages
// poppler prints on stderr.
func classify(ctx context.Context, err error, stderr string, page int) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("pdftotext timeout on page %d", page)
	}
	if errors.Is(err, errOutputTooLarge) {
		return fmt.Errorf("page %d: %w", page, err)
	}
	stderr = strings.TrimSpace(stderr)
	switch {
	case stderr == "":
		return fmt.Errorf("pdftotext page %d failed: %w", page, err)
	case strings.Contains(stderr, "Usage:"):
		return fmt.Errorf("pdftotext page %d failed (bad invocation)", page)
	case strings.Contains(stderr, "Incorrect password"):
		return ErrPasswordProtected
	case containsAny(stderr, "PDF file is damaged", "Couldn't find trailer dictionary", "May not be a PDF file"):
		return ErrDamaged
	default:
		return fmt.Errorf("pdftotext page %d failed: %s", page, stderr)
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

var errOutputTooLarge = errors.New("extracted text too large")

// limitedWriter fails once more than n bytes have been written and
// remembers that it did.
type limitedWriter struct {
	w        io.Writer
	n        int
	exceeded bool
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if len(p) > l.n {
		l.exceeded = true
		return 0, errOutputTooLarge
	}
	l.n -= len(p)
	return l.w.Write(p)
}
