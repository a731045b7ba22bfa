// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report writes the files produced by the tools: alarm exports,
// per-page counts, code distributions, filtered line dumps and analysis
// reports.
//
// Every writer is all-or-nothing. Content goes to a temporary file next to
// the destination and is renamed into place only after it has been fully
// written and closed, so a failed run never leaves a truncated report.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutputWrite wraps every failure to create or write an output file.
var ErrOutputWrite = errors.New("cannot write output")

// Format is an alarm export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name. Empty selects CSV.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatXLSX, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q: use csv, xlsx, json, or yaml", s)
	}
}

// FormatFromPath infers the format from the file extension, defaulting to
// CSV.
func FormatFromPath(path string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return FormatCSV
	}
	return f
}

// DistributionPath returns the companion distribution file name for a
// per-page count report: counts.csv becomes counts_distribution.csv.
func DistributionPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "_distribution.csv"
}

// writeFile writes path atomically. Parent directories are created.
func writeFile(path string, fill func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating directory %s: %v", ErrOutputWrite, dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".fm-alarms-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp file in %s: %v", ErrOutputWrite, dir, err)
	}
	tmpPath := tmpFile.Name()

	bw := bufio.NewWriter(tmpFile)
	fillErr := fill(bw)
	if fillErr == nil {
		fillErr = bw.Flush()
	}
	closeErr := tmpFile.Close()
	if fillErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: writing %s: %v", ErrOutputWrite, path, fillErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: closing %s: %v", ErrOutputWrite, path, closeErr)
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrOutputWrite, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: renaming to %s: %v", ErrOutputWrite, path, err)
	}
	return nil
}

// WriteText writes s to path.
func WriteText(path, s string) error {
	return writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}
