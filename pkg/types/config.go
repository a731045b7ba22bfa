// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// SourceBackend identifies the tool that turns a PDF into page text.
type SourceBackend string

const (
	BackendNative    SourceBackend = "native"
	BackendPdftotext SourceBackend = "pdftotext"
	BackendText      SourceBackend = "text"
)

// SourceConfig holds settings for the text source adapter.
type SourceConfig struct {
	// Backend selects the extraction tool: native, pdftotext, or text.
	Backend SourceBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// MaxPages limits how many pages are read (0 reads every page).
	MaxPages int `json:"max_pages" yaml:"max_pages" mapstructure:"max_pages"`

	// SuppressWarnings demotes per-page extraction warnings to debug level.
	SuppressWarnings bool `json:"suppress_warnings" yaml:"suppress_warnings" mapstructure:"suppress_warnings"`

	// PageTimeout bounds a single pdftotext invocation (default 10s).
	PageTimeout time.Duration `json:"page_timeout" yaml:"page_timeout" mapstructure:"page_timeout"`
}

// ParseConfig holds settings for the record parser.
type ParseConfig struct {
	// Layout names the pattern set used to recognise alarm blocks (default "default").
	Layout string `json:"layout" yaml:"layout" mapstructure:"layout"`

	// LayoutsFile is an optional YAML file with additional layouts.
	LayoutsFile string `json:"layouts_file,omitempty" yaml:"layouts_file,omitempty" mapstructure:"layouts_file"`

	// ExpectedCodes is the number of unique alarm codes the document is known
	// to hold. Zero disables the verification step.
	ExpectedCodes int `json:"expected_codes" yaml:"expected_codes" mapstructure:"expected_codes"`
}

// ReportConfig holds output locations for every tool.
type ReportConfig struct {
	// OutputDir is the base directory for default output paths (default "output").
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// Format selects the alarm export format: csv, xlsx, json, or yaml.
	// Empty infers the format from the output file extension.
	Format string `json:"format,omitempty" yaml:"format,omitempty" mapstructure:"format"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default "info").
	Level string `json:"level" yaml:"level" mapstructure:"level"`
}

// Config groups every setting the CLI reads from flags, environment and
// the config file.
type Config struct {
	Source SourceConfig `json:"source" yaml:"source" mapstructure:"source"`
	Parse  ParseConfig  `json:"parse" yaml:"parse" mapstructure:"parse"`
	Report ReportConfig `json:"report" yaml:"report" mapstructure:"report"`
	Log    LogConfig    `json:"log" yaml:"log" mapstructure:"log"`
}

const (
	DefaultLayout      = "default"
	DefaultOutputDir   = "output"
	DefaultLogLevel    = "info"
	DefaultPageTimeout = 10 * time.Second
)

// DefaultConfig returns a Config with every default filled in.
func DefaultConfig() Config {
	return Config{
		Source: SourceConfig{
			Backend:     BackendNative,
			PageTimeout: DefaultPageTimeout,
		},
		Parse: ParseConfig{
			Layout: DefaultLayout,
		},
		Report: ReportConfig{
			OutputDir: DefaultOutputDir,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Validate fills zero values with defaults and rejects settings that can
// never work.
func (c *Config) Validate() error {
	switch c.Source.Backend {
	case "":
		c.Source.Backend = BackendNative
	case BackendNative, BackendPdftotext, BackendText:
	default:
		return fmt.Errorf("unsupported backend %q: use native, pdftotext, or text", c.Source.Backend)
	}
	if c.Source.MaxPages < 0 {
		return fmt.Errorf("max_pages must not be negative, got %d", c.Source.MaxPages)
	}
	if c.Source.PageTimeout <= 0 {
		c.Source.PageTimeout = DefaultPageTimeout
	}
	if c.Parse.Layout == "" {
		c.Parse.Layout = DefaultLayout
	}
	if c.Parse.ExpectedCodes < 0 {
		return fmt.Errorf("expected_codes must not be negative, got %d", c.Parse.ExpectedCodes)
	}
	if c.Report.OutputDir == "" {
		c.Report.OutputDir = DefaultOutputDir
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	return nil
}
