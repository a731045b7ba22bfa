// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the fm-alarms CLI.
// Each tool is a subcommand: extract, count, filter, unique, analyze and
// layouts. Settings come from flags, FM_ALARMS_* environment variables and
// an optional fm-alarms.yaml config file, in that order of precedence.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/fm-alarms/internal/logger"
	"github.com/pdiddy/fm-alarms/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the fm-alarms CLI.
var rootCmd = &cobra.Command{
	Use:   "fm-alarms",
	Short: "Extract FM alarm records and code statistics from PDF alarm lists",
	Long: `fm-alarms reads wind turbine alarm lists exported as PDF and turns the
alarm blocks into a CSV of SerialID, BrakeProg and RedAvail.

The auxiliary tools count FM codes per page, filter the extracted text down
to the lines that start with a code, count unique codes, and analyse why a
code is mentioned in the document without yielding an alarm record.`,
	SilenceUsage: true,
}

// persistentKeys maps persistent flags to their config keys.
var persistentKeys = map[string]string{
	"layout":           "parse.layout",
	"layouts-file":     "parse.layouts_file",
	"expected":         "parse.expected_codes",
	"backend":          "source.backend",
	"max-pages":        "source.max_pages",
	"quiet-extraction": "source.suppress_warnings",
	"output-dir":       "report.output_dir",
	"log-level":        "log.level",
}

func init() {
	cobra.OnInitialize(initConfig)

	def := types.DefaultConfig()
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./fm-alarms.yaml or ~/.config/fm-alarms/fm-alarms.yaml)")
	pf.String("layout", def.Parse.Layout, "alarm list layout used to recognise alarm blocks")
	pf.String("layouts-file", "", "YAML file with additional layouts")
	pf.Int("expected", 0, "expected number of unique alarm codes (0 disables verification)")
	pf.String("backend", string(def.Source.Backend), "text extraction backend: native, pdftotext, or text")
	pf.Int("max-pages", 0, "read at most this many pages (0 reads all)")
	pf.Bool("quiet-extraction", false, "log per-page extraction problems at debug level only")
	pf.String("output-dir", def.Report.OutputDir, "directory for default output files")
	pf.String("log-level", def.Log.Level, "log level: debug, info, warn, or error")

	bindFlags(pf, persistentKeys)
}

// bindFlags binds each flag to its viper key.
func bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	for flag, key := range keys {
		if err := viper.BindPFlag(key, fs.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", flag, err))
		}
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("fm-alarms")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "fm-alarms"))
		}
	}

	viper.SetEnvPrefix("FM_ALARMS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes the merged flag, environment and file settings.
func loadConfig(v *viper.Viper) (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setup loads the configuration and returns a context carrying a logger
// for this run.
func setup(cmd *cobra.Command) (context.Context, types.Config, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, cfg, err
	}
	if _, ok := logger.ParseLogLevel(cfg.Log.Level); !ok {
		return nil, cfg, fmt.Errorf("unknown log level %q", cfg.Log.Level)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.ToContext(ctx, logger.ForRun(cfg.Log.Level, os.Stderr))
	logger.DebugKV(ctx, "configuration loaded",
		"backend", cfg.Source.Backend, "layout", cfg.Parse.Layout, "output_dir", cfg.Report.OutputDir)
	return ctx, cfg, nil
}

// outputPath returns the flag value, or name inside the output directory.
func outputPath(cmd *cobra.Command, flag string, cfg types.Config, name string) string {
	if p, _ := cmd.Flags().GetString(flag); p != "" {
		return p
	}
	return filepath.Join(cfg.Report.OutputDir, name)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
