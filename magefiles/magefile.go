//go:build mage

// Package main contains Mage build targets for fm-alarms developer tooling.
package main

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// outputDir is where the tools write their reports by default.
const outputDir = "output"

// Init creates the output directory the tools write to.
func Init() error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", outputDir, err)
	}
	fmt.Println("  ", outputDir)
	return nil
}

const (
	binDir  = "bin"
	binName = "fm-alarms"
	cmdPkg  = "./cmd/fm-alarms"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		version = "dev"
	}
	ldflags := "-X main.version=" + strings.TrimSpace(version)
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Alarms runs every tool over the PDF named by $PDF: extract, count,
// filter, unique and analyze, writing to output/.
func Alarms() error {
	mg.Deps(Build, Init)

	pdf := os.Getenv("PDF")
	if pdf == "" {
		return fmt.Errorf("set PDF to the alarm list to process")
	}
	bin := filepath.Join(binDir, binName)
	steps := [][]string{
		{"extract", pdf},
		{"count", pdf},
		{"filter"},
		{"unique"},
		{"analyze"},
	}
	for _, args := range steps {
		if err := sh.RunV(bin, args...); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
	}
	return nil
}

// Stats prints Go lines per package of fm-alarms, production and tests
// apart, and the number of alarm records in output/alerts.csv when a
// previous Alarms run left one.
func Stats() error {
	pkgs, err := countGoLines(".")
	if err != nil {
		return err
	}
	var prod, test int
	fmt.Printf("%-24s %8s %8s\n", "package", "prod", "test")
	for _, dir := range slices.Sorted(maps.Keys(pkgs)) {
		c := pkgs[dir]
		fmt.Printf("%-24s %8d %8d\n", dir, c.prod, c.test)
		prod += c.prod
		test += c.test
	}
	fmt.Printf("%-24s %8d %8d\n", "total", prod, test)

	alerts := filepath.Join(outputDir, "alerts.csv")
	if data, err := os.ReadFile(alerts); err == nil {
		rows := strings.Count(strings.TrimRight(string(data), "\n"), "\n")
		fmt.Printf("\nAlarm records in %s: %d\n", alerts, rows)
	}
	return nil
}

// lineCount holds the non-blank Go lines of one package.
type lineCount struct {
	prod, test int
}

// countGoLines counts non-blank Go lines per package directory, skipping
// hidden and underscore directories such as the reference material.
func countGoLines(root string) (map[string]lineCount, error) {
	pkgs := map[string]lineCount{}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); path != root && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		n := 0
		for _, line := range strings.Split(string(data), "\n") {
			if strings.TrimSpace(line) != "" {
				n++
			}
		}
		dir := filepath.Dir(path)
		c := pkgs[dir]
		if strings.HasSuffix(path, "_test.go") {
			c.test += n
		} else {
			c.prod += n
		}
		pkgs[dir] = c
		return nil
	})
	return pkgs, err
}
