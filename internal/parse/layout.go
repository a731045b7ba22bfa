// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/fm-alarms/pkg/types"
)

// codePlaceholder is replaced by the layout's Code pattern in every other
// pattern before compilation.
const codePlaceholder = "{{code}}"

// disabled switches off an optional pattern inherited from the default layout.
const disabled = "-"

const defaultWindow = 2000

// LayoutSpec is the serialisable form of a Layout. Patterns use Go RE2
// syntax and may reference the code pattern as {{code}}.
type LayoutSpec struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// Code matches a bare alarm code, e.g. `FM\d+`.
	Code string `yaml:"code,omitempty"`

	// Block starts an alarm block: group 1 is the code, group 2 the rest of
	// the header line.
	Block string `yaml:"block,omitempty"`

	// NameStop marks where the alert name on the header line ends.
	NameStop string `yaml:"name_stop,omitempty"`

	// BrakeProg captures the brake program number in group 1.
	BrakeProg string `yaml:"brake_prog,omitempty"`

	// RedAvail captures "yes" or "no" in group 1.
	RedAvail string `yaml:"red_avail,omitempty"`

	// Type captures the alarm type in group 1. It is off unless set.
	Type string `yaml:"type,omitempty"`

	// Occurrence matches a counted code occurrence; group 1 is the code.
	Occurrence string `yaml:"occurrence,omitempty"`

	// Continuation optionally captures alert-name text wrapped onto the lines
	// after the header metadata (group 1).
	Continuation string `yaml:"continuation,omitempty"`

	// Noise rejects continuation text that is really page header/footer text.
	Noise string `yaml:"noise,omitempty"`

	// Window bounds how many bytes of a block are scanned for properties.
	Window int `yaml:"window,omitempty"`
}

// Layout is a compiled pattern set describing one alarm list layout.
type Layout struct {
	Name        string
	Description string
	Window      int

	code         *regexp.Regexp
	lineStart    *regexp.Regexp
	block        *regexp.Regexp
	nameStop     *regexp.Regexp
	brakeProg    *regexp.Regexp
	redAvail     *regexp.Regexp
	typ          *regexp.Regexp
	occurrence   *regexp.Regexp
	continuation *regexp.Regexp
	noise        *regexp.Regexp
}

// Occurrence returns the pattern used to count code occurrences. Group 1
// holds the code.
func (l *Layout) Occurrence() *regexp.Regexp { return l.occurrence }

// Columns returns the property columns the layout reads, in export order.
func (l *Layout) Columns() []types.Column {
	var cols []types.Column
	if l.brakeProg != nil {
		cols = append(cols, types.ColumnBrakeProg)
	}
	if l.redAvail != nil {
		cols = append(cols, types.ColumnRedAvail)
	}
	if l.typ != nil {
		cols = append(cols, types.ColumnType)
	}
	return cols
}

// Typed reports whether the layout reads an alarm type.
func (l *Layout) Typed() bool { return l.typ != nil }

var defaultSpec = LayoutSpec{
	Name:         "default",
	Description:  "lenient: header line starts with the code, properties in any order",
	Code:         `FM\d+`,
	Block:        `(?m)^[ \t]*({{code}})[ \t]+(\S[^\n]*)`,
	NameStop:     `(?i)\s+(?:UID:|Brake-?Prog|Red\.?\s*Avail)`,
	BrakeProg:    `(?i)Brake-?Prog\.?\s*:?\s*(\d+)`,
	RedAvail:     `(?i)Red\.?\s*Avail\.?\s*:?\s*(yes|no)\b`,
	Type:         disabled,
	Occurrence:   `(?m)^[ \t]*({{code}})[ \t]+[A-Z]`,
	Continuation: `UID:[^\n]+\s+ResetLevel:[^\n]+\s+DeacLevel:\s*\d+\s*\n([\s\S]*?)\n[^\n]*Properties`,
	Noise:        `Page:|Rev:|Doc:|WT CTRL|\d+\s*/\s*\d+`,
	Window:       defaultWindow,
}

var scadaSpec = LayoutSpec{
	Name:        "scada",
	Description: "wind farm SCADA alarm list: UID on the header line, Red. Avail. before Brake-Prog. under Properties",
	Block:       `(?m)^[ \t]*({{code}})[ \t]+([^\n]*?\S[ \t]+UID:[^\n]*)`,
	NameStop:    `\s+UID:`,
	RedAvail:    `(?is)Properties.*?Red\. Avail\.:\s+(yes|no)`,
	BrakeProg:   `(?is)Properties.*?Red\. Avail\.:\s+(?:yes|no).*?Brake-Prog\.:\s+(\d+)`,
	Window:      8000,
}

var stSpec = LayoutSpec{
	Name:         "st",
	Description:  "status code list: ST codes with a Type property instead of brake program and availability",
	Code:         `ST\d+`,
	NameStop:     `\s+UID:`,
	BrakeProg:    disabled,
	RedAvail:     disabled,
	Type:         `Type:\s+(\w+)`,
	Continuation: disabled,
}

// Layouts is a set of compiled layouts keyed by name.
type Layouts map[string]*Layout

// Builtin returns the layouts shipped with the tool.
func Builtin() Layouts {
	ls := Layouts{}
	for _, spec := range []LayoutSpec{defaultSpec, scadaSpec, stSpec} {
		l, err := Compile(spec)
		if err != nil {
			panic(fmt.Sprintf("builtin layout %s: %v", spec.Name, err))
		}
		ls[l.Name] = l
	}
	return ls
}

// Get returns the named layout.
func (ls Layouts) Get(name string) (*Layout, error) {
	l, ok := ls[name]
	if !ok {
		return nil, fmt.Errorf("unknown layout %q (available: %s)", name, strings.Join(ls.Names(), ", "))
	}
	return l, nil
}

// Names returns the layout names in sorted order.
func (ls Layouts) Names() []string {
	names := make([]string, 0, len(ls))
	for n := range ls {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// layoutFile is the on-disk shape of a layouts file.
type layoutFile struct {
	Layouts []LayoutSpec `yaml:"layouts"`
}

// LoadLayouts returns the builtin layouts extended by the layouts declared
// in the YAML file at path. A file layout with a builtin name replaces it.
// An empty path returns the builtins.
func LoadLayouts(path string) (Layouts, error) {
	ls := Builtin()
	if path == "" {
		return ls, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading layouts file: %w", err)
	}
	var f layoutFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing layouts file %s: %w", path, err)
	}

	for i, spec := range f.Layouts {
		if spec.Name == "" {
			return nil, fmt.Errorf("layout %d in %s has no name", i+1, path)
		}
		l, err := Compile(spec)
		if err != nil {
			return nil, err
		}
		ls[l.Name] = l
	}
	return ls, nil
}

// Compile validates spec and compiles its patterns. Empty fields inherit
// from the default layout; optional patterns set to "-" are switched off.
// The properties brake_prog, red_avail and type are optional, but a layout
// must read at least one of them.
func Compile(spec LayoutSpec) (*Layout, error) {
	spec = inherit(spec, defaultSpec)

	l := &Layout{
		Name:        spec.Name,
		Description: spec.Description,
		Window:      spec.Window,
	}

	var err error
	compile := func(field, pattern string, groups int) *regexp.Regexp {
		if err != nil || pattern == disabled {
			return nil
		}
		re, cerr := regexp.Compile(strings.ReplaceAll(pattern, codePlaceholder, "(?:"+spec.Code+")"))
		if cerr != nil {
			err = fmt.Errorf("layout %s: %s: %w", spec.Name, field, cerr)
			return nil
		}
		if re.NumSubexp() < groups {
			err = fmt.Errorf("layout %s: %s needs %d capture group(s), has %d", spec.Name, field, groups, re.NumSubexp())
			return nil
		}
		return re
	}

	l.code = compile("code", spec.Code, 0)
	l.lineStart = compile("code", `(?m)^[ \t]*(`+spec.Code+`)`, 1)
	l.block = compile("block", spec.Block, 2)
	l.nameStop = compile("name_stop", spec.NameStop, 0)
	l.brakeProg = compile("brake_prog", spec.BrakeProg, 1)
	l.redAvail = compile("red_avail", spec.RedAvail, 1)
	l.typ = compile("type", spec.Type, 1)
	l.occurrence = compile("occurrence", spec.Occurrence, 1)
	l.continuation = compile("continuation", spec.Continuation, 1)
	l.noise = compile("noise", spec.Noise, 0)
	if err != nil {
		return nil, err
	}

	for field, re := range map[string]*regexp.Regexp{
		"code": l.code, "block": l.block, "occurrence": l.occurrence,
	} {
		if re == nil {
			return nil, fmt.Errorf("layout %s: %s is required", spec.Name, field)
		}
	}
	if len(l.Columns()) == 0 {
		return nil, fmt.Errorf("layout %s: needs at least one of brake_prog, red_avail, type", spec.Name)
	}
	if l.Window <= 0 {
		l.Window = defaultWindow
	}
	return l, nil
}

func inherit(spec, base LayoutSpec) LayoutSpec {
	pick := func(v, b string) string {
		if v == "" {
			return b
		}
		return v
	}
	spec.Code = pick(spec.Code, base.Code)
	spec.Block = pick(spec.Block, base.Block)
	spec.NameStop = pick(spec.NameStop, base.NameStop)
	spec.BrakeProg = pick(spec.BrakeProg, base.BrakeProg)
	spec.RedAvail = pick(spec.RedAvail, base.RedAvail)
	spec.Type = pick(spec.Type, base.Type)
	spec.Occurrence = pick(spec.Occurrence, base.Occurrence)
	spec.Continuation = pick(spec.Continuation, base.Continuation)
	spec.Noise = pick(spec.Noise, base.Noise)
	if spec.Window == 0 {
		spec.Window = base.Window
	}
	return spec
}
