// Package catalog lists the CLI tools clibundle can install and configure.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed tools.toml
var builtinTOML []byte

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// Tool is one installable CLI.
type Tool struct {
	ID          string `toml:"id" json:"id"`
	Name        string `toml:"name" json:"name"`
	Command     string `toml:"command" json:"command"`
	InstallType string `toml:"install_type" json:"installType"`
	PackageName string `toml:"package" json:"packageName"`
	Description string `toml:"description" json:"description"`
	Enabled     bool   `toml:"enabled" json:"enabled"`
}

// entry is the decoded form; a nil Enabled means the file left it unset.
type entry struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Command     string `toml:"command"`
	InstallType string `toml:"install_type"`
	PackageName string `toml:"package"`
	Description string `toml:"description"`
	Enabled     *bool  `toml:"enabled"`
}

type catalogFile struct {
	Tools []entry `toml:"tools"`
}

type Catalog struct {
	tools []Tool
}

func New(tools []Tool) *Catalog {
	return &Catalog{tools: append([]Tool(nil), tools...)}
}

// Load decodes the built-in catalog and merges the optional override file
// at overridePath. A missing override file is not an error.
func Load(overridePath string) (*Catalog, error) {
	base, err := decode(builtinTOML)
	if err != nil {
		return nil, fmt.Errorf("built-in catalog: %w", err)
	}
	tools := make([]Tool, 0, len(base))
	for _, e := range base {
		tools = mergeEntry(tools, e)
	}

	if strings.TrimSpace(overridePath) == "" {
		return New(tools), nil
	}
	data, err := os.ReadFile(overridePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(tools), nil
		}
		return nil, err
	}
	overrides, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", overridePath, err)
	}
	for _, e := range overrides {
		tools = mergeEntry(tools, e)
	}
	return New(tools), nil
}

func decode(data []byte) ([]entry, error) {
	var file catalogFile
	if _, err := toml.Decode(string(data), &file); err != nil {
		return nil, err
	}
	for i, e := range file.Tools {
		if strings.TrimSpace(e.ID) == "" {
			return nil, fmt.Errorf("tools[%d]: id is required", i)
		}
	}
	return file.Tools, nil
}

// mergeEntry overlays e onto the tool with the same id, or appends it.
// Only fields present in e replace existing values.
func mergeEntry(tools []Tool, e entry) []Tool {
	for i := range tools {
		if tools[i].ID != e.ID {
			continue
		}
		t := &tools[i]
		t.Name = overlay(t.Name, e.Name)
		t.Command = overlay(t.Command, e.Command)
		t.InstallType = overlay(t.InstallType, e.InstallType)
		t.PackageName = overlay(t.PackageName, e.PackageName)
		t.Description = overlay(t.Description, e.Description)
		if e.Enabled != nil {
			t.Enabled = *e.Enabled
		}
		return tools
	}
	t := Tool{
		ID:          e.ID,
		Name:        firstNonEmpty(e.Name, e.ID),
		Command:     firstNonEmpty(e.Command, e.ID),
		InstallType: firstNonEmpty(e.InstallType, "npm"),
		PackageName: e.PackageName,
		Description: e.Description,
		Enabled:     true,
	}
	if e.Enabled != nil {
		t.Enabled = *e.Enabled
	}
	return append(tools, t)
}

func overlay(current string, next string) string {
	if strings.TrimSpace(next) == "" {
		return current
	}
	return next
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (c *Catalog) All() []Tool {
	return append([]Tool(nil), c.tools...)
}

// Enabled returns the tools not switched off in the catalog.
func (c *Catalog) Enabled() []Tool {
	var out []Tool
	for _, t := range c.tools {
		if t.Enabled {
			out = append(out, t)
		}
	}
	return out
}

func (c *Catalog) Get(id string) (Tool, bool) {
	for _, t := range c.tools {
		if t.ID == id {
			return t, true
		}
	}
	return Tool{}, false
}

// Installed returns enabled tools whose command is on PATH.
func (c *Catalog) Installed() []Tool {
	var out []Tool
	for _, t := range c.Enabled() {
		if _, ok := Detect(t); ok {
			out = append(out, t)
		}
	}
	return out
}

func (c *Catalog) Uninstalled() []Tool {
	var out []Tool
	for _, t := range c.Enabled() {
		if _, ok := Detect(t); !ok {
			out = append(out, t)
		}
	}
	return out
}

// Detect reports where the tool's command resolves on PATH.
func Detect(t Tool) (string, bool) {
	if strings.TrimSpace(t.Command) == "" {
		return "", false
	}
	path, err := lookPath(t.Command)
	if err != nil {
		return "", false
	}
	return path, true
}
