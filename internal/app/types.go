package app

import (
	"encoding/json"
	"strings"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// Provider is a named credential and endpoint profile. APIKey and the other
// string fields may hold ${NAME} placeholders; they are resolved on a copy at
// apply time and never written back to the registry.
type Provider struct {
	Name    string            `json:"name"`
	Type    string            `json:"type"`
	APIKey  string            `json:"apiKey,omitempty"`
	BaseURL string            `json:"baseUrl,omitempty"`
	Model   string            `json:"model,omitempty"`
	Proxy   string            `json:"proxy,omitempty"`
	Extra   map[string]string `json:"extra,omitempty"`

	foreign map[string]json.RawMessage
}

// Field returns the provider value addressed by an adapter source field.
// Unknown names fall back to Extra so custom targets can map arbitrary keys.
func (p Provider) Field(name string) (string, bool) {
	switch name {
	case "name":
		return p.Name, true
	case "type":
		return p.Type, true
	case "apiKey":
		return p.APIKey, true
	case "baseUrl", "apiBase":
		return p.BaseURL, true
	case "model":
		return p.Model, true
	case "proxy":
		return p.Proxy, true
	}
	key := strings.TrimPrefix(name, "extra.")
	value, ok := p.Extra[key]
	return value, ok
}

func (p Provider) clone() Provider {
	out := p
	out.foreign = cloneMembers(p.foreign)
	if p.Extra != nil {
		out.Extra = make(map[string]string, len(p.Extra))
		for k, v := range p.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// ToolBinding selects the provider used for one managed tool.
type ToolBinding struct {
	Tool     string `json:"-"`
	Provider string `json:"provider"`
	Enabled  bool   `json:"enabled"`

	foreign map[string]json.RawMessage
}

// ActiveProvider pairs an enabled tool with its resolved provider.
type ActiveProvider struct {
	Tool     string
	Provider Provider
}

type FieldMapping struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Adapter projects provider fields onto dotted paths of one settings file.
type Adapter struct {
	ToolID string         `json:"toolId"`
	Format Format         `json:"type"`
	Path   string         `json:"path"`
	Fields []FieldMapping `json:"fields"`
}

// CustomTarget is a user-declared adapter stored in the registry file.
type CustomTarget struct {
	Name    string            `json:"name,omitempty"`
	ToolID  string            `json:"toolId,omitempty"`
	Type    Format            `json:"type"`
	Path    string            `json:"path"`
	Mapping map[string]string `json:"mapping,omitempty"`

	foreign map[string]json.RawMessage
}

type ApplyResult struct {
	Target string `json:"target"`
	File   string `json:"file"`
	Format Format `json:"type"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// ApplySummary is returned by every apply scope. Profile is set in broadcast
// mode, Tools in the per-tool modes.
type ApplySummary struct {
	Profile string            `json:"profile,omitempty"`
	Tools   map[string]string `json:"tools,omitempty"`
	DryRun  bool              `json:"dryRun,omitempty"`
	Results []ApplyResult     `json:"results"`
}

func (s ApplySummary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if !r.OK {
			n++
		}
	}
	return n
}

type ApplyOptions struct {
	Profile string
	Tool    string
	DryRun  bool
}
