package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

const registryVersion = "2.1.0"

// activeRef is the active-provider indicator. Older files store either a
// bare string or {"profileName": "..."}; both decode to Name.
type activeRef struct {
	Name string
}

func (a *activeRef) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		a.Name = ""
		return nil
	}
	if trimmed[0] == '"' {
		return json.Unmarshal(trimmed, &a.Name)
	}
	var nested struct {
		ProfileName string `json:"profileName"`
	}
	if err := json.Unmarshal(trimmed, &nested); err != nil {
		return fmt.Errorf("active provider: %w", err)
	}
	a.Name = nested.ProfileName
	return nil
}

func (a activeRef) MarshalJSON() ([]byte, error) {
	return encodeJSON(a.Name)
}

// toolBindings keeps the file order of the "tools" object; that order is the
// iteration order of active providers.
type toolBindings []ToolBinding

func (t *toolBindings) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*t = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("tools: expected object")
	}
	out := toolBindings{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var binding ToolBinding
		if err := dec.Decode(&binding); err != nil {
			return fmt.Errorf("tools.%s: %w", key, err)
		}
		binding.Tool = key
		out = append(out, binding)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*t = out
	return nil
}

func (t toolBindings) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, binding := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encodeJSON(binding.Tool)
		if err != nil {
			return nil, err
		}
		value, err := encodeJSON(binding)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// registryFile is the on-disk shape, including the legacy field names.
type registryFile struct {
	Version       string         `json:"version,omitempty"`
	Description   string         `json:"description,omitempty"`
	Common        map[string]any `json:"common,omitempty"`
	Providers     []Provider     `json:"providers,omitempty"`
	Profiles      []Provider     `json:"profiles,omitempty"`
	Active        *activeRef     `json:"active,omitempty"`
	ActiveProfile string         `json:"activeProfile,omitempty"`
	Tools         toolBindings   `json:"tools,omitempty"`
	Targets       []CustomTarget `json:"targets,omitempty"`
	CustomTargets []CustomTarget `json:"customTargets,omitempty"`
}

// Registry holds provider profiles, per-tool bindings and custom targets.
// It is loaded once per command and saved explicitly.
type Registry struct {
	path        string
	version     string
	description string
	common      map[string]any
	providers   []Provider
	active      string
	tools       toolBindings
	targets     []CustomTarget

	// foreign holds top-level members written by other tools or by hand.
	foreign map[string]json.RawMessage
}

// LoadRegistry reads the registry file at path. A missing file yields an
// empty registry bound to that path.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			reg := NewRegistry(registryFile{})
			reg.path = path
			return reg, nil
		}
		return nil, fmt.Errorf("load registry %s: %w", path, err)
	}
	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("load registry %s: %w", path, err)
	}
	foreign, err := foreignMembers(data, registryOwnedKeys)
	if err != nil {
		return nil, fmt.Errorf("load registry %s: %w", path, err)
	}
	reg := NewRegistry(file)
	reg.path = path
	reg.foreign = foreign
	return reg, nil
}

// NewRegistry normalizes a decoded file: profiles become providers, the
// active indicator collapses to one name, and both target lists merge.
func NewRegistry(file registryFile) *Registry {
	providers := file.Providers
	if len(providers) == 0 {
		providers = file.Profiles
	}
	active := ""
	if file.Active != nil {
		active = file.Active.Name
	}
	targets := make([]CustomTarget, 0, len(file.Targets)+len(file.CustomTargets))
	targets = append(targets, file.Targets...)
	targets = append(targets, file.CustomTargets...)
	return &Registry{
		version:     firstNonEmpty(file.Version, registryVersion),
		description: file.Description,
		common:      file.Common,
		providers:   append([]Provider(nil), providers...),
		active:      firstNonEmpty(active, file.ActiveProfile),
		tools:       append(toolBindings(nil), file.Tools...),
		targets:     targets,
	}
}

func (r *Registry) Path() string { return r.path }

// Save writes the normalized form; both active fields are kept so older
// releases can still read the file.
func (r *Registry) Save() error {
	if r.path == "" {
		return errors.New("registry has no file path")
	}
	file := registryFile{
		Version:       r.version,
		Description:   r.description,
		Providers:     r.providers,
		Tools:         r.tools,
		CustomTargets: r.targets,
	}
	// common is only read, so a loaded file keeps its original bytes.
	if _, kept := r.foreign["common"]; !kept {
		file.Common = r.common
	}
	if r.active != "" {
		file.Active = &activeRef{Name: r.active}
		file.ActiveProfile = r.active
	}
	data, err := encodeJSON(file)
	if err != nil {
		return err
	}
	data, err = withForeignMembers(data, r.foreign)
	if err != nil {
		return err
	}
	return writeJSONAtomic(r.path, json.RawMessage(data))
}

func (r *Registry) Providers() []Provider {
	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p.clone())
	}
	return out
}

// ProviderByName returns the stored provider, placeholders intact.
func (r *Registry) ProviderByName(name string) (Provider, bool) {
	for _, p := range r.providers {
		if p.Name == name {
			return p.clone(), true
		}
	}
	return Provider{}, false
}

// ResolvedProvider returns the named provider with common defaults merged
// underneath it.
func (r *Registry) ResolvedProvider(name string) (Provider, error) {
	p, ok := r.ProviderByName(name)
	if !ok {
		return Provider{}, &ProviderNotFoundError{Name: name}
	}
	return r.withDefaults(p), nil
}

func (r *Registry) withDefaults(p Provider) Provider {
	if len(r.common) == 0 {
		return p
	}
	str := func(key string) string {
		value, _ := r.common[key].(string)
		return value
	}
	out := p.clone()
	if out.Type == "" {
		out.Type = str("type")
	}
	if out.APIKey == "" {
		out.APIKey = str("apiKey")
	}
	if out.BaseURL == "" {
		out.BaseURL = firstNonEmpty(str("baseUrl"), str("apiBase"))
	}
	if out.Model == "" {
		out.Model = str("model")
	}
	if out.Proxy == "" {
		out.Proxy = str("proxy")
	}
	if commonExtra, ok := r.common["extra"].(map[string]any); ok {
		merged := map[string]string{}
		for k, v := range commonExtra {
			if s, ok := v.(string); ok {
				merged[k] = s
			}
		}
		for k, v := range out.Extra {
			merged[k] = v
		}
		out.Extra = merged
	}
	return out
}

func (r *Registry) AddProvider(p Provider) error {
	if err := validateProvider(p); err != nil {
		return err
	}
	for i := range r.providers {
		if r.providers[i].Name == p.Name {
			replaced := p.clone()
			if replaced.foreign == nil {
				replaced.foreign = r.providers[i].foreign
			}
			r.providers[i] = replaced
			return nil
		}
	}
	r.providers = append(r.providers, p.clone())
	return nil
}

// RemoveProvider deletes a provider and disables every binding that used it.
func (r *Registry) RemoveProvider(name string) error {
	idx := -1
	for i, p := range r.providers {
		if p.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &ProviderNotFoundError{Name: name}
	}
	r.providers = append(r.providers[:idx], r.providers[idx+1:]...)
	for i := range r.tools {
		if r.tools[i].Provider == name {
			r.tools[i].Enabled = false
		}
	}
	if r.active == name {
		r.active = ""
	}
	return nil
}

// ActiveProviderName is the broadcast-mode provider.
func (r *Registry) ActiveProviderName() string { return r.active }

func (r *Registry) ActiveProvider() (Provider, error) {
	if r.active == "" {
		return Provider{}, &ProviderNotFoundError{Name: "(no active provider)"}
	}
	return r.ResolvedProvider(r.active)
}

func (r *Registry) SetActiveProvider(name string) error {
	if _, ok := r.ProviderByName(name); !ok {
		return &ProviderNotFoundError{Name: name}
	}
	r.active = name
	return nil
}

func (r *Registry) Bindings() []ToolBinding {
	return append([]ToolBinding(nil), r.tools...)
}

func (r *Registry) Binding(tool string) (ToolBinding, bool) {
	for _, b := range r.tools {
		if b.Tool == tool {
			return b, true
		}
	}
	return ToolBinding{}, false
}

// ToolProvider returns the provider bound to tool when the binding is
// enabled and the provider exists.
func (r *Registry) ToolProvider(tool string) (Provider, bool) {
	binding, ok := r.Binding(tool)
	if !ok || !binding.Enabled || binding.Provider == "" {
		return Provider{}, false
	}
	p, ok := r.ProviderByName(binding.Provider)
	if !ok {
		return Provider{}, false
	}
	return r.withDefaults(p), true
}

// ActiveProviders lists enabled bindings whose provider resolves, in file
// order. Disabled bindings and dangling provider names are skipped.
func (r *Registry) ActiveProviders() []ActiveProvider {
	out := make([]ActiveProvider, 0, len(r.tools))
	for _, binding := range r.tools {
		p, ok := r.ToolProvider(binding.Tool)
		if !ok {
			continue
		}
		out = append(out, ActiveProvider{Tool: binding.Tool, Provider: p})
	}
	return out
}

// SetToolProvider binds tool to provider and enables it.
func (r *Registry) SetToolProvider(tool string, provider string) error {
	if err := validateToolID(tool); err != nil {
		return err
	}
	if _, ok := r.ProviderByName(provider); !ok {
		return &ProviderNotFoundError{Name: provider}
	}
	for i := range r.tools {
		if r.tools[i].Tool == tool {
			r.tools[i].Provider = provider
			r.tools[i].Enabled = true
			return nil
		}
	}
	r.tools = append(r.tools, ToolBinding{Tool: tool, Provider: provider, Enabled: true})
	return nil
}

func (r *Registry) EnableTool(tool string, enabled bool) error {
	for i := range r.tools {
		if r.tools[i].Tool == tool {
			r.tools[i].Enabled = enabled
			return nil
		}
	}
	return &ToolNotConfiguredError{Tool: tool}
}

func (r *Registry) Targets() []CustomTarget {
	return append([]CustomTarget(nil), r.targets...)
}

func (r *Registry) AddTarget(t CustomTarget) error {
	if strings.TrimSpace(t.Path) == "" {
		return errors.New("target path is required")
	}
	if len(t.Mapping) == 0 {
		return errors.New("target mapping is empty")
	}
	if t.Type == "" {
		t.Type = FormatJSON
	}
	r.targets = append(r.targets, t)
	return nil
}

func defaultRegistry(path string) *Registry {
	reg := NewRegistry(registryFile{
		Version:     registryVersion,
		Description: "clibundle AI configuration file - multi-tool support",
		Providers: []Provider{
			{
				Name:    "OpenAI Official",
				Type:    "openai",
				APIKey:  "${OPENAI_API_KEY}",
				BaseURL: "https://api.openai.com/v1",
				Model:   "gpt-4o-mini",
			},
			{
				Name:    "Anthropic Official",
				Type:    "anthropic",
				APIKey:  "${ANTHROPIC_API_KEY}",
				BaseURL: "https://api.anthropic.com",
				Model:   "claude-3-5-sonnet-latest",
			},
		},
		Tools: toolBindings{
			{Tool: "openai-codex", Provider: "OpenAI Official", Enabled: true},
			{Tool: "claude-code", Provider: "Anthropic Official", Enabled: true},
		},
	})
	reg.path = path
	return reg
}
