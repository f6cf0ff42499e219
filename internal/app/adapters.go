package app

import (
	"os"
	"sort"
)

// apiKeyEnvMarker is the explicit form of the apiKey source field. Besides
// placeholder resolution it honors extra.apiKeyEnv, naming the variable that
// holds the key.
const apiKeyEnvMarker = "env:@apiKey"

type providerTypeAdapters struct {
	providerType string
	tools        []string
	adapters     map[string][]Adapter
}

// builtinAdapters returns a fresh copy of the built-in table, keyed by
// provider type. Tool order inside a type is the apply order.
func builtinAdapters() []providerTypeAdapters {
	return []providerTypeAdapters{
		{
			providerType: "openai",
			tools:        []string{"openai-codex"},
			adapters: map[string][]Adapter{
				"openai-codex": {
					{
						Format: FormatJSON,
						Path:   "~/.codex/auth.json",
						Fields: []FieldMapping{{Source: "apiKey", Target: "OPENAI_API_KEY"}},
					},
					{
						Format: FormatTOML,
						Path:   "~/.codex/config.toml",
						Fields: []FieldMapping{
							{Source: "baseUrl", Target: "api.base_url"},
							{Source: "model", Target: "chat.default_model"},
						},
					},
				},
			},
		},
		{
			providerType: "anthropic",
			tools:        []string{"claude-code"},
			adapters: map[string][]Adapter{
				"claude-code": {
					{
						Format: FormatJSON,
						Path:   "~/.claude/settings.json",
						Fields: []FieldMapping{
							{Source: "baseUrl", Target: "env.ANTHROPIC_BASE_URL"},
							{Source: "apiKey", Target: "env.ANTHROPIC_AUTH_TOKEN"},
							{Source: "model", Target: "claude.defaultModel"},
						},
					},
				},
			},
		},
		{
			providerType: "google",
			tools:        []string{"google-gemini"},
			adapters: map[string][]Adapter{
				"google-gemini": {
					{
						Format: FormatJSON,
						Path:   "~/.gemini/settings.json",
						Fields: []FieldMapping{
							{Source: "apiKey", Target: "apiKey"},
							{Source: "baseUrl", Target: "baseUrl"},
							{Source: "model", Target: "model"},
						},
					},
				},
			},
		},
		{
			providerType: "iflow",
			tools:        []string{"iflow-cli"},
			adapters: map[string][]Adapter{
				"iflow-cli": {
					{
						Format: FormatJSON,
						Path:   "~/.iflow/settings.json",
						Fields: []FieldMapping{
							{Source: "apiKey", Target: "apiKey"},
							{Source: "baseUrl", Target: "baseUrl"},
							{Source: "model", Target: "modelName"},
							{Source: "proxy", Target: "proxy"},
						},
					},
				},
			},
		},
	}
}

// AdapterRegistry resolves which settings files a provider is projected
// onto: built-ins by provider type, plus user-declared custom targets.
type AdapterRegistry struct {
	builtins map[string][]Adapter
	types    []string
	tools    []string
	custom   []CustomTarget
}

func NewAdapterRegistry(custom []CustomTarget) *AdapterRegistry {
	reg := &AdapterRegistry{
		builtins: map[string][]Adapter{},
		custom:   append([]CustomTarget(nil), custom...),
	}
	for _, entry := range builtinAdapters() {
		reg.types = append(reg.types, entry.providerType)
		var list []Adapter
		for _, tool := range entry.tools {
			reg.tools = append(reg.tools, tool)
			for _, adapter := range entry.adapters[tool] {
				adapter.ToolID = tool
				list = append(list, adapter)
			}
		}
		reg.builtins[entry.providerType] = list
	}
	return reg
}

// ProviderTypes lists provider types with built-in adapters.
func (r *AdapterRegistry) ProviderTypes() []string {
	return append([]string(nil), r.types...)
}

// ToolIDs lists tools reachable through built-in adapters.
func (r *AdapterRegistry) ToolIDs() []string {
	return append([]string(nil), r.tools...)
}

// AdaptersFor returns the built-in adapters for p.Type; unknown types yield
// none.
func (r *AdapterRegistry) AdaptersFor(p Provider) []Adapter {
	return cloneAdapters(r.builtins[p.Type])
}

func (r *AdapterRegistry) AdaptersForTool(p Provider, tool string) []Adapter {
	var out []Adapter
	for _, adapter := range r.builtins[p.Type] {
		if adapter.ToolID == tool {
			out = append(out, cloneAdapter(adapter))
		}
	}
	return out
}

// SupportsFormat reports whether any built-in adapter of p writes format.
func (r *AdapterRegistry) SupportsFormat(p Provider, format Format) bool {
	for _, adapter := range r.builtins[p.Type] {
		if adapter.Format == format {
			return true
		}
	}
	return false
}

// CustomAdapters converts the stored custom targets. Mapping keys are sorted
// so repeated runs write fields in the same order. A target without a type
// is JSON in every scope, including compatible-provider matching.
func (r *AdapterRegistry) CustomAdapters() []Adapter {
	out := make([]Adapter, 0, len(r.custom))
	for _, target := range r.custom {
		sources := make([]string, 0, len(target.Mapping))
		for source := range target.Mapping {
			sources = append(sources, source)
		}
		sort.Strings(sources)
		fields := make([]FieldMapping, 0, len(sources))
		for _, source := range sources {
			fields = append(fields, FieldMapping{Source: source, Target: target.Mapping[source]})
		}
		format := target.Type
		if format == "" {
			format = FormatJSON
		}
		out = append(out, Adapter{
			ToolID: firstNonEmpty(target.ToolID, target.Name),
			Format: format,
			Path:   target.Path,
			Fields: fields,
		})
	}
	return out
}

// CompatibleProvider picks the provider for a custom target in multi-tool
// mode: the first active provider, in binding order, whose built-in adapters
// write the same format.
func (r *AdapterRegistry) CompatibleProvider(active []ActiveProvider, format Format) (ActiveProvider, bool) {
	for _, candidate := range active {
		if r.SupportsFormat(candidate.Provider, format) {
			return candidate, true
		}
	}
	return ActiveProvider{}, false
}

// fieldValue resolves the value written for one mapping source. The apiKey
// source always writes the real secret: a ${NAME} placeholder still present
// here is read from the environment.
func fieldValue(p Provider, source string) (string, bool) {
	switch source {
	case "apiKey":
		return resolveAPIKey(p.APIKey), true
	case apiKeyEnvMarker:
		if name := p.Extra["apiKeyEnv"]; name != "" {
			return os.Getenv(name), true
		}
		return resolveAPIKey(p.APIKey), true
	}
	return p.Field(source)
}

func resolveAPIKey(value string) string {
	if name, ok := isEnvPlaceholder(value); ok {
		return os.Getenv(name)
	}
	return value
}

func cloneAdapters(in []Adapter) []Adapter {
	if len(in) == 0 {
		return nil
	}
	out := make([]Adapter, 0, len(in))
	for _, adapter := range in {
		out = append(out, cloneAdapter(adapter))
	}
	return out
}

func cloneAdapter(a Adapter) Adapter {
	a.Fields = append([]FieldMapping(nil), a.Fields...)
	return a
}
