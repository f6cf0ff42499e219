package app

import (
	"log/slog"
	"strings"
)

// Engine projects providers onto tool settings files. Adapters run one at a
// time; a failing target is recorded in its result and never stops the rest.
//
// Target files are not locked. Two concurrent applies to the same file race
// and the last rename wins.
type Engine struct {
	registry *Registry
	adapters *AdapterRegistry
	logger   *slog.Logger
}

func NewEngine(registry *Registry, adapters *AdapterRegistry) *Engine {
	return &Engine{
		registry: registry,
		adapters: adapters,
		logger:   slog.Default(),
	}
}

// Apply runs one of three scopes: broadcast when opts.Profile is set, a
// single tool when opts.Tool is set, otherwise every enabled tool.
func (e *Engine) Apply(opts ApplyOptions) (ApplySummary, error) {
	profile := strings.TrimSpace(opts.Profile)
	tool := strings.TrimSpace(opts.Tool)
	switch {
	case profile != "":
		return e.applyBroadcast(profile, opts.DryRun)
	case tool != "":
		return e.applyTool(tool, opts.DryRun)
	default:
		return e.applyAll(opts.DryRun)
	}
}

func (e *Engine) applyBroadcast(name string, dryRun bool) (ApplySummary, error) {
	provider, err := e.registry.ResolvedProvider(name)
	if err != nil {
		return ApplySummary{}, err
	}
	provider = ResolveEnvVars(provider)

	adapters := e.adapters.AdaptersFor(provider)
	adapters = append(adapters, e.adapters.CustomAdapters()...)

	results := make([]ApplyResult, 0, len(adapters))
	for _, adapter := range adapters {
		results = append(results, e.applyAdapter(provider, adapter, dryRun))
	}
	return ApplySummary{Profile: provider.Name, DryRun: dryRun, Results: results}, nil
}

func (e *Engine) applyTool(tool string, dryRun bool) (ApplySummary, error) {
	provider, ok := e.registry.ToolProvider(tool)
	if !ok {
		return ApplySummary{}, &ToolNotConfiguredError{Tool: tool}
	}
	provider = ResolveEnvVars(provider)

	adapters := e.adapters.AdaptersForTool(provider, tool)
	results := make([]ApplyResult, 0, len(adapters))
	for _, adapter := range adapters {
		results = append(results, e.applyAdapter(provider, adapter, dryRun))
	}
	return ApplySummary{
		Tools:   map[string]string{tool: provider.Name},
		DryRun:  dryRun,
		Results: results,
	}, nil
}

func (e *Engine) applyAll(dryRun bool) (ApplySummary, error) {
	active := e.registry.ActiveProviders()
	tools := make(map[string]string, len(active))
	results := []ApplyResult{}

	for _, entry := range active {
		provider := ResolveEnvVars(entry.Provider)
		tools[entry.Tool] = provider.Name
		for _, adapter := range e.adapters.AdaptersForTool(provider, entry.Tool) {
			results = append(results, e.applyAdapter(provider, adapter, dryRun))
		}
	}

	for _, adapter := range e.adapters.CustomAdapters() {
		match, ok := e.adapters.CompatibleProvider(active, adapter.Format)
		if !ok {
			e.logger.Debug("no active provider for custom target", "target", adapter.ToolID, "type", adapter.Format)
			continue
		}
		results = append(results, e.applyAdapter(ResolveEnvVars(match.Provider), adapter, dryRun))
	}

	return ApplySummary{Tools: tools, DryRun: dryRun, Results: results}, nil
}

// applyAdapter merges the mapped provider fields into one target file.
func (e *Engine) applyAdapter(p Provider, adapter Adapter, dryRun bool) ApplyResult {
	file := ResolvePath(adapter.Path)
	result := ApplyResult{
		Target: firstNonEmpty(adapter.ToolID, file),
		File:   file,
		Format: adapter.Format,
	}

	store, err := storeFor(adapter.Format)
	if err != nil {
		return e.fail(result, err)
	}

	doc := store.Read(file)
	for _, field := range adapter.Fields {
		value, ok := fieldValue(p, field.Source)
		if !ok || value == "" {
			continue
		}
		doc.SetPath(field.Target, value)
	}

	if dryRun {
		if _, err := store.Encode(doc); err != nil {
			return e.fail(result, err)
		}
		result.OK = true
		return result
	}
	if err := store.Write(file, doc); err != nil {
		return e.fail(result, err)
	}
	result.OK = true
	e.logger.Debug("applied provider", "provider", p.Name, "target", result.Target, "file", file)
	return result
}

func (e *Engine) fail(result ApplyResult, err error) ApplyResult {
	result.OK = false
	result.Error = err.Error()
	e.logger.Warn("apply target failed", "target", result.Target, "file", result.File, "error", err)
	return result
}
