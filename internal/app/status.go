package app

import "os"

type TargetStatus struct {
	Target string `json:"target"`
	File   string `json:"file"`
	Format Format `json:"type"`
	Exists bool   `json:"exists"`
}

type StatusToolResult struct {
	Tool         string         `json:"tool"`
	Provider     string         `json:"provider,omitempty"`
	ProviderType string         `json:"providerType,omitempty"`
	Enabled      bool           `json:"enabled"`
	Resolved     bool           `json:"resolved"`
	Targets      []TargetStatus `json:"targets,omitempty"`
}

type StatusReport struct {
	Paths          Paths              `json:"paths"`
	ActiveProvider string             `json:"activeProvider,omitempty"`
	Tools          []StatusToolResult `json:"tools"`
	Custom         []TargetStatus     `json:"customTargets,omitempty"`
	LastApply      StateFile          `json:"lastApply"`
}

// Status describes every binding and the files an apply would touch.
func (s *Service) Status() (StatusReport, error) {
	reg, err := s.Registry()
	if err != nil {
		return StatusReport{}, err
	}
	adapters := NewAdapterRegistry(reg.Targets())

	report := StatusReport{
		Paths:          s.paths,
		ActiveProvider: reg.ActiveProviderName(),
		Tools:          make([]StatusToolResult, 0, len(reg.Bindings())),
	}
	for _, binding := range reg.Bindings() {
		item := StatusToolResult{
			Tool:     binding.Tool,
			Provider: binding.Provider,
			Enabled:  binding.Enabled,
		}
		if p, ok := reg.ProviderByName(binding.Provider); ok {
			item.Resolved = true
			item.ProviderType = p.Type
			for _, adapter := range adapters.AdaptersForTool(p, binding.Tool) {
				item.Targets = append(item.Targets, targetStatus(adapter))
			}
		}
		report.Tools = append(report.Tools, item)
	}
	for _, adapter := range adapters.CustomAdapters() {
		report.Custom = append(report.Custom, targetStatus(adapter))
	}

	state, err := loadState(s.paths)
	if err != nil {
		return StatusReport{}, WrapExit(ExitIOFailure, err)
	}
	report.LastApply = state
	return report, nil
}

func targetStatus(adapter Adapter) TargetStatus {
	file := ResolvePath(adapter.Path)
	_, err := os.Stat(file)
	return TargetStatus{
		Target: firstNonEmpty(adapter.ToolID, file),
		File:   file,
		Format: adapter.Format,
		Exists: err == nil,
	}
}
