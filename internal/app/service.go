package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Service is the surface consumed by the CLI. Every call loads the registry
// from disk; nothing is cached between calls.
type Service struct {
	paths Paths
}

func NewService(paths Paths) *Service {
	return &Service{paths: paths}
}

func (s *Service) Paths() Paths { return s.paths }

func (s *Service) Registry() (*Registry, error) {
	reg, err := LoadRegistry(s.paths.RegistryPath)
	if err != nil {
		return nil, WrapExit(ExitIOFailure, err)
	}
	return reg, nil
}

// Init writes the default registry. An existing file is kept unless force
// is set; the returned bool reports whether a file was written.
func (s *Service) Init(force bool) (bool, error) {
	if _, err := os.Stat(s.paths.RegistryPath); err == nil && !force {
		return false, nil
	}
	err := withLock(s.paths.LockPath, func() error {
		return defaultRegistry(s.paths.RegistryPath).Save()
	})
	if err != nil {
		return false, WrapExit(ExitIOFailure, err)
	}
	return true, nil
}

// Apply runs the engine for the requested scope and records the outcome.
// Missing providers and unconfigured tools abort with a user error; target
// failures are reported inside the summary.
func (s *Service) Apply(opts ApplyOptions) (ApplySummary, error) {
	reg, err := s.Registry()
	if err != nil {
		return ApplySummary{}, err
	}
	engine := NewEngine(reg, NewAdapterRegistry(reg.Targets()))
	summary, err := engine.Apply(opts)
	if err != nil {
		if errors.Is(err, ErrProviderNotFound) || errors.Is(err, ErrToolNotConfigured) {
			return ApplySummary{}, WrapExit(ExitUserError, err)
		}
		return ApplySummary{}, WrapExit(ExitIOFailure, err)
	}
	if !opts.DryRun {
		failed := summary.Failed()
		state := StateFile{
			LastApplyAt: time.Now().UTC().Format(time.RFC3339),
			LastScope:   scopeLabel(opts),
			Succeeded:   len(summary.Results) - failed,
			Failed:      failed,
		}
		if err := saveState(s.paths, state); err != nil {
			slog.Warn("could not record apply state", "path", s.paths.StatePath, "error", err)
		}
	}
	return summary, nil
}

func (s *Service) AddProvider(p Provider) error {
	return s.mutate(func(reg *Registry) error {
		return reg.AddProvider(p)
	})
}

func (s *Service) RemoveProvider(name string) error {
	return s.mutate(func(reg *Registry) error {
		return reg.RemoveProvider(name)
	})
}

// UseProvider sets the broadcast-mode provider.
func (s *Service) UseProvider(name string) error {
	return s.mutate(func(reg *Registry) error {
		return reg.SetActiveProvider(name)
	})
}

func (s *Service) SetToolProvider(tool string, provider string) error {
	return s.mutate(func(reg *Registry) error {
		return reg.SetToolProvider(tool, provider)
	})
}

func (s *Service) EnableTool(tool string, enabled bool) error {
	return s.mutate(func(reg *Registry) error {
		return reg.EnableTool(tool, enabled)
	})
}

func (s *Service) AddTarget(t CustomTarget) error {
	return s.mutate(func(reg *Registry) error {
		return reg.AddTarget(t)
	})
}

// mutate performs a locked load-modify-save of the registry file.
func (s *Service) mutate(fn func(reg *Registry) error) error {
	var userErr error
	err := withLock(s.paths.LockPath, func() error {
		reg, err := LoadRegistry(s.paths.RegistryPath)
		if err != nil {
			return err
		}
		if err := fn(reg); err != nil {
			userErr = err
			return nil
		}
		if err := reg.Save(); err != nil {
			return fmt.Errorf("save registry: %w", err)
		}
		return nil
	})
	if err != nil {
		return WrapExit(ExitIOFailure, err)
	}
	return WrapExit(ExitUserError, userErr)
}
