// Package installer runs the package manager that owns each catalog tool.
package installer

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Installer installs, updates and removes one package.
type Installer interface {
	Install(ctx context.Context, pkg string) error
	Update(ctx context.Context, pkg string) error
	Uninstall(ctx context.Context, pkg string) error
}

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// NPM manages global npm packages.
type NPM struct {
	Binary string
	Run    Runner
}

func NewNPM() *NPM {
	return &NPM{Binary: "npm", Run: execRunner}
}

func (n *NPM) Install(ctx context.Context, pkg string) error {
	return n.run(ctx, "install", "-g", pkg, "--loglevel=error")
}

// Update reinstalls the package; npm resolves the newest matching version.
func (n *NPM) Update(ctx context.Context, pkg string) error {
	return n.run(ctx, "install", "-g", pkg, "--loglevel=error")
}

func (n *NPM) Uninstall(ctx context.Context, pkg string) error {
	return n.run(ctx, "uninstall", "-g", pkg, "--loglevel=error")
}

func (n *NPM) run(ctx context.Context, args ...string) error {
	if strings.TrimSpace(args[2]) == "" {
		return fmt.Errorf("npm %s: package name is required", args[0])
	}
	run := n.Run
	if run == nil {
		run = execRunner
	}
	binary := n.Binary
	if binary == "" {
		binary = "npm"
	}
	out, err := run(ctx, binary, args...)
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s %s %s: %w: %s", binary, args[0], args[2], err, msg)
		}
		return fmt.Errorf("%s %s %s: %w", binary, args[0], args[2], err)
	}
	return nil
}

// For returns the installer for a catalog install type.
func For(installType string) (Installer, error) {
	switch strings.ToLower(strings.TrimSpace(installType)) {
	case "", "npm":
		return NewNPM(), nil
	default:
		return nil, fmt.Errorf("unsupported install type %q", installType)
	}
}
