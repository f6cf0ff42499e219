package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clibundle/internal/app"
	"clibundle/internal/installer"
)

type fakeInstaller struct {
	calls []string
	fail  map[string]bool
}

func (f *fakeInstaller) record(verb string, pkg string) error {
	f.calls = append(f.calls, verb+" "+pkg)
	if f.fail[pkg] {
		return errors.New("npm exited 1")
	}
	return nil
}

func (f *fakeInstaller) Install(ctx context.Context, pkg string) error {
	return f.record("install", pkg)
}

func (f *fakeInstaller) Update(ctx context.Context, pkg string) error {
	return f.record("update", pkg)
}

func (f *fakeInstaller) Uninstall(ctx context.Context, pkg string) error {
	return f.record("uninstall", pkg)
}

func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("CLIBUNDLE_HOME", filepath.Join(home, ".clibundle"))
	t.Setenv("CLIBUNDLE_LOG_LEVEL", "")
	t.Setenv("PATH", filepath.Join(home, "empty-bin"))
	return home
}

func run(t *testing.T, inst *fakeInstaller, args ...string) (string, error) {
	t.Helper()
	if inst == nil {
		inst = &fakeInstaller{}
	}
	root := newRootCommand(func(string) (installer.Installer, error) { return inst, nil })
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--no-color"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestInitAndApplyFlow(t *testing.T) {
	home := setupHome(t)
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	out, err := run(t, nil, "init")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "wrote") {
		t.Fatalf("unexpected init output %q", out)
	}
	out, err = run(t, nil, "init")
	if err != nil || !strings.Contains(out, "already exists") {
		t.Fatalf("second init: %q %v", out, err)
	}

	out, err = run(t, nil, "apply")
	if err != nil {
		t.Fatalf("apply: %v\n%s", err, out)
	}
	if strings.Count(out, "✓") != 3 {
		t.Fatalf("expected three successful targets, got %q", out)
	}
	data, err := os.ReadFile(filepath.Join(home, ".claude", "settings.json"))
	if err != nil {
		t.Fatalf("read claude settings: %v", err)
	}
	if !strings.Contains(string(data), `"ANTHROPIC_AUTH_TOKEN": "sk-ant"`) {
		t.Fatalf("unexpected claude settings:\n%s", data)
	}

	out, err = run(t, nil, "status", "--json")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var report app.StatusReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if report.LastApply.Succeeded != 3 || report.LastApply.LastScope != "all" {
		t.Fatalf("unexpected last apply: %+v", report.LastApply)
	}
}

func TestApplyPartialFailureExitCode(t *testing.T) {
	home := setupHome(t)
	if _, err := run(t, nil, "provider", "add", "A", "--type", "anthropic", "--api-key", "sk-ant"); err != nil {
		t.Fatalf("provider add: %v", err)
	}
	if err := os.WriteFile(filepath.Join(home, "blocker"), []byte("x"), 0o600); err != nil {
		t.Fatalf("blocker: %v", err)
	}
	if _, err := run(t, nil, "target", "add", "blocked", "--path", "~/blocker/out.json", "--map", "apiKey=key"); err != nil {
		t.Fatalf("target add: %v", err)
	}

	out, err := run(t, nil, "apply", "--profile", "A")
	if app.ExitCode(err) != app.ExitPartial {
		t.Fatalf("expected partial exit, got %v (code %d)\n%s", err, app.ExitCode(err), out)
	}
	if !strings.Contains(out, "✓ claude-code") || !strings.Contains(out, "✗ blocked") {
		t.Fatalf("unexpected apply output %q", out)
	}
}

func TestApplyUserErrors(t *testing.T) {
	setupHome(t)
	if _, err := run(t, nil, "apply", "--profile", "missing"); app.ExitCode(err) != app.ExitUserError {
		t.Fatalf("expected user error for missing provider, got %v", err)
	}
	if _, err := run(t, nil, "apply", "--tool", "claude-code"); app.ExitCode(err) != app.ExitUserError {
		t.Fatalf("expected user error for unconfigured tool, got %v", err)
	}
	if _, err := run(t, nil, "apply", "--tool", "a", "--profile", "b"); err == nil {
		t.Fatalf("expected mutually exclusive flags rejected")
	}
}

func TestProviderAndToolCommands(t *testing.T) {
	setupHome(t)
	if _, err := run(t, nil, "provider", "add", "Flow", "--type", "iflow", "--api-key", "sk-1234567890abcdef", "--extra", "region=cn"); err != nil {
		t.Fatalf("provider add: %v", err)
	}
	if _, err := run(t, nil, "provider", "use", "Flow"); err != nil {
		t.Fatalf("provider use: %v", err)
	}
	if _, err := run(t, nil, "tool", "set", "iflow-cli", "Flow"); err != nil {
		t.Fatalf("tool set: %v", err)
	}
	if _, err := run(t, nil, "tool", "disable", "iflow-cli"); err != nil {
		t.Fatalf("tool disable: %v", err)
	}
	if _, err := run(t, nil, "tool", "enable", "ghost"); app.ExitCode(err) != app.ExitUserError {
		t.Fatalf("expected user error enabling unknown tool, got %v", err)
	}

	out, err := run(t, nil, "provider", "list", "--json")
	if err != nil {
		t.Fatalf("provider list: %v", err)
	}
	var views []providerView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(views) != 1 || !views[0].Active || views[0].APIKey != "sk-1...cdef" || views[0].Extra["region"] != "cn" {
		t.Fatalf("unexpected providers: %+v", views)
	}
	if strings.Contains(out, "sk-1234567890abcdef") {
		t.Fatalf("secret leaked in list output")
	}

	out, err = run(t, nil, "provider", "list")
	if err != nil || !strings.Contains(out, "Flow") || !strings.Contains(out, "*") {
		t.Fatalf("unexpected table output %q %v", out, err)
	}

	if _, err := run(t, nil, "provider", "remove", "Flow"); err != nil {
		t.Fatalf("provider remove: %v", err)
	}
	if _, err := run(t, nil, "provider", "remove", "Flow"); app.ExitCode(err) != app.ExitUserError {
		t.Fatalf("expected user error removing twice, got %v", err)
	}
}

func TestPackageCommands(t *testing.T) {
	setupHome(t)
	inst := &fakeInstaller{fail: map[string]bool{"@iflow-ai/iflow-cli": true}}

	if _, err := run(t, inst, "install", "openai-codex"); err != nil {
		t.Fatalf("install: %v", err)
	}
	if len(inst.calls) != 1 || inst.calls[0] != "install @openai/codex" {
		t.Fatalf("unexpected calls %v", inst.calls)
	}

	inst.calls = nil
	out, err := run(t, inst, "install", "--all")
	if app.ExitCode(err) != app.ExitPartial {
		t.Fatalf("expected partial failure, got %v\n%s", err, out)
	}
	if len(inst.calls) != 4 {
		t.Fatalf("expected every uninstalled tool attempted, got %v", inst.calls)
	}
	if !strings.Contains(out, "✗ iflow-cli") {
		t.Fatalf("expected failed tool reported, got %q", out)
	}

	inst.calls = nil
	out, err = run(t, inst, "update", "--all")
	if err != nil || len(inst.calls) != 0 || !strings.Contains(out, "nothing to update") {
		t.Fatalf("expected nothing installed to update: %q %v %v", out, err, inst.calls)
	}

	if _, err := run(t, inst, "uninstall"); app.ExitCode(err) != app.ExitUserError {
		t.Fatalf("expected user error without tool, got %v", err)
	}
	if _, err := run(t, inst, "uninstall", "ghost"); app.ExitCode(err) != app.ExitUserError {
		t.Fatalf("expected user error for unknown tool, got %v", err)
	}
}

func TestListShowsCatalogAndBindings(t *testing.T) {
	setupHome(t)
	if _, err := run(t, nil, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	out, err := run(t, nil, "list", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var items []map[string]any
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(items) != 4 {
		t.Fatalf("expected 4 catalog tools, got %d", len(items))
	}
	byID := map[string]map[string]any{}
	for _, item := range items {
		byID[item["id"].(string)] = item
	}
	if byID["claude-code"]["provider"] != "Anthropic Official" || byID["claude-code"]["installed"] != false {
		t.Fatalf("unexpected claude-code item: %v", byID["claude-code"])
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]string{"debug": "DEBUG", "INFO": "INFO", "error": "ERROR", "": "WARN", "bogus": "WARN"}
	for in, want := range cases {
		if got := parseLogLevel(in).String(); got != want {
			t.Errorf("parseLogLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
