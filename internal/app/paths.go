package app

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	registryFileName = "ai.json"
	stateFileName    = "state.json"
	catalogFileName  = "tools.toml"
)

var (
	bracePlaceholder   = regexp.MustCompile(`\$\{([^}]+)\}`)
	percentPlaceholder = regexp.MustCompile(`%([^%]+)%`)
)

// Paths locates the files clibundle owns.
type Paths struct {
	ConfigDir    string `json:"configDir"`
	RegistryPath string `json:"registryPath"`
	StatePath    string `json:"statePath"`
	CatalogPath  string `json:"catalogPath"`
	LockPath     string `json:"lockPath"`
}

// ResolvePaths honors CLIBUNDLE_HOME and falls back to ~/.clibundle.
// A non-empty registryOverride replaces the registry location only.
func ResolvePaths(registryOverride string) (Paths, error) {
	home, err := userHome()
	if err != nil {
		return Paths{}, err
	}
	root := resolvePathWithHome(firstNonEmpty(os.Getenv("CLIBUNDLE_HOME"), filepath.Join(home, ".clibundle")), home)
	registry := filepath.Join(root, registryFileName)
	if strings.TrimSpace(registryOverride) != "" {
		registry = ResolvePath(registryOverride)
	}
	return Paths{
		ConfigDir:    root,
		RegistryPath: registry,
		StatePath:    filepath.Join(root, stateFileName),
		CatalogPath:  filepath.Join(root, catalogFileName),
		LockPath:     registry + ".lock",
	}, nil
}

// ResolvePath expands a leading ~ and every ${NAME} or %NAME% token, then
// returns an absolute, cleaned path. Unset variables expand to "".
func ResolvePath(raw string) string {
	if raw == "" {
		return raw
	}
	home, _ := userHome()
	expanded := expandEnvTokens(expandHome(raw, home))
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return filepath.Clean(expanded)
	}
	return abs
}

func expandHome(raw string, home string) string {
	if !strings.HasPrefix(raw, "~") {
		return raw
	}
	return filepath.Join(home, filepath.FromSlash(strings.TrimPrefix(raw, "~")))
}

func expandEnvTokens(raw string) string {
	raw = expandBraceVars(raw)
	return percentPlaceholder.ReplaceAllStringFunc(raw, func(m string) string {
		return os.Getenv(percentPlaceholder.FindStringSubmatch(m)[1])
	})
}

func userHome() (string, error) {
	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return home, nil
	}
	if fallback := firstNonEmpty(os.Getenv("HOME"), os.Getenv("USERPROFILE")); fallback != "" {
		return fallback, nil
	}
	return "", err
}

func resolvePathWithHome(raw string, home string) string {
	if strings.HasPrefix(raw, "~/") {
		return filepath.Join(home, strings.TrimPrefix(raw, "~/"))
	}
	if strings.HasPrefix(raw, "~\\") {
		return filepath.Join(home, strings.TrimPrefix(raw, "~\\"))
	}
	if raw == "~" {
		return home
	}
	return filepath.Clean(raw)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
