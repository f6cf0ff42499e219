package app

import (
	"fmt"
	"regexp"
	"strings"
)

var toolIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

func validateToolID(tool string) error {
	if tool == "" {
		return fmt.Errorf("tool id is required")
	}
	if !toolIDPattern.MatchString(tool) {
		return fmt.Errorf("invalid tool id %q (allowed: letters, numbers, ., _, -)", tool)
	}
	return nil
}

func validateProvider(p Provider) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("provider name is required")
	}
	if strings.TrimSpace(p.Type) == "" {
		return fmt.Errorf("provider %q has no type", p.Name)
	}
	return nil
}

// RedactSecret masks an API key for display. Placeholders are shown as-is
// since they carry no secret.
func RedactSecret(value string) string {
	if value == "" {
		return ""
	}
	if _, ok := isEnvPlaceholder(value); ok {
		return value
	}
	if len(value) <= 8 {
		return "****"
	}
	return value[:4] + "..." + value[len(value)-4:]
}
