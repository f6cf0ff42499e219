package app

import (
	"os"
	"strings"
)

// ResolveEnvVars returns a copy of p with every ${NAME} occurrence in its
// string fields replaced by the environment value, or "" when unset.
func ResolveEnvVars(p Provider) Provider {
	out := p.clone()
	out.Name = expandBraceVars(out.Name)
	out.Type = expandBraceVars(out.Type)
	out.APIKey = expandBraceVars(out.APIKey)
	out.BaseURL = expandBraceVars(out.BaseURL)
	out.Model = expandBraceVars(out.Model)
	out.Proxy = expandBraceVars(out.Proxy)
	for k, v := range out.Extra {
		out.Extra[k] = expandBraceVars(v)
	}
	return out
}

func expandBraceVars(value string) string {
	if !strings.Contains(value, "${") {
		return value
	}
	return bracePlaceholder.ReplaceAllStringFunc(value, func(m string) string {
		return os.Getenv(bracePlaceholder.FindStringSubmatch(m)[1])
	})
}

// isEnvPlaceholder reports whether value is exactly one ${NAME} token.
func isEnvPlaceholder(value string) (string, bool) {
	if !strings.HasPrefix(value, "${") || !strings.HasSuffix(value, "}") || len(value) < 4 {
		return "", false
	}
	name := value[2 : len(value)-1]
	if strings.ContainsAny(name, "{}") {
		return "", false
	}
	return name, true
}
