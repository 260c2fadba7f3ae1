package config

import (
	"fmt"
	"os"
	"strings"
)

// ResolveSecret returns the value of envName. When envName_FILE is set the
// secret is read from that file instead, trimmed of surrounding whitespace.
// An unset secret is "", not an error.
func ResolveSecret(envName string) (string, error) {
	fileEnv := envName + "_FILE"
	path := os.Getenv(fileEnv)
	if path == "" {
		return os.Getenv(envName), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		// The path is safe to report; the content never is.
		return "", fmt.Errorf("failed to read secret from %s=%s: %w", fileEnv, path, err)
	}
	return strings.TrimSpace(string(b)), nil
}

// ResolveSecrets resolves each name with ResolveSecret and stops at the
// first error.
func ResolveSecrets(names ...string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	for _, name := range names {
		v, err := ResolveSecret(name)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}
