package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSecret(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestResolveSecret(t *testing.T) {
	const name = "GAMEMAP_TEST_SECRET"

	tests := []struct {
		name string
		env  string
		file *string // nil leaves _FILE unset
		want string
	}{
		{name: "neither set", want: ""},
		{name: "env only", env: "env-value", want: "env-value"},
		{name: "file only", file: ptr("file-value\n"), want: "file-value"},
		{name: "file wins over env", env: "env-value", file: ptr("file-value"), want: "file-value"},
		{name: "trims whitespace", file: ptr("  secret-value  \n\n"), want: "secret-value"},
		{name: "empty file", file: ptr(""), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(name, tt.env)
			t.Setenv(name+"_FILE", "")
			if tt.file != nil {
				t.Setenv(name+"_FILE", writeSecret(t, *tt.file))
			}

			got, err := ResolveSecret(name)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveSecret_FileNotFound(t *testing.T) {
	t.Setenv("GAMEMAP_TEST_MISSING_FILE", "/nonexistent/path/to/secret")
	if _, err := ResolveSecret("GAMEMAP_TEST_MISSING"); err == nil {
		t.Error("expected error when file does not exist")
	}
}

func TestResolveSecrets(t *testing.T) {
	t.Setenv("GAMEMAP_TEST_A", "a")
	t.Setenv("GAMEMAP_TEST_B_FILE", writeSecret(t, "b"))

	got, err := ResolveSecrets("GAMEMAP_TEST_A", "GAMEMAP_TEST_B", "GAMEMAP_TEST_UNSET")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["GAMEMAP_TEST_A"] != "a" || got["GAMEMAP_TEST_B"] != "b" || got["GAMEMAP_TEST_UNSET"] != "" {
		t.Errorf("unexpected secrets %v", got)
	}

	t.Setenv("GAMEMAP_TEST_C_FILE", "/nonexistent")
	if _, err := ResolveSecrets("GAMEMAP_TEST_A", "GAMEMAP_TEST_C"); err == nil {
		t.Error("expected error from unreadable secret file")
	}
}

func ptr(s string) *string { return &s }
