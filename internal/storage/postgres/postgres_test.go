package postgres

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConnStringDefaults(t *testing.T) {
	for _, k := range []string{"PGHOST", "PGPORT", "PGUSER", "PGDATABASE", "PGSSLMODE", "PGPASSWORD", "PGPASSWORD_FILE"} {
		t.Setenv(k, "")
	}

	got, err := ConnString()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "host=127.0.0.1 port=5432 user=gamemap dbname=gamemap sslmode=disable"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConnStringPasswordFile(t *testing.T) {
	t.Setenv("PGPASSWORD", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "pw")
	if err := os.WriteFile(path, []byte("s3cret\n"), 0600); err != nil {
		t.Fatalf("failed to write password file: %v", err)
	}
	t.Setenv("PGPASSWORD_FILE", path)

	got, err := ConnString()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "password=s3cret ") {
		t.Errorf("expected password in %q", got)
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 200},
		{-5, 200},
		{50, 50},
		{20000, 10000},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.in); got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNullString(t *testing.T) {
	if nullString("").Valid {
		t.Error("empty string should be NULL")
	}
	if ns := nullString("x"); !ns.Valid || ns.String != "x" {
		t.Errorf("unexpected %+v", ns)
	}
}
