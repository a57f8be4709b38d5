package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cwd, _ := os.Getwd()

	tests := []struct {
		name        string
		input       string
		expected    string
		shouldError bool
	}{
		{name: "empty", input: "", shouldError: true},
		{name: "tilde expansion", input: "~/data/session.db", expected: filepath.Join(home, "data", "session.db")},
		{name: "bare tilde", input: "~", expected: home},
		{name: "relative made absolute", input: "session.db", expected: filepath.Join(cwd, "session.db")},
		{name: "absolute kept", input: "/tmp/fwrdcast/session.db", expected: "/tmp/fwrdcast/session.db"},
		{name: "traversal", input: "/tmp/../etc/passwd", shouldError: true},
		{name: "null byte", input: "/tmp/a\x00b", shouldError: true},
		{name: "control character", input: "/tmp/a\nb", shouldError: true},
		{name: "other user home", input: "~root/x", shouldError: true},
		{name: "too long", input: "/" + strings.Repeat("a", 5000), shouldError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePath(tt.input)
			if tt.shouldError {
				if err == nil {
					t.Errorf("expected error for %q, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestDefaultPaths(t *testing.T) {
	dir, err := DataDir()
	if err != nil {
		t.Skip("no home directory")
	}

	db, err := DatabasePath("")
	if err != nil {
		t.Fatal(err)
	}
	if db != filepath.Join(dir, "session.db") {
		t.Errorf("unexpected database path %q", db)
	}

	logPath, err := LogPath("")
	if err != nil {
		t.Fatal(err)
	}
	if logPath != filepath.Join(dir, "fwrdcast.log") {
		t.Errorf("unexpected log path %q", logPath)
	}
}

func TestDatabasePath_RejectsDirectory(t *testing.T) {
	if _, err := DatabasePath(t.TempDir()); err == nil {
		t.Error("expected error for a directory")
	}
}

func TestEnsureParentDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "session.db")
	if err := EnsureParentDir(target); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(filepath.Dir(target)); err != nil || !info.IsDir() {
		t.Errorf("expected parent directory to exist: %v", err)
	}
}
