package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	appDir        = ".fwrdcast"
	maxPathLength = 4096
)

// ResolvePath expands a leading "~/", makes path absolute and rejects
// null bytes, control characters and ".." components.
func ResolvePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if len(path) > maxPathLength {
		return "", fmt.Errorf("path too long (max %d characters)", maxPathLength)
	}
	for _, r := range path {
		if r == 0 {
			return "", fmt.Errorf("path contains null bytes")
		}
		if r < 32 && r != '\t' {
			return "", fmt.Errorf("path contains control characters")
		}
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return "", fmt.Errorf("directory traversal not allowed")
		}
	}

	switch {
	case path == "~" || strings.HasPrefix(path, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	case strings.HasPrefix(path, "~"):
		return "", fmt.Errorf("invalid tilde usage")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot make path absolute: %w", err)
	}
	return abs, nil
}

// DataDir returns ~/.fwrdcast.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, appDir), nil
}

// DatabasePath resolves the session database location, defaulting to
// ~/.fwrdcast/session.db.
func DatabasePath(userPath string) (string, error) {
	return fileIn(userPath, "session.db")
}

// LogPath resolves the log file location, defaulting to
// ~/.fwrdcast/fwrdcast.log.
func LogPath(userPath string) (string, error) {
	return fileIn(userPath, "fwrdcast.log")
}

// EnsureParentDir creates the directory holding path.
func EnsureParentDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

func fileIn(userPath, name string) (string, error) {
	if userPath == "" {
		dir, err := DataDir()
		if err != nil {
			return "", err
		}
		userPath = filepath.Join(dir, name)
	}
	path, err := ResolvePath(userPath)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", path)
	}
	return path, nil
}
