package debuglog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// capture runs fn with logging at level into a temp file and returns
// what was written.
func capture(t *testing.T, level LogLevel, fn func()) string {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "fwrdcast.log")
	if err := Setup(level, logPath); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	fn()
	if err := Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	SetLevel(LevelOff)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	return string(content)
}

func TestLevelRoundTrip(t *testing.T) {
	for _, level := range []LogLevel{LevelDebug, LevelInfo, LevelWarn, LevelError, LevelOff} {
		if got := ParseLogLevel(level.String()); got != level {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", level.String(), got, level)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LevelDebug,
		" Info ":  LevelInfo,
		"WARNING": LevelWarn,
		"error":   LevelError,
		"off":     LevelOff,
		"verbose": LevelInfo,
		"":        LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	out := capture(t, LevelWarn, func() {
		Debugf("fetching page %d", 1)
		Infof("page loaded")
		Warnf("report failed: %s", "timeout")
		Errorf("transport error")
	})

	if strings.Contains(out, "fetching page") || strings.Contains(out, "page loaded") {
		t.Errorf("messages below WARN should be dropped, got:\n%s", out)
	}
	if !strings.Contains(out, "[WARN] report failed: timeout") {
		t.Errorf("missing WARN line, got:\n%s", out)
	}
	if !strings.Contains(out, "[ERROR] transport error") {
		t.Errorf("missing ERROR line, got:\n%s", out)
	}
	if !strings.HasPrefix(out, "fwrdcast ") {
		t.Errorf("log lines should carry the fwrdcast prefix, got:\n%s", out)
	}
}

func TestSetupWithLevelOff(t *testing.T) {
	if err := Setup(LevelOff); err != nil {
		t.Fatalf("Setup with LevelOff failed: %v", err)
	}
	if GetLevel() != LevelOff {
		t.Errorf("GetLevel() = %v, want %v", GetLevel(), LevelOff)
	}
	// Must be a no-op without an open file.
	Errorf("dropped")
	if err := Close(); err != nil {
		t.Errorf("Close() without a file should succeed, got %v", err)
	}
}

func TestSetupDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if err := Setup(LevelInfo); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	Infof("default path message")
	if err := Close(); err != nil {
		t.Fatal(err)
	}
	SetLevel(LevelOff)

	content, err := os.ReadFile(filepath.Join(home, ".fwrdcast", "fwrdcast.log"))
	if err != nil {
		t.Fatalf("default log file not written: %v", err)
	}
	if !strings.Contains(string(content), "default path message") {
		t.Error("expected message in default log file")
	}
}

func TestSetupRejectsDirectory(t *testing.T) {
	if err := Setup(LevelInfo, t.TempDir()); err == nil {
		t.Error("Setup should fail when the log path is a directory")
	}
	SetLevel(LevelOff)
}

func TestFieldLogger(t *testing.T) {
	out := capture(t, LevelDebug, func() {
		WithFields(map[string]interface{}{
			"list":  "feed:f1",
			"task":  "t-1",
			"items": 30,
		}).Debugf("page fetched")
		WithFields(nil).Infof("no fields")
	})

	if !strings.Contains(out, "[DEBUG] page fetched [items=30 list=feed:f1 task=t-1]") {
		t.Errorf("fields should be rendered sorted by key, got:\n%s", out)
	}
	if !strings.Contains(out, "[INFO] no fields\n") {
		t.Errorf("empty field set should add nothing, got:\n%s", out)
	}
}

func TestFieldLoggerRespectsLevel(t *testing.T) {
	out := capture(t, LevelError, func() {
		WithFields(map[string]interface{}{"article": "a1"}).Warnf("progress report failed")
	})
	if out != "" {
		t.Errorf("expected nothing below ERROR, got:\n%s", out)
	}
}

func TestSetLevel(t *testing.T) {
	SetLevel(LevelDebug)
	if GetLevel() != LevelDebug {
		t.Errorf("SetLevel(LevelDebug) failed, got %v", GetLevel())
	}
	SetLevel(LevelOff)
	if GetLevel() != LevelOff {
		t.Errorf("SetLevel(LevelOff) failed, got %v", GetLevel())
	}
}
