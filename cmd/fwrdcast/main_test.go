package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/fwrdcast/internal/feed"
	"github.com/pders01/fwrdcast/internal/model"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	fn()

	w.Close()
	os.Stdout = old
	return <-outC
}

func TestVersionCommand(t *testing.T) {
	out := captureStdout(t, func() { versionCmd.Run(nil, nil) })

	// Version is "dev" by default in tests
	if !strings.Contains(out, "fwrdcast dev") {
		t.Errorf("Expected version output to contain 'fwrdcast dev', got: %s", out)
	}
	if !strings.Contains(out, "github.com/pders01/fwrdcast") {
		t.Errorf("Expected version output to contain module path, got: %s", out)
	}
}

func TestGenerateConfigCommand(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, ".config", "fwrdcast", "config.toml")
	t.Setenv("HOME", tmpDir)

	out := captureStdout(t, func() { configGenCmd.Run(nil, nil) })

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		t.Errorf("Config file was not created at %s", configFile)
	}
	if !strings.Contains(out, "Generated default configuration at:") {
		t.Errorf("Expected output to contain 'Generated default configuration at:', got: %s", out)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"expand tilde path", "~/test.db", filepath.Join(home, "test.db")},
		{"bare tilde", "~", home},
		{"absolute path unchanged", "/tmp/test.db", "/tmp/test.db"},
		{"relative path unchanged", "test.db", "test.db"},
		{"tilde user form unchanged", "~other/test.db", "~other/test.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expandHome(tt.input); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestListKeyFromFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    model.ListKey
		wantErr bool
	}{
		{"default is all", nil, model.AllList(), false},
		{"feed", []string{"--feed", "f1"}, model.FeedList("f1"), false},
		{"folder unread", []string{"--folder", "d1", "--unread"}, model.ListKey{Kind: model.ListFolder, ID: "d1", UnreadOnly: true}, false},
		{"smart", []string{"--smart", "starred"}, model.SmartList(model.SmartStarred), false},
		{"search with type", []string{"--search", "go", "--type", "podcast"}, model.ListKey{Kind: model.ListSearch, Query: "go", Type: "podcast"}, false},
		{"unknown smart list", []string{"--smart", "later"}, model.ListKey{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{Use: "articles"}
			cmd.Flags().String("feed", "", "")
			cmd.Flags().String("folder", "", "")
			cmd.Flags().String("smart", "", "")
			cmd.Flags().String("search", "", "")
			cmd.Flags().Bool("unread", false, "")
			cmd.Flags().String("type", "", "")
			if err := cmd.Flags().Parse(tt.args); err != nil {
				t.Fatalf("parsing flags: %v", err)
			}

			got, err := listKeyFromFlags(cmd)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestArticlesCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/articles" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("feedId"); got != "f1" {
			t.Errorf("expected feedId f1, got %q", got)
		}
		if got := r.URL.Query().Get("per_page"); got != "5" {
			t.Errorf("expected per_page 5, got %q", got)
		}
		_ = json.NewEncoder(w).Encode([]model.Article{{
			ID:          "a1",
			FeedID:      "f1",
			Feed:        &model.Feed{ID: "f1", Title: "Audio Stories"},
			Title:       "The First Episode",
			ContentHash: "h1",
			OrderedAt:   time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC),
			Unread:      true,
		}})
	}))
	defer server.Close()

	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	cfgFile := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(cfgFile, []byte("[api]\nbase_url = \""+server.URL+"\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	defer func() { configPath = "" }()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config", cfgFile, "articles", "--feed", "f1", "--limit", "5"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("articles command failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{"a1", "The First Episode", "Audio Stories", "●"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, got)
		}
	}
}

func TestRenderEpisodes(t *testing.T) {
	out := renderEpisodes([]feed.Episode{
		{Title: "Long Talk", EnclosureURL: "https://cdn.example.com/1.mp3", Duration: time.Hour + 5*time.Second},
		{Title: "Post"},
	})

	for _, want := range []string{"Long Talk", "1:00:05", "♪", "Post", "-"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected table to contain %q, got:\n%s", want, out)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[time.Duration]string{
		0:                           "-",
		59 * time.Second:            "0:59",
		61 * time.Second:            "1:01",
		2*time.Hour + 3*time.Minute: "2:03:00",
	}
	for in, want := range cases {
		if got := formatDuration(in); got != want {
			t.Errorf("formatDuration(%v) = %q, want %q", in, got, want)
		}
	}
}
