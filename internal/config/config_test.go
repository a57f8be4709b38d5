package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestGetDefaultOpener(t *testing.T) {
	expected := map[string]string{
		"darwin":  "open",
		"linux":   "xdg-open",
		"windows": "start",
	}

	opener := getDefaultOpener()

	if expectedOpener, ok := expected[runtime.GOOS]; ok {
		if opener != expectedOpener {
			t.Errorf("getDefaultOpener() = %s, want %s for %s", opener, expectedOpener, runtime.GOOS)
		}
	} else if opener != "open" {
		t.Errorf("getDefaultOpener() = %s, want 'open' for unknown OS", opener)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.API.PageSize != 30 {
		t.Errorf("API.PageSize = %d, want 30", cfg.API.PageSize)
	}
	if cfg.API.MaxItems != 1000 {
		t.Errorf("API.MaxItems = %d, want 1000", cfg.API.MaxItems)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("API.Timeout = %v, want 30s", cfg.API.Timeout)
	}
	if cfg.API.UserAgent == "" {
		t.Error("API.UserAgent should not be empty")
	}

	if cfg.Player.ProgressInterval != 10*time.Second {
		t.Errorf("Player.ProgressInterval = %v, want 10s", cfg.Player.ProgressInterval)
	}
	if cfg.Player.SkipOffset != 30*time.Second {
		t.Errorf("Player.SkipOffset = %v, want 30s", cfg.Player.SkipOffset)
	}
	wantRates := []float64{1, 1.25, 1.5, 1.75, 2, 0.75}
	if len(cfg.Player.Rates) != len(wantRates) {
		t.Fatalf("Player.Rates = %v, want %v", cfg.Player.Rates, wantRates)
	}
	for i, r := range wantRates {
		if cfg.Player.Rates[i] != r {
			t.Errorf("Player.Rates[%d] = %v, want %v", i, cfg.Player.Rates[i], r)
		}
	}

	if cfg.Database.Timeout != 1*time.Second {
		t.Errorf("Database.Timeout = %v, want 1s", cfg.Database.Timeout)
	}
	if filepath.Base(cfg.Database.Path) != "session.db" {
		t.Errorf("Database.Path = %s, want session.db in data dir", cfg.Database.Path)
	}

	if cfg.Log.Level != "off" {
		t.Errorf("Log.Level = %s, want 'off'", cfg.Log.Level)
	}
	if !cfg.Search.Enabled {
		t.Error("Search.Enabled should default to true")
	}

	if cfg.Media.DefaultOpener == "" {
		t.Error("Media.DefaultOpener should not be empty")
	}
	if cfg.Keys.Modifier != "ctrl" {
		t.Errorf("Keys.Modifier = %s, want 'ctrl'", cfg.Keys.Modifier)
	}
	if cfg.Keys.Bindings.PlayPause != "p" {
		t.Errorf("Keys.Bindings.PlayPause = %s, want 'p'", cfg.Keys.Bindings.PlayPause)
	}
}

func TestLoad_DefaultConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}
	if cfg.Player.ProgressInterval != 10*time.Second {
		t.Errorf("Player.ProgressInterval = %v, want 10s", cfg.Player.ProgressInterval)
	}
	if len(cfg.Player.Rates) != 6 {
		t.Errorf("Player.Rates = %v, want the six defaults", cfg.Player.Rates)
	}
}

func TestLoad_FromFile(t *testing.T) {
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "test-config.toml")
	configContent := `
[api]
base_url = "https://api.example.com/"
token = "secret"
page_size = 50

[player]
progress_interval = "5s"
rates = [1, 2]

[database]
path = "/tmp/test.db"
timeout = "10s"

[log]
level = "debug"

[ui.colors]
primary = "#FF0000"
`

	if writeErr := os.WriteFile(configPath, []byte(configContent), 0o644); writeErr != nil {
		t.Fatal(writeErr)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.BaseURL != "https://api.example.com/" {
		t.Errorf("API.BaseURL = %s", cfg.API.BaseURL)
	}
	if cfg.API.Token != "secret" {
		t.Errorf("API.Token = %s, want 'secret'", cfg.API.Token)
	}
	if cfg.API.PageSize != 50 {
		t.Errorf("API.PageSize = %d, want 50", cfg.API.PageSize)
	}
	if cfg.API.MaxItems != 1000 {
		t.Errorf("API.MaxItems = %d, want default 1000", cfg.API.MaxItems)
	}
	if cfg.Player.ProgressInterval != 5*time.Second {
		t.Errorf("Player.ProgressInterval = %v, want 5s", cfg.Player.ProgressInterval)
	}
	if len(cfg.Player.Rates) != 2 || cfg.Player.Rates[1] != 2 {
		t.Errorf("Player.Rates = %v, want [1 2]", cfg.Player.Rates)
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %s, want '/tmp/test.db'", cfg.Database.Path)
	}
	if cfg.Database.Timeout != 10*time.Second {
		t.Errorf("Database.Timeout = %v, want 10s", cfg.Database.Timeout)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %s, want 'debug'", cfg.Log.Level)
	}
	if cfg.UI.Colors.Primary != "#FF0000" {
		t.Errorf("UI.Colors.Primary = %s, want '#FF0000'", cfg.UI.Colors.Primary)
	}
	if cfg.UI.Colors.Secondary != "#4ECDC4" {
		t.Errorf("UI.Colors.Secondary = %s, want default", cfg.UI.Colors.Secondary)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("FWRDCAST_API_TOKEN", "from-env")
	t.Setenv("FWRDCAST_API_PAGE_SIZE", "12")

	configPath := filepath.Join(t.TempDir(), "empty.toml")
	if err := os.WriteFile(configPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.Token != "from-env" {
		t.Errorf("API.Token = %q, want value from environment", cfg.API.Token)
	}
	if cfg.API.PageSize != 12 {
		t.Errorf("API.PageSize = %d, want 12", cfg.API.PageSize)
	}
}

func TestLoad_BadPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad.toml")
	content := "[database]\npath = \"" + tmpDir + "\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Load() should reject a database path that is a directory")
	}
}

func TestSave(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := defaultConfig()
	cfg.API.BaseURL = "https://saved.example.com/"
	cfg.API.Timeout = 45 * time.Second
	cfg.Player.SkipOffset = 15 * time.Second
	cfg.Database.Path = filepath.Join(tmpDir, "path.db")
	cfg.Media.DefaultOpener = "test-opener"
	cfg.Keys.Modifier = "alt"

	savePath := filepath.Join(tmpDir, "nested", "saved-config.toml")
	if saveErr := Save(cfg, savePath); saveErr != nil {
		t.Fatalf("Save() error = %v", saveErr)
	}

	info, statErr := os.Stat(savePath)
	if statErr != nil {
		t.Fatalf("Save() did not create config file: %v", statErr)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0o600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := Load(savePath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}

	if loaded.API.BaseURL != cfg.API.BaseURL {
		t.Errorf("Loaded API.BaseURL = %s, want %s", loaded.API.BaseURL, cfg.API.BaseURL)
	}
	if loaded.API.Timeout != cfg.API.Timeout {
		t.Errorf("Loaded API.Timeout = %v, want %v", loaded.API.Timeout, cfg.API.Timeout)
	}
	if loaded.Player.SkipOffset != cfg.Player.SkipOffset {
		t.Errorf("Loaded Player.SkipOffset = %v, want %v", loaded.Player.SkipOffset, cfg.Player.SkipOffset)
	}
	if loaded.Database.Path != cfg.Database.Path {
		t.Errorf("Loaded Database.Path = %s, want %s", loaded.Database.Path, cfg.Database.Path)
	}
	if loaded.Media.DefaultOpener != "test-opener" {
		t.Errorf("Loaded Media.DefaultOpener = %s, want test-opener", loaded.Media.DefaultOpener)
	}
	if loaded.Keys.Modifier != cfg.Keys.Modifier {
		t.Errorf("Loaded Keys.Modifier = %s, want %s", loaded.Keys.Modifier, cfg.Keys.Modifier)
	}
}

func TestGenerateDefaultConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "generated.toml")
	if genErr := GenerateDefaultConfig(configPath); genErr != nil {
		t.Fatalf("GenerateDefaultConfig() error = %v", genErr)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load generated config: %v", err)
	}

	if cfg.Keys.Modifier != "ctrl" {
		t.Errorf("Generated config has Keys.Modifier = %s, want 'ctrl'", cfg.Keys.Modifier)
	}
	if cfg.Player.ProgressInterval != 10*time.Second {
		t.Errorf("Generated config has Player.ProgressInterval = %v, want 10s", cfg.Player.ProgressInterval)
	}
}

func TestMediaConfig_Players(t *testing.T) {
	cfg := defaultConfig()
	players := cfg.Media.Players()
	if len(players.Audio) == 0 {
		t.Error("Players() returned no audio players for this OS")
	}
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()

	if cfg == nil {
		t.Fatal("TestConfig() returned nil")
	}
	if cfg.Database.Path != ":memory:" {
		t.Errorf("TestConfig Database.Path = %s, want ':memory:'", cfg.Database.Path)
	}
	if cfg.API.UserAgent != "fwrdcast-test/1.0" {
		t.Errorf("TestConfig API.UserAgent = %s, want 'fwrdcast-test/1.0'", cfg.API.UserAgent)
	}
}
