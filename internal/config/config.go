package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/pders01/fwrdcast/internal/validation"
)

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Player   PlayerConfig   `mapstructure:"player"`
	Database DatabaseConfig `mapstructure:"database"`
	Search   SearchConfig   `mapstructure:"search"`
	Log      LogConfig      `mapstructure:"log"`
	UI       UIConfig       `mapstructure:"ui"`
	Media    MediaConfig    `mapstructure:"media"`
	Keys     KeyConfig      `mapstructure:"keys"`
}

type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url" toml:"base_url"`
	Token     string        `mapstructure:"token" toml:"token"`
	Timeout   time.Duration `mapstructure:"timeout" toml:"-"`
	UserAgent string        `mapstructure:"user_agent" toml:"user_agent"`
	PageSize  int           `mapstructure:"page_size" toml:"page_size"`
	MaxItems  int           `mapstructure:"max_items" toml:"max_items"`
}

type PlayerConfig struct {
	ProgressInterval time.Duration `mapstructure:"progress_interval"`
	SkipOffset       time.Duration `mapstructure:"skip_offset"`
	Rates            []float64     `mapstructure:"rates"`
	ReportTimeout    time.Duration `mapstructure:"report_timeout"`
}

type DatabaseConfig struct {
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SearchConfig struct {
	Enabled bool `mapstructure:"enabled" toml:"enabled"`
	Limit   int  `mapstructure:"limit" toml:"limit"`
}

type LogConfig struct {
	Level string `mapstructure:"level" toml:"level"`
	File  string `mapstructure:"file" toml:"file"`
}

type UIConfig struct {
	Colors  UIColors      `mapstructure:"colors" toml:"colors"`
	Article ArticleConfig `mapstructure:"article" toml:"article"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary" toml:"primary"`
	Secondary  string `mapstructure:"secondary" toml:"secondary"`
	Accent     string `mapstructure:"accent" toml:"accent"`
	Background string `mapstructure:"background" toml:"background"`
	Surface    string `mapstructure:"surface" toml:"surface"`
	Text       string `mapstructure:"text" toml:"text"`
	Muted      string `mapstructure:"muted" toml:"muted"`
	Error      string `mapstructure:"error" toml:"error"`
	Success    string `mapstructure:"success" toml:"success"`
}

type ArticleConfig struct {
	MaxSummaryLength int    `mapstructure:"max_summary_length" toml:"max_summary_length"`
	WordWrapMaxWidth int    `mapstructure:"word_wrap_max_width" toml:"word_wrap_max_width"`
	WordWrapMinWidth int    `mapstructure:"word_wrap_min_width" toml:"word_wrap_min_width"`
	GlamourStyle     string `mapstructure:"glamour_style" toml:"glamour_style"`
}

type MediaConfig struct {
	Darwin        MediaPlayers `mapstructure:"darwin" toml:"darwin"`
	Linux         MediaPlayers `mapstructure:"linux" toml:"linux"`
	Windows       MediaPlayers `mapstructure:"windows" toml:"windows"`
	DefaultOpener string       `mapstructure:"default_opener" toml:"default_opener"`
}

type MediaPlayers struct {
	Video []string `mapstructure:"video" toml:"video"`
	Audio []string `mapstructure:"audio" toml:"audio"`
}

// Players returns the player lists for the running OS.
func (m MediaConfig) Players() MediaPlayers {
	switch runtime.GOOS {
	case "linux":
		return m.Linux
	case "windows":
		return m.Windows
	default:
		return m.Darwin
	}
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier" toml:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings" toml:"bindings"`
}

// KeyBindings are single keys. Search, Refresh, NewFollow, Delete and
// Rename are pressed together with the modifier.
type KeyBindings struct {
	Quit        string `mapstructure:"quit" toml:"quit"`
	NewFollow   string `mapstructure:"new_follow" toml:"new_follow"`
	Delete      string `mapstructure:"delete" toml:"delete"`
	Rename      string `mapstructure:"rename" toml:"rename"`
	Search      string `mapstructure:"search" toml:"search"`
	Refresh     string `mapstructure:"refresh" toml:"refresh"`
	ToggleRead  string `mapstructure:"toggle_read" toml:"toggle_read"`
	ToggleStar  string `mapstructure:"toggle_star" toml:"toggle_star"`
	ToggleCheck string `mapstructure:"toggle_check" toml:"toggle_check"`
	ClearUnread string `mapstructure:"clear_unread" toml:"clear_unread"`
	UnreadOnly  string `mapstructure:"unread_only" toml:"unread_only"`
	OpenMedia   string `mapstructure:"open_media" toml:"open_media"`
	PlayPause   string `mapstructure:"play_pause" toml:"play_pause"`
	SkipForward string `mapstructure:"skip_forward" toml:"skip_forward"`
	SkipRewind  string `mapstructure:"skip_rewind" toml:"skip_rewind"`
	NextEpisode string `mapstructure:"next_episode" toml:"next_episode"`
	PrevEpisode string `mapstructure:"prev_episode" toml:"prev_episode"`
	CycleRate   string `mapstructure:"cycle_rate" toml:"cycle_rate"`
	ToggleLoop  string `mapstructure:"toggle_loop" toml:"toggle_loop"`
	ClosePlayer string `mapstructure:"close_player" toml:"close_player"`
	Back        string `mapstructure:"back" toml:"back"`
	Help        string `mapstructure:"help" toml:"help"`
}

func defaultConfig() *Config {
	dbPath, _ := validation.DatabasePath("")
	logPath, _ := validation.LogPath("")

	return &Config{
		API: APIConfig{
			BaseURL:   "https://api.fwrdcast.app/v1/",
			Timeout:   30 * time.Second,
			UserAgent: "fwrdcast/1.0 (podcast client; github.com/pders01/fwrdcast)",
			PageSize:  30,
			MaxItems:  1000,
		},
		Player: PlayerConfig{
			ProgressInterval: 10 * time.Second,
			SkipOffset:       30 * time.Second,
			Rates:            []float64{1, 1.25, 1.5, 1.75, 2, 0.75},
			ReportTimeout:    10 * time.Second,
		},
		Database: DatabaseConfig{
			Path:    dbPath,
			Timeout: 1 * time.Second,
		},
		Search: SearchConfig{
			Enabled: true,
			Limit:   50,
		},
		Log: LogConfig{
			Level: "off",
			File:  logPath,
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:    "#FF6B6B",
				Secondary:  "#4ECDC4",
				Accent:     "#95E1D3",
				Background: "#1A1A2E",
				Surface:    "#16213E",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
			},
			Article: ArticleConfig{
				MaxSummaryLength: 150,
				WordWrapMaxWidth: 120,
				WordWrapMinWidth: 40,
				GlamourStyle:     "dark",
			},
		},
		Media: MediaConfig{
			Darwin: MediaPlayers{
				Video: []string{"iina", "mpv", "vlc"},
				Audio: []string{"mpv", "vlc", "open"},
			},
			Linux: MediaPlayers{
				Video: []string{"mpv", "vlc", "mplayer"},
				Audio: []string{"mpv", "vlc", "mplayer"},
			},
			Windows: MediaPlayers{
				Video: []string{"mpv", "vlc"},
				Audio: []string{"mpv", "vlc"},
			},
			DefaultOpener: getDefaultOpener(),
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:        "q",
				NewFollow:   "n",
				Delete:      "x",
				Rename:      "e",
				Search:      "s",
				Refresh:     "r",
				ToggleRead:  "m",
				ToggleStar:  "s",
				ToggleCheck: "x",
				ClearUnread: "C",
				UnreadOnly:  "u",
				OpenMedia:   "o",
				PlayPause:   "p",
				SkipForward: "l",
				SkipRewind:  "h",
				NextEpisode: "n",
				PrevEpisode: "N",
				CycleRate:   "R",
				ToggleLoop:  "L",
				ClosePlayer: "X",
				Back:        "esc",
				Help:        "?",
			},
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

// setDefaults registers the scalar keys so they can be overridden from the
// environment. The ui, media and keys sections are only read from the file
// and fall back to the prefilled struct in Load.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.token", cfg.API.Token)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("api.user_agent", cfg.API.UserAgent)
	v.SetDefault("api.page_size", cfg.API.PageSize)
	v.SetDefault("api.max_items", cfg.API.MaxItems)

	v.SetDefault("player.progress_interval", cfg.Player.ProgressInterval)
	v.SetDefault("player.skip_offset", cfg.Player.SkipOffset)
	v.SetDefault("player.rates", cfg.Player.Rates)
	v.SetDefault("player.report_timeout", cfg.Player.ReportTimeout)

	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.timeout", cfg.Database.Timeout)

	v.SetDefault("search.enabled", cfg.Search.Enabled)
	v.SetDefault("search.limit", cfg.Search.Limit)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
}

// DefaultPath is ~/.config/fwrdcast/config.toml.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "fwrdcast", "config.toml")
}

func Load(configPath string) (*Config, error) {
	v := viper.New()
	config := defaultConfig()
	setDefaults(v, config)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FWRDCAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Slices are decoded in place; start empty so a shorter list from the
	// file does not keep the default tail.
	config.Player.Rates = nil
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := resolvePaths(config); err != nil {
		return nil, err
	}
	return config, nil
}

func resolvePaths(cfg *Config) error {
	dbPath, err := validation.DatabasePath(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("database.path: %w", err)
	}
	cfg.Database.Path = dbPath

	logPath, err := validation.LogPath(cfg.Log.File)
	if err != nil {
		return fmt.Errorf("log.file: %w", err)
	}
	cfg.Log.File = logPath
	return nil
}

// fileConfig is the on-disk shape. Durations are written as strings so
// the file stays readable.
type fileConfig struct {
	API      fileAPI      `toml:"api"`
	Player   filePlayer   `toml:"player"`
	Database fileDatabase `toml:"database"`
	Search   SearchConfig `toml:"search"`
	Log      LogConfig    `toml:"log"`
	UI       UIConfig     `toml:"ui"`
	Media    MediaConfig  `toml:"media"`
	Keys     KeyConfig    `toml:"keys"`
}

type fileAPI struct {
	APIConfig
	Timeout string `toml:"timeout"`
}

type filePlayer struct {
	ProgressInterval string    `toml:"progress_interval"`
	SkipOffset       string    `toml:"skip_offset"`
	Rates            []float64 `toml:"rates"`
	ReportTimeout    string    `toml:"report_timeout"`
}

type fileDatabase struct {
	Path    string `toml:"path"`
	Timeout string `toml:"timeout"`
}

func toFile(c *Config) fileConfig {
	return fileConfig{
		API: fileAPI{APIConfig: c.API, Timeout: c.API.Timeout.String()},
		Player: filePlayer{
			ProgressInterval: c.Player.ProgressInterval.String(),
			SkipOffset:       c.Player.SkipOffset.String(),
			Rates:            c.Player.Rates,
			ReportTimeout:    c.Player.ReportTimeout.String(),
		},
		Database: fileDatabase{Path: c.Database.Path, Timeout: c.Database.Timeout.String()},
		Search:   c.Search,
		Log:      c.Log,
		UI:       c.UI,
		Media:    c.Media,
		Keys:     c.Keys,
	}
}

func Save(config *Config, path string) error {
	data, err := toml.Marshal(toFile(config))
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// The file may carry an API token.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
