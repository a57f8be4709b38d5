package media

import (
	_ "embed"
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed media_types.toml
var mediaTypesTOML []byte

type Type int

const (
	TypeVideo Type = iota
	TypeAudio
	TypeImage
	TypeUnknown
)

func (t Type) String() string {
	switch t {
	case TypeVideo:
		return "video"
	case TypeAudio:
		return "audio"
	case TypeImage:
		return "image"
	default:
		return "unknown"
	}
}

type TypeConfig struct {
	Extensions  []string `toml:"extensions"`
	URLPatterns []string `toml:"url_patterns"`
}

type TypesConfig struct {
	Video     TypeConfig                `toml:"video"`
	Audio     TypeConfig                `toml:"audio"`
	Image     TypeConfig                `toml:"image"`
	Platforms map[string]PlatformConfig `toml:"platforms"`
}

type PlatformConfig struct {
	DefaultOpener string `toml:"default_opener"`
}

type TypeDetector struct {
	config *TypesConfig
}

func NewTypeDetector() (*TypeDetector, error) {
	var config TypesConfig
	if err := toml.Unmarshal(mediaTypesTOML, &config); err != nil {
		return nil, fmt.Errorf("parsing media_types.toml: %w", err)
	}
	return &TypeDetector{config: &config}, nil
}

func (d *TypeDetector) DetectType(url string) Type {
	lower := strings.ToLower(url)
	isURL := strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")

	if ext := extension(lower); ext != "" {
		switch {
		case slices.Contains(d.config.Video.Extensions, ext):
			return TypeVideo
		case slices.Contains(d.config.Audio.Extensions, ext):
			return TypeAudio
		case slices.Contains(d.config.Image.Extensions, ext):
			return TypeImage
		}
	}

	if isURL {
		switch {
		case matchesPattern(lower, d.config.Video.URLPatterns):
			return TypeVideo
		case matchesPattern(lower, d.config.Audio.URLPatterns):
			return TypeAudio
		case matchesPattern(lower, d.config.Image.URLPatterns):
			return TypeImage
		}
	}

	return TypeUnknown
}

// IsAudio reports whether url looks like an audio enclosure.
func (d *TypeDetector) IsAudio(url string) bool {
	return d.DetectType(url) == TypeAudio
}

func (d *TypeDetector) GetDefaultOpener() string {
	if platformConfig, ok := d.config.Platforms[runtime.GOOS]; ok {
		return platformConfig.DefaultOpener
	}
	if fallback, ok := d.config.Platforms["fallback"]; ok {
		return fallback.DefaultOpener
	}
	return "open"
}

// extension returns the last path extension without query or fragment.
func extension(lower string) string {
	if i := strings.IndexAny(lower, "?#"); i != -1 {
		lower = lower[:i]
	}
	slash := strings.LastIndex(lower, "/")
	dot := strings.LastIndex(lower, ".")
	if dot == -1 || dot < slash {
		return ""
	}
	return lower[dot+1:]
}

func matchesPattern(url string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(url, pattern) {
			return true
		}
	}
	return false
}
