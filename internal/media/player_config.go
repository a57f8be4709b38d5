package media

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"os/exec"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/pders01/fwrdcast/internal/validation"
)

//go:embed players.toml
var playersTOML []byte

// PlayerDefinition defines how a media player should be invoked
type PlayerDefinition struct {
	Description string                 `toml:"description"`
	Platforms   []string               `toml:"platforms"`
	Video       *PlayerMediaTypeConfig `toml:"video,omitempty"`
	Audio       *PlayerMediaTypeConfig `toml:"audio,omitempty"`
}

type PlayerMediaTypeConfig struct {
	Args        []string `toml:"args,omitempty"`
	ArgsDarwin  []string `toml:"args_darwin,omitempty"`
	ArgsLinux   []string `toml:"args_linux,omitempty"`
	ArgsWindows []string `toml:"args_windows,omitempty"`
	// StartArgs and RateArgs are added when resuming; {pos} is replaced
	// by whole seconds and {rate} by the speed factor.
	StartArgs []string `toml:"start_args,omitempty"`
	RateArgs  []string `toml:"rate_args,omitempty"`
}

// Resume asks a player to start part way through at a given speed. Zero
// fields are left off the command line, as is a rate of 1.
type Resume struct {
	Position float64
	Rate     float64
}

type PlayersConfig struct {
	Players map[string]PlayerDefinition `toml:"players"`
}

type PlayerRegistry struct {
	players map[string]PlayerDefinition
}

// NewPlayerRegistry loads the embedded definitions, then merges the
// user's ~/.config/fwrdcast/players.toml over them when present.
func NewPlayerRegistry() (*PlayerRegistry, error) {
	var config PlayersConfig
	if err := toml.Unmarshal(playersTOML, &config); err != nil {
		return nil, fmt.Errorf("parsing players.toml: %w", err)
	}

	registry := &PlayerRegistry{players: config.Players}
	if registry.players == nil {
		registry.players = make(map[string]PlayerDefinition)
	}
	if path, err := validation.ResolvePath("~/.config/fwrdcast/players.toml"); err == nil {
		if err := registry.Merge(path); err != nil && !os.IsNotExist(err) {
			return registry, err
		}
	}
	return registry, nil
}

// Merge overlays the definitions in path. Entries with the same name
// replace the built-in ones.
func (r *PlayerRegistry) Merge(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var user PlayersConfig
	if err := toml.Unmarshal(data, &user); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	for name, def := range user.Players {
		r.players[name] = def
	}
	return nil
}

// GetCommand builds the command for a specific player and media type
func (r *PlayerRegistry) GetCommand(playerName string, mediaType Type, url string) (*exec.Cmd, error) {
	return r.GetResumeCommand(playerName, mediaType, url, Resume{})
}

// GetResumeCommand is GetCommand starting at at. Players without resume
// arguments start from the beginning.
func (r *PlayerRegistry) GetResumeCommand(playerName string, mediaType Type, url string, at Resume) (*exec.Cmd, error) {
	player, exists := r.players[playerName]
	if !exists {
		return exec.Command(playerName, url), nil
	}

	if !slices.Contains(player.Platforms, runtime.GOOS) {
		return nil, fmt.Errorf("%s not supported on %s", playerName, runtime.GOOS)
	}

	var config *PlayerMediaTypeConfig
	switch mediaType {
	case TypeVideo:
		config = player.Video
	case TypeAudio:
		config = player.Audio
	}
	if config == nil {
		return nil, fmt.Errorf("%s doesn't support %s", playerName, mediaType)
	}

	args := slices.Clone(r.getArgs(config))
	if at.Position >= 1 {
		pos := strconv.FormatFloat(math.Floor(at.Position), 'f', 0, 64)
		args = append(args, expandArgs(config.StartArgs, "{pos}", pos)...)
	}
	if at.Rate > 0 && at.Rate != 1 {
		args = append(args, expandArgs(config.RateArgs, "{rate}", strconv.FormatFloat(at.Rate, 'g', -1, 64))...)
	}
	args = append(args, url)
	return exec.Command(playerName, args...), nil
}

func expandArgs(args []string, placeholder, value string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = strings.ReplaceAll(a, placeholder, value)
	}
	return out
}

func (r *PlayerRegistry) getArgs(config *PlayerMediaTypeConfig) []string {
	if config == nil {
		return nil
	}

	switch runtime.GOOS {
	case "darwin":
		if len(config.ArgsDarwin) > 0 {
			return config.ArgsDarwin
		}
	case "linux":
		if len(config.ArgsLinux) > 0 {
			return config.ArgsLinux
		}
	case "windows":
		if len(config.ArgsWindows) > 0 {
			return config.ArgsWindows
		}
	}
	return config.Args
}

func (r *PlayerRegistry) IsPlayerAvailable(playerName string) bool {
	_, err := exec.LookPath(playerName)
	return err == nil
}

// FindAvailablePlayer returns the first installed player of the list.
func (r *PlayerRegistry) FindAvailablePlayer(players []string) string {
	for _, player := range players {
		if r.IsPlayerAvailable(player) {
			return player
		}
	}
	return ""
}
