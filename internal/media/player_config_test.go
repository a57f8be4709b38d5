package media

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"
)

func testRegistry() *PlayerRegistry {
	return &PlayerRegistry{
		players: map[string]PlayerDefinition{
			"mpv": {
				Description: "Test player",
				Platforms:   []string{"darwin", "linux", "windows"},
				Video:       &PlayerMediaTypeConfig{Args: []string{"--no-terminal"}},
				Audio: &PlayerMediaTypeConfig{
					Args:      []string{"--no-video"},
					StartArgs: []string{"--start={pos}"},
					RateArgs:  []string{"--speed={rate}"},
				},
			},
			"mplayer": {
				Platforms: []string{"darwin", "linux", "windows"},
				Audio: &PlayerMediaTypeConfig{
					Args:      []string{"-novideo"},
					StartArgs: []string{"-ss", "{pos}"},
				},
			},
			"vlc": {
				Description: "VLC player",
				Platforms:   []string{"darwin", "linux"},
				Video: &PlayerMediaTypeConfig{
					Args:       []string{"--intf", "dummy"},
					ArgsDarwin: []string{"--intf", "macosx"},
				},
			},
		},
	}
}

const episodeURL = "https://cdn.example.com/ep1.mp3"

func TestPlayerRegistry_GetCommand(t *testing.T) {
	registry := testRegistry()

	tests := []struct {
		name       string
		playerName string
		mediaType  Type
		wantErr    bool
		wantArgs   []string
	}{
		{name: "mpv audio", playerName: "mpv", mediaType: TypeAudio, wantArgs: []string{"--no-video", episodeURL}},
		{name: "mpv video", playerName: "mpv", mediaType: TypeVideo, wantArgs: []string{"--no-terminal", episodeURL}},
		{name: "media type without config", playerName: "mpv", mediaType: TypeImage, wantErr: true},
		{name: "unknown player gets the bare URL", playerName: "somecli", mediaType: TypeAudio, wantArgs: []string{episodeURL}},
		{name: "vlc not defined for windows", playerName: "vlc", mediaType: TypeVideo, wantErr: runtime.GOOS == "windows", wantArgs: []string{"--intf", vlcIntf(), episodeURL}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := registry.GetCommand(tt.playerName, tt.mediaType, episodeURL)
			if tt.wantErr {
				if err == nil {
					t.Error("GetCommand() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("GetCommand() unexpected error: %v", err)
			}
			if !slices.Equal(cmd.Args[1:], tt.wantArgs) {
				t.Errorf("GetCommand() args = %v, want %v", cmd.Args[1:], tt.wantArgs)
			}
		})
	}
}

func vlcIntf() string {
	if runtime.GOOS == "darwin" {
		return "macosx"
	}
	return "dummy"
}

func TestPlayerRegistry_GetResumeCommand(t *testing.T) {
	registry := testRegistry()

	tests := []struct {
		name     string
		player   string
		at       Resume
		wantArgs []string
	}{
		{"position and rate", "mpv", Resume{Position: 754.8, Rate: 1.5}, []string{"--no-video", "--start=754", "--speed=1.5", episodeURL}},
		{"normal speed is left out", "mpv", Resume{Position: 60, Rate: 1}, []string{"--no-video", "--start=60", episodeURL}},
		{"under a second starts from the top", "mpv", Resume{Position: 0.4, Rate: 2}, []string{"--no-video", "--speed=2", episodeURL}},
		{"split flag and value", "mplayer", Resume{Position: 90, Rate: 1.25}, []string{"-novideo", "-ss", "90", episodeURL}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := registry.GetResumeCommand(tt.player, TypeAudio, episodeURL, tt.at)
			if err != nil {
				t.Fatalf("GetResumeCommand() error = %v", err)
			}
			if !slices.Equal(cmd.Args[1:], tt.wantArgs) {
				t.Errorf("args = %v, want %v", cmd.Args[1:], tt.wantArgs)
			}
		})
	}
}

func TestPlayerRegistry_GetCommandDoesNotAliasArgs(t *testing.T) {
	registry := testRegistry()
	first, err := registry.GetResumeCommand("mpv", TypeAudio, "http://a.example/1.mp3", Resume{Position: 10})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := registry.GetCommand("mpv", TypeAudio, "http://a.example/2.mp3"); err != nil {
		t.Fatal(err)
	}
	if got := first.Args[len(first.Args)-1]; got != "http://a.example/1.mp3" {
		t.Errorf("first command was modified, last arg = %s", got)
	}
	if def := registry.players["mpv"].Audio.StartArgs[0]; def != "--start={pos}" {
		t.Errorf("template was rewritten in place: %s", def)
	}
}

func TestPlayerRegistry_getArgs(t *testing.T) {
	registry := &PlayerRegistry{}

	if got := registry.getArgs(nil); got != nil {
		t.Errorf("getArgs(nil) = %v, want nil", got)
	}

	cfg := &PlayerMediaTypeConfig{
		Args:       []string{"--default"},
		ArgsDarwin: []string{"--darwin"},
		ArgsLinux:  []string{"--linux"},
	}
	want := "--default"
	switch runtime.GOOS {
	case "darwin":
		want = "--darwin"
	case "linux":
		want = "--linux"
	}
	if got := registry.getArgs(cfg); len(got) != 1 || got[0] != want {
		t.Errorf("getArgs() = %v, want [%s]", got, want)
	}
}

func TestPlayerRegistry_FindAvailablePlayer(t *testing.T) {
	registry := &PlayerRegistry{}

	if got := registry.FindAvailablePlayer(nil); got != "" {
		t.Errorf("empty list = %q, want empty", got)
	}
	if got := registry.FindAvailablePlayer([]string{"nonexistent1", "nonexistent2"}); got != "" {
		t.Errorf("missing players = %q, want empty", got)
	}
	if runtime.GOOS != "windows" {
		if got := registry.FindAvailablePlayer([]string{"nonexistent", "sh"}); got != "sh" {
			t.Errorf("FindAvailablePlayer() = %q, want sh", got)
		}
	}
}

func TestNewPlayerRegistry_Embedded(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	registry, err := NewPlayerRegistry()
	if err != nil {
		t.Fatalf("NewPlayerRegistry() error = %v", err)
	}
	mpv, ok := registry.players["mpv"]
	if !ok {
		t.Fatal("embedded definitions should include mpv")
	}
	if mpv.Audio == nil || len(mpv.Audio.StartArgs) == 0 || len(mpv.Audio.RateArgs) == 0 {
		t.Error("embedded mpv should know how to resume audio")
	}
}

func TestPlayerRegistry_Merge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "players.toml")
	content := `
[players.mpv]
description = "custom mpv"
platforms = ["darwin", "linux", "windows"]

[players.mpv.audio]
args = ["--custom"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	registry := testRegistry()
	if err := registry.Merge(path); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	cmd, err := registry.GetResumeCommand("mpv", TypeAudio, episodeURL, Resume{Position: 30})
	if err != nil {
		t.Fatal(err)
	}
	// The user definition replaces the whole entry, resume args included.
	if !slices.Equal(cmd.Args[1:], []string{"--custom", episodeURL}) {
		t.Errorf("merged args = %v", cmd.Args[1:])
	}

	if err := registry.Merge(filepath.Join(t.TempDir(), "missing.toml")); !os.IsNotExist(err) {
		t.Errorf("Merge(missing) error = %v, want not-exist", err)
	}
}
