package media

import (
	"testing"

	"github.com/pders01/fwrdcast/internal/config"
)

func TestNewLauncher(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := config.MediaConfig{
		Darwin:        config.MediaPlayers{Video: []string{"nonexistent-video"}, Audio: []string{"nonexistent-audio"}},
		Linux:         config.MediaPlayers{Video: []string{"nonexistent-video"}, Audio: []string{"nonexistent-audio"}},
		Windows:       config.MediaPlayers{Video: []string{"nonexistent-video"}, Audio: []string{"nonexistent-audio"}},
		DefaultOpener: "test-opener",
	}
	launcher := NewLauncher(cfg)
	if launcher == nil {
		t.Fatal("NewLauncher() returned nil")
	}

	// Nothing installed, so every type falls back to the opener.
	if launcher.audioPlayer != "test-opener" || launcher.videoPlayer != "test-opener" {
		t.Errorf("fallback players = %q/%q, want test-opener", launcher.audioPlayer, launcher.videoPlayer)
	}
	if launcher.Detector() == nil {
		t.Error("Detector() returned nil")
	}
}

func TestLauncher_Command(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	launcher := NewLauncher(config.MediaConfig{DefaultOpener: "test-opener"})
	launcher.audioPlayer = "mpv"

	cmd, err := launcher.Command("https://cdn.example.com/ep1.mp3")
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	if len(cmd.Args) < 2 || cmd.Args[len(cmd.Args)-1] != "https://cdn.example.com/ep1.mp3" {
		t.Errorf("Command() args = %v", cmd.Args)
	}

	cmd, err = launcher.Command("https://example.com/post.html")
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	if cmd.Args[0] != "test-opener" {
		t.Errorf("links should go to the default opener, got %v", cmd.Args)
	}

	launcher.defaultOpener = ""
	if _, err := launcher.Command("https://example.com/post.html"); err != ErrNoOpener {
		t.Errorf("Command() error = %v, want ErrNoOpener", err)
	}
}

func TestLauncher_CommandAt(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	launcher := NewLauncher(config.MediaConfig{DefaultOpener: "test-opener"})
	launcher.audioPlayer = "mpv"

	cmd, err := launcher.CommandAt("https://cdn.example.com/ep1.mp3", Resume{Position: 125, Rate: 1.5})
	if err != nil {
		t.Fatalf("CommandAt() error = %v", err)
	}
	want := map[string]bool{"--start=125": false, "--speed=1.5": false}
	for _, a := range cmd.Args {
		if _, ok := want[a]; ok {
			want[a] = true
		}
	}
	for arg, seen := range want {
		if !seen {
			t.Errorf("CommandAt() args %v missing %s", cmd.Args, arg)
		}
	}

	// Links never resume.
	cmd, err = launcher.CommandAt("https://example.com/post.html", Resume{Position: 125})
	if err != nil {
		t.Fatal(err)
	}
	if len(cmd.Args) != 2 {
		t.Errorf("opener args = %v, want just the URL", cmd.Args)
	}
}
