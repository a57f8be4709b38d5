package media

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/pders01/fwrdcast/internal/config"
	"github.com/pders01/fwrdcast/internal/debuglog"
)

var ErrNoOpener = errors.New("no application found to open URL")

// Launcher hands enclosures and links to external applications.
type Launcher struct {
	videoPlayer   string
	audioPlayer   string
	defaultOpener string
	registry      *PlayerRegistry
	detector      *TypeDetector
}

func NewLauncher(cfg config.MediaConfig) *Launcher {
	registry, err := NewPlayerRegistry()
	if err != nil {
		debuglog.Warnf("player definitions: %v", err)
		if registry == nil {
			registry = &PlayerRegistry{players: make(map[string]PlayerDefinition)}
		}
	}

	detector, err := NewTypeDetector()
	if err != nil {
		debuglog.Warnf("media types: %v", err)
		detector = &TypeDetector{config: &TypesConfig{}}
	}

	l := &Launcher{
		defaultOpener: cfg.DefaultOpener,
		registry:      registry,
		detector:      detector,
	}
	if l.defaultOpener == "" {
		l.defaultOpener = detector.GetDefaultOpener()
	}

	players := cfg.Players()
	l.videoPlayer = registry.FindAvailablePlayer(players.Video)
	l.audioPlayer = registry.FindAvailablePlayer(players.Audio)
	if l.videoPlayer == "" {
		l.videoPlayer = l.defaultOpener
	}
	if l.audioPlayer == "" {
		l.audioPlayer = l.defaultOpener
	}
	return l
}

// Detector exposes the type table used by Open.
func (l *Launcher) Detector() *TypeDetector { return l.detector }

// Command returns the command Open would start for url.
func (l *Launcher) Command(url string) (*exec.Cmd, error) {
	return l.CommandAt(url, Resume{})
}

// CommandAt returns the command OpenAt would start.
func (l *Launcher) CommandAt(url string, at Resume) (*exec.Cmd, error) {
	mediaType := l.detector.DetectType(url)

	var playerName string
	switch mediaType {
	case TypeVideo:
		playerName = l.videoPlayer
	case TypeAudio:
		playerName = l.audioPlayer
	default:
		playerName = l.defaultOpener
	}
	if playerName == "" {
		return nil, ErrNoOpener
	}

	cmd, err := l.registry.GetResumeCommand(playerName, mediaType, url, at)
	if err != nil {
		debuglog.Debugf("falling back to plain %s: %v", playerName, err)
		cmd = exec.Command(playerName, url)
	}
	return cmd, nil
}

// Open starts the matching application detached.
func (l *Launcher) Open(url string) error {
	return l.OpenAt(url, Resume{})
}

// OpenAt is Open for an episode already in progress.
func (l *Launcher) OpenAt(url string, at Resume) error {
	cmd, err := l.CommandAt(url, at)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
