package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/pders01/fwrdcast/internal/config"
)

// keyMap feeds the full help overlay. Dispatch itself compares key
// strings in KeyHandler.
type keyMap struct {
	Open        key.Binding
	Back        key.Binding
	Quit        key.Binding
	Help        key.Binding
	NewFollow   key.Binding
	Rename      key.Binding
	Delete      key.Binding
	Search      key.Binding
	Refresh     key.Binding
	ToggleCheck key.Binding
	ToggleRead  key.Binding
	ToggleStar  key.Binding
	ClearUnread key.Binding
	UnreadOnly  key.Binding
	OpenMedia   key.Binding
	PlayPause   key.Binding
	SkipForward key.Binding
	SkipRewind  key.Binding
	NextEpisode key.Binding
	PrevEpisode key.Binding
	CycleRate   key.Binding
	ToggleLoop  key.Binding
	ClosePlayer key.Binding
}

func newKeyMap(cfg config.KeyConfig) keyMap {
	b := cfg.Bindings
	mod := cfg.Modifier + "+"
	bind := func(k, desc string) key.Binding {
		return key.NewBinding(key.WithKeys(k), key.WithHelp(k, desc))
	}
	return keyMap{
		Open:        bind("enter", "open"),
		Back:        bind(b.Back, "back"),
		Quit:        bind(b.Quit, "quit"),
		Help:        bind(b.Help, "help"),
		NewFollow:   bind(mod+b.NewFollow, "follow feed"),
		Rename:      bind(mod+b.Rename, "rename folder"),
		Delete:      bind(mod+b.Delete, "delete"),
		Search:      bind(mod+b.Search, "search"),
		Refresh:     bind(mod+b.Refresh, "refresh"),
		ToggleCheck: bind(b.ToggleCheck, "select"),
		ToggleRead:  bind(b.ToggleRead, "toggle read"),
		ToggleStar:  bind(b.ToggleStar, "toggle star"),
		ClearUnread: bind(b.ClearUnread, "mark all read"),
		UnreadOnly:  bind(b.UnreadOnly, "unread only"),
		OpenMedia:   bind(b.OpenMedia, "open externally"),
		PlayPause:   bind(b.PlayPause, "play/pause"),
		SkipForward: bind(b.SkipForward, "skip forward"),
		SkipRewind:  bind(b.SkipRewind, "rewind"),
		NextEpisode: bind(b.NextEpisode, "next episode"),
		PrevEpisode: bind(b.PrevEpisode, "previous episode"),
		CycleRate:   bind(b.CycleRate, "playback rate"),
		ToggleLoop:  bind(b.ToggleLoop, "loop"),
		ClosePlayer: bind(b.ClosePlayer, "close player"),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Back, k.PlayPause, k.Search, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Open, k.Back, k.Search, k.Refresh, k.Help, k.Quit},
		{k.NewFollow, k.Rename, k.Delete, k.ToggleCheck, k.ClearUnread, k.UnreadOnly},
		{k.ToggleRead, k.ToggleStar, k.OpenMedia},
		{k.PlayPause, k.SkipForward, k.SkipRewind, k.NextEpisode, k.PrevEpisode, k.CycleRate, k.ToggleLoop, k.ClosePlayer},
	}
}
