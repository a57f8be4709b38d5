package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/fwrdcast/internal/config"
	"github.com/pders01/fwrdcast/internal/model"
	"github.com/pders01/fwrdcast/internal/search"
	"github.com/pders01/fwrdcast/internal/store"
)

type KeyHandler struct {
	app         *App
	keys        config.KeyBindings
	modifierKey string
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	return &KeyHandler{app: app, keys: cfg.Keys.Bindings, modifierKey: cfg.Keys.Modifier + "+"}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if kh.isFiltering() {
		return kh.delegateToCharm(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(key); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	switch kh.app.view {
	case ViewFollow, ViewRenameFolder:
		return kh.app.textInput.Focused()
	case ViewSearch:
		return kh.app.searchInput.Focused()
	default:
		return false
	}
}

// isFiltering reports whether a list is taking typed filter input.
func (kh *KeyHandler) isFiltering() bool {
	switch kh.app.view {
	case ViewFeeds:
		return kh.app.feedList.SettingFilter()
	case ViewArticles:
		return kh.app.articleList.SettingFilter()
	default:
		return false
	}
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return kh.navigateBack()
	case "ctrl+c":
		return kh.app, tea.Quit
	case "enter":
		return kh.handleTextInputEnter()
	case "tab", "down":
		if kh.app.view == ViewSearch {
			if len(kh.app.searchList.Items()) > 0 {
				kh.app.searchInput.Blur()
				kh.app.searchList.Select(0)
			}
			return kh.app, nil
		}
		return kh.delegateToTextInput(msg)
	default:
		return kh.delegateToTextInput(msg)
	}
}

func (kh *KeyHandler) handleTextInputEnter() (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewFollow:
		input := strings.TrimSpace(kh.app.textInput.Value())
		if input == "" {
			return kh.app, nil
		}
		return kh.app, kh.app.followFeed(input)

	case ViewRenameFolder:
		input := strings.TrimSpace(kh.app.textInput.Value())
		if input == "" {
			return kh.app, nil
		}
		return kh.app, kh.app.renameFolder(input)

	case ViewSearch:
		if items := kh.app.searchList.Items(); len(items) > 0 {
			return kh.selectSearchItem(items[0])
		}
		return kh.app, nil

	default:
		return kh.app, nil
	}
}

// delegateToTextInput passes the key to the appropriate text input
func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewFollow, ViewRenameFolder:
		newTextInput, cmd := kh.app.textInput.Update(msg)
		kh.app.textInput = newTextInput
		return kh.app, cmd

	case ViewSearch:
		prev := kh.app.pendingSearchQuery
		newSearchInput, cmd := kh.app.searchInput.Update(msg)
		kh.app.searchInput = newSearchInput

		newVal := sanitizeSearchInput(kh.app.searchInput.Value())
		if newVal != prev {
			kh.app.pendingSearchQuery = newVal
			kh.app.searchSeq++
			seq := kh.app.searchSeq
			wait := time.Duration(kh.app.searchDebounceMillis) * time.Millisecond
			return kh.app, tea.Batch(cmd, tea.Tick(wait, func(time.Time) tea.Msg { return searchDebounceFireMsg{seq: seq} }))
		}
		return kh.app, cmd

	default:
		return kh.app, nil
	}
}

// handleCustomKeys handles only our custom action keys
func (kh *KeyHandler) handleCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	app := kh.app

	switch key {
	case "ctrl+c":
		return app, tea.Quit, true
	case kh.keys.Back:
		model, cmd := kh.navigateBack()
		return model, cmd, true
	}

	if app.view == ViewDeleteConfirm {
		return kh.handleDeleteConfirmKeys(key)
	}

	if app.showFullHelp {
		app.showFullHelp = false
		return app, nil, true
	}

	switch key {
	case kh.keys.Quit:
		return app, tea.Quit, true
	case kh.keys.Help:
		app.showFullHelp = true
		return app, nil, true
	case kh.modifierKey + kh.keys.Search:
		model, cmd := kh.enterSearchMode()
		return model, cmd, true
	case kh.modifierKey + kh.keys.Refresh:
		return app, app.refresh(), true
	}

	if model, cmd, handled := kh.handlePlayerKeys(key); handled {
		return model, cmd, true
	}

	switch app.view {
	case ViewFeeds:
		return kh.handleFeedsCustomKeys(key)
	case ViewArticles:
		return kh.handleArticlesCustomKeys(key)
	case ViewReader:
		return kh.handleReaderCustomKeys(key)
	default:
		return app, nil, false
	}
}

// handlePlayerKeys controls the active session from any list or reader
// view. Play/pause in the article views starts the highlighted episode.
func (kh *KeyHandler) handlePlayerKeys(key string) (tea.Model, tea.Cmd, bool) {
	app := kh.app
	if app.player == nil {
		return app, nil, false
	}
	if key == kh.keys.PlayPause {
		if app.view == ViewArticles || app.view == ViewReader {
			return app, app.playSelected(), true
		}
		if app.state.Player != nil {
			return app, app.playerAction(app.player.Toggle), true
		}
		return app, nil, false
	}

	if app.state.Player == nil {
		return app, nil, false
	}
	switch key {
	case kh.keys.SkipForward:
		return app, app.playerAction(app.player.SkipForward), true
	case kh.keys.SkipRewind:
		return app, app.playerAction(app.player.SkipRewind), true
	case kh.keys.NextEpisode:
		return app, app.playerAction(app.player.Next), true
	case kh.keys.PrevEpisode:
		return app, app.playerAction(app.player.Prev), true
	case kh.keys.CycleRate:
		return app, app.playerAction(func() error {
			_, err := app.player.CycleRate()
			return err
		}), true
	case kh.keys.ToggleLoop:
		return app, app.playerAction(func() error {
			_, err := app.player.ToggleLoop()
			return err
		}), true
	case kh.keys.ClosePlayer:
		return app, app.playerAction(app.player.Close), true
	}
	return app, nil, false
}

// handleFeedsCustomKeys handles only custom action keys in feeds view
func (kh *KeyHandler) handleFeedsCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	app := kh.app
	switch key {
	case kh.modifierKey + kh.keys.NewFollow:
		app.view = ViewFollow
		app.textInput.Reset()
		app.textInput.Placeholder = "Enter feed URL..."
		app.textInput.Focus()
		app.clearStatus()
		return app, nil, true

	case kh.modifierKey + kh.keys.Rename:
		row, ok := app.selectedRow()
		if !ok || row.kind != rowFolder {
			return app, nil, true
		}
		app.renameTarget = app.state.Folders[row.folderID]
		app.view = ViewRenameFolder
		app.textInput.Reset()
		app.textInput.Placeholder = "Folder name"
		app.textInput.SetValue(app.renameTarget.Name)
		app.textInput.CursorEnd()
		app.textInput.Focus()
		return app, nil, true

	case kh.modifierKey + kh.keys.Delete:
		if t := app.prepareDelete(); t != nil {
			app.deleteTarget = t
			app.view = ViewDeleteConfirm
		}
		return app, nil, true

	case kh.keys.ToggleCheck:
		row, ok := app.selectedRow()
		if !ok {
			return app, nil, true
		}
		switch row.kind {
		case rowFolder:
			app.store.Dispatch(store.ToggleFolderChecked{ID: row.folderID})
		case rowFollow:
			app.store.Dispatch(store.ToggleFollowChecked{FeedID: row.feedID})
		}
		app.syncState()
		return app, nil, true

	case kh.keys.ClearUnread:
		return app, app.clearUnread(), true

	case kh.keys.UnreadOnly:
		return app, app.toggleUnreadOnly(), true

	case "enter":
		row, ok := app.selectedRow()
		if !ok {
			return app, nil, true
		}
		return app, app.openList(row.key, row.label), true
	}
	return app, nil, false
}

func (kh *KeyHandler) handleArticlesCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	app := kh.app
	switch key {
	case kh.keys.ClearUnread:
		return app, app.clearUnread(), true
	case kh.keys.UnreadOnly:
		return app, app.toggleUnreadOnly(), true
	}

	art, ok := app.selectedArticle()
	if !ok {
		return app, nil, false
	}
	switch key {
	case "enter":
		app.cameFromSearch = false
		return app, app.openArticle(art), true
	case kh.keys.ToggleRead:
		return app, app.toggleRead(art), true
	case kh.keys.ToggleStar:
		return app, app.toggleStar(art), true
	case kh.keys.OpenMedia:
		return app, app.openMedia(), true
	}
	return app, nil, false
}

func (kh *KeyHandler) handleReaderCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	app := kh.app
	art, ok := app.selectedArticle()
	if !ok {
		return app, nil, false
	}
	switch key {
	case kh.keys.ToggleStar:
		return app, app.toggleStar(art), true
	case kh.keys.ToggleRead:
		return app, app.toggleRead(art), true
	case kh.keys.OpenMedia:
		return app, app.openMedia(), true
	}
	return app, nil, false
}

func (kh *KeyHandler) handleDeleteConfirmKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "enter", "y":
		return kh.app, kh.app.deleteSelected(), true
	case "n":
		model, cmd := kh.navigateBack()
		return model, cmd, true
	}
	return kh.app, nil, true
}

// delegateToCharm lets Charm handle all keys we don't intercept
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	app := kh.app

	switch app.view {
	case ViewFeeds:
		app.feedList, cmd = app.feedList.Update(msg)
		return app, cmd

	case ViewArticles:
		app.articleList, cmd = app.articleList.Update(msg)
		return app, tea.Batch(cmd, app.maybeLoadMore())

	case ViewSearch:
		if !app.searchInput.Focused() {
			switch msg.String() {
			case "tab", "shift+tab", "/", "i":
				app.searchInput.Focus()
				return app, nil
			case "up":
				if app.searchList.Index() == 0 {
					app.searchInput.Focus()
					return app, nil
				}
			case "enter":
				if item := app.searchList.SelectedItem(); item != nil {
					return kh.selectSearchItem(item)
				}
				return app, nil
			}
		}
		app.searchList, cmd = app.searchList.Update(msg)
		return app, cmd

	case ViewReader:
		app.viewport, cmd = app.viewport.Update(msg)
		return app, cmd

	default:
		return app, nil
	}
}

func (kh *KeyHandler) selectSearchItem(item list.Item) (tea.Model, tea.Cmd) {
	app := kh.app
	switch i := item.(type) {
	case matchItem:
		app.view = ViewReader
		app.scrollToTerm(app.pendingSearchQuery)
		app.setStatus("Match in "+i.match.Field, StatusInfo)
		return app, nil

	case searchResultItem:
		switch i.result.Kind {
		case search.KindFeed:
			if f, ok := app.state.FollowFor(i.result.ID); ok {
				return app, app.openList(model.FeedList(f.FeedID), f.Title())
			}
		case search.KindArticle:
			art, ok := app.state.Lookup(i.result.ID)
			if !ok && app.state.Current != nil && app.state.Current.ID == i.result.ID {
				art, ok = *app.state.Current, true
			}
			if ok {
				app.cameFromSearch = true
				return app, app.openArticle(art)
			}
		}
		app.setStatus("Result no longer available", StatusWarn)
	}
	return app, nil
}

// navigateBack implements smart back navigation
func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	app := kh.app
	app.showFullHelp = false

	switch app.view {
	case ViewFollow, ViewRenameFolder, ViewDeleteConfirm:
		app.view = ViewFeeds
		app.deleteTarget = nil
		app.renameTarget = model.Folder{}
		app.textInput.Blur()
		app.clearStatus()
		return app, nil

	case ViewSearch:
		app.view = app.previousView
		app.searchInput.Reset()
		app.searchInput.Blur()
		app.pendingSearchQuery = ""
		app.searchList.SetItems([]list.Item{})
		app.clearStatus()
		return app, nil

	case ViewFeeds:
		if app.feedList.FilterState() != list.Unfiltered {
			app.feedList.ResetFilter()
		}
		return app, nil

	case ViewArticles:
		if app.articleList.FilterState() != list.Unfiltered {
			app.articleList.ResetFilter()
			return app, nil
		}
		app.leaveList()
		app.view = ViewFeeds
		app.clearStatus()
		return app, nil

	case ViewReader:
		app.clearStatus()
		if app.cameFromSearch {
			app.view = ViewSearch
			app.cameFromSearch = false
			app.searchInput.Blur()
			return app, nil
		}
		if app.currentKey.IsZero() {
			app.view = ViewFeeds
			return app, nil
		}
		app.view = ViewArticles
		return app, app.maybeLoadMore()

	default:
		return app, nil
	}
}

// enterSearchMode transitions to search view. From the reader it
// searches inside the open article.
func (kh *KeyHandler) enterSearchMode() (tea.Model, tea.Cmd) {
	app := kh.app
	if app.view == ViewSearch {
		app.searchInput.Focus()
		return app, nil
	}
	app.previousView = app.view
	app.view = ViewSearch
	app.searchInput.Reset()
	app.searchInput.Focus()
	app.pendingSearchQuery = ""
	app.searchList.SetItems([]list.Item{})
	if app.previousView == ViewReader {
		app.searchList.Title = "› matches"
	} else {
		app.searchList.Title = "› search results"
	}
	app.clearStatus()
	return app, nil
}

// sanitizeSearchInput sanitizes and limits search input length
func sanitizeSearchInput(input string) string {
	input = strings.TrimSpace(input)
	if len(input) > 256 {
		input = input[:256]
	}
	input = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(input)
	return strings.Join(strings.Fields(input), " ")
}

// GetHelpForCurrentView returns only our custom help text (Charm handles the rest)
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	mod := kh.modifierKey
	k := kh.keys
	var help []string

	switch kh.app.view {
	case ViewFeeds:
		help = []string{
			"enter: open",
			mod + k.NewFollow + ": follow",
			k.ToggleCheck + ": select",
			k.ClearUnread + ": mark read",
		}
		if len(kh.app.state.Follows) > 0 || len(kh.app.state.Folders) > 0 {
			help = append(help, mod+k.Rename+": rename", mod+k.Delete+": delete")
		}
		help = append(help, mod+k.Refresh+": refresh", mod+k.Search+": search")

	case ViewArticles:
		help = []string{k.ToggleRead + ": read", k.ToggleStar + ": star", k.UnreadOnly + ": unread only", k.OpenMedia + ": open", mod + k.Search + ": search"}

	case ViewReader:
		help = []string{k.ToggleStar + ": star", k.OpenMedia + ": open media", mod + k.Search + ": find"}

	case ViewSearch:
		return []string{"enter: select", "esc: back"}

	case ViewFollow:
		return []string{"enter: follow", "esc: cancel"}

	case ViewRenameFolder:
		return []string{"enter: rename", "esc: cancel"}

	case ViewDeleteConfirm:
		return []string{"enter: confirm", "esc: cancel"}

	default:
		return []string{}
	}

	if kh.app.player != nil && kh.app.state.Player != nil {
		help = append(help, k.PlayPause+": play/pause", k.SkipRewind+"/"+k.SkipForward+": skip")
	}
	return append(help, k.Help+": help")
}
