package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/fwrdcast/internal/config"
	"github.com/pders01/fwrdcast/internal/media"
	"github.com/pders01/fwrdcast/internal/model"
	"github.com/pders01/fwrdcast/internal/pager"
	"github.com/pders01/fwrdcast/internal/plugins"
	"github.com/pders01/fwrdcast/internal/search"
	"github.com/pders01/fwrdcast/internal/store"
)

// Store is the dispatcher surface the app needs.
type Store interface {
	State() store.State
	Dispatch(action store.Action) store.State
	Subscribe(fn func(store.State)) (unsubscribe func())
}

// Service is the remote collection API.
type Service interface {
	Collections(ctx context.Context) ([]model.FolderBucket, error)
	Totals(ctx context.Context) (model.Totals, error)
	Me(ctx context.Context) (model.User, error)
	Article(ctx context.Context, id string) (model.Article, error)
	SetRead(ctx context.Context, id string, read bool) error
	SetStarred(ctx context.Context, id string, starred bool) error
	ClearUnread(ctx context.Context, feedIDs, folderIDs []string) error
	Follow(ctx context.Context, feedURL, folderID string) (model.Follow, error)
	Unfollow(ctx context.Context, feedID string) error
	RenameFolder(ctx context.Context, id, name string) error
	DeleteFolders(ctx context.Context, ids []string, unfollow bool, feedIDs []string) error
}

type Pager interface {
	Load(ctx context.Context, key model.ListKey) *pager.Task
	Reset(key model.ListKey)
}

// Player is the playback controller.
type Player interface {
	Select(articleID string) error
	Toggle() error
	Next() error
	Prev() error
	SkipForward() error
	SkipRewind() error
	CycleRate() (float64, error)
	ToggleLoop() (bool, error)
	Close() error
	Tick()
	Err() error
}

type Opener interface {
	Open(url string) error
}

// ResumeOpener is an Opener that can pick up an episode where the
// session left it.
type ResumeOpener interface {
	OpenAt(url string, at media.Resume) error
}

// Resolver turns a pasted site URL into the feed URL to follow.
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) (*plugins.FeedInfo, error)
}

// Deps wires the app to the rest of the client. Player, Searcher, Opener
// and Resolver are optional.
type Deps struct {
	Store    Store
	Service  Service
	Pager    Pager
	Player   Player
	Searcher search.Searcher
	Opener   Opener
	Resolver Resolver
}

// deleteTarget is what the delete confirmation acts on.
type deleteTarget struct {
	label     string
	folderIDs []string
	feedIDs   []string
}

type App struct {
	config     *config.Config
	store      Store
	service    Service
	pager      Pager
	player     Player
	searcher   search.Searcher
	opener     Opener
	resolver   Resolver
	keyHandler *KeyHandler
	keys       keyMap

	ctx         context.Context
	cancel      context.CancelFunc
	changes     chan struct{}
	unsubscribe func()
	state       store.State

	feedList    list.Model
	articleList list.Model
	searchList  list.Model
	searchInput textinput.Model
	textInput   textinput.Model
	viewport    viewport.Model
	help        help.Model
	progress    progress.Model

	view           View
	previousView   View
	cameFromSearch bool
	showFullHelp   bool
	currentKey     model.ListKey
	currentTitle   string
	renameTarget   model.Folder
	deleteTarget   *deleteTarget

	readerContent   string
	loadingArticle  bool
	glamourRenderer *glamour.TermRenderer
	rendererWidth   int

	searchSeq            int
	pendingSearchQuery   string
	searchDebounceMillis int

	status     string
	statusKind StatusKind
	statusSeq  int

	width  int
	height int
}

func NewApp(cfg *config.Config, deps Deps) *App {
	ApplyColors(cfg.UI.Colors)

	feedList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	feedList.Title = "› " + AppName
	feedList.SetShowStatusBar(false)
	feedList.SetFilteringEnabled(true)
	feedList.SetShowHelp(false)

	articleList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	articleList.Title = "› articles"
	articleList.SetShowStatusBar(false)
	articleList.SetFilteringEnabled(true)
	articleList.SetShowHelp(false)

	searchList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	searchList.Title = "› search results"
	searchList.SetShowStatusBar(false)
	searchList.SetShowHelp(false)
	searchList.SetFilteringEnabled(false)

	ti := textinput.New()
	ti.Placeholder = "Enter feed URL..."

	si := textinput.New()
	si.Placeholder = "Search feeds and articles..."

	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		config:               cfg,
		store:                deps.Store,
		service:              deps.Service,
		pager:                deps.Pager,
		player:               deps.Player,
		searcher:             deps.Searcher,
		opener:               deps.Opener,
		resolver:             deps.Resolver,
		keys:                 newKeyMap(cfg.Keys),
		ctx:                  ctx,
		cancel:               cancel,
		changes:              make(chan struct{}, 1),
		state:                deps.Store.State(),
		feedList:             feedList,
		articleList:          articleList,
		searchList:           searchList,
		searchInput:          si,
		textInput:            ti,
		viewport:             viewport.New(0, 0),
		help:                 help.New(),
		progress:             progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		view:                 ViewFeeds,
		previousView:         ViewFeeds,
		searchDebounceMillis: 150,
	}
	app.keyHandler = NewKeyHandler(app, cfg)

	// The subscriber runs under the dispatcher lock; it only signals.
	app.unsubscribe = deps.Store.Subscribe(func(store.State) {
		select {
		case app.changes <- struct{}{}:
		default:
		}
	})
	app.refreshItems()

	return app
}

// Close stops background work started by the app.
func (a *App) Close() {
	a.cancel()
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	maxWidth := a.config.UI.Article.WordWrapMaxWidth
	minWidth := a.config.UI.Article.WordWrapMinWidth

	wordWrapWidth := (a.width * 9) / 10
	if wordWrapWidth > maxWidth {
		wordWrapWidth = maxWidth
	}
	if wordWrapWidth < minWidth {
		wordWrapWidth = minWidth
	}
	if a.width < 50 {
		wordWrapWidth = max(a.width-4, 20)
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		style := glamour.WithAutoStyle()
		if s := a.config.UI.Article.GlamourStyle; s != "" && s != "auto" {
			style = glamour.WithStandardStyle(s)
		}
		r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(wordWrapWidth))
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		a.bootstrap(),
		a.waitForState(),
		tick(),
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case stateMsg:
		a.syncState()
		return a, tea.Batch(a.waitForState(), a.maybeLoadMore())

	case tickMsg:
		if a.player != nil {
			a.player.Tick()
		}
		return a, tick()

	case bootstrapMsg:
		if msg.err != nil {
			a.setStatus(msg.err.Error(), StatusError)
			return a, nil
		}
		a.store.Dispatch(store.BatchCollections{Buckets: msg.buckets})
		if msg.totals != nil {
			a.store.Dispatch(store.RefreshTotals{Totals: *msg.totals})
		}
		if msg.user != nil {
			a.store.Dispatch(store.SetUser{User: *msg.user})
		}
		a.syncState()
		if msg.refresh {
			a.setStatus(MsgRefreshSummary(len(a.state.Follows), a.state.Totals.Primary, a.docCount()), StatusSuccess)
			if a.view == ViewArticles {
				cmds = append(cmds, a.reloadList())
			}
		}

	case totalsMsg:
		a.store.Dispatch(store.RefreshTotals{Totals: msg.totals})
		a.syncState()

	case pageLoadedMsg:
		if msg.err != nil {
			a.setStatus(wrapErr("loading "+msg.key.String(), msg.err).Error(), StatusError)
		}

	case articleLoadedMsg:
		return a, a.handleArticleLoaded(msg)

	case articleRenderedMsg:
		if a.view == ViewReader && a.state.Current != nil && a.state.Current.ID == msg.id {
			a.readerContent = msg.content
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.loadingArticle = false
		}

	case remoteFailedMsg:
		if msg.revert != nil {
			a.store.Dispatch(msg.revert)
			a.syncState()
		}
		a.setStatus(msg.err.Error(), StatusError)

	case followedMsg:
		a.store.Dispatch(store.Follow{Follow: msg.follow})
		a.syncState()
		a.view = ViewFeeds
		a.textInput.Blur()
		cmds = append(cmds, a.setStatusTimed(MsgFollowed(msg.follow.Title()), StatusSuccess, 3*time.Second))

	case renamedMsg:
		a.store.Dispatch(store.RenameFolder{ID: msg.id, Name: msg.name})
		a.syncState()
		a.view = ViewFeeds
		a.textInput.Blur()
		cmds = append(cmds, a.setStatusTimed(MsgFolderRenamed, StatusSuccess, 3*time.Second))

	case deletedMsg:
		if len(msg.folderIDs) > 0 {
			a.store.Dispatch(store.DeleteFolders{IDs: msg.folderIDs, Unfollow: true, FeedIDs: msg.folderFeeds})
		}
		for _, id := range msg.feedIDs {
			a.store.Dispatch(store.Unfollow{FeedID: id})
		}
		a.store.Dispatch(store.ClearSelection{})
		a.syncState()
		a.deleteTarget = nil
		a.view = ViewFeeds
		cmds = append(cmds, a.setStatusTimed(MsgDeleted(len(msg.folderIDs), len(msg.folderFeeds)+len(msg.feedIDs)), StatusSuccess, 3*time.Second))

	case clearedMsg:
		before := len(a.state.List.IDs)
		a.store.Dispatch(store.ClearUnread{FeedIDs: msg.feedIDs, FolderIDs: msg.folderIDs})
		a.store.Dispatch(store.ClearSelection{})
		a.syncState()
		cmds = append(cmds, a.setStatusTimed(MsgCleared(before-len(a.state.List.IDs)), StatusSuccess, 3*time.Second), a.loadTotals())
		if !a.state.UnreadOnly && a.view == ViewArticles {
			cmds = append(cmds, a.reloadList())
		}

	case searchDebounceFireMsg:
		if msg.seq == a.searchSeq {
			cmds = append(cmds, a.performSearch(a.pendingSearchQuery))
		}

	case searchResultsMsg:
		if a.view == ViewSearch && msg.query == a.pendingSearchQuery {
			a.searchList.SetItems(msg.items)
			if len(msg.items) == 0 && len(msg.query) > 1 {
				a.setStatus(MsgNoResults, StatusInfo)
			} else if len(msg.query) > 1 {
				a.setStatus(MsgResultsCount(len(msg.items)), StatusInfo)
			}
		}

	case statusClearMsg:
		if msg.seq == a.statusSeq {
			a.status = ""
		}

	case errorMsg:
		a.setStatus(msg.err.Error(), StatusError)
	}

	switch a.view {
	case ViewReader:
		switch msg.(type) {
		case tea.WindowSizeMsg, tea.MouseMsg:
			newViewport, cmd := a.viewport.Update(msg)
			a.viewport = newViewport
			cmds = append(cmds, cmd)
		}
	case ViewFollow, ViewRenameFolder:
		newTextInput, cmd := a.textInput.Update(msg)
		a.textInput = newTextInput
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

// syncState adopts the latest store snapshot and rebuilds list items.
func (a *App) syncState() {
	hadPlayer := a.state.Player != nil
	a.state = a.store.State()
	a.refreshItems()
	if hadPlayer != (a.state.Player != nil) && a.height > 0 {
		a.layout()
	}
}

func (a *App) refreshItems() {
	a.feedList.SetItems(buildFeedItems(a.state))

	if a.currentKey.IsZero() || a.state.List.Key != a.currentKey {
		a.articleList.SetItems(nil)
		return
	}
	a.articleList.SetItems(buildArticleItems(a.state, a.config.UI.Article.MaxSummaryLength))
}

func (a *App) layout() {
	body := a.bodyHeight()

	a.feedList.SetSize(a.width, body)
	a.articleList.SetSize(a.width, body)
	a.searchList.SetSize(a.width, max(body-7, 5))
	a.viewport.Width = a.width
	a.viewport.Height = body

	inputWidth := a.width - 4
	if inputWidth < 20 {
		inputWidth = a.width
	}
	a.textInput.Width = inputWidth
	a.help.Width = a.width
}

func (a *App) bodyHeight() int {
	chrome := 2
	if a.state.Player != nil {
		chrome++
	}
	return max(a.height-chrome, 3)
}

func (a *App) View() string {
	height := a.bodyHeight()
	var content string

	switch a.view {
	case ViewFeeds:
		if len(a.state.Follows) == 0 && len(a.state.Folders) == 0 {
			content = renderCentered(a.width, height, GetWelcomeMessage())
		} else {
			content = a.feedList.View()
		}
	case ViewArticles:
		if len(a.articleList.Items()) == 0 {
			msg := MsgLoadingMore
			if a.state.List.Key == a.currentKey && a.state.List.Exhausted {
				msg = "No articles"
			}
			content = lipgloss.JoinVertical(lipgloss.Top,
				renderHeader(a.articleList.Title, "", a.width),
				renderCentered(a.width, height-1, renderMuted(msg)))
		} else {
			content = a.articleList.View()
		}
	case ViewReader:
		if a.loadingArticle {
			content = renderCentered(a.width, height, renderMuted(MsgLoadingArticle))
		} else {
			content = a.viewport.View()
		}
	case ViewFollow:
		content = a.renderInputView("› follow feed", "Press Enter to follow, Esc to cancel", height)
	case ViewRenameFolder:
		content = a.renderInputView("› rename folder", "Press Enter to rename, Esc to cancel", height)
	case ViewDeleteConfirm:
		label := "Unknown"
		if a.deleteTarget != nil {
			label = a.deleteTarget.label
		}
		content = renderModal(a.width, height, "⚠ Delete", "Delete and unfollow?", label,
			"Articles of unfollowed feeds leave your lists.", "Enter: confirm • Esc: cancel")
	case ViewSearch:
		content = a.renderSearchView(height)
	}

	if a.showFullHelp {
		content = ContentWrapper(a.width, height).Render(a.help.FullHelpView(a.keys.FullHelp()))
	}

	rows := []string{content}
	if bar := a.playerBar(); bar != "" {
		rows = append(rows, bar)
	}
	separator := SeparatorStyle.Render(strings.Repeat("─", max(a.width-1, 0)))
	rows = append(rows, separator, a.getCustomStatusBar())
	return lipgloss.JoinVertical(lipgloss.Top, rows...)
}

func (a *App) renderInputView(title, helpText string, height int) string {
	return renderCentered(a.width, height, lipgloss.JoinVertical(
		lipgloss.Center,
		TitleStyle.Render(title),
		"",
		renderInputFrame(a.textInput.View(), a.textInput.Focused(), max(a.textInput.Width-4, 10)),
		"",
		renderHelp(helpText),
	))
}

func (a *App) renderSearchView(height int) string {
	inputWidth := a.width - 8
	if inputWidth < 10 {
		inputWidth = a.width - 4
	}
	a.searchInput.Width = inputWidth

	header := "› search"
	if a.previousView == ViewReader && a.state.Current != nil {
		header = "› search in article: " + a.state.Current.Title
	}

	helpText := "No results found • Tab/↑: search box • Esc: back"
	switch {
	case a.searchInput.Focused():
		helpText = "Type to search • Tab/↓: results • Esc: back"
	case len(a.searchList.Items()) > 0:
		helpText = "↑↓: navigate • Enter: select • Tab/↑: search box • Esc: back"
	}

	body := lipgloss.JoinVertical(
		lipgloss.Top,
		renderHeader(header, "", a.width),
		"",
		renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), inputWidth),
		renderMuted(helpText),
		"",
		a.searchList.View(),
	)
	return ContentWrapper(a.width, height).Render(body)
}

func (a *App) playerBar() string {
	p := a.state.Player
	if p == nil {
		return ""
	}
	title := p.ArticleID
	if art, ok := a.state.Lookup(p.ArticleID); ok {
		title = art.Title
	} else if cur := a.state.Current; cur != nil && cur.ID == p.ArticleID {
		title = cur.Title
	}
	failed := a.player != nil && a.player.Err() != nil
	return renderPlayerBar(p, title, a.progress, a.width, failed)
}

func (a *App) getCustomStatusBar() string {
	style := lipgloss.NewStyle().Width(a.width).Padding(0, 1).Foreground(MutedColor)

	if a.status != "" {
		var text string
		switch a.statusKind {
		case StatusError:
			text = StatusErrorStyle.Render("✗ " + a.status)
		case StatusWarn:
			text = StatusWarnStyle.Render(a.status)
		case StatusSuccess:
			text = StatusSuccessStyle.Render("✓ " + a.status)
		default:
			text = StatusInfoStyle.Render(a.status)
		}
		return style.Render(text)
	}

	commands := a.keyHandler.GetHelpForCurrentView()
	return style.Render(strings.Join(commands, " • "))
}

func (a *App) setStatus(msg string, kind StatusKind) {
	a.statusSeq++
	a.status = msg
	a.statusKind = kind
}

// setStatusTimed shows msg and clears it after d unless replaced.
func (a *App) setStatusTimed(msg string, kind StatusKind, d time.Duration) tea.Cmd {
	a.setStatus(msg, kind)
	seq := a.statusSeq
	return tea.Tick(d, func(time.Time) tea.Msg { return statusClearMsg{seq: seq} })
}

func (a *App) clearStatus() {
	a.statusSeq++
	a.status = ""
}

func (a *App) docCount() int {
	if ds, ok := a.searcher.(search.DebugStatser); ok {
		if n, err := ds.DocCount(); err == nil {
			return n
		}
	}
	return -1
}

func (a *App) selectedArticle() (model.Article, bool) {
	if a.view == ViewReader && a.state.Current != nil {
		return *a.state.Current, true
	}
	if i, ok := a.articleList.SelectedItem().(articleItem); ok {
		if art, ok := a.state.Lookup(i.article.ID); ok {
			return art, true
		}
		return i.article, true
	}
	return model.Article{}, false
}

func (a *App) selectedRow() (feedItem, bool) {
	i, ok := a.feedList.SelectedItem().(feedItem)
	return i, ok
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type stateMsg struct{}

type tickMsg time.Time

type bootstrapMsg struct {
	buckets []model.FolderBucket
	totals  *model.Totals
	user    *model.User
	refresh bool
	err     error
}

type totalsMsg struct {
	totals model.Totals
}

type pageLoadedMsg struct {
	key model.ListKey
	err error
}

type articleLoadedMsg struct {
	article   model.Article
	wasUnread bool
	err       error
}

type articleRenderedMsg struct {
	id      string
	content string
}

// remoteFailedMsg reports a failed optimistic update. revert undoes the
// local change.
type remoteFailedMsg struct {
	revert store.Action
	err    error
}

type followedMsg struct {
	follow model.Follow
}

type renamedMsg struct {
	id, name string
}

type deletedMsg struct {
	folderIDs   []string
	folderFeeds []string
	feedIDs     []string
}

type clearedMsg struct {
	feedIDs   []string
	folderIDs []string
}

type searchDebounceFireMsg struct {
	seq int
}

type searchResultsMsg struct {
	query string
	items []list.Item
}

type statusClearMsg struct {
	seq int
}

type errorMsg struct {
	err error
}
