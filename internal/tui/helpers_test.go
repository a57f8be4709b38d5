package tui

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/fwrdcast/internal/api"
	"github.com/pders01/fwrdcast/internal/config"
	"github.com/pders01/fwrdcast/internal/cursor"
	"github.com/pders01/fwrdcast/internal/media"
	"github.com/pders01/fwrdcast/internal/model"
	"github.com/pders01/fwrdcast/internal/pager"
	"github.com/pders01/fwrdcast/internal/search"
	"github.com/pders01/fwrdcast/internal/store"
)

var errServer = errors.New("server unavailable")

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeService records calls and serves a fixed article set.
type fakeService struct {
	mu       sync.Mutex
	buckets  []model.FolderBucket
	totals   model.Totals
	articles []model.Article
	fail     map[string]error
	calls    []string
	followed model.Follow
	// gate, when set, holds ListArticles until it is closed or the
	// request is cancelled.
	gate chan struct{}
}

func newFakeService() *fakeService {
	return &fakeService{fail: map[string]error{}}
}

func (f *fakeService) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.fail[name]
}

func (f *fakeService) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeService) ListArticles(ctx context.Context, q api.ListQuery) ([]model.Article, error) {
	if err := f.record("ListArticles"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-gate:
		}
	}
	f.mu.Lock()
	sorted := append([]model.Article(nil), f.articles...)
	f.mu.Unlock()
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].OrderedAt.Equal(sorted[j].OrderedAt) {
			return sorted[i].OrderedAt.After(sorted[j].OrderedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	var out []model.Article
	for _, a := range sorted {
		if q.Key.Kind == model.ListFeed && a.FeedID != q.Key.ID {
			continue
		}
		if cursor.Excludes(q.Cursor, a) {
			continue
		}
		if q.PerPage > 0 && len(out) == q.PerPage {
			break
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeService) Collections(context.Context) ([]model.FolderBucket, error) {
	return f.buckets, f.record("Collections")
}

func (f *fakeService) Totals(context.Context) (model.Totals, error) {
	return f.totals, f.record("Totals")
}

func (f *fakeService) Me(context.Context) (model.User, error) {
	return model.User{ID: "u1", Email: "listener@example.com"}, f.record("Me")
}

func (f *fakeService) Article(_ context.Context, id string) (model.Article, error) {
	if err := f.record("Article"); err != nil {
		return model.Article{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.articles {
		if a.ID == id {
			a.Content = "Full content of " + a.Title
			return a, nil
		}
	}
	return model.Article{}, &api.StatusError{StatusCode: 404}
}

func (f *fakeService) SetRead(context.Context, string, bool) error    { return f.record("SetRead") }
func (f *fakeService) SetStarred(context.Context, string, bool) error { return f.record("SetStarred") }

func (f *fakeService) ClearUnread(context.Context, []string, []string) error {
	return f.record("ClearUnread")
}

func (f *fakeService) Follow(_ context.Context, feedURL, folderID string) (model.Follow, error) {
	if err := f.record("Follow"); err != nil {
		return model.Follow{}, err
	}
	return model.Follow{
		FeedID:   "f9",
		FolderID: folderID,
		Feed:     &model.Feed{ID: "f9", Title: "New Show", URL: feedURL},
	}, nil
}

func (f *fakeService) Unfollow(context.Context, string) error { return f.record("Unfollow") }

func (f *fakeService) RenameFolder(context.Context, string, string) error {
	return f.record("RenameFolder")
}

func (f *fakeService) DeleteFolders(context.Context, []string, bool, []string) error {
	return f.record("DeleteFolders")
}

type fakePlayer struct {
	calls []string
	err   error
}

func (p *fakePlayer) do(name string) error {
	p.calls = append(p.calls, name)
	return p.err
}

func (p *fakePlayer) Select(id string) error      { return p.do("Select:" + id) }
func (p *fakePlayer) Toggle() error               { return p.do("Toggle") }
func (p *fakePlayer) Next() error                 { return p.do("Next") }
func (p *fakePlayer) Prev() error                 { return p.do("Prev") }
func (p *fakePlayer) SkipForward() error          { return p.do("SkipForward") }
func (p *fakePlayer) SkipRewind() error           { return p.do("SkipRewind") }
func (p *fakePlayer) CycleRate() (float64, error) { return 1.25, p.do("CycleRate") }
func (p *fakePlayer) ToggleLoop() (bool, error)   { return true, p.do("ToggleLoop") }
func (p *fakePlayer) Close() error                { return p.do("Close") }
func (p *fakePlayer) Tick()                       { _ = p.do("Tick") }
func (p *fakePlayer) Err() error                  { return nil }

type fakeOpener struct {
	opened  []string
	resumes []media.Resume
}

func (o *fakeOpener) Open(url string) error {
	o.opened = append(o.opened, url)
	return nil
}

func (o *fakeOpener) OpenAt(url string, at media.Resume) error {
	o.opened = append(o.opened, url)
	o.resumes = append(o.resumes, at)
	return nil
}

type fakeSearcher struct {
	results []search.Result
}

func (s *fakeSearcher) Search(string, int) ([]search.Result, error) { return s.results, nil }

type fixture struct {
	app     *App
	store   *store.Dispatcher
	service *fakeService
	player  *fakePlayer
}

func episode(id, feedID string, at time.Time) model.Article {
	return model.Article{
		ID:           id,
		FeedID:       feedID,
		Title:        "Episode " + id,
		Summary:      "About " + id,
		ContentHash:  "h-" + id,
		OrderedAt:    at,
		Unread:       true,
		Type:         model.FeedTypePodcast,
		EnclosureURL: "https://cdn.example.com/" + id + ".mp3",
	}
}

func defaultBuckets() []model.FolderBucket {
	return []model.FolderBucket{
		{
			Folder: model.Folder{ID: "d1", Name: "Shows"},
			Follows: []model.Follow{
				{FeedID: "f1", Primary: true, Feed: &model.Feed{ID: "f1", Title: "Audio Stories", URL: "https://stories.example.com/feed"}},
			},
		},
		{
			Folder: model.Folder{ID: model.NoFolderID},
			Follows: []model.Follow{
				{FeedID: "f2", Feed: &model.Feed{ID: "f2", Title: "Go Weekly", URL: "https://golangweekly.com/rss"}},
			},
		},
	}
}

// newFixture builds an app over a real dispatcher and pager, with the
// default collections already loaded.
func newFixture(t *testing.T, pageSize int) *fixture {
	t.Helper()
	svc := newFakeService()
	svc.buckets = defaultBuckets()
	svc.totals = model.Totals{Primary: 3, Feed: 2}
	for i, id := range []string{"a1", "a2", "a3"} {
		svc.articles = append(svc.articles, episode(id, "f1", t0.Add(-time.Duration(i)*time.Hour)))
	}

	d := store.NewDispatcher(store.New())
	d.Dispatch(store.BatchCollections{Buckets: svc.buckets})
	d.Dispatch(store.RefreshTotals{Totals: svc.totals})

	p := &fakePlayer{}
	app := NewApp(config.TestConfig(), Deps{
		Store:    d,
		Service:  svc,
		Pager:    pager.New(svc, d, pageSize, 0),
		Player:   p,
		Searcher: &fakeSearcher{},
	})
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	t.Cleanup(app.Close)
	return &fixture{app: app, store: d, service: svc, player: p}
}

// collect runs cmd and any batch it expands to, returning the messages
// produced. Commands that block (ticks, the store watcher) are abandoned
// after a short wait.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()
	select {
	case msg := <-out:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var msgs []tea.Msg
			for _, c := range batch {
				msgs = append(msgs, collect(c)...)
			}
			return msgs
		}
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(250 * time.Millisecond):
		return nil
	}
}

// settle feeds every message cmd produces back into the app, following
// the commands those return a few levels deep, and then adopts the
// latest store state.
func (f *fixture) settle(cmd tea.Cmd) {
	f.settleDepth(cmd, 4)
	f.app.syncState()
}

func (f *fixture) settleDepth(cmd tea.Cmd, depth int) {
	if depth == 0 {
		return
	}
	for _, msg := range collect(cmd) {
		switch msg.(type) {
		case stateMsg, tickMsg, statusClearMsg:
			continue
		}
		_, next := f.app.Update(msg)
		f.settleDepth(next, depth-1)
	}
}

func (f *fixture) press(keys ...tea.KeyMsg) {
	for _, k := range keys {
		_, cmd := f.app.Update(k)
		f.settle(cmd)
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
)

// selectRow moves the feed list cursor to the row with label.
func (f *fixture) selectRow(t *testing.T, label string) {
	t.Helper()
	for i, item := range f.app.feedList.Items() {
		if row, ok := item.(feedItem); ok && row.label == label {
			f.app.feedList.Select(i)
			return
		}
	}
	t.Fatalf("no feed row %q", label)
}
