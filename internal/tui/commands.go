package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/fwrdcast/internal/debuglog"
	"github.com/pders01/fwrdcast/internal/media"
	"github.com/pders01/fwrdcast/internal/model"
	"github.com/pders01/fwrdcast/internal/search"
	"github.com/pders01/fwrdcast/internal/store"
	"github.com/pders01/fwrdcast/internal/validation"
)

// loadMoreThreshold is how close to the end of the list the cursor has
// to be before the next page is requested.
const loadMoreThreshold = 5

// waitForState blocks until the store changed and reports it.
func (a *App) waitForState() tea.Cmd {
	changes, done := a.changes, a.ctx.Done()
	return func() tea.Msg {
		select {
		case <-changes:
			return stateMsg{}
		case <-done:
			return nil
		}
	}
}

// bootstrap loads collections, totals and the user. Only a collections
// failure is fatal; the others fall back to what the store has.
func (a *App) bootstrap() tea.Cmd {
	return a.fetchCollections(false)
}

func (a *App) refresh() tea.Cmd {
	a.setStatus(MsgRefreshing, StatusInfo)
	return a.fetchCollections(true)
}

func (a *App) fetchCollections(refresh bool) tea.Cmd {
	ctx, svc := a.ctx, a.service
	return func() tea.Msg {
		buckets, err := svc.Collections(ctx)
		if err != nil {
			return bootstrapMsg{err: wrapErr("loading collections", err)}
		}
		msg := bootstrapMsg{buckets: buckets, refresh: refresh}
		if totals, err := svc.Totals(ctx); err == nil {
			msg.totals = &totals
		} else {
			debuglog.Warnf("loading totals: %v", err)
		}
		if user, err := svc.Me(ctx); err == nil {
			msg.user = &user
		} else {
			debuglog.Warnf("loading user: %v", err)
		}
		return msg
	}
}

func (a *App) loadTotals() tea.Cmd {
	ctx, svc := a.ctx, a.service
	return func() tea.Msg {
		totals, err := svc.Totals(ctx)
		if err != nil {
			debuglog.Warnf("loading totals: %v", err)
			return nil
		}
		return totalsMsg{totals: totals}
	}
}

// openList switches to the article view for key and requests its first
// page.
func (a *App) openList(key model.ListKey, title string) tea.Cmd {
	key.UnreadOnly = a.state.UnreadOnly
	a.currentKey = key
	a.currentTitle = title
	a.articleList.Title = "› " + title
	a.articleList.ResetSelected()
	a.articleList.ResetFilter()
	a.view = ViewArticles
	return a.loadPage(key)
}

// loadPage starts the next page fetch synchronously so the loading flag
// is visible before the next key press.
func (a *App) loadPage(key model.ListKey) tea.Cmd {
	task := a.pager.Load(a.ctx, key)
	a.syncState()
	return func() tea.Msg {
		return pageLoadedMsg{key: key, err: task.Err()}
	}
}

// reloadList drops the cached list and fetches it again from the top.
func (a *App) reloadList() tea.Cmd {
	if a.currentKey.IsZero() {
		return nil
	}
	a.pager.Reset(a.currentKey)
	a.articleList.ResetSelected()
	return a.loadPage(a.currentKey)
}

// leaveList unmounts the article list: its pending fetch is cancelled and
// the cached slice dropped, so a late page cannot land after the view is
// gone.
func (a *App) leaveList() {
	if a.currentKey.IsZero() {
		return
	}
	a.pager.Reset(a.currentKey)
	a.currentKey = model.ListKey{}
	a.currentTitle = ""
	a.syncState()
}

func (a *App) maybeLoadMore() tea.Cmd {
	if a.view != ViewArticles || a.currentKey.IsZero() {
		return nil
	}
	ls := a.state.List
	if ls.Key != a.currentKey || ls.Loading || ls.Exhausted {
		return nil
	}
	if a.articleList.FilterState() != list.Unfiltered {
		return nil
	}
	n := len(a.articleList.Items())
	if n > 0 && a.articleList.Index() < n-loadMoreThreshold {
		return nil
	}
	return a.loadPage(a.currentKey)
}

func (a *App) toggleUnreadOnly() tea.Cmd {
	a.store.Dispatch(store.SetViewMode{UnreadOnly: !a.state.UnreadOnly})
	a.syncState()
	if a.state.UnreadOnly {
		a.setStatus("Showing unread only", StatusInfo)
	} else {
		a.setStatus("Showing all articles", StatusInfo)
	}
	if a.view == ViewArticles && !a.currentKey.IsZero() {
		return a.openList(a.currentKey, a.currentTitle)
	}
	return nil
}

// openArticle shows the reader and fetches the full article.
func (a *App) openArticle(art model.Article) tea.Cmd {
	a.view = ViewReader
	a.loadingArticle = true
	a.readerContent = ""
	a.viewport.SetContent("")

	wasUnread := art.Unread
	if cached, ok := a.state.Lookup(art.ID); ok {
		wasUnread = cached.Unread
	}
	ctx, svc := a.ctx, a.service
	return func() tea.Msg {
		full, err := svc.Article(ctx, art.ID)
		if err != nil {
			return articleLoadedMsg{article: art, wasUnread: wasUnread, err: wrapErr("loading article", err)}
		}
		return articleLoadedMsg{article: full, wasUnread: wasUnread || full.Unread}
	}
}

// handleArticleLoaded stores the article, which marks it read locally,
// then confirms the read remotely and renders it. A failed fetch still
// shows the cached copy.
func (a *App) handleArticleLoaded(msg articleLoadedMsg) tea.Cmd {
	if msg.err != nil {
		a.setStatus(msg.err.Error(), StatusError)
	}
	a.store.Dispatch(store.ContentLoaded{Article: msg.article})
	a.syncState()

	cmds := []tea.Cmd{a.renderArticle(msg.article)}
	if msg.wasUnread && msg.err == nil {
		id := msg.article.ID
		cmds = append(cmds, a.remote("marking read", store.MarkUnread{ID: id}, func(ctx context.Context) error {
			return a.service.SetRead(ctx, id, true)
		}))
	}
	return tea.Batch(cmds...)
}

func (a *App) renderArticle(article model.Article) tea.Cmd {
	r, rerr := a.getRenderer()
	feed := feedTitle(a.state, article)
	return func() tea.Msg {
		var content strings.Builder
		content.WriteString(fmt.Sprintf("# %s\n\n", article.Title))
		content.WriteString(fmt.Sprintf("*%s • %s*\n\n", feed, article.OrderedAt.Format("Mon, 02 Jan 2006 15:04")))

		if article.URL != "" {
			content.WriteString(fmt.Sprintf("[Read Online](%s)\n\n", article.URL))
		}
		if article.EnclosureURL != "" {
			content.WriteString(fmt.Sprintf("**Episode:** %s\n\n", article.EnclosureURL))
		}

		content.WriteString("---\n\n")

		if article.Content != "" {
			content.WriteString(article.Content)
		} else {
			content.WriteString(article.Summary)
		}

		if rerr != nil {
			return articleRenderedMsg{id: article.ID, content: "Error initializing renderer: " + rerr.Error()}
		}
		rendered, err := r.Render(content.String())
		if err != nil {
			return articleRenderedMsg{id: article.ID, content: fmt.Sprintf("Failed to render article: %s\n\nPress Escape to go back.", err)}
		}
		return articleRenderedMsg{id: article.ID, content: rendered}
	}
}

// remote runs call in the background. When it fails the revert action is
// dispatched to undo the optimistic local change.
func (a *App) remote(what string, revert store.Action, call func(context.Context) error) tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		if err := call(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return remoteFailedMsg{revert: revert, err: wrapErr(what, err)}
		}
		return nil
	}
}

func (a *App) toggleRead(art model.Article) tea.Cmd {
	id := art.ID
	if art.Unread {
		a.store.Dispatch(store.MarkRead{ID: id})
		a.syncState()
		return a.remote("marking read", store.MarkUnread{ID: id}, func(ctx context.Context) error {
			return a.service.SetRead(ctx, id, true)
		})
	}
	a.store.Dispatch(store.MarkUnread{ID: id})
	a.syncState()
	return a.remote("marking unread", store.MarkRead{ID: id}, func(ctx context.Context) error {
		return a.service.SetRead(ctx, id, false)
	})
}

func (a *App) toggleStar(art model.Article) tea.Cmd {
	id := art.ID
	if art.Stared {
		a.store.Dispatch(store.Unstar{ID: id})
		a.syncState()
		return a.remote("unstarring", store.Star{ID: id}, func(ctx context.Context) error {
			return a.service.SetStarred(ctx, id, false)
		})
	}
	a.store.Dispatch(store.Star{ID: id})
	a.syncState()
	return a.remote("starring", store.Unstar{ID: id}, func(ctx context.Context) error {
		return a.service.SetStarred(ctx, id, true)
	})
}

// clearUnread marks the checked follows and folders read on the server
// first. Without a selection it targets the highlighted row in the feeds
// view or the open list; smart lists and All clear everything.
func (a *App) clearUnread() tea.Cmd {
	feedIDs, folderIDs := a.state.CheckedFeedIDs(), a.state.CheckedFolderIDs()
	if len(feedIDs) == 0 && len(folderIDs) == 0 {
		key := a.currentKey
		if a.view == ViewFeeds {
			if row, ok := a.selectedRow(); ok {
				key = row.key
			}
		}
		switch key.Kind {
		case model.ListFeed:
			feedIDs = []string{key.ID}
		case model.ListFolder:
			folderIDs = []string{key.ID}
		}
	}

	a.setStatus("Clearing…", StatusInfo)
	ctx, svc := a.ctx, a.service
	return func() tea.Msg {
		if err := svc.ClearUnread(ctx, feedIDs, folderIDs); err != nil {
			return errorMsg{err: wrapErr("clearing unread", err)}
		}
		return clearedMsg{feedIDs: feedIDs, folderIDs: folderIDs}
	}
}

func (a *App) followFeed(input string) tea.Cmd {
	feedURL, err := validation.NewURLValidator().ValidateAndNormalize(input)
	if err != nil {
		a.setStatus(wrapErr("invalid feed URL", err).Error(), StatusError)
		return nil
	}
	folderID := ""
	if row, ok := a.selectedRow(); ok && row.kind == rowFolder {
		folderID = row.folderID
	}

	a.setStatus(MsgFollowing, StatusInfo)
	ctx, svc, resolver := a.ctx, a.service, a.resolver
	return func() tea.Msg {
		if resolver != nil {
			info, err := resolver.Resolve(ctx, feedURL)
			if err != nil {
				return errorMsg{err: wrapErr("resolving feed", err)}
			}
			feedURL = info.FeedURL
		}
		f, err := svc.Follow(ctx, feedURL, folderID)
		if err != nil {
			return errorMsg{err: wrapErr("following feed", err)}
		}
		return followedMsg{follow: f}
	}
}

func (a *App) renameFolder(name string) tea.Cmd {
	id := a.renameTarget.ID
	if id == "" || name == a.renameTarget.Name {
		a.view = ViewFeeds
		return nil
	}
	a.setStatus(MsgRenaming, StatusInfo)
	ctx, svc := a.ctx, a.service
	return func() tea.Msg {
		if err := svc.RenameFolder(ctx, id, name); err != nil {
			return errorMsg{err: wrapErr("renaming folder", err)}
		}
		return renamedMsg{id: id, name: name}
	}
}

// prepareDelete picks the checked folders and follows, or the highlighted
// row when nothing is checked.
func (a *App) prepareDelete() *deleteTarget {
	folderIDs, feedIDs := a.state.CheckedFolderIDs(), a.state.CheckedFeedIDs()
	if len(folderIDs) > 0 || len(feedIDs) > 0 {
		return &deleteTarget{
			label:     fmt.Sprintf("%d folders • %d follows", len(folderIDs), len(feedIDs)),
			folderIDs: folderIDs,
			feedIDs:   feedIDs,
		}
	}
	row, ok := a.selectedRow()
	if !ok {
		return nil
	}
	switch row.kind {
	case rowFolder:
		var feeds []string
		for _, f := range a.state.FollowsIn(row.folderID) {
			feeds = append(feeds, f.FeedID)
		}
		return &deleteTarget{label: row.label, folderIDs: []string{row.folderID}, feedIDs: feeds}
	case rowFollow:
		return &deleteTarget{label: row.label, feedIDs: []string{row.feedID}}
	}
	return nil
}

// deleteSelected removes the target folders, unfollowing the target
// follows inside them, then unfollows the remaining target follows.
func (a *App) deleteSelected() tea.Cmd {
	t := a.deleteTarget
	if t == nil {
		a.view = ViewFeeds
		return nil
	}

	inFolders := map[string]bool{}
	for _, id := range t.folderIDs {
		inFolders[id] = true
	}
	var folderFeeds, loose []string
	for _, id := range t.feedIDs {
		if f, ok := a.state.FollowFor(id); ok && inFolders[f.FolderID] {
			folderFeeds = append(folderFeeds, id)
			continue
		}
		loose = append(loose, id)
	}

	a.setStatus(MsgDeleting, StatusInfo)
	ctx, svc := a.ctx, a.service
	folderIDs := t.folderIDs
	return func() tea.Msg {
		if len(folderIDs) > 0 {
			if err := svc.DeleteFolders(ctx, folderIDs, true, folderFeeds); err != nil {
				return errorMsg{err: wrapErr("deleting folders", err)}
			}
		}
		for _, id := range loose {
			if err := svc.Unfollow(ctx, id); err != nil {
				return errorMsg{err: wrapErr("unfollowing "+id, err)}
			}
		}
		return deletedMsg{folderIDs: folderIDs, folderFeeds: folderFeeds, feedIDs: loose}
	}
}

// performSearch runs the query against the index, or against the open
// article when search was entered from the reader.
func (a *App) performSearch(query string) tea.Cmd {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return func() tea.Msg { return searchResultsMsg{query: query} }
	}

	if a.previousView == ViewReader && a.state.Current != nil {
		art := *a.state.Current
		return func() tea.Msg {
			matches := search.FindInArticle(&art, query)
			items := make([]list.Item, len(matches))
			for i, m := range matches {
				items[i] = matchItem{match: m}
			}
			return searchResultsMsg{query: query, items: items}
		}
	}

	if a.searcher == nil {
		return nil
	}
	searcher, limit := a.searcher, a.config.Search.Limit
	return func() tea.Msg {
		results, err := searcher.Search(query, limit)
		if err != nil {
			return errorMsg{err: wrapErr("search", err)}
		}
		items := make([]list.Item, len(results))
		for i, r := range results {
			items[i] = searchResultItem{result: r}
		}
		return searchResultsMsg{query: query, items: items}
	}
}

// playSelected starts the highlighted episode, or toggles playback when
// it is already the active session.
func (a *App) playSelected() tea.Cmd {
	if a.player == nil {
		return nil
	}
	art, ok := a.selectedArticle()
	if ok && art.EnclosureURL != "" && (a.state.Player == nil || a.state.Player.ArticleID != art.ID) {
		// Loading may look up the episode length in the publisher's feed, so
		// it runs off the update loop. The new session arrives as a state
		// change.
		id := art.ID
		return func() tea.Msg {
			if err := a.player.Select(id); err != nil {
				return errorMsg{err: err}
			}
			return nil
		}
	}
	return a.playerAction(a.player.Toggle)
}

func (a *App) playerAction(fn func() error) tea.Cmd {
	if a.player == nil {
		return nil
	}
	if err := fn(); err != nil {
		a.setStatus(err.Error(), StatusError)
		return nil
	}
	a.syncState()
	return nil
}

func (a *App) openMedia() tea.Cmd {
	art, ok := a.selectedArticle()
	if !ok || a.opener == nil {
		return nil
	}
	target := art.EnclosureURL
	if target == "" {
		target = art.URL
	}
	if target == "" {
		a.setStatus("Nothing to open", StatusWarn)
		return nil
	}

	// Hand the active episode over at its position and stop the local
	// clock so progress is not reported twice.
	if sess := a.state.Player; sess != nil && sess.ArticleID == art.ID && target == art.EnclosureURL {
		if ro, ok := a.opener.(ResumeOpener); ok {
			at := media.Resume{Position: sess.Position(), Rate: sess.PlaybackRate}
			if err := ro.OpenAt(target, at); err != nil {
				a.setStatus(wrapErr("opening media", err).Error(), StatusError)
				return nil
			}
			if sess.Playing && a.player != nil {
				a.playerAction(a.player.Toggle)
			}
			return a.setStatusTimed("Resumed at "+formatClock(at.Position)+" in external player", StatusSuccess, 3*time.Second)
		}
	}

	if err := a.opener.Open(target); err != nil {
		a.setStatus(wrapErr("opening media", err).Error(), StatusError)
		return nil
	}
	return a.setStatusTimed("Opened "+truncateMiddle(target, 50), StatusSuccess, 3*time.Second)
}

// scrollToTerm moves the reader to the first rendered line containing
// the query's first word.
func (a *App) scrollToTerm(query string) {
	fields := strings.Fields(strings.ToLower(query))
	if len(fields) == 0 {
		return
	}
	for i, line := range strings.Split(a.readerContent, "\n") {
		if strings.Contains(strings.ToLower(line), fields[0]) {
			a.viewport.SetYOffset(i)
			return
		}
	}
}
