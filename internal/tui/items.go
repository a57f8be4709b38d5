package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/fwrdcast/internal/model"
	"github.com/pders01/fwrdcast/internal/search"
	"github.com/pders01/fwrdcast/internal/store"
)

type rowKind int

const (
	rowSmart rowKind = iota
	rowFolder
	rowFollow
)

// feedItem is one row of the collections tree.
type feedItem struct {
	kind     rowKind
	key      model.ListKey
	label    string
	detail   string
	folderID string
	feedID   string
	nested   bool
	checked  bool
}

func (i feedItem) Title() string {
	prefix := ""
	if i.nested {
		prefix = "  "
	}
	switch i.kind {
	case rowFolder:
		return prefix + checkbox(i.checked) + FolderTitleStyle.Render("▸ "+i.label)
	case rowFollow:
		return prefix + checkbox(i.checked) + i.label
	default:
		return FeedTitleStyle.Render(i.label)
	}
}

func (i feedItem) Description() string {
	if i.nested {
		return "      " + renderMuted(i.detail)
	}
	return renderMuted(i.detail)
}

func (i feedItem) FilterValue() string { return i.label }

func checkbox(on bool) string {
	if on {
		return "[x] "
	}
	return "[ ] "
}

type smartRow struct {
	id    string
	label string
	count func(model.Totals) int
	noun  string
}

var smartRows = []smartRow{
	{model.SmartPrimary, "Primary", func(t model.Totals) int { return t.Primary }, "unread"},
	{model.SmartStarred, "Starred", func(t model.Totals) int { return t.Star }, "starred"},
	{model.SmartRecentRead, "Recently read", func(t model.Totals) int { return t.RecentRead }, "read"},
	{model.SmartRecentPlayed, "Recently played", func(t model.Totals) int { return t.RecentPlayed }, "played"},
}

// buildFeedItems lays out smart lists, then folders with their follows,
// then follows outside any folder.
func buildFeedItems(s store.State) []list.Item {
	items := make([]list.Item, 0, len(smartRows)+1+len(s.Folders)+len(s.Follows))
	for _, r := range smartRows {
		items = append(items, feedItem{
			kind:   rowSmart,
			key:    model.SmartList(r.id),
			label:  r.label,
			detail: fmt.Sprintf("%d %s", r.count(s.Totals), r.noun),
		})
	}
	items = append(items, feedItem{
		kind:   rowSmart,
		key:    model.AllList(),
		label:  "All",
		detail: fmt.Sprintf("%d follows", s.Totals.Feed),
	})

	for _, folder := range s.SortedFolders() {
		follows := s.FollowsIn(folder.ID)
		items = append(items, feedItem{
			kind:     rowFolder,
			key:      model.FolderList(folder.ID),
			label:    folder.Name,
			detail:   fmt.Sprintf("%d follows", len(follows)),
			folderID: folder.ID,
			checked:  s.FolderChecked(folder.ID),
		})
		for _, f := range follows {
			items = append(items, followItem(s, f, true))
		}
	}
	for _, f := range s.FollowsIn("") {
		items = append(items, followItem(s, f, false))
	}
	return items
}

func followItem(s store.State, f model.Follow, nested bool) feedItem {
	detail := ""
	if f.Feed != nil {
		detail = truncateMiddle(f.Feed.URL, 60)
	}
	if f.Primary {
		detail = "★ " + detail
	}
	return feedItem{
		kind:     rowFollow,
		key:      model.FeedList(f.FeedID),
		label:    f.Title(),
		detail:   detail,
		folderID: f.FolderID,
		feedID:   f.FeedID,
		nested:   nested,
		checked:  s.FollowChecked(f.FeedID),
	}
}

type articleItem struct {
	article    model.Article
	feedTitle  string
	maxSummary int
	playing    bool
}

func (i articleItem) Title() string {
	title := i.article.Title
	if i.article.IsPodcast() {
		title = "♪ " + title
	}
	if i.article.Stared {
		title = "★ " + title
	}
	if i.playing {
		title = "▶ " + title
	}
	if !i.article.Unread {
		return ReadItemStyle.Render(title)
	}
	return UnreadItemStyle.Render("● " + title)
}

func (i articleItem) Description() string {
	desc := truncateEnd(i.article.Summary, i.maxSummary)
	meta := i.feedTitle
	if !i.article.OrderedAt.IsZero() {
		meta += " • " + i.article.OrderedAt.Format("Jan 2, 15:04")
	}
	return lipgloss.NewStyle().Foreground(MutedColor).Render(desc) + TimeStyle.Render(" • "+meta)
}

func (i articleItem) FilterValue() string { return i.article.Title }

func buildArticleItems(s store.State, maxSummary int) []list.Item {
	if maxSummary <= 0 {
		maxSummary = 80
	}
	playing := ""
	if s.Player != nil {
		playing = s.Player.ArticleID
	}
	visible := s.Visible()
	items := make([]list.Item, len(visible))
	for i, art := range visible {
		items[i] = articleItem{
			article:    art,
			feedTitle:  feedTitle(s, art),
			maxSummary: maxSummary,
			playing:    art.ID == playing,
		}
	}
	return items
}

func feedTitle(s store.State, art model.Article) string {
	if f, ok := s.FollowFor(art.FeedID); ok {
		return f.Title()
	}
	if art.Feed != nil && art.Feed.Title != "" {
		return art.Feed.Title
	}
	return "Unknown Feed"
}

type searchResultItem struct {
	result search.Result
}

func (i searchResultItem) Title() string {
	if i.result.Kind == search.KindFeed {
		return FeedTitleStyle.Render("📁 " + i.result.Title)
	}
	return UnreadItemStyle.Render("📄 " + i.result.Title)
}

func (i searchResultItem) Description() string {
	return renderMuted(truncateEnd(i.result.Snippet, 80))
}

func (i searchResultItem) FilterValue() string { return i.result.Title }

// matchItem is an in-article find hit.
type matchItem struct {
	match search.Match
}

func (i matchItem) Title() string {
	return HeaderStyle.Render(i.match.Field)
}

func (i matchItem) Description() string {
	return renderMuted(truncateEnd(i.match.Text, 80))
}

func (i matchItem) FilterValue() string { return i.match.Text }
