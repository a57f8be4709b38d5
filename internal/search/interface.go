package search

import "github.com/pders01/fwrdcast/internal/store"

// Kind tells what a search hit points at.
type Kind string

const (
	KindArticle Kind = "article"
	KindFeed    Kind = "feed"
)

// Result is one hit. ID is an article id or a followed feed id depending
// on Kind.
type Result struct {
	Kind    Kind
	ID      string
	Title   string
	Snippet string
	Score   float64
}

// Searcher is the minimal search API used by the TUI.
type Searcher interface {
	Search(query string, limit int) ([]Result, error)
}

// Syncer is implemented by searchers that keep their own copy of the
// cache and need to follow store changes.
type Syncer interface {
	Sync(s store.State) error
}

// DebugStatser provides lightweight stats for visibility/debugging.
type DebugStatser interface {
	DocCount() (int, error)
}
