// Package store owns the normalized client-side collection cache. State
// only changes through Apply, a pure (state, action) -> state function;
// Dispatcher serializes calls to it and fans the result out to
// subscribers.
package store

import (
	"sort"
	"strings"

	"github.com/pders01/fwrdcast/internal/dedup"
	"github.com/pders01/fwrdcast/internal/model"
)

// ListState describes the article slice currently held in the cache.
type ListState struct {
	Key       model.ListKey
	IDs       []string
	Exhausted bool
	Loading   bool
	Failed    bool
	Err       string
}

// Selection is the transient bulk-action checkbox state. It is kept apart
// from the domain maps and is never persisted.
type Selection struct {
	Folders map[string]bool
	Follows map[string]bool
}

type State struct {
	User *model.User

	Feeds       map[string]model.Feed
	FeedAliases map[string]string
	Folders     map[string]model.Folder
	Follows     map[string]model.Follow

	Articles map[string]model.Article
	Aliases  map[string]string
	List     ListState

	UnreadOnly bool
	Totals     model.Totals
	Current    *model.Article
	Player     *model.PlayerSession
	Selection  Selection
}

// New returns an empty state with every map allocated.
func New() State {
	return State{
		Feeds:       map[string]model.Feed{},
		FeedAliases: map[string]string{},
		Folders:     map[string]model.Folder{},
		Follows:     map[string]model.Follow{},
		Articles:    map[string]model.Article{},
		Aliases:     map[string]string{},
		Selection: Selection{
			Folders: map[string]bool{},
			Follows: map[string]bool{},
		},
	}
}

// Lookup returns the article addressed by id, resolving aliases so that a
// non-canonical id still reaches the canonical content.
func (s State) Lookup(id string) (model.Article, bool) {
	a, ok := s.Articles[dedup.Canonical(s.Aliases, id)]
	return a, ok
}

// Visible returns the cached list in display order.
func (s State) Visible() []model.Article {
	out := make([]model.Article, 0, len(s.List.IDs))
	for _, id := range s.List.IDs {
		if a, ok := s.Articles[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

// CanonicalFeedID resolves a feed id through the feed alias table.
func (s State) CanonicalFeedID(id string) string {
	return dedup.Canonical(s.FeedAliases, id)
}

// FollowFor returns the follow of the canonical feed behind id.
func (s State) FollowFor(feedID string) (model.Follow, bool) {
	f, ok := s.Follows[s.CanonicalFeedID(feedID)]
	return f, ok
}

// IsPrimary reports whether articles of feedID count towards the primary
// counter.
func (s State) IsPrimary(feedID string) bool {
	f, ok := s.FollowFor(feedID)
	return ok && f.Primary
}

// SortedFolders returns folders ordered by name.
func (s State) SortedFolders() []model.Folder {
	out := make([]model.Folder, 0, len(s.Folders))
	for _, f := range s.Folders {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		ni, nj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if ni == nj {
			return out[i].ID < out[j].ID
		}
		return ni < nj
	})
	return out
}

// FollowsIn returns the follows of folderID ordered by title. An empty
// folderID selects follows outside any folder.
func (s State) FollowsIn(folderID string) []model.Follow {
	var out []model.Follow
	for _, f := range s.Follows {
		if f.FolderID == folderID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := strings.ToLower(out[i].Title()), strings.ToLower(out[j].Title())
		if ti == tj {
			return out[i].FeedID < out[j].FeedID
		}
		return ti < tj
	})
	return out
}

func (s State) FolderChecked(id string) bool { return s.Selection.Folders[id] }

func (s State) FollowChecked(feedID string) bool {
	return s.Selection.Follows[s.CanonicalFeedID(feedID)]
}

// CheckedFeedIDs returns the selected follows, sorted.
func (s State) CheckedFeedIDs() []string {
	var out []string
	for id, on := range s.Selection.Follows {
		if on {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// CheckedFolderIDs returns the selected folders, sorted.
func (s State) CheckedFolderIDs() []string {
	var out []string
	for id, on := range s.Selection.Folders {
		if on {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
