package store

import (
	"sort"

	"github.com/pders01/fwrdcast/internal/dedup"
	"github.com/pders01/fwrdcast/internal/ledger"
	"github.com/pders01/fwrdcast/internal/model"
)

// batchCollections rebuilds folders and follows from the bootstrap
// payload. Totals.Feed is recomputed here since bootstrap is a refresh
// point.
func batchCollections(s State, buckets []model.FolderBucket) State {
	folders := map[string]model.Folder{}
	feeds := cloneMap(s.Feeds)
	var ordered []model.Follow

	for _, b := range buckets {
		folderID := b.Folder.ID
		if folderID == model.NoFolderID {
			folderID = ""
		}
		if folderID != "" {
			folders[folderID] = b.Folder
		}
		for _, f := range b.Follows {
			if f.FeedID == "" && f.Feed != nil {
				f.FeedID = f.Feed.ID
			}
			if f.FeedID == "" {
				continue
			}
			if f.Feed != nil {
				feeds[f.FeedID] = *f.Feed
			}
			f.FolderID = folderID
			ordered = append(ordered, f)
		}
	}

	records := make([]model.Feed, 0, len(ordered))
	for _, f := range ordered {
		records = append(records, feedFor(feeds, f.FeedID))
	}
	res := dedup.Resolve(nil, records)

	follows := make(map[string]model.Follow, len(res.Kept))
	for _, f := range ordered {
		if _, aliased := res.Aliases[f.FeedID]; aliased {
			continue
		}
		feed := feedFor(feeds, f.FeedID)
		f.Feed = &feed
		follows[f.FeedID] = f
	}

	aliases := cloneMap(s.FeedAliases)
	for from, to := range res.Aliases {
		aliases[from] = to
	}

	s.Folders = folders
	s.Follows = follows
	s.Feeds = feeds
	s.FeedAliases = aliases
	s.Totals.Feed = len(follows)
	s.Selection = pruneSelection(s.Selection, folders, follows)
	return s
}

// follow subscribes to a feed, resolving duplicates first: if the feed
// declares a canonical feed that is followed (or at least known), the
// canonical feed is the one that ends up followed, exactly once.
func follow(s State, f model.Follow) State {
	feedID := f.FeedID
	if feedID == "" && f.Feed != nil {
		feedID = f.Feed.ID
	}
	if feedID == "" {
		return s
	}

	feeds := cloneMap(s.Feeds)
	if f.Feed != nil {
		feed := *f.Feed
		feed.ID = feedID
		feeds[feedID] = feed
	}
	incoming := feedFor(feeds, feedID)

	prior := followedFeeds(s, feeds)
	for _, id := range chain(feeds, incoming) {
		if _, followed := s.Follows[id]; !followed {
			prior = append(prior, feeds[id])
		}
	}
	res := dedup.Resolve(prior, []model.Feed{incoming})

	follows := cloneMap(s.Follows)
	aliases := cloneMap(s.FeedAliases)
	for from, to := range res.Aliases {
		aliases[from] = to
		old, wasFollowed := follows[from]
		if !wasFollowed {
			continue
		}
		delete(follows, from)
		if _, exists := follows[to]; !exists {
			canon := feedFor(feeds, to)
			old.FeedID = to
			old.Feed = &canon
			follows[to] = old
		}
	}

	// When the canonical feed is already followed under another id, the
	// existing follow wins and the request only records the alias.
	target := dedup.Canonical(res.Aliases, feedID)
	existing, exists := follows[target]
	if !exists || target == feedID {
		canon := feedFor(feeds, target)
		next := f
		next.FeedID = target
		next.Feed = &canon
		next.FolderID = validFolder(s.Folders, f.FolderID, existing.FolderID)
		follows[target] = next
	}

	before := len(s.Follows)
	switch {
	case len(follows) > before:
		s.Totals = ledger.Follow(s.Totals, false)
	case len(follows) < before:
		s.Totals.Feed = ledger.Sub(s.Totals.Feed, before-len(follows))
	}

	s.Feeds = feeds
	s.Follows = follows
	s.FeedAliases = aliases
	s.Selection = pruneSelection(s.Selection, s.Folders, follows)
	return s
}

func unfollow(s State, feedID string) State {
	id := s.CanonicalFeedID(feedID)
	f, ok := s.Follows[id]
	if !ok {
		return s
	}

	s.Follows = cloneMap(s.Follows)
	delete(s.Follows, id)
	s.Totals = ledger.Unfollow(s.Totals, true)

	sel := cloneSelection(s.Selection)
	delete(sel.Follows, id)
	s.Selection = sel
	if f.FolderID != "" {
		s.Selection = recomputeFolder(s, f.FolderID)
	}
	return s
}

// moveFeed moves a follow into folderID. An empty or sentinel folder id
// moves it out of any folder; an unknown folder leaves it where it is.
func moveFeed(s State, feedID, folderID string) State {
	id := s.CanonicalFeedID(feedID)
	f, ok := s.Follows[id]
	if !ok {
		return s
	}
	if folderID == model.NoFolderID {
		folderID = ""
	}
	if folderID != "" {
		if _, exists := s.Folders[folderID]; !exists {
			return s
		}
	}

	from := f.FolderID
	f.FolderID = folderID
	s.Follows = cloneMap(s.Follows)
	s.Follows[id] = f

	if from != "" {
		s.Selection = recomputeFolder(s, from)
	}
	if folderID != "" {
		s.Selection = recomputeFolder(s, folderID)
	}
	return s
}

func createFolder(s State, folder model.Folder) State {
	if folder.ID == "" || folder.ID == model.NoFolderID {
		return s
	}
	s.Folders = cloneMap(s.Folders)
	s.Folders[folder.ID] = folder
	return s
}

func renameFolder(s State, id, name string) State {
	folder, ok := s.Folders[id]
	if !ok || name == "" {
		return s
	}
	folder.Name = name
	s.Folders = cloneMap(s.Folders)
	s.Folders[id] = folder
	return s
}

func deleteFolders(s State, a DeleteFolders) State {
	doomed := make(map[string]bool, len(a.IDs))
	for _, id := range a.IDs {
		if _, ok := s.Folders[id]; ok {
			doomed[id] = true
		}
	}
	if len(doomed) == 0 {
		return s
	}

	subset := make(map[string]bool, len(a.FeedIDs))
	for _, id := range a.FeedIDs {
		subset[s.CanonicalFeedID(id)] = true
	}

	folders := cloneMap(s.Folders)
	for id := range doomed {
		delete(folders, id)
	}

	follows := cloneMap(s.Follows)
	sel := cloneSelection(s.Selection)
	for id, f := range s.Follows {
		if !doomed[f.FolderID] {
			continue
		}
		delete(sel.Follows, id)
		if a.Unfollow && (len(subset) == 0 || subset[id]) {
			delete(follows, id)
			s.Totals = ledger.Unfollow(s.Totals, true)
			continue
		}
		f.FolderID = ""
		follows[id] = f
	}
	for id := range doomed {
		delete(sel.Folders, id)
	}

	s.Folders = folders
	s.Follows = follows
	s.Selection = sel
	return s
}

func feedFor(feeds map[string]model.Feed, id string) model.Feed {
	if f, ok := feeds[id]; ok {
		return f
	}
	return model.Feed{ID: id}
}

// followedFeeds returns the feeds behind the current follows in id order
// so resolution is deterministic.
func followedFeeds(s State, feeds map[string]model.Feed) []model.Feed {
	ids := make([]string, 0, len(s.Follows))
	for id := range s.Follows {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]model.Feed, 0, len(ids))
	for _, id := range ids {
		out = append(out, feedFor(feeds, id))
	}
	return out
}

// chain lists the known feeds reachable from f through duplicate-of
// references, nearest first.
func chain(feeds map[string]model.Feed, f model.Feed) []string {
	var out []string
	seen := map[string]bool{f.ID: true}
	next := f.DuplicateOfID
	for next != "" && !seen[next] {
		cur, ok := feeds[next]
		if !ok {
			break
		}
		seen[next] = true
		out = append(out, next)
		next = cur.DuplicateOfID
	}
	return out
}

func validFolder(folders map[string]model.Folder, want, fallback string) string {
	if want == "" || want == model.NoFolderID {
		return ""
	}
	if _, ok := folders[want]; ok {
		return want
	}
	if _, ok := folders[fallback]; ok {
		return fallback
	}
	return ""
}
