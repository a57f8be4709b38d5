package store

import (
	"slices"

	"github.com/pders01/fwrdcast/internal/cursor"
	"github.com/pders01/fwrdcast/internal/dedup"
	"github.com/pders01/fwrdcast/internal/ledger"
	"github.com/pders01/fwrdcast/internal/model"
)

// Apply returns the state that results from applying action to s. It
// never mutates s and never panics on well-formed actions.
func Apply(s State, action Action) State {
	switch a := action.(type) {
	case BatchAppend:
		return batchAppend(s, a)
	case ClearList:
		return clearList(s, a.Key)
	case ListLoading:
		return listLoading(s, a.Key)
	case ListFailed:
		return listFailed(s, a)

	case ContentLoaded:
		return contentLoaded(s, a.Article)
	case MarkRead:
		return setUnread(s, a.ID, false)
	case MarkUnread:
		return setUnread(s, a.ID, true)
	case Star:
		return setStarred(s, a.ID, true)
	case Unstar:
		return setStarred(s, a.ID, false)
	case RemoveArticle:
		return removeArticle(s, a.ID)
	case ClearUnread:
		return clearUnread(s, a)
	case SetViewMode:
		s.UnreadOnly = a.UnreadOnly
		return s
	case RefreshTotals:
		s.Totals = ledger.Clamp(a.Totals)
		return s

	case BatchCollections:
		return batchCollections(s, a.Buckets)
	case Follow:
		return follow(s, a.Follow)
	case Unfollow:
		return unfollow(s, a.FeedID)
	case MoveFeed:
		return moveFeed(s, a.FeedID, a.FolderID)
	case CreateFolder:
		return createFolder(s, a.Folder)
	case RenameFolder:
		return renameFolder(s, a.ID, a.Name)
	case DeleteFolders:
		return deleteFolders(s, a)

	case ToggleFolderChecked:
		return toggleFolder(s, a.ID)
	case ToggleFollowChecked:
		return toggleFollow(s, a.FeedID)
	case ClearSelection:
		s.Selection = Selection{Folders: map[string]bool{}, Follows: map[string]bool{}}
		return s

	case SetUser:
		u := a.User
		s.User = &u
		return s
	case Logout:
		return New()

	case PlayerSelect:
		return playerSelect(s, a.ArticleID)
	case PlayerPlay:
		return playerSetPlaying(s, true)
	case PlayerPause:
		return playerSetPlaying(s, false)
	case PlayerProgress:
		return playerProgress(s, a.Played, a.Duration, a.Position)
	case PlayerRate:
		return playerRate(s, a.Rate)
	case PlayerLoop:
		return playerLoop(s, a.Loop)
	case PlayerClose:
		s.Player = nil
		return s
	}
	return s
}

func batchAppend(s State, a BatchAppend) State {
	// A page for another list context is a late response and must not
	// overwrite the list that replaced it.
	if !s.List.Key.IsZero() && s.List.Key != a.Key {
		return s
	}

	// Rows on or above the current boundary were served by an earlier
	// page. A server that repeats them does not get to reorder the list.
	prior := s.Visible()
	boundary := cursor.Next(prior)
	incoming := make([]model.Article, 0, len(a.Articles))
	for _, art := range a.Articles {
		if !cursor.Excludes(boundary, art) {
			incoming = append(incoming, art)
		}
	}
	res := dedup.Resolve(prior, incoming)

	articles := make(map[string]model.Article, len(res.Kept))
	ids := make([]string, 0, len(res.Kept))
	for _, art := range res.Kept {
		articles[art.ID] = art
		ids = append(ids, art.ID)
	}

	aliases := make(map[string]string, len(s.Aliases)+len(res.Aliases))
	for id, target := range s.Aliases {
		if _, kept := articles[id]; kept {
			continue
		}
		target = dedup.Canonical(res.Aliases, target)
		if _, ok := articles[target]; ok {
			aliases[id] = target
		}
	}
	for id, target := range res.Aliases {
		aliases[id] = target
	}

	feeds, cloned := s.Feeds, false
	for _, art := range a.Articles {
		if art.Feed == nil || art.Feed.ID == "" {
			continue
		}
		if _, seen := feeds[art.Feed.ID]; seen {
			continue
		}
		if !cloned {
			feeds, cloned = cloneMap(s.Feeds), true
		}
		feeds[art.Feed.ID] = *art.Feed
	}

	list := s.List
	list.Key = a.Key
	list.IDs = ids
	list.Loading = false
	list.Failed = false
	list.Err = ""
	n := len(a.Articles)
	if n == 0 || (a.PageSize > 0 && n < a.PageSize) || (a.MaxItems > 0 && len(ids) >= a.MaxItems) {
		list.Exhausted = true
	}

	s.Articles = articles
	s.Aliases = aliases
	s.Feeds = feeds
	s.List = list
	return s
}

func clearList(s State, key model.ListKey) State {
	s.Articles = map[string]model.Article{}
	s.Aliases = map[string]string{}
	s.List = ListState{Key: key}
	return s
}

func listLoading(s State, key model.ListKey) State {
	if !s.List.Key.IsZero() && s.List.Key != key {
		return s
	}
	s.List.Key = key
	s.List.Loading = true
	s.List.Failed = false
	s.List.Err = ""
	return s
}

func listFailed(s State, a ListFailed) State {
	if s.List.Key != a.Key {
		return s
	}
	s.List.Loading = false
	s.List.Exhausted = true
	s.List.Failed = true
	s.List.Err = a.Err
	return s
}

// known returns the freshest local copy of the article addressed by id:
// the list entry when cached, else the current article projection.
func known(s State, id string) (model.Article, string, bool) {
	canonical := dedup.Canonical(s.Aliases, id)
	if art, ok := s.Articles[canonical]; ok {
		return art, canonical, true
	}
	if s.Current != nil && (s.Current.ID == id || s.Current.ID == canonical) {
		return *s.Current, s.Current.ID, true
	}
	return model.Article{}, canonical, false
}

// putArticle writes art into the list map (when cached there) and into
// the current projection (when it is the current article).
func putArticle(s State, art model.Article) State {
	if _, ok := s.Articles[art.ID]; ok {
		s.Articles = cloneMap(s.Articles)
		s.Articles[art.ID] = art
	}
	if s.Current != nil && s.Current.ID == art.ID {
		cur := art
		s.Current = &cur
	}
	return s
}

func contentLoaded(s State, loaded model.Article) State {
	prev, canonical, ok := known(s, loaded.ID)
	art := loaded
	wasUnread := loaded.Unread
	if ok {
		wasUnread = prev.Unread
		art.ID = canonical
		// Local flags are newer than what the content endpoint echoes.
		art.Stared = prev.Stared
		art.Played = prev.Played
	}
	art.Unread = false

	s.Totals = ledger.MarkRead(s.Totals, wasUnread, s.IsPrimary(art.FeedID))
	cur := art
	s.Current = &cur
	return putArticle(s, art)
}

func setUnread(s State, id string, unread bool) State {
	art, _, ok := known(s, id)
	if !ok || art.Unread == unread {
		return s
	}
	primary := s.IsPrimary(art.FeedID)
	if unread {
		s.Totals = ledger.MarkUnread(s.Totals, art.Unread, primary)
	} else {
		s.Totals = ledger.MarkRead(s.Totals, art.Unread, primary)
	}
	art.Unread = unread
	return putArticle(s, art)
}

func setStarred(s State, id string, starred bool) State {
	art, _, ok := known(s, id)
	if !ok || art.Stared == starred {
		return s
	}
	if starred {
		s.Totals = ledger.Star(s.Totals, art.Stared)
	} else {
		s.Totals = ledger.Unstar(s.Totals, art.Stared)
	}
	art.Stared = starred
	return putArticle(s, art)
}

func removeArticle(s State, id string) State {
	canonical := dedup.Canonical(s.Aliases, id)
	art, ok := s.Articles[canonical]
	if !ok {
		return s
	}
	s.Totals = ledger.RemoveArticle(s.Totals, art, s.IsPrimary(art.FeedID))

	s.Articles = cloneMap(s.Articles)
	delete(s.Articles, canonical)

	aliases := make(map[string]string, len(s.Aliases))
	for from, to := range s.Aliases {
		if to != canonical && from != canonical {
			aliases[from] = to
		}
	}
	s.Aliases = aliases

	s.List.IDs = slices.DeleteFunc(slices.Clone(s.List.IDs), func(v string) bool { return v == canonical })
	return s
}

func clearUnread(s State, a ClearUnread) State {
	if !s.UnreadOnly {
		return s
	}

	feeds := make(map[string]bool, len(a.FeedIDs))
	for _, id := range a.FeedIDs {
		feeds[s.CanonicalFeedID(id)] = true
	}
	folders := make(map[string]bool, len(a.FolderIDs))
	for _, id := range a.FolderIDs {
		folders[id] = true
	}
	all := len(feeds) == 0 && len(folders) == 0

	matches := func(art model.Article) bool {
		if all {
			return true
		}
		feedID := s.CanonicalFeedID(art.FeedID)
		if feeds[feedID] {
			return true
		}
		f, ok := s.Follows[feedID]
		return ok && f.FolderID != "" && folders[f.FolderID]
	}

	kept := make(map[string]model.Article, len(s.Articles))
	ids := make([]string, 0, len(s.List.IDs))
	dropped := 0
	for _, id := range s.List.IDs {
		art, ok := s.Articles[id]
		if !ok {
			continue
		}
		if matches(art) {
			if art.Unread && s.IsPrimary(art.FeedID) {
				dropped++
			}
			continue
		}
		kept[id] = art
		ids = append(ids, id)
	}

	aliases := make(map[string]string, len(s.Aliases))
	for from, to := range s.Aliases {
		if _, ok := kept[to]; ok {
			aliases[from] = to
		}
	}

	s.Totals = ledger.DropUnread(s.Totals, dropped)
	s.Articles = kept
	s.Aliases = aliases
	s.List.IDs = ids
	if len(ids) == 0 {
		s.List.Exhausted = true
	}
	return s
}
