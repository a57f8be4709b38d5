package store

import "github.com/pders01/fwrdcast/internal/model"

// Checkbox state for bulk operations. Only checked ids are stored.

func toggleFolder(s State, id string) State {
	if _, ok := s.Folders[id]; !ok {
		return s
	}
	on := !s.Selection.Folders[id]

	sel := cloneSelection(s.Selection)
	set(sel.Folders, id, on)
	for _, f := range s.FollowsIn(id) {
		set(sel.Follows, f.FeedID, on)
	}
	s.Selection = sel
	return s
}

func toggleFollow(s State, feedID string) State {
	id := s.CanonicalFeedID(feedID)
	f, ok := s.Follows[id]
	if !ok {
		return s
	}

	sel := cloneSelection(s.Selection)
	set(sel.Follows, id, !sel.Follows[id])
	s.Selection = sel
	if f.FolderID != "" {
		s.Selection = recomputeFolder(s, f.FolderID)
	}
	return s
}

// recomputeFolder marks a folder checked iff at least one of its follows
// is checked.
func recomputeFolder(s State, folderID string) Selection {
	sel := cloneSelection(s.Selection)
	checked := false
	for _, f := range s.FollowsIn(folderID) {
		if sel.Follows[f.FeedID] {
			checked = true
			break
		}
	}
	set(sel.Folders, folderID, checked)
	return sel
}

func pruneSelection(sel Selection, folders map[string]model.Folder, follows map[string]model.Follow) Selection {
	out := Selection{Folders: map[string]bool{}, Follows: map[string]bool{}}
	for id, on := range sel.Folders {
		if _, ok := folders[id]; ok && on {
			out.Folders[id] = true
		}
	}
	for id, on := range sel.Follows {
		if _, ok := follows[id]; ok && on {
			out.Follows[id] = true
		}
	}
	return out
}

func cloneSelection(sel Selection) Selection {
	return Selection{Folders: cloneMap(sel.Folders), Follows: cloneMap(sel.Follows)}
}

func set(m map[string]bool, id string, on bool) {
	if on {
		m[id] = true
		return
	}
	delete(m, id)
}
