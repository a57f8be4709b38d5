package store

import "github.com/pders01/fwrdcast/internal/model"

// Action is any value handed to Apply. Types Apply does not know leave the
// state unchanged.
type Action any

// List actions.
type (
	// BatchAppend merges one fetched page into the list identified by Key.
	// PageSize and MaxItems drive exhaustion detection; zero disables the
	// respective check.
	BatchAppend struct {
		Key      model.ListKey
		Articles []model.Article
		PageSize int
		MaxItems int
	}

	// ClearList drops the cached article slice and starts Key afresh.
	ClearList struct{ Key model.ListKey }

	ListLoading struct{ Key model.ListKey }

	// ListFailed ends loading after a failed fetch. The list is marked
	// exhausted so that the view does not retry in a loop.
	ListFailed struct {
		Key model.ListKey
		Err string
	}
)

// Article actions.
type (
	ContentLoaded struct{ Article model.Article }
	MarkRead      struct{ ID string }
	MarkUnread    struct{ ID string }
	Star          struct{ ID string }
	Unstar        struct{ ID string }
	RemoveArticle struct{ ID string }

	// ClearUnread drops articles of the given feeds and folders from an
	// unread-only view. Both sets empty means every cached article.
	ClearUnread struct {
		FeedIDs   []string
		FolderIDs []string
	}

	SetViewMode   struct{ UnreadOnly bool }
	RefreshTotals struct{ Totals model.Totals }
)

// Collection actions.
type (
	BatchCollections struct{ Buckets []model.FolderBucket }
	Follow           struct{ Follow model.Follow }
	Unfollow         struct{ FeedID string }
	MoveFeed         struct{ FeedID, FolderID string }
	CreateFolder     struct{ Folder model.Folder }
	RenameFolder     struct{ ID, Name string }

	// DeleteFolders removes folders. With Unfollow set, follows inside them
	// are removed too, restricted to FeedIDs when that is non-empty.
	// Follows that survive move out of the folder.
	DeleteFolders struct {
		IDs      []string
		Unfollow bool
		FeedIDs  []string
	}
)

// Selection actions.
type (
	ToggleFolderChecked struct{ ID string }
	ToggleFollowChecked struct{ FeedID string }
	ClearSelection      struct{}
)

// Session actions.
type (
	SetUser struct{ User model.User }
	Logout  struct{}
)

// Player slice actions.
type (
	PlayerSelect   struct{ ArticleID string }
	PlayerPlay     struct{}
	PlayerPause    struct{}
	PlayerProgress struct{ Played, Duration, Position float64 }
	PlayerRate     struct{ Rate float64 }
	PlayerLoop     struct{ Loop bool }
	PlayerClose    struct{}
)
