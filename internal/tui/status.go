package tui

import (
	"fmt"
	"strings"
)

// Canonical short status messages used across the app.
const (
	MsgRefreshing     = "Refreshing…"
	MsgFollowing      = "Following…"
	MsgRenaming       = "Renaming…"
	MsgDeleting       = "Deleting…"
	MsgLoadingArticle = "Loading article…"
	MsgLoadingMore    = "Loading more…"
	MsgNoResults      = "No results"
	MsgFolderRenamed  = "Folder renamed"
	MsgEndOfList      = "No more articles"
	MsgNothingChecked = "Nothing selected"
)

func MsgFollowed(title string) string {
	return fmt.Sprintf("Following '%s'", strings.TrimSpace(title))
}

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

func MsgDeleted(folders, follows int) string {
	return fmt.Sprintf("Deleted %d folders • %d follows", folders, follows)
}

func MsgCleared(n int) string {
	if n == 1 {
		return "Cleared 1 article"
	}
	return fmt.Sprintf("Cleared %d articles", n)
}

func MsgRefreshSummary(follows, unread, docCount int) string {
	base := fmt.Sprintf("Refreshed: %d follows • %d primary unread", follows, unread)
	if docCount >= 0 {
		base += fmt.Sprintf(" • idx: %d docs", docCount)
	}
	return base
}
