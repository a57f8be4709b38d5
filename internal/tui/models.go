package tui

type View int

const (
	ViewFeeds View = iota
	ViewArticles
	ViewReader
	ViewSearch
	ViewFollow
	ViewRenameFolder
	ViewDeleteConfirm
)
