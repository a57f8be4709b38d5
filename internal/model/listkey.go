package model

import (
	"fmt"
	"strings"
)

type ListKind string

const (
	ListAll    ListKind = "all"
	ListFeed   ListKind = "feed"
	ListFolder ListKind = "folder"
	ListSmart  ListKind = "smart"
	ListSearch ListKind = "search"
)

// Smart collection ids.
const (
	SmartPrimary      = "primary"
	SmartStarred      = "starred"
	SmartRecentRead   = "recent-read"
	SmartRecentPlayed = "recent-played"
)

// ListKey identifies a list context. Two fetches with equal keys compete
// for the same article slice.
type ListKey struct {
	Kind       ListKind `json:"kind"`
	ID         string   `json:"id,omitempty"`
	UnreadOnly bool     `json:"unreadOnly,omitempty"`
	Type       string   `json:"type,omitempty"`
	TagID      string   `json:"tagId,omitempty"`
	Query      string   `json:"query,omitempty"`
}

func AllList() ListKey                   { return ListKey{Kind: ListAll} }
func FeedList(feedID string) ListKey     { return ListKey{Kind: ListFeed, ID: feedID} }
func FolderList(folderID string) ListKey { return ListKey{Kind: ListFolder, ID: folderID} }
func SmartList(name string) ListKey      { return ListKey{Kind: ListSmart, ID: name} }
func SearchList(query string) ListKey    { return ListKey{Kind: ListSearch, Query: query} }

func (k ListKey) IsZero() bool { return k.Kind == "" }

func (k ListKey) String() string {
	var b strings.Builder
	b.WriteString(string(k.Kind))
	if k.ID != "" {
		fmt.Fprintf(&b, ":%s", k.ID)
	}
	if k.Query != "" {
		fmt.Fprintf(&b, "?q=%s", k.Query)
	}
	if k.UnreadOnly {
		b.WriteString("+unread")
	}
	if k.Type != "" {
		fmt.Fprintf(&b, "+type=%s", k.Type)
	}
	if k.TagID != "" {
		fmt.Fprintf(&b, "+tag=%s", k.TagID)
	}
	return b.String()
}
