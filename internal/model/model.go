// Package model holds the normalized entities shared by the store, the
// pager and the playback controller.
package model

import (
	"time"
)

// NoFolderID is the sentinel folder id the collections payload uses for
// follows that live outside any folder. It is never materialized.
const NoFolderID = "0"

const (
	FeedTypePodcast = "podcast"
	FeedTypeArticle = "article"
)

type Feed struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	SiteURL       string `json:"siteUrl,omitempty"`
	Type          string `json:"type,omitempty"`
	DuplicateOfID string `json:"duplicateOfId,omitempty"`
	Fingerprint   string `json:"fingerprint,omitempty"`
}

func (f Feed) RecordID() string    { return f.ID }
func (f Feed) DuplicateOf() string { return f.DuplicateOfID }

// FingerprintKey returns the url fingerprint used for dedup. Feeds without
// one are keyed by their id so they never collide with each other.
func (f Feed) FingerprintKey() string {
	if f.Fingerprint != "" {
		return f.Fingerprint
	}
	return "feed:" + f.ID
}

type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// Follow joins the user to a feed. An empty FolderID means "no folder".
type Follow struct {
	FeedID   string `json:"feedId"`
	FolderID string `json:"folderId,omitempty"`
	Alias    string `json:"alias,omitempty"`
	Primary  bool   `json:"primary"`
	FullText bool   `json:"fullText"`
	Feed     *Feed  `json:"feed,omitempty"`
}

// Title prefers the user's alias over the feed title.
func (f Follow) Title() string {
	if f.Alias != "" {
		return f.Alias
	}
	if f.Feed != nil && f.Feed.Title != "" {
		return f.Feed.Title
	}
	return f.FeedID
}

type Article struct {
	ID            string    `json:"id"`
	FeedID        string    `json:"feedId"`
	Feed          *Feed     `json:"feed,omitempty"`
	Title         string    `json:"title"`
	Summary       string    `json:"summary,omitempty"`
	Content       string    `json:"content,omitempty"`
	URL           string    `json:"url,omitempty"`
	EnclosureURL  string    `json:"enclosureUrl,omitempty"`
	ContentHash   string    `json:"contentHash"`
	DuplicateOfID string    `json:"duplicateOfId,omitempty"`
	OrderedAt     time.Time `json:"orderedAt"`
	Unread        bool      `json:"unread"`
	Stared        bool      `json:"stared"`
	Played        bool      `json:"played"`
	Type          string    `json:"type,omitempty"`
	// Duration of the enclosure in seconds, when the service knows it.
	Duration float64 `json:"duration,omitempty"`
}

func (a Article) RecordID() string    { return a.ID }
func (a Article) DuplicateOf() string { return a.DuplicateOfID }

// FingerprintKey is the contentHash, falling back to the id for articles
// the server sent without a hash.
func (a Article) FingerprintKey() string {
	if a.ContentHash != "" {
		return a.ContentHash
	}
	return "article:" + a.ID
}

// IsPodcast reports whether the article belongs to a podcast feed.
func (a Article) IsPodcast() bool {
	if a.Type == FeedTypePodcast {
		return true
	}
	return a.Feed != nil && a.Feed.Type == FeedTypePodcast
}

// Totals are the derived aggregate counters. They are adjusted
// incrementally and only replaced wholesale at refresh points.
type Totals struct {
	Primary      int `json:"primary"`
	Star         int `json:"star"`
	RecentRead   int `json:"recentRead"`
	RecentPlayed int `json:"recentPlayed"`
	Feed         int `json:"feed"`
}

// Cursor is the page boundary sent with the next list request.
type Cursor struct {
	EndOfCreatedAt  time.Time `json:"endOfCreatedAt"`
	EndOfArticleIDs []string  `json:"endOfArticleIds"`
}

func (c Cursor) IsZero() bool {
	return c.EndOfCreatedAt.IsZero() && len(c.EndOfArticleIDs) == 0
}

const DefaultPlaybackRate = 1.0

// PlayerSession is the projection of the single active episode.
type PlayerSession struct {
	ArticleID    string  `json:"articleId"`
	Playing      bool    `json:"playing"`
	Open         bool    `json:"open"`
	Loop         bool    `json:"loop"`
	PlaybackRate float64 `json:"playbackRate"`
	Played       float64 `json:"played"`
	Duration     float64 `json:"duration"`
	// Elapsed is the transport position in seconds. It is tracked on its
	// own because Played carries no position while the duration is unknown.
	Elapsed float64 `json:"elapsed"`
}

// Position returns the transport position in seconds.
func (p PlayerSession) Position() float64 {
	if p.Elapsed > 0 || p.Duration <= 0 {
		return p.Elapsed
	}
	return p.Played * p.Duration
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// FolderBucket is one entry of the collections bootstrap payload.
type FolderBucket struct {
	Folder  Folder   `json:"folder"`
	Follows []Follow `json:"follows"`
}
