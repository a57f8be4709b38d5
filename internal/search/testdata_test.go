package search

import (
	"time"

	"github.com/pders01/fwrdcast/internal/model"
	"github.com/pders01/fwrdcast/internal/store"
)

func fixture() store.State {
	s := store.Apply(store.New(), store.BatchCollections{Buckets: []model.FolderBucket{{
		Folder: model.Folder{ID: model.NoFolderID},
		Follows: []model.Follow{
			{FeedID: "f1", Feed: &model.Feed{ID: "f1", Title: "Go Weekly", URL: "https://golangweekly.com/rss"}},
			{FeedID: "f2", Feed: &model.Feed{ID: "f2", Title: "Audio Stories", URL: "https://stories.example/feed"}},
		},
	}}})

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return store.Apply(s, store.BatchAppend{
		Key: model.AllList(),
		Articles: []model.Article{
			{ID: "a1", FeedID: "f1", ContentHash: "h1", OrderedAt: at, Title: "Hello World", Summary: "greeting article"},
			{ID: "a2", FeedID: "f1", ContentHash: "h2", OrderedAt: at.Add(-time.Hour), Title: "Golang Tips", Summary: "bleve and search", Content: "Using bleve for full text search in terminal apps"},
			{ID: "a3", FeedID: "f2", ContentHash: "h3", OrderedAt: at.Add(-2 * time.Hour), Title: "Episode 12", Summary: "a story about lighthouses"},
		},
	})
}
