package player

import (
	"context"
	"time"

	"github.com/pders01/fwrdcast/internal/debuglog"
	"github.com/pders01/fwrdcast/internal/model"
	"github.com/pders01/fwrdcast/internal/store"
)

// FeedDurations looks up an episode's length in its publisher's feed.
type FeedDurations interface {
	Lookup(ctx context.Context, feedURL, enclosureURL string) (time.Duration, error)
}

type StateReader interface {
	State() store.State
}

// DurationProbe returns a transport probe that takes the enclosure length
// from the cached article and falls back to the publisher's feed. A failed
// lookup yields an unknown duration so playback still starts.
func DurationProbe(s StateReader, feeds FeedDurations, timeout time.Duration) func(url string) (float64, error) {
	return func(url string) (float64, error) {
		st := s.State()
		art, ok := episodeByEnclosure(st, url)
		if !ok {
			return 0, nil
		}
		if art.Duration > 0 {
			return art.Duration, nil
		}
		feedURL := feedURLOf(st, art)
		if feeds == nil || feedURL == "" {
			return 0, nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		d, err := feeds.Lookup(ctx, feedURL, url)
		if err != nil {
			debuglog.WithFields(map[string]interface{}{"feed": feedURL}).Warnf("looking up episode duration: %v", err)
			return 0, nil
		}
		return d.Seconds(), nil
	}
}

func episodeByEnclosure(s store.State, url string) (model.Article, bool) {
	if p := s.Player; p != nil {
		if a, ok := s.Lookup(p.ArticleID); ok && a.EnclosureURL == url {
			return a, true
		}
	}
	if s.Current != nil && s.Current.EnclosureURL == url {
		return *s.Current, true
	}
	for _, a := range s.Articles {
		if a.EnclosureURL == url {
			return a, true
		}
	}
	return model.Article{}, false
}

func feedURLOf(s store.State, a model.Article) string {
	if a.Feed != nil && a.Feed.URL != "" {
		return a.Feed.URL
	}
	if f, ok := s.Feeds[a.FeedID]; ok && f.URL != "" {
		return f.URL
	}
	if f, ok := s.Follows[a.FeedID]; ok && f.Feed != nil {
		return f.Feed.URL
	}
	return ""
}
