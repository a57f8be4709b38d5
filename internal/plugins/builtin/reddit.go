// Package builtin holds the plugins registered by default.
package builtin

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/pders01/fwrdcast/internal/plugins"
)

// Register adds every built-in plugin to r.
func Register(r *plugins.Registry) {
	r.Register(NewApplePodcastsPlugin())
	r.Register(NewYouTubePlugin())
	r.Register(NewRedditPlugin())
}

// RedditPlugin handles subreddit URLs, which publish RSS under a .rss suffix.
type RedditPlugin struct{}

func NewRedditPlugin() *RedditPlugin {
	return &RedditPlugin{}
}

func (p *RedditPlugin) Name() string {
	return "reddit"
}

func (p *RedditPlugin) CanHandle(u *url.URL) bool {
	switch strings.ToLower(u.Hostname()) {
	case "reddit.com", "www.reddit.com", "old.reddit.com":
	default:
		return false
	}
	return strings.HasPrefix(u.Path, "/r/") && !strings.HasSuffix(u.Path, ".rss")
}

func (p *RedditPlugin) Priority() int {
	return 50
}

func (p *RedditPlugin) Resolve(_ context.Context, u *url.URL, _ *http.Client) (*plugins.FeedInfo, error) {
	subreddit := strings.SplitN(strings.TrimPrefix(u.Path, "/r/"), "/", 2)[0]
	feed := url.URL{Scheme: "https", Host: "www.reddit.com", Path: strings.TrimSuffix(u.Path, "/") + ".rss"}

	return &plugins.FeedInfo{
		OriginalURL: u.String(),
		FeedURL:     feed.String(),
		Title:       "Reddit - r/" + subreddit,
		Metadata: map[string]string{
			"subreddit": subreddit,
		},
	}, nil
}
