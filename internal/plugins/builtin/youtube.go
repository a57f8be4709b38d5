package builtin

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/pders01/fwrdcast/internal/plugins"
)

const youtubeFeedBase = "https://www.youtube.com/feeds/videos.xml"

// YouTubePlugin maps channel and playlist pages to their Atom feeds.
// Handle URLs (/@name) need the channel id from the page and are left
// alone.
type YouTubePlugin struct{}

func NewYouTubePlugin() *YouTubePlugin {
	return &YouTubePlugin{}
}

func (p *YouTubePlugin) Name() string  { return "youtube" }
func (p *YouTubePlugin) Priority() int { return 60 }

func (p *YouTubePlugin) CanHandle(u *url.URL) bool {
	switch strings.ToLower(u.Hostname()) {
	case "youtube.com", "www.youtube.com", "m.youtube.com":
	default:
		return false
	}
	return strings.HasPrefix(u.Path, "/channel/") ||
		(u.Path == "/playlist" && u.Query().Get("list") != "")
}

func (p *YouTubePlugin) Resolve(_ context.Context, u *url.URL, _ *http.Client) (*plugins.FeedInfo, error) {
	q := url.Values{}
	meta := map[string]string{}

	if list := u.Query().Get("list"); u.Path == "/playlist" && list != "" {
		q.Set("playlist_id", list)
		meta["playlist_id"] = list
	} else {
		id := strings.SplitN(strings.TrimPrefix(u.Path, "/channel/"), "/", 2)[0]
		if id == "" {
			return nil, errors.New("missing channel id")
		}
		q.Set("channel_id", id)
		meta["channel_id"] = id
	}

	return &plugins.FeedInfo{
		OriginalURL: u.String(),
		FeedURL:     youtubeFeedBase + "?" + q.Encode(),
		Metadata:    meta,
	}, nil
}
