package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/pders01/fwrdcast/internal/plugins"
)

const itunesLookupURL = "https://itunes.apple.com/lookup"

var applePodcastID = regexp.MustCompile(`/id(\d+)`)

// ApplePodcastsPlugin resolves a podcasts.apple.com show page to the RSS
// feed behind it through the iTunes lookup API.
type ApplePodcastsPlugin struct {
	// LookupURL overrides the lookup endpoint.
	LookupURL string
}

func NewApplePodcastsPlugin() *ApplePodcastsPlugin {
	return &ApplePodcastsPlugin{LookupURL: itunesLookupURL}
}

func (p *ApplePodcastsPlugin) Name() string  { return "applepodcasts" }
func (p *ApplePodcastsPlugin) Priority() int { return 80 }

func (p *ApplePodcastsPlugin) CanHandle(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	if host != "podcasts.apple.com" && host != "itunes.apple.com" {
		return false
	}
	return applePodcastID.MatchString(u.Path)
}

type itunesLookup struct {
	ResultCount int `json:"resultCount"`
	Results     []struct {
		CollectionName string `json:"collectionName"`
		ArtistName     string `json:"artistName"`
		FeedURL        string `json:"feedUrl"`
	} `json:"results"`
}

func (p *ApplePodcastsPlugin) Resolve(ctx context.Context, u *url.URL, client *http.Client) (*plugins.FeedInfo, error) {
	m := applePodcastID.FindStringSubmatch(u.Path)
	if m == nil {
		return nil, errors.New("missing podcast id")
	}
	id := m[1]

	endpoint := p.LookupURL
	if endpoint == "" {
		endpoint = itunesLookupURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+url.Values{"id": {id}, "entity": {"podcast"}}.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("looking up podcast: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("lookup: HTTP %d", resp.StatusCode)
	}

	var out itunesLookup
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding lookup: %w", err)
	}
	for _, r := range out.Results {
		if r.FeedURL != "" {
			return &plugins.FeedInfo{
				OriginalURL: u.String(),
				FeedURL:     r.FeedURL,
				Title:       r.CollectionName,
				Metadata: map[string]string{
					"itunes_id": id,
					"artist":    r.ArtistName,
				},
			}, nil
		}
	}
	return nil, fmt.Errorf("podcast %s has no public feed", id)
}
