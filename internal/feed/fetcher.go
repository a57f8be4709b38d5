// Package feed fetches a feed straight from its publisher so a user can
// preview it before following. The remote service does the real polling;
// nothing here is persisted.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const (
	userAgent = "fwrdcast/1.0 (podcast client; github.com/pders01/fwrdcast)"
	timeout   = 30 * time.Second
)

type Fetcher struct {
	client    *http.Client
	userAgent string
}

func NewFetcher() *Fetcher {
	return NewFetcherWithClient(&http.Client{Timeout: timeout}, "")
}

func NewFetcherWithClient(client *http.Client, ua string) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if ua == "" {
		ua = userAgent
	}
	return &Fetcher{client: client, userAgent: ua}
}

// Fetch returns the open response for url. The caller closes the body.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}

	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	return resp, nil
}
