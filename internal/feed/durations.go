package feed

import (
	"context"
	"sync"
	"time"
)

// Durations finds episode lengths in the publisher's feed. Each feed is
// downloaded once; later lookups are served from memory.
type Durations struct {
	fetcher *Fetcher
	parser  *Parser

	mu    sync.Mutex
	feeds map[string]map[string]time.Duration
}

func NewDurations(fetcher *Fetcher, parser *Parser) *Durations {
	return &Durations{
		fetcher: fetcher,
		parser:  parser,
		feeds:   make(map[string]map[string]time.Duration),
	}
}

// Lookup returns the itunes:duration of the episode whose enclosure is
// enclosureURL, or 0 when the feed lists no length for it.
func (d *Durations) Lookup(ctx context.Context, feedURL, enclosureURL string) (time.Duration, error) {
	d.mu.Lock()
	byEnclosure, ok := d.feeds[feedURL]
	d.mu.Unlock()
	if ok {
		return byEnclosure[enclosureURL], nil
	}

	resp, err := d.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	preview, err := d.parser.Parse(resp.Body)
	if err != nil {
		return 0, err
	}
	byEnclosure = make(map[string]time.Duration, len(preview.Episodes))
	for _, ep := range preview.Episodes {
		if ep.EnclosureURL != "" && ep.Duration > 0 {
			byEnclosure[ep.EnclosureURL] = ep.Duration
		}
	}

	d.mu.Lock()
	d.feeds[feedURL] = byEnclosure
	d.mu.Unlock()
	return byEnclosure[enclosureURL], nil
}
