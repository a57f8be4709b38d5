package feed

import (
	"context"
	"fmt"

	"github.com/pders01/fwrdcast/internal/plugins"
)

// Resolver maps a site URL to its feed URL.
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) (*plugins.FeedInfo, error)
}

type Previewer struct {
	fetcher  *Fetcher
	parser   *Parser
	resolver Resolver
}

// NewPreviewer builds a previewer. resolver may be nil.
func NewPreviewer(fetcher *Fetcher, parser *Parser, resolver Resolver) *Previewer {
	return &Previewer{fetcher: fetcher, parser: parser, resolver: resolver}
}

// Preview resolves rawURL, downloads the feed and parses it. limit caps
// the number of episodes kept; zero keeps all of them.
func (p *Previewer) Preview(ctx context.Context, rawURL string, limit int) (*Preview, error) {
	feedURL := rawURL
	if p.resolver != nil {
		info, err := p.resolver.Resolve(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("resolving feed: %w", err)
		}
		feedURL = info.FeedURL
	}

	resp, err := p.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	preview, err := p.parser.Parse(resp.Body)
	if err != nil {
		return nil, err
	}
	preview.FeedURL = feedURL
	if limit > 0 && len(preview.Episodes) > limit {
		preview.Episodes = preview.Episodes[:limit]
	}
	return preview, nil
}
