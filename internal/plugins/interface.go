// Package plugins turns the site URL a user pastes into the feed URL the
// service should follow. Hosts that publish feeds under a predictable
// address get a plugin; everything else passes through unchanged.
package plugins

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// FeedInfo is what a plugin learned about a URL.
type FeedInfo struct {
	// OriginalURL is the URL that was resolved.
	OriginalURL string
	// FeedURL is the address to follow.
	FeedURL string
	// Title is a display hint; the service decides the real title.
	Title    string
	Metadata map[string]string
}

// Plugin resolves URLs for one host.
type Plugin interface {
	Name() string

	CanHandle(u *url.URL) bool

	// Resolve may make HTTP requests through client, for example to query
	// a directory lookup API.
	Resolve(ctx context.Context, u *url.URL, client *http.Client) (*FeedInfo, error)

	// Priority breaks ties when several plugins handle the same URL;
	// higher wins.
	Priority() int
}

// Registry holds the plugins consulted before a follow.
type Registry struct {
	plugins []Plugin
	client  *http.Client
}

func NewRegistry(timeout time.Duration) *Registry {
	return NewRegistryWithClient(&http.Client{Timeout: timeout})
}

func NewRegistryWithClient(client *http.Client) *Registry {
	if client == nil {
		client = http.DefaultClient
	}
	return &Registry{client: client}
}

func (r *Registry) Register(plugin Plugin) {
	r.plugins = append(r.plugins, plugin)
}

// FindPlugin returns the highest priority plugin that handles rawURL, or
// nil.
func (r *Registry) FindPlugin(rawURL string) Plugin {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	return r.find(u)
}

func (r *Registry) find(u *url.URL) Plugin {
	var best Plugin
	highest := -1
	for _, p := range r.plugins {
		if p.CanHandle(u) && p.Priority() > highest {
			best = p
			highest = p.Priority()
		}
	}
	return best
}

// Resolve returns the feed address for rawURL. Without a matching plugin
// the URL is returned as is.
func (r *Registry) Resolve(ctx context.Context, rawURL string) (*FeedInfo, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing URL: %w", err)
	}
	p := r.find(u)
	if p == nil {
		return &FeedInfo{OriginalURL: rawURL, FeedURL: rawURL, Metadata: map[string]string{}}, nil
	}
	info, err := p.Resolve(ctx, u, r.client)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name(), err)
	}
	if info.Metadata == nil {
		info.Metadata = map[string]string{}
	}
	info.Metadata["plugin"] = p.Name()
	return info, nil
}

func (r *Registry) ListPlugins() []Plugin {
	return append([]Plugin(nil), r.plugins...)
}
