package feed

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetcher_Fetch(t *testing.T) {
	tests := []struct {
		name           string
		serverResponse func(w http.ResponseWriter, r *http.Request)
		expectBody     string
		expectError    bool
	}{
		{
			name: "successful fetch",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("User-Agent"); got != "fwrdcast-test/1.0" {
					t.Errorf("expected User-Agent fwrdcast-test/1.0, got %s", got)
				}
				if !strings.Contains(r.Header.Get("Accept"), "application/rss+xml") {
					t.Errorf("expected RSS accept header, got %s", r.Header.Get("Accept"))
				}
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("<rss></rss>"))
			},
			expectBody: "<rss></rss>",
		},
		{
			name: "server error",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			expectError: true,
		},
		{
			name: "not found",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResponse))
			defer server.Close()

			fetcher := NewFetcherWithClient(server.Client(), "fwrdcast-test/1.0")
			resp, err := fetcher.Fetch(context.Background(), server.URL)

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			if string(body) != tt.expectBody {
				t.Errorf("expected body %q, got %q", tt.expectBody, body)
			}
		})
	}
}

func TestFetcher_Defaults(t *testing.T) {
	fetcher := NewFetcher()
	if fetcher.client.Timeout != timeout {
		t.Errorf("expected timeout %v, got %v", timeout, fetcher.client.Timeout)
	}
	if fetcher.userAgent != userAgent {
		t.Errorf("expected default user agent, got %s", fetcher.userAgent)
	}
}

func TestFetcher_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewFetcherWithClient(server.Client(), "").Fetch(ctx, server.URL); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
