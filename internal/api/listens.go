package api

import (
	"context"
	"net/http"
)

// Progress is the body of a playback progress report.
type Progress struct {
	ArticleID string  `json:"articleId"`
	Open      bool    `json:"open"`
	Playing   bool    `json:"playing"`
	Played    float64 `json:"played"`
	Duration  float64 `json:"duration"`
	// Position in seconds, sent even when the duration is still unknown.
	Position float64 `json:"position"`
}

// ReportProgress posts a listen. The response body is ignored.
func (c *Client) ReportProgress(ctx context.Context, p Progress) error {
	return c.do(ctx, http.MethodPost, "/listens", nil, p, nil)
}
