package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pders01/fwrdcast/internal/cursor"
	"github.com/pders01/fwrdcast/internal/model"
	"github.com/pders01/fwrdcast/internal/validation"
)

// ListQuery is one page request for a list context.
type ListQuery struct {
	Key     model.ListKey
	Cursor  model.Cursor
	PerPage int
}

// Path returns the endpoint serving q.Key. List routes stay clear of
// /articles/{id}, which addresses a single article.
func (q ListQuery) Path() string {
	switch q.Key.Kind {
	case model.ListSmart:
		return "/articles/smart/" + url.PathEscape(q.Key.ID)
	case model.ListSearch:
		return "/search/articles"
	default:
		return "/articles"
	}
}

// Values encodes the filter, the page size and the cursor.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	switch q.Key.Kind {
	case model.ListFeed:
		v.Set("feedId", q.Key.ID)
	case model.ListFolder:
		v.Set("folderId", q.Key.ID)
	case model.ListSearch:
		v.Set("q", q.Key.Query)
	}
	if q.Key.UnreadOnly {
		v.Set("unreadOnly", "true")
	}
	if q.Key.Type != "" {
		v.Set("type", q.Key.Type)
	}
	if q.Key.TagID != "" {
		v.Set("tagId", q.Key.TagID)
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	cursor.Values(q.Cursor, v)
	return v
}

// ListArticles fetches one page. An empty slice means the list is
// exhausted.
func (c *Client) ListArticles(ctx context.Context, q ListQuery) ([]model.Article, error) {
	var out []model.Article
	if err := c.do(ctx, http.MethodGet, q.Path(), q.Values(), nil, &out); err != nil {
		return nil, err
	}
	for i := range out {
		normalizeArticle(&out[i])
	}
	return out, nil
}

// Article fetches a single article including its content.
func (c *Client) Article(ctx context.Context, id string) (model.Article, error) {
	var out model.Article
	if err := c.do(ctx, http.MethodGet, "/articles/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return model.Article{}, err
	}
	normalizeArticle(&out)
	return out, nil
}

func (c *Client) SetRead(ctx context.Context, id string, read bool) error {
	return c.do(ctx, toggleMethod(read), "/articles/"+url.PathEscape(id)+"/read", nil, nil, nil)
}

func (c *Client) SetStarred(ctx context.Context, id string, starred bool) error {
	return c.do(ctx, toggleMethod(starred), "/articles/"+url.PathEscape(id)+"/star", nil, nil, nil)
}

// ClearUnread marks every unread article of the given feeds and folders
// as read. Empty sets clear everything.
func (c *Client) ClearUnread(ctx context.Context, feedIDs, folderIDs []string) error {
	body := struct {
		FeedIDs   []string `json:"feedIds"`
		FolderIDs []string `json:"folderIds"`
	}{nonNil(feedIDs), nonNil(folderIDs)}
	return c.do(ctx, http.MethodPost, "/articles/read", nil, body, nil)
}

func toggleMethod(on bool) string {
	if on {
		return http.MethodPut
	}
	return http.MethodDelete
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func normalizeArticle(a *model.Article) {
	if a.Feed == nil {
		return
	}
	if a.FeedID == "" {
		a.FeedID = a.Feed.ID
	}
	normalizeFeed(a.Feed)
	if a.Type == "" {
		a.Type = a.Feed.Type
	}
}

// normalizeFeed fills in the url fingerprint for feeds the server sent
// without one.
func normalizeFeed(f *model.Feed) {
	if f.Fingerprint == "" && f.URL != "" {
		f.Fingerprint = validation.Fingerprint(f.URL)
	}
}
