package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pders01/fwrdcast/internal/model"
	"github.com/pders01/fwrdcast/internal/validation"
)

// Collections fetches the folder tree. Follows outside any folder arrive
// in the bucket whose folder id is model.NoFolderID.
func (c *Client) Collections(ctx context.Context) ([]model.FolderBucket, error) {
	var out []model.FolderBucket
	if err := c.do(ctx, http.MethodGet, "/collections", nil, nil, &out); err != nil {
		return nil, err
	}
	for i := range out {
		for j := range out[i].Follows {
			f := &out[i].Follows[j]
			if f.Feed == nil {
				continue
			}
			if f.FeedID == "" {
				f.FeedID = f.Feed.ID
			}
			normalizeFeed(f.Feed)
		}
	}
	return out, nil
}

// Follow subscribes to the feed at feedURL. The returned follow carries
// the feed as the server resolved it, which may declare a duplicate-of.
func (c *Client) Follow(ctx context.Context, feedURL, folderID string) (model.Follow, error) {
	normalized, err := validation.NewURLValidator().ValidateAndNormalize(feedURL)
	if err != nil {
		return model.Follow{}, fmt.Errorf("invalid feed URL: %w", err)
	}

	body := struct {
		URL      string `json:"url"`
		FolderID string `json:"folderId,omitempty"`
	}{normalized, folderID}

	var out model.Follow
	if err := c.do(ctx, http.MethodPost, "/follows", nil, body, &out); err != nil {
		return model.Follow{}, err
	}
	if out.Feed != nil {
		if out.FeedID == "" {
			out.FeedID = out.Feed.ID
		}
		normalizeFeed(out.Feed)
	}
	return out, nil
}

func (c *Client) Unfollow(ctx context.Context, feedID string) error {
	return c.do(ctx, http.MethodDelete, "/follows/"+url.PathEscape(feedID), nil, nil, nil)
}

// MoveFeed moves a follow into folderID; model.NoFolderID moves it out of
// any folder.
func (c *Client) MoveFeed(ctx context.Context, feedID, folderID string) error {
	if folderID == "" {
		folderID = model.NoFolderID
	}
	body := struct {
		FolderID string `json:"folderId"`
	}{folderID}
	return c.do(ctx, http.MethodPatch, "/follows/"+url.PathEscape(feedID), nil, body, nil)
}

func (c *Client) CreateFolder(ctx context.Context, name string) (model.Folder, error) {
	body := struct {
		Name string `json:"name"`
	}{name}
	var out model.Folder
	if err := c.do(ctx, http.MethodPost, "/folders", nil, body, &out); err != nil {
		return model.Folder{}, err
	}
	return out, nil
}

func (c *Client) RenameFolder(ctx context.Context, id, name string) error {
	body := struct {
		Name string `json:"name"`
	}{name}
	return c.do(ctx, http.MethodPatch, "/folders/"+url.PathEscape(id), nil, body, nil)
}

// DeleteFolders removes folders. With unfollow set the follows inside are
// removed too (restricted to feedIDs when non-empty); otherwise they move
// out of any folder.
func (c *Client) DeleteFolders(ctx context.Context, ids []string, unfollow bool, feedIDs []string) error {
	body := struct {
		IDs      []string `json:"ids"`
		Unfollow bool     `json:"unfollow"`
		FeedIDs  []string `json:"feedIds,omitempty"`
	}{nonNil(ids), unfollow, feedIDs}
	return c.do(ctx, http.MethodPost, "/folders/delete", nil, body, nil)
}

func (c *Client) Totals(ctx context.Context) (model.Totals, error) {
	var out model.Totals
	if err := c.do(ctx, http.MethodGet, "/totals", nil, nil, &out); err != nil {
		return model.Totals{}, err
	}
	return out, nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodGet, "/me", nil, nil, &out); err != nil {
		return model.User{}, err
	}
	return out, nil
}
