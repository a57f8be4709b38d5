// Package cursor computes pagination boundaries for article lists.
//
// orderedAt is not unique, so a boundary carries the tail timestamp plus
// every id that shares it. The next request excludes exactly those rows
// instead of relying on strict timestamp ordering.
package cursor

import (
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/pders01/fwrdcast/internal/model"
)

const (
	ParamCreatedAt  = "endOfCreatedAt"
	ParamArticleIDs = "endOfArticleIds"
)

// Next returns the cursor for the page following articles. The input does
// not need to be sorted. An empty list yields the zero cursor.
func Next(articles []model.Article) model.Cursor {
	if len(articles) == 0 {
		return model.Cursor{}
	}

	tail := articles[0].OrderedAt
	for _, a := range articles[1:] {
		if a.OrderedAt.Before(tail) {
			tail = a.OrderedAt
		}
	}

	ids := make([]string, 0, 4)
	for _, a := range articles {
		if a.OrderedAt.Equal(tail) && !slices.Contains(ids, a.ID) {
			ids = append(ids, a.ID)
		}
	}

	return model.Cursor{EndOfCreatedAt: tail, EndOfArticleIDs: ids}
}

// Values writes c into v. A zero cursor writes nothing.
func Values(c model.Cursor, v url.Values) {
	if c.IsZero() {
		return
	}
	v.Set(ParamCreatedAt, c.EndOfCreatedAt.UTC().Format(time.RFC3339Nano))
	v.Del(ParamArticleIDs)
	for _, id := range c.EndOfArticleIDs {
		v.Add(ParamArticleIDs, id)
	}
}

// Parse reads a cursor back from query values.
func Parse(v url.Values) (model.Cursor, error) {
	raw := v.Get(ParamCreatedAt)
	if raw == "" {
		return model.Cursor{}, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return model.Cursor{}, fmt.Errorf("parsing %s: %w", ParamCreatedAt, err)
	}
	return model.Cursor{
		EndOfCreatedAt:  ts,
		EndOfArticleIDs: append([]string(nil), v[ParamArticleIDs]...),
	}, nil
}

// Excludes reports whether a lies on or before the boundary in list order,
// meaning a page requested with c must not contain it.
func Excludes(c model.Cursor, a model.Article) bool {
	if c.IsZero() {
		return false
	}
	if a.OrderedAt.After(c.EndOfCreatedAt) {
		return true
	}
	return a.OrderedAt.Equal(c.EndOfCreatedAt) && slices.Contains(c.EndOfArticleIDs, a.ID)
}
