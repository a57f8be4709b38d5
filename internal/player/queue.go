package player

import (
	"sort"

	"github.com/pders01/fwrdcast/internal/model"
	"github.com/pders01/fwrdcast/internal/store"
)

// buildQueue projects every known podcast episode, newest first. Ties on
// orderedAt are broken by id so the order is stable between calls.
func buildQueue(s store.State) []model.Article {
	out := make([]model.Article, 0, len(s.Articles)+1)
	for _, a := range s.Articles {
		if a.IsPodcast() {
			out = append(out, a)
		}
	}
	if cur := s.Current; cur != nil && cur.IsPodcast() {
		if _, cached := s.Articles[cur.ID]; !cached {
			out = append(out, *cur)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderedAt.Equal(out[j].OrderedAt) {
			return out[i].OrderedAt.After(out[j].OrderedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func indexOf(queue []model.Article, id string) int {
	for i, a := range queue {
		if a.ID == id {
			return i
		}
	}
	return -1
}
