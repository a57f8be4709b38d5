// Package ledger adjusts the aggregate counters as article and feed flags
// change. Every adjustment happens only on an actual flag transition and
// every decrement clamps at zero.
package ledger

import "github.com/pders01/fwrdcast/internal/model"

func Inc(n int) int { return n + 1 }

// Dec decrements n, never going below zero.
func Dec(n int) int { return Sub(n, 1) }

// Sub subtracts d from n, clamping at zero.
func Sub(n, d int) int {
	if d < 0 {
		return n - d
	}
	if n-d < 0 {
		return 0
	}
	return n - d
}

// MarkRead accounts for an article whose unread flag goes from wasUnread
// to false. primary reports whether the article's feed is a primary
// follow.
func MarkRead(t model.Totals, wasUnread, primary bool) model.Totals {
	if !wasUnread {
		return t
	}
	t.RecentRead = Inc(t.RecentRead)
	if primary {
		t.Primary = Dec(t.Primary)
	}
	return t
}

// MarkUnread is the inverse transition. recentRead is a history counter
// and is left untouched.
func MarkUnread(t model.Totals, wasUnread, primary bool) model.Totals {
	if wasUnread {
		return t
	}
	if primary {
		t.Primary = Inc(t.Primary)
	}
	return t
}

func Star(t model.Totals, wasStarred bool) model.Totals {
	if wasStarred {
		return t
	}
	t.Star = Inc(t.Star)
	return t
}

func Unstar(t model.Totals, wasStarred bool) model.Totals {
	if !wasStarred {
		return t
	}
	t.Star = Dec(t.Star)
	return t
}

func Played(t model.Totals, wasPlayed bool) model.Totals {
	if wasPlayed {
		return t
	}
	t.RecentPlayed = Inc(t.RecentPlayed)
	return t
}

// RemoveArticle accounts for an article leaving the cache for good, e.g.
// deleted or unstarred out of the starred collection.
func RemoveArticle(t model.Totals, a model.Article, primary bool) model.Totals {
	if a.Stared {
		t.Star = Dec(t.Star)
	}
	if a.Unread && primary {
		t.Primary = Dec(t.Primary)
	}
	return t
}

// DropUnread accounts for n unread primary articles cleared at once.
func DropUnread(t model.Totals, n int) model.Totals {
	t.Primary = Sub(t.Primary, n)
	return t
}

func Follow(t model.Totals, wasFollowed bool) model.Totals {
	if wasFollowed {
		return t
	}
	t.Feed = Inc(t.Feed)
	return t
}

func Unfollow(t model.Totals, wasFollowed bool) model.Totals {
	if !wasFollowed {
		return t
	}
	t.Feed = Dec(t.Feed)
	return t
}

// Clamp forces every counter to be non-negative. Used on totals coming
// from the server at refresh points.
func Clamp(t model.Totals) model.Totals {
	for _, p := range []*int{&t.Primary, &t.Star, &t.RecentRead, &t.RecentPlayed, &t.Feed} {
		if *p < 0 {
			*p = 0
		}
	}
	return t
}
