package store

import (
	"math"

	"github.com/pders01/fwrdcast/internal/dedup"
	"github.com/pders01/fwrdcast/internal/ledger"
	"github.com/pders01/fwrdcast/internal/model"
)

// playerSelect replaces the session wholesale and counts the episode as
// played the first time it is selected.
func playerSelect(s State, articleID string) State {
	if articleID == "" {
		return s
	}
	id := dedup.Canonical(s.Aliases, articleID)
	s.Player = &model.PlayerSession{
		ArticleID:    id,
		Playing:      true,
		Open:         true,
		PlaybackRate: model.DefaultPlaybackRate,
	}

	art, _, ok := known(s, id)
	if !ok || art.Played {
		return s
	}
	s.Totals = ledger.Played(s.Totals, art.Played)
	art.Played = true
	return putArticle(s, art)
}

func playerSetPlaying(s State, playing bool) State {
	if s.Player == nil || s.Player.Playing == playing {
		return s
	}
	p := *s.Player
	p.Playing = playing
	s.Player = &p
	return s
}

func playerProgress(s State, played, duration, position float64) State {
	if s.Player == nil {
		return s
	}
	p := *s.Player
	if !math.IsNaN(duration) && !math.IsInf(duration, 0) && duration >= 0 {
		p.Duration = duration
	}
	if !math.IsNaN(played) {
		p.Played = math.Min(math.Max(played, 0), 1)
	}
	if !math.IsNaN(position) && !math.IsInf(position, 0) {
		p.Elapsed = math.Max(position, 0)
		if p.Duration > 0 {
			p.Elapsed = math.Min(p.Elapsed, p.Duration)
		}
	}
	s.Player = &p
	return s
}

func playerRate(s State, rate float64) State {
	if s.Player == nil || rate <= 0 || math.IsNaN(rate) {
		return s
	}
	p := *s.Player
	p.PlaybackRate = rate
	s.Player = &p
	return s
}

func playerLoop(s State, loop bool) State {
	if s.Player == nil {
		return s
	}
	p := *s.Player
	p.Loop = loop
	s.Player = &p
	return s
}
