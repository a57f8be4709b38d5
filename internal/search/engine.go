package search

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/pders01/fwrdcast/internal/model"
	"github.com/pders01/fwrdcast/internal/store"
)

// Match is where a query was found inside one article.
type Match struct {
	Field  string // "title", "summary", "content"
	Text   string
	Weight float64
}

// Engine scans the cached state directly. It needs no index and is used
// when the bleve index is disabled.
type Engine struct {
	mu    sync.RWMutex
	state store.State
}

func NewEngine() *Engine {
	return &Engine{state: store.New()}
}

// Sync replaces the state the engine scans.
func (e *Engine) Sync(s store.State) error {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
	return nil
}

func (e *Engine) Search(query string, limit int) ([]Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []Result{}, nil
	}
	terms := tokenize(query)
	if len(terms) == 0 {
		return []Result{}, nil
	}

	e.mu.RLock()
	s := e.state
	e.mu.RUnlock()

	var results []Result
	for id, f := range s.Follows {
		url := ""
		if f.Feed != nil {
			url = f.Feed.URL
		}
		score := scoreField(f.Title(), terms, 3.0) + scoreField(url, terms, 0.5)
		if score > 0 {
			results = append(results, Result{Kind: KindFeed, ID: id, Title: f.Title(), Score: score})
		}
	}
	for id, a := range s.Articles {
		matches := matchArticle(a, terms)
		if len(matches) == 0 {
			continue
		}
		r := Result{Kind: KindArticle, ID: id, Title: a.Title}
		for _, m := range matches {
			r.Score += m.Weight
			if r.Snippet == "" && m.Field != "title" {
				r.Snippet = m.Text
			}
		}
		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// FindInArticle returns the matches of query inside a single article,
// best first. The reader view uses it for in-article find.
func FindInArticle(a *model.Article, query string) []Match {
	if a == nil || len(strings.TrimSpace(query)) < 2 {
		return nil
	}
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil
	}
	matches := matchArticle(*a, terms)
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Weight > matches[j].Weight })
	return matches
}

func matchArticle(a model.Article, terms []string) []Match {
	var matches []Match
	if score := scoreField(a.Title, terms, 4.0); score > 0 {
		matches = append(matches, Match{Field: "title", Text: a.Title, Weight: score})
	}
	if score := scoreField(a.Summary, terms, 2.0); score > 0 {
		matches = append(matches, Match{Field: "summary", Text: truncate(a.Summary, 150), Weight: score})
	}
	if score := scoreField(a.Content, terms, 1.0); score > 0 {
		matches = append(matches, Match{Field: "content", Text: findBestSnippet(a.Content, terms, 200), Weight: score})
	}
	return matches
}

func scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}

	lower := strings.ToLower(text)
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			score += 2.0
			matched++
		}
		for _, word := range words {
			switch {
			case word == term:
				score += 1.5
				matched++
			case strings.HasPrefix(word, term) || strings.HasSuffix(word, term):
				score += 1.0
				matched++
			case strings.Contains(word, term):
				score += 0.5
				matched++
			}
		}
	}

	if len(terms) > 1 && matched > 1 {
		score *= 1.0 + float64(matched)/float64(len(terms))
	}

	tf := float64(matched) / float64(len(words))
	score *= 1.0 + math.Log(1.0+tf)
	return score * weight
}

// findBestSnippet picks the window of words with the most distinct terms.
func findBestSnippet(text string, terms []string, maxLength int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	window := maxLength / 8
	if window > len(words) {
		return truncate(text, maxLength)
	}

	best, bestStart := 0, 0
	for i := 0; i <= len(words)-window; i++ {
		joined := strings.ToLower(strings.Join(words[i:i+window], " "))
		score := 0
		for _, term := range terms {
			if strings.Contains(joined, term) {
				score++
			}
		}
		if score > best {
			best, bestStart = score, i
		}
	}
	return truncate(strings.Join(words[bestStart:bestStart+window], " "), maxLength)
}

// tokenize lowercases text and splits it on anything that is not a letter
// or digit. Single characters are dropped.
func tokenize(text string) []string {
	var terms []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 1 {
			terms = append(terms, current.String())
		}
		current.Reset()
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return terms
}

func truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen-1]) + "…"
}
