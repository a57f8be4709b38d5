package search

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/fwrdcast/internal/model"
	"github.com/pders01/fwrdcast/internal/store"
)

// BleveIndex is an in-memory full-text index over the cached articles and
// the followed feeds. It holds nothing the store does not hold; Sync
// brings it in line with a store state.
type BleveIndex struct {
	mu      sync.Mutex
	idx     bleve.Index
	indexed map[string]string // doc id -> content signature
}

func NewBleveIndex() (*BleveIndex, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating search index: %w", err)
	}
	return &BleveIndex{idx: idx, indexed: make(map[string]string)}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = true
	title.IncludeTermVectors = true

	summary := bleve.NewTextFieldMapping()
	summary.Analyzer = standard.Name
	summary.Store = true

	content := bleve.NewTextFieldMapping()
	content.Analyzer = standard.Name
	content.Store = false

	url := bleve.NewTextFieldMapping()
	url.Analyzer = standard.Name
	url.Store = true

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("summary", summary)
	dm.AddFieldMappingsAt("content", content)
	dm.AddFieldMappingsAt("url", url)

	im.DefaultMapping = dm
	return im
}

type document struct {
	fields    map[string]any
	signature string
}

func collect(s store.State) map[string]document {
	docs := make(map[string]document, len(s.Articles)+len(s.Follows))
	for id, a := range s.Articles {
		docs[docIDForArticle(id)] = articleDoc(a)
	}
	if cur := s.Current; cur != nil {
		if _, cached := s.Articles[cur.ID]; !cached {
			docs[docIDForArticle(cur.ID)] = articleDoc(*cur)
		}
	}
	for id, f := range s.Follows {
		url := ""
		if f.Feed != nil {
			url = f.Feed.URL
		}
		docs[docIDForFeed(id)] = document{
			fields:    map[string]any{"type": string(KindFeed), "title": f.Title(), "url": url},
			signature: f.Title() + "\x00" + url,
		}
	}
	return docs
}

func articleDoc(a model.Article) document {
	return document{
		fields: map[string]any{
			"type":    string(KindArticle),
			"feed_id": a.FeedID,
			"title":   a.Title,
			"summary": a.Summary,
			"content": a.Content,
			"url":     a.URL,
		},
		signature: strings.Join([]string{a.Title, a.Summary, a.URL, fmt.Sprint(len(a.Content))}, "\x00"),
	}
}

// Sync indexes new or changed documents and drops those no longer cached.
func (b *BleveIndex) Sync(s store.State) error {
	docs := collect(s)

	b.mu.Lock()
	defer b.mu.Unlock()

	batch := b.idx.NewBatch()
	for id, d := range docs {
		if b.indexed[id] == d.signature {
			continue
		}
		if err := batch.Index(id, d.fields); err != nil {
			return fmt.Errorf("indexing %s: %w", id, err)
		}
	}
	for id := range b.indexed {
		if _, ok := docs[id]; !ok {
			batch.Delete(id)
		}
	}
	if batch.Size() == 0 {
		return nil
	}
	if err := b.idx.Batch(batch); err != nil {
		return fmt.Errorf("applying index batch: %w", err)
	}

	b.indexed = make(map[string]string, len(docs))
	for id, d := range docs {
		b.indexed[id] = d.signature
	}
	return nil
}

func (b *BleveIndex) Search(query string, limit int) ([]Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []Result{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	// OR of per-term matches across key fields with boosts
	var qs []bleveQuery.Query
	for _, tok := range tokenize(query) {
		for _, f := range []struct {
			field        string
			match, prefx float64
		}{
			{"title", 4.0, 3.5},
			{"summary", 2.0, 1.8},
			{"content", 1.0, 0.8},
			{"url", 0.5, 0.3},
		} {
			m := bleve.NewMatchQuery(tok)
			m.SetField(f.field)
			m.SetBoost(f.match)
			p := bleve.NewPrefixQuery(tok)
			p.SetField(f.field)
			p.SetBoost(f.prefx)
			qs = append(qs, m, p)
		}
	}
	if len(qs) == 0 {
		return []Result{}, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	req.Fields = []string{"title", "summary"}

	b.mu.Lock()
	defer b.mu.Unlock()

	res, err := b.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}

	out := make([]Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		if _, ok := b.indexed[h.ID]; !ok {
			continue
		}
		r := Result{Score: h.Score}
		switch {
		case strings.HasPrefix(h.ID, "feed:"):
			r.Kind, r.ID = KindFeed, strings.TrimPrefix(h.ID, "feed:")
		case strings.HasPrefix(h.ID, "article:"):
			r.Kind, r.ID = KindArticle, strings.TrimPrefix(h.ID, "article:")
		default:
			continue
		}
		if t, ok := h.Fields["title"].(string); ok {
			r.Title = t
		}
		if s, ok := h.Fields["summary"].(string); ok {
			r.Snippet = truncate(s, 160)
		}
		out = append(out, r)
	}
	return out, nil
}

// DocCount reports total documents in the index.
func (b *BleveIndex) DocCount() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, err := b.idx.DocCount()
	return int(n), err
}

func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.idx.Close()
}

func docIDForFeed(feedID string) string   { return "feed:" + feedID }
func docIDForArticle(artID string) string { return "article:" + artID }
