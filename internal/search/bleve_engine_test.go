package search

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/fwrdcast/internal/store"
)

func newIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex()
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func ids(results []Result) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, string(r.Kind)+":"+r.ID)
	}
	return out
}

func TestBleveIndex_IndexesAndSearches(t *testing.T) {
	idx := newIndex(t)
	require.NoError(t, idx.Sync(fixture()))

	n, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 5, n, "three articles and two feeds")

	res, err := idx.Search("golang", 10)
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.Equal(t, "article:a2", ids(res)[0])
	assert.Equal(t, "Golang Tips", res[0].Title)

	res, err = idx.Search("bleve", 10)
	require.NoError(t, err)
	assert.Contains(t, ids(res), "article:a2")

	res, err = idx.Search("stories", 10)
	require.NoError(t, err)
	assert.Contains(t, ids(res), "feed:f2")
}

func TestBleveIndex_PrefixMatches(t *testing.T) {
	idx := newIndex(t)
	require.NoError(t, idx.Sync(fixture()))

	res, err := idx.Search("lighth", 10)
	require.NoError(t, err)
	assert.Contains(t, ids(res), "article:a3")
}

func TestBleveIndex_ShortQuery(t *testing.T) {
	idx := newIndex(t)
	require.NoError(t, idx.Sync(fixture()))

	for _, q := range []string{"", "a", "   "} {
		res, err := idx.Search(q, 10)
		require.NoError(t, err)
		assert.Empty(t, res, "query %q", q)
	}
}

func TestBleveIndex_SyncDropsRemoved(t *testing.T) {
	idx := newIndex(t)
	s := fixture()
	require.NoError(t, idx.Sync(s))

	s = store.Apply(s, store.RemoveArticle{ID: "a2"})
	require.NoError(t, idx.Sync(s))

	res, err := idx.Search("bleve", 10)
	require.NoError(t, err)
	assert.NotContains(t, ids(res), "article:a2")

	n, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestBleveIndex_SyncReindexesChanged(t *testing.T) {
	idx := newIndex(t)
	s := fixture()
	require.NoError(t, idx.Sync(s))

	a, ok := s.Lookup("a1")
	require.True(t, ok)
	a.Title = "Hello Lighthouse"
	s = store.Apply(s, store.ContentLoaded{Article: a})
	require.NoError(t, idx.Sync(s))

	res, err := idx.Search("lighthouse", 10)
	require.NoError(t, err)
	assert.Contains(t, ids(res), "article:a1")
}

func TestBleveIndex_ClearedListEmptiesIndex(t *testing.T) {
	idx := newIndex(t)
	s := fixture()
	require.NoError(t, idx.Sync(s))

	s = store.Apply(s, store.Logout{})
	require.NoError(t, idx.Sync(s))

	res, err := idx.Search("golang", 10)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestWatch_FollowsStore(t *testing.T) {
	idx := newIndex(t)
	d := store.NewDispatcher(fixture())
	stop := Watch(d, idx)
	defer stop()

	assert.Eventually(t, func() bool {
		res, err := idx.Search("golang", 10)
		return err == nil && len(res) > 0
	}, 2*time.Second, 10*time.Millisecond)

	d.Dispatch(store.RemoveArticle{ID: "a2"})
	assert.Eventually(t, func() bool {
		res, err := idx.Search("bleve", 10)
		return err == nil && !slices.Contains(ids(res), "article:a2")
	}, 2*time.Second, 10*time.Millisecond)
}
