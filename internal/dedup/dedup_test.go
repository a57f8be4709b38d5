package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type rec struct {
	id, fp, dup string
}

func (r rec) RecordID() string       { return r.id }
func (r rec) FingerprintKey() string { return r.fp }
func (r rec) DuplicateOf() string    { return r.dup }

func ids(kept []rec) []string {
	out := make([]string, 0, len(kept))
	for _, r := range kept {
		out = append(out, r.id)
	}
	return out
}

func TestResolve_FingerprintCollision(t *testing.T) {
	prior := []rec{{id: "a", fp: "h1"}, {id: "b", fp: "h2"}}
	incoming := []rec{{id: "c", fp: "h1"}, {id: "d", fp: "h3"}}

	res := Resolve(prior, incoming)

	assert.Equal(t, []string{"a", "b", "d"}, ids(res.Kept))
	assert.Equal(t, map[string]string{"c": "a"}, res.Aliases)
}

func TestResolve_DuplicateOfPresent(t *testing.T) {
	res := Resolve(
		[]rec{{id: "canon", fp: "h1"}},
		[]rec{{id: "copy", fp: "h9", dup: "canon"}},
	)

	assert.Equal(t, []string{"canon"}, ids(res.Kept))
	assert.Equal(t, "canon", Canonical(res.Aliases, "copy"))
	assert.Equal(t, "canon", Canonical(res.Aliases, "canon"))
}

func TestResolve_DuplicateOfMissingKeepsRecord(t *testing.T) {
	res := Resolve(nil, []rec{{id: "orphan", fp: "h1", dup: "gone"}})

	assert.Equal(t, []string{"orphan"}, ids(res.Kept))
	assert.Empty(t, res.Aliases)
}

func TestResolve_DuplicateChainFollowsToTerminal(t *testing.T) {
	res := Resolve(nil, []rec{
		{id: "a", fp: "h1"},
		{id: "b", fp: "h2", dup: "a"},
		{id: "c", fp: "h3", dup: "b"},
	})

	assert.Equal(t, []string{"a"}, ids(res.Kept))
	assert.Equal(t, "a", res.Aliases["b"])
	assert.Equal(t, "a", res.Aliases["c"])
}

func TestResolve_CycleKeepsBoth(t *testing.T) {
	res := Resolve(nil, []rec{
		{id: "a", fp: "h1", dup: "b"},
		{id: "b", fp: "h2", dup: "a"},
	})

	assert.Equal(t, []string{"a", "b"}, ids(res.Kept))
	assert.Empty(t, res.Aliases)
}

func TestResolve_CanonicalLaterFoldedByFingerprint(t *testing.T) {
	res := Resolve(nil, []rec{
		{id: "x", fp: "h1"},
		{id: "alias", fp: "h2", dup: "canon"},
		{id: "canon", fp: "h1"},
	})

	assert.Equal(t, []string{"x"}, ids(res.Kept))
	assert.Equal(t, "x", res.Aliases["alias"])
	assert.Equal(t, "x", res.Aliases["canon"])
}

func TestResolve_SameIDReplacesInPlace(t *testing.T) {
	res := Resolve(
		[]rec{{id: "a", fp: "h1"}, {id: "b", fp: "h2"}},
		[]rec{{id: "a", fp: "h1-updated"}},
	)

	assert.Equal(t, []string{"a", "b"}, ids(res.Kept))
	assert.Equal(t, "h1-updated", res.Kept[0].fp)
}

func TestResolve_Idempotent(t *testing.T) {
	page := []rec{
		{id: "a", fp: "h1"},
		{id: "b", fp: "h1"},
		{id: "c", fp: "h2", dup: "a"},
		{id: "d", fp: "h3"},
	}

	once := Resolve(nil, page)
	twice := Resolve(once.Kept, page)

	assert.Equal(t, ids(once.Kept), ids(twice.Kept))
	assert.Equal(t, once.Aliases, twice.Aliases)
}

func TestResolve_AtMostOnePerFingerprint(t *testing.T) {
	page := []rec{
		{id: "1", fp: "x"}, {id: "2", fp: "y"}, {id: "3", fp: "x"},
		{id: "4", fp: "z", dup: "2"}, {id: "5", fp: "y"}, {id: "6", fp: "z"},
	}

	res := Resolve(nil, page)

	seen := map[string]bool{}
	for _, r := range res.Kept {
		assert.False(t, seen[r.fp], "fingerprint %s kept twice", r.fp)
		seen[r.fp] = true
	}
	for _, r := range page {
		target := Canonical(res.Aliases, r.id)
		assert.Contains(t, ids(res.Kept), target)
	}
}
