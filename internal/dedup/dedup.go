// Package dedup collapses equivalent records. Articles and feeds go
// through the same resolver; only the fingerprint differs (contentHash for
// articles, url fingerprint for feeds).
package dedup

// Record is anything the resolver can fold.
type Record interface {
	RecordID() string
	FingerprintKey() string
	DuplicateOf() string
}

// Result holds the surviving records in stable merge order together with
// the alias table mapping every folded id to its canonical kept id.
type Result[T Record] struct {
	Kept    []T
	Aliases map[string]string
}

// Resolve walks prior then incoming records and keeps at most one record
// per fingerprint. An incoming record that shares an id with a prior one
// replaces it in place. A record whose duplicate-of target is present is
// aliased to that target; a dangling or cyclic chain leaves the record as
// its own canonical entry.
func Resolve[T Record](prior, incoming []T) Result[T] {
	union, index := merge(prior, incoming)

	res := Result[T]{
		Kept:    make([]T, 0, len(union)),
		Aliases: make(map[string]string),
	}
	seen := make(map[string]string, len(union))
	kept := make(map[string]bool, len(union))

	for _, r := range union {
		id := r.RecordID()
		fp := r.FingerprintKey()

		if k, ok := seen[fp]; ok && k != id {
			res.Aliases[id] = k
			continue
		}

		if target, ok := terminal(index, r); ok {
			res.Aliases[id] = target
			if _, taken := seen[fp]; !taken {
				seen[fp] = target
			}
			continue
		}

		res.Kept = append(res.Kept, r)
		kept[id] = true
		seen[fp] = id
	}

	for id := range res.Aliases {
		target, ok := follow(res.Aliases, id)
		if !ok || !kept[target] {
			// Should not happen for well-formed input; drop the alias
			// rather than point at nothing.
			delete(res.Aliases, id)
			continue
		}
		res.Aliases[id] = target
	}

	return res
}

// Canonical resolves id through aliases. Ids without an alias resolve to
// themselves.
func Canonical(aliases map[string]string, id string) string {
	if target, ok := follow(aliases, id); ok {
		return target
	}
	return id
}

func merge[T Record](prior, incoming []T) ([]T, map[string]T) {
	union := make([]T, 0, len(prior)+len(incoming))
	pos := make(map[string]int, len(prior)+len(incoming))
	for _, batch := range [][]T{prior, incoming} {
		for _, r := range batch {
			id := r.RecordID()
			if i, ok := pos[id]; ok {
				union[i] = r
				continue
			}
			pos[id] = len(union)
			union = append(union, r)
		}
	}

	index := make(map[string]T, len(union))
	for _, r := range union {
		index[r.RecordID()] = r
	}
	return union, index
}

// terminal follows the duplicate-of chain starting at r and returns the
// last record in the chain that is present in index.
func terminal[T Record](index map[string]T, r T) (string, bool) {
	id := r.RecordID()
	next := r.DuplicateOf()
	if next == "" || next == id {
		return "", false
	}

	visited := map[string]bool{id: true}
	current := ""
	for next != "" {
		rec, ok := index[next]
		if !ok {
			break
		}
		if visited[next] {
			return "", false
		}
		visited[next] = true
		current = next
		next = rec.DuplicateOf()
		if next == current {
			break
		}
	}

	if current == "" {
		return "", false
	}
	return current, true
}

func follow(aliases map[string]string, id string) (string, bool) {
	target, ok := aliases[id]
	if !ok {
		return "", false
	}
	for i := 0; i <= len(aliases); i++ {
		next, ok := aliases[target]
		if !ok {
			return target, true
		}
		target = next
	}
	return "", false
}
