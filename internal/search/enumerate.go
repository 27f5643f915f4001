package search

import "plegma/internal/lattice"

type memoKey struct {
	remaining int
	last      lattice.Direction
	pos       lattice.Vec
}

// enumerator generates every direction sequence of a given window depth that
// never takes an immediate reversal. Sub-computations are memoized for the
// duration of one search call, keyed by the remaining depth of the whole
// search, the last direction and the frontier position. In anchored mode,
// subtrees that cannot reach the anchor within the remaining depth are pruned
// by distance and parity.
//
// tail is the number of moves still to come after the current window; callers
// set it before extending each window. Within one window the remaining depth
// is the suffix length plus tail, and windows consume disjoint remaining
// ranges, so memo entries never alias across windows.
type enumerator struct {
	dims   int
	anchor *lattice.Vec
	tail   int
	memo   map[memoKey][][]lattice.Direction
}

func newEnumerator(dims int, anchor *lattice.Vec) *enumerator {
	return &enumerator{
		dims:   dims,
		anchor: anchor,
		memo:   make(map[memoKey][][]lattice.Direction),
	}
}

// sequences lists the legal suffixes of length depth starting at pos.
// hasLast is false only at a chain start, where every direction is open.
// Callers must not mutate the returned paths.
func (e *enumerator) sequences(depth int, last lattice.Direction, hasLast bool, pos lattice.Vec) [][]lattice.Direction {
	remaining := depth + e.tail
	if e.anchor != nil {
		dist := pos.Manhattan(*e.anchor)
		if dist > remaining || (remaining-dist)%2 != 0 {
			return nil
		}
	}
	if depth == 0 {
		return [][]lattice.Direction{nil}
	}

	key := memoKey{remaining: remaining, last: last, pos: pos}
	if hasLast {
		if cached, ok := e.memo[key]; ok {
			return cached
		}
	}

	var out [][]lattice.Direction
	for _, d := range lattice.Directions(e.dims) {
		if hasLast && d == last.Opposite() {
			continue
		}
		next := pos.Add(d.Vec())
		for _, suffix := range e.sequences(depth-1, d, true, next) {
			seq := make([]lattice.Direction, 0, depth)
			seq = append(seq, d)
			seq = append(seq, suffix...)
			out = append(out, seq)
		}
	}
	if hasLast {
		e.memo[key] = out
	}
	return out
}
