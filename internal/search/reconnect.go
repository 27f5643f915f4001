package search

import (
	"context"
	"fmt"

	"plegma/internal/lattice"
)

// Reconnect enumerates re-embeddings of residues lo..hi between their fixed
// flanking positions, without mutating the chain. The same windowed beam
// machinery as Grow runs with the far flank as terminal anchor: every
// returned sequence carries hi-lo+2 moves from the position of residue lo-1,
// and its final move lands on the position of residue hi+1. All tied-best
// reconnections are returned; an exhausted search reports ErrNoReconnection.
func (s *Search) Reconnect(ctx context.Context, chain *lattice.Chain, lo, hi int) ([][]lattice.Direction, error) {
	if chain.Dims() != s.dims {
		return nil, fmt.Errorf("chain dimensionality %d does not match search dimensionality %d", chain.Dims(), s.dims)
	}
	if lo < 1 || hi < lo || hi > chain.Len()-2 {
		return nil, fmt.Errorf("snippet [%d,%d] must leave both flanks inside the chain", lo, hi)
	}
	for i := lo - 1; i <= hi+1; i++ {
		if !chain.Placed(i) {
			return nil, fmt.Errorf("residue %d is not placed", i)
		}
	}

	scratch := chain.Clone()
	for i := lo; i <= hi; i++ {
		scratch.Unplace(i)
	}
	start := scratch.Pos(lo - 1)
	anchor := scratch.Pos(hi + 1)
	m := hi - lo + 2

	w := s.windowFor(chain)
	enum := newEnumerator(s.dims, &anchor)
	spec := evalSpec{
		base:         scratch,
		startResidue: lo,
		startPos:     start,
		placeCount: func(seq []lattice.Direction) int {
			if len(seq) == m {
				// The reconnecting move lands on the anchor and places
				// nothing.
				return m - 1
			}
			return len(seq)
		},
	}

	beam := []candidate{{end: start}}
	var wide []candidate
	for offset := 0; offset < m; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		step := w
		if m-offset < step {
			step = m - offset
		}
		enum.tail = m - offset - step

		survivors, err := s.evaluate(ctx, spec, extend(beam, enum, step))
		if err != nil {
			return nil, err
		}
		if len(survivors) == 0 && wide != nil {
			survivors, err = s.evaluate(ctx, spec, extend(wide, enum, step))
			if err != nil {
				return nil, err
			}
		}
		if len(survivors) == 0 {
			return nil, fmt.Errorf("%w for snippet [%d,%d]", ErrNoReconnection, lo, hi)
		}

		beam = prune(tiedBest(survivors))
		wide = survivors
		offset += step
	}

	out := make([][]lattice.Direction, 0, len(beam))
	for _, c := range beam {
		out = append(out, c.seq)
	}
	return out, nil
}
