package search

import (
	"context"
	"fmt"

	"plegma/internal/lattice"
)

// extend appends every legal window suffix to every prefix entry, yielding
// the candidate sequences of the next window in deterministic order.
func extend(entries []candidate, enum *enumerator, step int) [][]lattice.Direction {
	var seqs [][]lattice.Direction
	for _, entry := range entries {
		var last lattice.Direction
		hasLast := len(entry.seq) > 0
		if hasLast {
			last = entry.seq[len(entry.seq)-1]
		}
		for _, suffix := range enum.sequences(step, last, hasLast, entry.end) {
			seq := make([]lattice.Direction, 0, len(entry.seq)+len(suffix))
			seq = append(seq, entry.seq...)
			seq = append(seq, suffix...)
			seqs = append(seqs, seq)
		}
	}
	return seqs
}

// Grow embeds the whole chain from the origin, window by window. Each window
// extends the beam of tied-best prefixes, discards collisions against the
// global occupancy, retains the minimal-score ties, prunes
// geometrically-equivalent shapes, and advances. A window whose beam empties
// is retried from the previous window's full survivor list; if that also
// fails, Grow reports ErrNoExtension. The final pick among the tied-best
// beam is uniform at random and is committed into the chain.
func (s *Search) Grow(ctx context.Context, chain *lattice.Chain) error {
	if chain.Dims() != s.dims {
		return fmt.Errorf("chain dimensionality %d does not match search dimensionality %d", chain.Dims(), s.dims)
	}
	m := chain.Len() - 1
	chain.Reset()
	if err := chain.Place(0, lattice.Vec{}); err != nil {
		return err
	}
	if m == 0 {
		return nil
	}

	w := s.windowFor(chain)
	enum := newEnumerator(s.dims, nil)
	spec := evalSpec{
		base:         chain,
		startResidue: 1,
		startPos:     lattice.Vec{},
		placeCount:   func(seq []lattice.Direction) int { return len(seq) },
	}

	beam := []candidate{{end: lattice.Vec{}}}
	var wide []candidate
	for offset := 0; offset < m; {
		if err := ctx.Err(); err != nil {
			return err
		}
		step := w
		if m-offset < step {
			step = m - offset
		}
		enum.tail = m - offset - step

		survivors, err := s.evaluate(ctx, spec, extend(beam, enum, step))
		if err != nil {
			return err
		}
		if len(survivors) == 0 && wide != nil {
			survivors, err = s.evaluate(ctx, spec, extend(wide, enum, step))
			if err != nil {
				return err
			}
		}
		if len(survivors) == 0 {
			return fmt.Errorf("%w: stuck after %d of %d moves", ErrNoExtension, offset, m)
		}

		beam = prune(tiedBest(survivors))
		wide = survivors
		offset += step
	}

	pick := beam[s.rng.Intn(len(beam))]
	p := lattice.Vec{}
	for j, d := range pick.seq {
		p = p.Add(d.Vec())
		if err := chain.Place(1+j, p); err != nil {
			return err
		}
	}
	return nil
}
