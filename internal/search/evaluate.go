package search

import (
	"context"
	"sync"

	"plegma/internal/lattice"
)

// candidate is one fully materializable move sequence from the search start
// position, with its frontier and the score of the partial embedding it
// produces.
type candidate struct {
	seq   []lattice.Direction
	end   lattice.Vec
	score int
}

type evalSpec struct {
	base         *lattice.Chain
	startResidue int
	startPos     lattice.Vec
	// placeCount is the number of leading moves that place residues; an
	// anchored final move only reconnects and places nothing.
	placeCount func(seq []lattice.Direction) int
}

type evalResult struct {
	idx   int
	ok    bool
	end   lattice.Vec
	score int
}

// evaluate materializes every candidate sequence against the committed
// occupancy, discards collisions and returns the survivors in enumeration
// order. With more than one worker the evaluations fan out over a pool;
// results are collected by index, so the outcome is identical at any worker
// count.
func (s *Search) evaluate(ctx context.Context, spec evalSpec, seqs [][]lattice.Direction) ([]candidate, error) {
	if len(seqs) == 0 {
		return nil, nil
	}

	results := make([]evalResult, len(seqs))
	workers := s.workers
	if workers > len(seqs) {
		workers = len(seqs)
	}

	if workers <= 1 {
		for i, seq := range seqs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = evaluateOne(spec, i, seq)
		}
	} else {
		jobs := make(chan int)
		out := make(chan evalResult, len(seqs))
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for idx := range jobs {
					out <- evaluateOne(spec, idx, seqs[idx])
				}
			}()
		}

		feed := func() error {
			defer close(jobs)
			for i := range seqs {
				if err := ctx.Err(); err != nil {
					return err
				}
				jobs <- i
			}
			return nil
		}
		err := feed()
		wg.Wait()
		close(out)
		if err != nil {
			return nil, err
		}
		for res := range out {
			results[res.idx] = res
		}
	}

	survivors := make([]candidate, 0, len(seqs))
	for i, res := range results {
		if !res.ok {
			continue
		}
		survivors = append(survivors, candidate{seq: seqs[i], end: res.end, score: res.score})
	}
	return survivors, nil
}

func evaluateOne(spec evalSpec, idx int, seq []lattice.Direction) evalResult {
	scratch := spec.base.Clone()
	placeCount := spec.placeCount(seq)

	p := spec.startPos
	for j, d := range seq {
		p = p.Add(d.Vec())
		if j >= placeCount {
			continue
		}
		if err := scratch.Place(spec.startResidue+j, p); err != nil {
			return evalResult{idx: idx}
		}
	}
	return evalResult{idx: idx, ok: true, end: p, score: scratch.Score()}
}

// tiedBest returns every candidate achieving the minimal score, in order.
func tiedBest(cands []candidate) []candidate {
	if len(cands) == 0 {
		return nil
	}
	best := cands[0].score
	for _, c := range cands[1:] {
		if c.score < best {
			best = c.score
		}
	}
	out := make([]candidate, 0, len(cands))
	for _, c := range cands {
		if c.score == best {
			out = append(out, c)
		}
	}
	return out
}
