package refine

import (
	"context"

	"plegma/internal/lattice"
)

// Anneal runs simulated-annealing refinement. Improving substitutions are
// always accepted; a non-improving one is accepted with probability
// 2^((oldScore-newScore)/temperature) against a single uniform draw. The
// temperature cools multiplicatively each iteration and never drops below
// the configured floor, so the walker can end somewhere worse than the
// best fold it visited; Result.Best reports the best. The input chain is
// not modified.
func (r *Refiner) Anneal(ctx context.Context, chain *lattice.Chain, hook TraceFn) (Result, error) {
	if err := r.checkStart(chain); err != nil {
		return Result{}, err
	}
	current := chain.Clone()
	best := chain.Clone()
	temperature := r.startTemp

	var res Result
	for i := 0; i < r.iterations; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		cand, ok, err := r.propose(ctx, current)
		if err != nil {
			return Result{}, err
		}
		res.Iterations++
		if !ok {
			res.Skipped++
		} else {
			oldScore, newScore := current.Score(), cand.Score()
			if newScore < oldScore || r.acceptWorse(oldScore, newScore, temperature) {
				current = cand
				res.Accepted++
			}
			if current.Score() < best.Score() {
				best = current.Clone()
			}
		}
		temperature *= 1 - r.cooling
		if temperature < r.floorTemp {
			temperature = r.floorTemp
		}
		if err := emit(hook, i, current); err != nil {
			return Result{}, err
		}
	}

	res.Best = best
	res.BestScore = best.Score()
	return res, nil
}
