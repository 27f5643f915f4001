package refine

import (
	"context"

	"plegma/internal/lattice"
)

// Hillclimb runs strict-descent refinement: each iteration re-folds one
// random snippet of the best fold so far and keeps the substitution only
// when it strictly lowers the score. The input chain is not modified.
func (r *Refiner) Hillclimb(ctx context.Context, chain *lattice.Chain, hook TraceFn) (Result, error) {
	if err := r.checkStart(chain); err != nil {
		return Result{}, err
	}
	best := chain.Clone()

	var res Result
	for i := 0; i < r.iterations; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		cand, ok, err := r.propose(ctx, best)
		if err != nil {
			return Result{}, err
		}
		res.Iterations++
		if !ok {
			res.Skipped++
		} else if cand.Score() < best.Score() {
			best = cand
			res.Accepted++
		}
		if err := emit(hook, i, best); err != nil {
			return Result{}, err
		}
	}

	res.Best = best
	res.BestScore = best.Score()
	return res, nil
}
