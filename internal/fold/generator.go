package fold

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"plegma/internal/lattice"
)

const (
	DefaultMaxBacktracks = 5000
	DefaultMaxRestarts   = 25
)

// ErrNoFold reports that no self-avoiding embedding was found within the
// restart budget.
var ErrNoFold = errors.New("no valid fold found")

var errBacktrackBudget = errors.New("backtrack budget exhausted")

type GeneratorConfig struct {
	Dims          int
	MaxBacktracks int
	MaxRestarts   int
	Seed          int64
}

// Generator builds initial self-avoiding embeddings by randomized
// depth-first placement with backtracking.
type Generator struct {
	dims          int
	maxBacktracks int
	maxRestarts   int
	rng           *rand.Rand
}

func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	if cfg.Dims != 2 && cfg.Dims != 3 {
		return nil, fmt.Errorf("dimensions must be 2 or 3, got %d", cfg.Dims)
	}
	if cfg.MaxBacktracks < 0 {
		return nil, fmt.Errorf("max backtracks must be >= 0, got %d", cfg.MaxBacktracks)
	}
	if cfg.MaxRestarts < 0 {
		return nil, fmt.Errorf("max restarts must be >= 0, got %d", cfg.MaxRestarts)
	}
	if cfg.MaxBacktracks == 0 {
		cfg.MaxBacktracks = DefaultMaxBacktracks
	}
	if cfg.MaxRestarts == 0 {
		cfg.MaxRestarts = DefaultMaxRestarts
	}
	return &Generator{
		dims:          cfg.Dims,
		maxBacktracks: cfg.MaxBacktracks,
		maxRestarts:   cfg.MaxRestarts,
		rng:           rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Generate builds a chain for sequence and embeds it.
func (g *Generator) Generate(ctx context.Context, sequence string) (*lattice.Chain, error) {
	chain, err := lattice.NewChain(sequence, g.dims)
	if err != nil {
		return nil, err
	}
	if err := g.Fold(ctx, chain); err != nil {
		return nil, err
	}
	return chain, nil
}

// Fold embeds an existing chain as a self-avoiding walk from the origin.
// Any prior placements are discarded. A full restart is performed whenever
// the backtrack counter exceeds its bound; after the restart budget is spent
// the walk gives up with ErrNoFold.
func (g *Generator) Fold(ctx context.Context, chain *lattice.Chain) error {
	if chain.Dims() != g.dims {
		return fmt.Errorf("chain dimensionality %d does not match generator dimensionality %d", chain.Dims(), g.dims)
	}
	for restart := 0; restart <= g.maxRestarts; restart++ {
		err := g.attempt(ctx, chain)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errBacktrackBudget) {
			return err
		}
	}
	return fmt.Errorf("%w: sequence %s gave up after %d attempts", ErrNoFold, chain.Sequence(), g.maxRestarts+1)
}

func (g *Generator) attempt(ctx context.Context, chain *lattice.Chain) error {
	chain.Reset()
	if err := chain.Place(0, lattice.Vec{}); err != nil {
		return err
	}
	n := chain.Len()
	if n == 1 {
		return nil
	}

	alphabet := lattice.Directions(g.dims)
	// lastMove[i] is the move that placed residue i; exclude[i] bars moves
	// when residue i is re-placed after a dead end one step further on.
	lastMove := make([]lattice.Direction, n)
	exclude := make([]map[lattice.Direction]bool, n)

	backtracks := 0
	i := 1
	for i < n {
		if err := ctx.Err(); err != nil {
			return err
		}

		options := g.options(alphabet, lastMove, exclude[i], i)
		g.rng.Shuffle(len(options), func(a, b int) {
			options[a], options[b] = options[b], options[a]
		})

		placed := false
		for _, d := range options {
			p := chain.Pos(i - 1).Add(d.Vec())
			if !chain.CanPlace(p) {
				continue
			}
			if err := chain.Place(i, p); err != nil {
				return err
			}
			lastMove[i] = d
			exclude[i] = nil
			placed = true
			break
		}
		if placed {
			i++
			continue
		}

		backtracks++
		if backtracks > g.maxBacktracks {
			return errBacktrackBudget
		}
		if i <= 1 {
			// Residue 1 only dead-ends through stale exclusions; clearing
			// them restores the full alphabet around the origin.
			exclude[1] = nil
			continue
		}

		// Retreat one residue. Bar the move that produced the dead end and
		// the move that led into the anchor, so the same branch is not
		// retried immediately; the reversal is blocked by occupancy.
		prev := i - 1
		barred := map[lattice.Direction]bool{lastMove[prev]: true}
		if prev >= 2 {
			barred[lastMove[prev-1]] = true
		}
		chain.Unplace(prev)
		exclude[prev] = barred
		i = prev
	}
	return nil
}

func (g *Generator) options(alphabet, lastMove []lattice.Direction, barred map[lattice.Direction]bool, i int) []lattice.Direction {
	out := make([]lattice.Direction, 0, len(alphabet))
	for _, d := range alphabet {
		if i >= 2 && d == lastMove[i-1].Opposite() {
			continue
		}
		if barred[d] {
			continue
		}
		out = append(out, d)
	}
	return out
}
