// Package refine improves existing folds by repeatedly re-folding short
// snippets, either greedily (hillclimbing) or with simulated annealing.
package refine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"plegma/internal/lattice"
	"plegma/internal/search"
)

const (
	DefaultIterations = 1000
	DefaultMinSnippet = 3
	DefaultMaxSnippet = 20

	DefaultStartTemperature = 10.0
	DefaultCoolingRate      = 0.0005
	DefaultMinTemperature   = 1e-6
)

// Config carries the knobs shared by both refinement strategies. Zero
// values select the defaults above; the temperature fields only matter
// for Anneal.
type Config struct {
	Dims       int
	Iterations int
	Workers    int
	Seed       int64

	// Snippet lengths are counted in residues. A snippet keeps both of
	// its flanking residues fixed, so chains shorter than MinSnippet+2
	// refine as a no-op.
	MinSnippet int
	MaxSnippet int

	StartTemperature float64
	CoolingRate      float64
	MinTemperature   float64
}

// TraceEntry is handed to the per-iteration hook after each decide phase.
// Moves is the accepted state's direction string.
type TraceEntry struct {
	Iteration int
	Moves     string
	Score     int
}

type TraceFn func(TraceEntry)

// Result reports the best chain observed during a refinement run, which
// is not necessarily the state the walker ended on.
type Result struct {
	Best       *lattice.Chain
	BestScore  int
	Iterations int
	Accepted   int
	Skipped    int
}

type Refiner struct {
	dims       int
	iterations int
	minSnippet int
	maxSnippet int
	startTemp  float64
	cooling    float64
	floorTemp  float64
	search     *search.Search
	rng        *rand.Rand
}

func New(cfg Config) (*Refiner, error) {
	if cfg.Dims != 2 && cfg.Dims != 3 {
		return nil, fmt.Errorf("dimensions must be 2 or 3, got %d", cfg.Dims)
	}
	iterations := cfg.Iterations
	if iterations < 0 {
		return nil, fmt.Errorf("iterations must be >= 0, got %d", iterations)
	}
	if iterations == 0 {
		iterations = DefaultIterations
	}
	minSnippet := cfg.MinSnippet
	if minSnippet == 0 {
		minSnippet = DefaultMinSnippet
	}
	if minSnippet < 1 {
		return nil, fmt.Errorf("min snippet must be >= 1, got %d", minSnippet)
	}
	maxSnippet := cfg.MaxSnippet
	if maxSnippet == 0 {
		maxSnippet = DefaultMaxSnippet
	}
	if maxSnippet < minSnippet {
		return nil, fmt.Errorf("max snippet %d below min snippet %d", maxSnippet, minSnippet)
	}
	startTemp := cfg.StartTemperature
	if startTemp < 0 {
		return nil, fmt.Errorf("start temperature must be >= 0, got %g", startTemp)
	}
	if startTemp == 0 {
		startTemp = DefaultStartTemperature
	}
	cooling := cfg.CoolingRate
	if cooling < 0 || cooling >= 1 {
		return nil, fmt.Errorf("cooling rate must be in [0,1), got %g", cooling)
	}
	if cooling == 0 {
		cooling = DefaultCoolingRate
	}
	floorTemp := cfg.MinTemperature
	if floorTemp < 0 {
		return nil, fmt.Errorf("min temperature must be >= 0, got %g", floorTemp)
	}
	if floorTemp == 0 {
		floorTemp = DefaultMinTemperature
	}
	if floorTemp > startTemp {
		return nil, fmt.Errorf("min temperature %g above start temperature %g", floorTemp, startTemp)
	}
	s, err := search.New(search.Config{Dims: cfg.Dims, Workers: cfg.Workers, Seed: cfg.Seed})
	if err != nil {
		return nil, err
	}
	return &Refiner{
		dims:       cfg.Dims,
		iterations: iterations,
		minSnippet: minSnippet,
		maxSnippet: maxSnippet,
		startTemp:  startTemp,
		cooling:    cooling,
		floorTemp:  floorTemp,
		search:     s,
		rng:        rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

func (r *Refiner) checkStart(chain *lattice.Chain) error {
	if chain.Dims() != r.dims {
		return fmt.Errorf("chain dimensions %d do not match refiner dimensions %d", chain.Dims(), r.dims)
	}
	if !chain.IsValid() {
		return errors.New("starting chain must be a fully placed valid fold")
	}
	return nil
}

// propose picks a random snippet of the current fold, enumerates its
// reconnections and returns one of the tied-best substitutions applied to
// a clone. ok is false when the chain admits no snippet or no
// reconnection exists; the caller treats that iteration as a no-op.
func (r *Refiner) propose(ctx context.Context, current *lattice.Chain) (*lattice.Chain, bool, error) {
	interior := current.Len() - 2
	maxLen := r.maxSnippet
	if interior < maxLen {
		maxLen = interior
	}
	if maxLen < r.minSnippet {
		return nil, false, nil
	}
	length := r.minSnippet + r.rng.Intn(maxLen-r.minSnippet+1)
	lo := 1 + r.rng.Intn(interior-length+1)
	hi := lo + length - 1

	seqs, err := r.search.Reconnect(ctx, current, lo, hi)
	if errors.Is(err, search.ErrNoReconnection) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	// Reconnect returns only score-tied candidates, so a uniform pick
	// suffices.
	moves := seqs[r.rng.Intn(len(seqs))]
	work := current.Clone()
	if err := work.ReplaceSnippet(lo, hi, moves); err != nil {
		return nil, false, fmt.Errorf("apply reconnection to snippet [%d,%d]: %w", lo, hi, err)
	}
	return work, true, nil
}

// acceptWorse is the annealing gate for non-improving candidates. It
// draws once per call.
func (r *Refiner) acceptWorse(oldScore, newScore int, temperature float64) bool {
	return math.Exp2(float64(oldScore-newScore)/temperature) > r.rng.Float64()
}

func emit(hook TraceFn, iteration int, chain *lattice.Chain) error {
	if hook == nil {
		return nil
	}
	moves, err := chain.MoveString()
	if err != nil {
		return err
	}
	hook(TraceEntry{Iteration: iteration, Moves: moves, Score: chain.Score()})
	return nil
}
