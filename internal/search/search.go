package search

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"plegma/internal/lattice"
)

const (
	// MaxWindow bounds the lookahead depth; the enumeration grows
	// exponentially with it.
	MaxWindow = 8

	defaultWindow  = 4
	cysteineWindow = 6
)

var (
	// ErrNoExtension reports a window whose every candidate collided or was
	// pruned, even after widening back to the previous survivor set.
	ErrNoExtension = errors.New("no viable window extension")

	// ErrNoReconnection reports that a snippet admits no valid re-embedding
	// between its anchors.
	ErrNoReconnection = errors.New("no reconnection found")
)

type Config struct {
	Dims int
	// Window is the lookahead depth. Zero selects a per-sequence default:
	// six moves when the sequence contains cysteine, four otherwise.
	Window int
	// Workers bounds the parallel candidate evaluations per window. Zero or
	// one keeps the strict sequential reference behavior; results are
	// identical at any setting.
	Workers int
	Seed    int64
}

// Search enumerates bounded-depth move windows over a chain, carrying a beam
// of tied-best prefixes from window to window. It serves both whole-chain
// growth and anchored snippet reconnection.
type Search struct {
	dims    int
	window  int
	workers int
	rng     *rand.Rand
}

func New(cfg Config) (*Search, error) {
	if cfg.Dims != 2 && cfg.Dims != 3 {
		return nil, fmt.Errorf("dimensions must be 2 or 3, got %d", cfg.Dims)
	}
	if cfg.Window < 0 || cfg.Window > MaxWindow {
		return nil, fmt.Errorf("window must be between 0 and %d, got %d", MaxWindow, cfg.Window)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("workers must be >= 0, got %d", cfg.Workers)
	}
	workers := cfg.Workers
	if workers == 0 {
		workers = 1
	}
	return &Search{
		dims:    cfg.Dims,
		window:  cfg.Window,
		workers: workers,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

func (s *Search) windowFor(chain *lattice.Chain) int {
	if s.window > 0 {
		return s.window
	}
	if strings.ContainsRune(chain.Sequence(), 'C') {
		return cysteineWindow
	}
	return defaultWindow
}
