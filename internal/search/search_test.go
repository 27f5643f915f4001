package search

import (
	"context"
	"errors"
	"testing"

	"plegma/internal/lattice"
)

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{Dims: 5}); err == nil {
		t.Fatal("expected error for dims=5")
	}
	if _, err := New(Config{Dims: 2, Window: MaxWindow + 1}); err == nil {
		t.Fatal("expected error for oversized window")
	}
	if _, err := New(Config{Dims: 2, Workers: -1}); err == nil {
		t.Fatal("expected error for negative workers")
	}
	s, err := New(Config{Dims: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.workers != 1 {
		t.Fatalf("workers defaulted to %d, want 1", s.workers)
	}
}

func TestWindowDefaults(t *testing.T) {
	s, err := New(Config{Dims: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	plain, err := lattice.NewChain("HPHP", 2)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	if got := s.windowFor(plain); got != 4 {
		t.Fatalf("window = %d, want 4", got)
	}
	cys, err := lattice.NewChain("HPCP", 2)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	if got := s.windowFor(cys); got != 6 {
		t.Fatalf("cysteine window = %d, want 6", got)
	}
	fixed, err := New(Config{Dims: 2, Window: 3})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := fixed.windowFor(cys); got != 3 {
		t.Fatalf("fixed window = %d, want 3", got)
	}
}

func TestEnumeratorCountsWithoutReversals(t *testing.T) {
	enum := newEnumerator(2, nil)
	open := enum.sequences(2, 0, false, lattice.Vec{})
	if len(open) != 12 {
		t.Fatalf("open depth-2 count = %d, want 4*3 = 12", len(open))
	}
	continued := enum.sequences(2, lattice.Right, true, lattice.Vec{})
	if len(continued) != 9 {
		t.Fatalf("continued depth-2 count = %d, want 3*3 = 9", len(continued))
	}
	for _, seq := range continued {
		if seq[0] == lattice.Left {
			t.Fatalf("sequence %v reverses the previous move", seq)
		}
		if seq[1] == seq[0].Opposite() {
			t.Fatalf("sequence %v contains an immediate reversal", seq)
		}
	}
}

func TestEnumeratorAnchorPruning(t *testing.T) {
	anchor := lattice.Vec{X: 2}
	enum := newEnumerator(2, &anchor)
	reachable := enum.sequences(2, 0, false, lattice.Vec{})
	if len(reachable) != 1 {
		t.Fatalf("anchored depth-2 count = %d, want exactly RR", len(reachable))
	}
	if reachable[0][0] != lattice.Right || reachable[0][1] != lattice.Right {
		t.Fatalf("anchored sequence = %v, want RR", reachable[0])
	}

	odd := lattice.Vec{X: 1}
	enum = newEnumerator(2, &odd)
	if got := enum.sequences(2, 0, false, lattice.Vec{}); len(got) != 0 {
		t.Fatalf("parity-infeasible anchor yielded %d sequences", len(got))
	}
}

func TestEnumeratorTailAllowsPartialWindows(t *testing.T) {
	// Two moves now, two later: a depth-2 window must not be forced onto
	// the anchor yet.
	anchor := lattice.Vec{X: 4}
	enum := newEnumerator(2, &anchor)
	enum.tail = 2
	partial := enum.sequences(2, 0, false, lattice.Vec{})
	if len(partial) != 1 {
		t.Fatalf("partial window count = %d, want 1 (only RR keeps the anchor reachable)", len(partial))
	}
}

func TestRotationEquivalence(t *testing.T) {
	a := []lattice.Direction{lattice.Right, lattice.Right, lattice.Up}
	quarter := []lattice.Direction{lattice.Up, lattice.Up, lattice.Left}
	half := []lattice.Direction{lattice.Left, lattice.Left, lattice.Down}
	if !rotationEquivalent(a, quarter) {
		t.Fatal("quarter turn not recognized")
	}
	if !rotationEquivalent(a, half) {
		t.Fatal("half turn not recognized")
	}
	other := []lattice.Direction{lattice.Right, lattice.Up, lattice.Right}
	if rotationEquivalent(a, other) {
		t.Fatal("distinct shape reported rotation-equivalent")
	}
}

func TestMirrorEquivalence(t *testing.T) {
	a := []lattice.Direction{lattice.Right, lattice.Up, lattice.Up}
	mirrored := []lattice.Direction{lattice.Down, lattice.Down, lattice.Left}
	if !mirrorEquivalent(a, mirrored) {
		t.Fatal("reverse axis-flip not recognized")
	}
	if mirrorEquivalent(a, a) {
		t.Fatal("sequence reported mirror-equivalent to itself")
	}
}

func TestPruneKeepsOneRepresentative(t *testing.T) {
	cands := []candidate{
		{seq: []lattice.Direction{lattice.Right, lattice.Right, lattice.Up}},
		{seq: []lattice.Direction{lattice.Up, lattice.Up, lattice.Left}},
		{seq: []lattice.Direction{lattice.Down, lattice.Left, lattice.Left}},
		{seq: []lattice.Direction{lattice.Right, lattice.Up, lattice.Right}},
	}
	kept := prune(cands)
	if len(kept) != 2 {
		t.Fatalf("kept %d candidates, want 2", len(kept))
	}
	if !equalSequences(kept[0].seq, cands[0].seq) {
		t.Fatalf("first representative = %v, want %v", kept[0].seq, cands[0].seq)
	}
	if !equalSequences(kept[1].seq, cands[3].seq) {
		t.Fatalf("second representative = %v, want %v", kept[1].seq, cands[3].seq)
	}
}

func TestGrowFindsTheSquareOptimum(t *testing.T) {
	s, err := New(Config{Dims: 2, Seed: 11})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	chain, err := lattice.NewChain("HHHH", 2)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	if err := s.Grow(context.Background(), chain); err != nil {
		t.Fatalf("Grow: %v", err)
	}
	if !chain.IsValid() {
		t.Fatal("grown chain invalid")
	}
	if got := chain.Score(); got != -1 {
		t.Fatalf("score = %d, want the optimum -1", got)
	}
}

func TestGrowProducesValidFoldsAndIsDeterministic(t *testing.T) {
	grow := func(workers int) string {
		t.Helper()
		s, err := New(Config{Dims: 2, Seed: 5, Workers: workers})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		chain, err := lattice.NewChain("HPHPPHHPHPPHPHHPPHPH", 2)
		if err != nil {
			t.Fatalf("NewChain: %v", err)
		}
		if err := s.Grow(context.Background(), chain); err != nil {
			t.Fatalf("Grow: %v", err)
		}
		if !chain.IsValid() {
			t.Fatal("grown chain invalid")
		}
		if chain.Score() > 0 {
			t.Fatalf("score = %d, expected <= 0", chain.Score())
		}
		moves, err := chain.MoveString()
		if err != nil {
			t.Fatalf("MoveString: %v", err)
		}
		return moves
	}

	sequential := grow(1)
	if again := grow(1); again != sequential {
		t.Fatalf("same seed diverged: %q vs %q", sequential, again)
	}
	if parallel := grow(4); parallel != sequential {
		t.Fatalf("worker count changed the outcome: %q vs %q", parallel, sequential)
	}
}

func TestReconnectReturnsTiedReEmbeddings(t *testing.T) {
	chain, err := lattice.NewChain("HHHH", 2)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	if err := chain.ApplyMoves(lattice.Vec{}, []lattice.Direction{lattice.Right, lattice.Up, lattice.Left}); err != nil {
		t.Fatalf("ApplyMoves: %v", err)
	}
	s, err := New(Config{Dims: 2, Seed: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	seqs, err := s.Reconnect(context.Background(), chain, 1, 2)
	if err != nil {
		t.Fatalf("Reconnect: %v", err)
	}
	// The square's interior re-embeds on either side of the 0-3 axis.
	if len(seqs) != 2 {
		t.Fatalf("got %d reconnections, want 2", len(seqs))
	}
	for _, seq := range seqs {
		work := chain.Clone()
		if err := work.ReplaceSnippet(1, 2, seq); err != nil {
			t.Fatalf("ReplaceSnippet(%v): %v", seq, err)
		}
		if !work.IsValid() {
			t.Fatalf("reconnection %v broke the chain", seq)
		}
		if work.Score() != -1 {
			t.Fatalf("reconnection %v scored %d, want -1", seq, work.Score())
		}
	}
	if chain.Pos(1) != (lattice.Vec{X: 1}) {
		t.Fatal("Reconnect mutated the input chain")
	}
}

func TestReconnectStraightLineHasOnlyItself(t *testing.T) {
	chain, err := lattice.NewChain("HHHH", 2)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	if err := chain.ApplyMoves(lattice.Vec{}, []lattice.Direction{lattice.Right, lattice.Right, lattice.Right}); err != nil {
		t.Fatalf("ApplyMoves: %v", err)
	}
	s, err := New(Config{Dims: 2, Seed: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	seqs, err := s.Reconnect(context.Background(), chain, 1, 2)
	if err != nil {
		t.Fatalf("Reconnect: %v", err)
	}
	if len(seqs) != 1 {
		t.Fatalf("got %d reconnections, want only the original path", len(seqs))
	}
	want := []lattice.Direction{lattice.Right, lattice.Right, lattice.Right}
	if !equalSequences(seqs[0], want) {
		t.Fatalf("reconnection = %v, want RRR", seqs[0])
	}
}

func TestReconnectValidation(t *testing.T) {
	chain, err := lattice.NewChain("HHHH", 2)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	if err := chain.ApplyMoves(lattice.Vec{}, []lattice.Direction{lattice.Right, lattice.Up, lattice.Left}); err != nil {
		t.Fatalf("ApplyMoves: %v", err)
	}
	s, err := New(Config{Dims: 2, Seed: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.Reconnect(context.Background(), chain, 0, 2); err == nil {
		t.Fatal("expected error for snippet touching the chain start")
	}
	if _, err := s.Reconnect(context.Background(), chain, 1, 3); err == nil {
		t.Fatal("expected error for snippet touching the chain end")
	}
	unplaced, err := lattice.NewChain("HHHH", 2)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	if _, err := s.Reconnect(context.Background(), unplaced, 1, 2); err == nil {
		t.Fatal("expected error for unplaced chain")
	}
}

func TestGrowSingleResidue(t *testing.T) {
	s, err := New(Config{Dims: 2, Seed: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	chain, err := lattice.NewChain("H", 2)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	if err := s.Grow(context.Background(), chain); err != nil {
		t.Fatalf("Grow: %v", err)
	}
	if !chain.IsValid() {
		t.Fatal("single-residue chain invalid")
	}
}

func TestGrowStopsOnCancelledContext(t *testing.T) {
	s, err := New(Config{Dims: 2, Seed: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	chain, err := lattice.NewChain("HPHPHPHP", 2)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Grow(ctx, chain); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
