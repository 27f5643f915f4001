package fold

import (
	"strings"
	"testing"

	"plegma/internal/lattice"
)

func TestSpiralIsValidForAllLengths(t *testing.T) {
	for n := 1; n <= 100; n++ {
		seq := strings.Repeat("H", n)
		for _, dims := range []int{2, 3} {
			chain, err := Spiral(seq, dims)
			if err != nil {
				t.Fatalf("Spiral(n=%d, dims=%d): %v", n, dims, err)
			}
			if !chain.IsValid() {
				t.Fatalf("Spiral(n=%d, dims=%d) invalid", n, dims)
			}
		}
	}
}

func TestSpiralFirstArms(t *testing.T) {
	chain, err := Spiral("HHHHHH", 2)
	if err != nil {
		t.Fatalf("Spiral: %v", err)
	}
	want := []lattice.Vec{
		{},
		{Y: 1},
		{X: 1, Y: 1},
		{X: 1},
		{X: 1, Y: -1},
		{Y: -1},
	}
	for i, p := range want {
		if chain.Pos(i) != p {
			t.Fatalf("residue %d at %v, want %v", i, chain.Pos(i), p)
		}
	}
}

func TestZigzagIsValidAndSerpentine(t *testing.T) {
	for n := 1; n <= 100; n++ {
		chain, err := Zigzag(strings.Repeat("P", n), 2)
		if err != nil {
			t.Fatalf("Zigzag(n=%d): %v", n, err)
		}
		if !chain.IsValid() {
			t.Fatalf("Zigzag(n=%d) invalid", n)
		}
		for i := 0; i < n; i++ {
			if p := chain.Pos(i); p.X < 0 || p.X > 1 {
				t.Fatalf("zigzag left its two columns at residue %d: %v", i, p)
			}
		}
	}
}

func TestHelixIsValidForAllLengths(t *testing.T) {
	for n := 1; n <= 100; n++ {
		chain, err := Helix(strings.Repeat("H", n))
		if err != nil {
			t.Fatalf("Helix(n=%d): %v", n, err)
		}
		if !chain.IsValid() {
			t.Fatalf("Helix(n=%d) invalid", n)
		}
	}
}

func TestSeedDispatch(t *testing.T) {
	if _, err := Seed("spiral", "HPH", 2); err != nil {
		t.Fatalf("Seed(spiral): %v", err)
	}
	if _, err := Seed("helix", "HPH", 2); err == nil {
		t.Fatal("expected error for helix in 2D")
	}
	if _, err := Seed("moebius", "HPH", 2); err == nil {
		t.Fatal("expected error for unknown seed name")
	}
}
