package search

import "plegma/internal/lattice"

// quarterTurn maps each direction to its image under a 90 degree rotation
// about the z axis: R to U, U to L, L to D, D to R, with F and B fixed.
var quarterTurn = [6]lattice.Direction{
	lattice.Right: lattice.Up,
	lattice.Up:    lattice.Left,
	lattice.Left:  lattice.Down,
	lattice.Down:  lattice.Right,
	lattice.Front: lattice.Front,
	lattice.Back:  lattice.Back,
}

// rotationEquivalent reports whether b is a, rotated by a quarter, half or
// three-quarter turn about the z axis.
func rotationEquivalent(a, b []lattice.Direction) bool {
	if len(a) != len(b) {
		return false
	}
	rotated := append([]lattice.Direction(nil), a...)
	for turn := 0; turn < 3; turn++ {
		for i := range rotated {
			rotated[i] = quarterTurn[rotated[i]]
		}
		if equalSequences(rotated, b) {
			return true
		}
	}
	return false
}

// mirrorEquivalent reports whether applying the axis-flip map to a and
// reading it in reverse reproduces b; geometrically, b walks the same shape
// from the other end.
func mirrorEquivalent(a, b []lattice.Direction) bool {
	if len(a) != len(b) {
		return false
	}
	n := len(a)
	for i := range a {
		if b[i] != a[n-1-i].Opposite() {
			return false
		}
	}
	return true
}

func equivalentSequences(a, b []lattice.Direction) bool {
	return rotationEquivalent(a, b) || mirrorEquivalent(a, b)
}

func equalSequences(a, b []lattice.Direction) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// prune drops candidates equivalent to one already kept, preserving order.
// The first representative of each shape class survives.
func prune(cands []candidate) []candidate {
	kept := make([]candidate, 0, len(cands))
	for _, c := range cands {
		duplicate := false
		for _, k := range kept {
			if equivalentSequences(c.seq, k.seq) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, c)
		}
	}
	return kept
}
