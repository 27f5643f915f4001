package fold

import (
	"fmt"

	"plegma/internal/lattice"
)

// Spiral lays the chain out as a rectangular spiral in the XY plane. The
// result is self-avoiding for any length, which makes it a cheap refinement
// starting point.
func Spiral(sequence string, dims int) (*lattice.Chain, error) {
	chain, err := lattice.NewChain(sequence, dims)
	if err != nil {
		return nil, err
	}
	if err := chain.Place(0, lattice.Vec{}); err != nil {
		return nil, err
	}

	arms := []lattice.Direction{lattice.Up, lattice.Right, lattice.Down, lattice.Left}
	p := lattice.Vec{}
	steps := 1
	turn := 0
	i := 1
	for i < chain.Len() {
		d := arms[turn%len(arms)]
		for s := 0; s < steps && i < chain.Len(); s++ {
			p = p.Add(d.Vec())
			if err := chain.Place(i, p); err != nil {
				return nil, err
			}
			i++
		}
		turn++
		if turn%2 == 0 {
			steps++
		}
	}
	return chain, nil
}

// Zigzag lays the chain out as a two-column serpentine in the XY plane.
func Zigzag(sequence string, dims int) (*lattice.Chain, error) {
	chain, err := lattice.NewChain(sequence, dims)
	if err != nil {
		return nil, err
	}
	if err := chain.Place(0, lattice.Vec{}); err != nil {
		return nil, err
	}

	pattern := []lattice.Direction{lattice.Right, lattice.Up, lattice.Left, lattice.Up}
	p := lattice.Vec{}
	for i := 1; i < chain.Len(); i++ {
		p = p.Add(pattern[(i-1)%len(pattern)].Vec())
		if err := chain.Place(i, p); err != nil {
			return nil, err
		}
	}
	return chain, nil
}

// Helix winds the chain around a unit square column, rising along z every
// half lap. 3D only.
func Helix(sequence string) (*lattice.Chain, error) {
	chain, err := lattice.NewChain(sequence, 3)
	if err != nil {
		return nil, err
	}
	if err := chain.Place(0, lattice.Vec{}); err != nil {
		return nil, err
	}

	pattern := []lattice.Direction{
		lattice.Right, lattice.Up, lattice.Front,
		lattice.Left, lattice.Down, lattice.Front,
	}
	p := lattice.Vec{}
	for i := 1; i < chain.Len(); i++ {
		p = p.Add(pattern[(i-1)%len(pattern)].Vec())
		if err := chain.Place(i, p); err != nil {
			return nil, err
		}
	}
	return chain, nil
}

// Seed builds the named deterministic seed fold. Helix is only defined for
// three dimensions.
func Seed(name, sequence string, dims int) (*lattice.Chain, error) {
	switch name {
	case "spiral":
		return Spiral(sequence, dims)
	case "zigzag":
		return Zigzag(sequence, dims)
	case "helix":
		if dims != 3 {
			return nil, fmt.Errorf("helix seed requires 3 dimensions, got %d", dims)
		}
		return Helix(sequence)
	default:
		return nil, fmt.Errorf("unknown seed fold %q", name)
	}
}
