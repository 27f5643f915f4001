package lattice

import (
	"errors"
	"fmt"
	"strings"
)

// Residue is the type tag of one chain element.
type Residue uint8

const (
	Polar Residue = iota
	Hydrophobic
	Cysteine
)

func (r Residue) String() string {
	switch r {
	case Polar:
		return "P"
	case Hydrophobic:
		return "H"
	case Cysteine:
		return "C"
	default:
		return "?"
	}
}

// ParseSequence converts a residue-type string over the alphabet {H, P, C}
// into residues. Lowercase letters are accepted.
func ParseSequence(s string) ([]Residue, error) {
	if s == "" {
		return nil, errors.New("sequence must not be empty")
	}
	residues := make([]Residue, 0, len(s))
	for i, c := range strings.ToUpper(s) {
		switch c {
		case 'H':
			residues = append(residues, Hydrophobic)
		case 'P':
			residues = append(residues, Polar)
		case 'C':
			residues = append(residues, Cysteine)
		default:
			return nil, fmt.Errorf("invalid residue %q at position %d", c, i)
		}
	}
	return residues, nil
}

// ContactScore is the pairwise contribution of two non-bonded adjacent
// residues: zero when either is polar, -1 when either of the rest is
// hydrophobic, -5 for a cysteine pair.
func ContactScore(a, b Residue) int {
	switch {
	case a == Polar || b == Polar:
		return 0
	case a == Hydrophobic || b == Hydrophobic:
		return -1
	default:
		return -5
	}
}
