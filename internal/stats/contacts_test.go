package stats

import (
	"testing"

	"plegma/internal/lattice"
)

func foldedChain(t *testing.T, sequence, moves string) *lattice.Chain {
	t.Helper()
	chain, err := lattice.NewChain(sequence, 2)
	if err != nil {
		t.Fatalf("NewChain(%q): %v", sequence, err)
	}
	parsed, err := lattice.ParseDirections(moves)
	if err != nil {
		t.Fatalf("ParseDirections(%q): %v", moves, err)
	}
	if err := chain.ApplyMoves(lattice.Vec{}, parsed); err != nil {
		t.Fatalf("ApplyMoves(%q): %v", moves, err)
	}
	return chain
}

func TestSummarizeContacts(t *testing.T) {
	cases := []struct {
		name     string
		sequence string
		moves    string
		want     ContactSummary
	}{
		{
			name:     "hydrophobic square",
			sequence: "HHPH",
			moves:    "RUL",
			want: ContactSummary{
				Total:              1,
				HydrophobicPairs:   1,
				Score:              -1,
				HydrophobicBuried:  2,
				HydrophobicResidue: 3,
			},
		},
		{
			name:     "cysteine bridge",
			sequence: "CPPC",
			moves:    "RUL",
			want: ContactSummary{
				Total:         1,
				CysteinePairs: 1,
				Score:         -5,
			},
		},
		{
			name:     "mixed pair",
			sequence: "CPPH",
			moves:    "RUL",
			want: ContactSummary{
				Total:              1,
				MixedPairs:         1,
				Score:              -1,
				HydrophobicBuried:  1,
				HydrophobicResidue: 1,
			},
		},
		{
			name:     "straight line has no contacts",
			sequence: "HHHH",
			moves:    "RRR",
			want: ContactSummary{
				HydrophobicResidue: 4,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SummarizeContacts(foldedChain(t, tc.sequence, tc.moves))
			if got != tc.want {
				t.Fatalf("summary = %+v, want %+v", got, tc.want)
			}
		})
	}
}
