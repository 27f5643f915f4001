package stats

import "plegma/internal/lattice"

// ContactSummary is a census of the scoring contacts in a fold, broken down
// by residue pairing.
type ContactSummary struct {
	Total              int `json:"total"`
	HydrophobicPairs   int `json:"hydrophobic_pairs"`
	CysteinePairs      int `json:"cysteine_pairs"`
	MixedPairs         int `json:"mixed_pairs"`
	Score              int `json:"score"`
	HydrophobicBuried  int `json:"hydrophobic_buried"`
	HydrophobicResidue int `json:"hydrophobic_residues"`
}

// SummarizeContacts censuses a fully placed chain. HydrophobicBuried counts
// H residues that take part in at least one contact.
func SummarizeContacts(chain *lattice.Chain) ContactSummary {
	summary := ContactSummary{Score: chain.Score()}

	inContact := make(map[int]bool)
	for _, pair := range chain.ContactPairs() {
		summary.Total++
		a, b := chain.Residue(pair[0]), chain.Residue(pair[1])
		switch {
		case a == lattice.Cysteine && b == lattice.Cysteine:
			summary.CysteinePairs++
		case a == lattice.Hydrophobic && b == lattice.Hydrophobic:
			summary.HydrophobicPairs++
		default:
			summary.MixedPairs++
		}
		inContact[pair[0]] = true
		inContact[pair[1]] = true
	}

	for i := 0; i < chain.Len(); i++ {
		if chain.Residue(i) != lattice.Hydrophobic {
			continue
		}
		summary.HydrophobicResidue++
		if inContact[i] {
			summary.HydrophobicBuried++
		}
	}
	return summary
}
