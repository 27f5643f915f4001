package lattice

import (
	"fmt"
	"sort"
	"strings"
)

// Chain is an ordered residue sequence embedded, possibly partially, on the
// lattice. The residue order is the folding backbone and never changes after
// construction. Positions are assigned and retracted by the search layers
// through Place and Unplace; the occupancy index mirrors every placement.
type Chain struct {
	dims     int
	residues []Residue
	pos      []Vec
	placed   []bool
	occ      map[Vec]int

	score   int
	scoreOK bool
}

// NewChain builds an unpositioned chain from a residue-type string.
func NewChain(sequence string, dims int) (*Chain, error) {
	if dims != 2 && dims != 3 {
		return nil, fmt.Errorf("dimensions must be 2 or 3, got %d", dims)
	}
	residues, err := ParseSequence(sequence)
	if err != nil {
		return nil, err
	}
	return &Chain{
		dims:     dims,
		residues: residues,
		pos:      make([]Vec, len(residues)),
		placed:   make([]bool, len(residues)),
		occ:      make(map[Vec]int, len(residues)),
	}, nil
}

func (c *Chain) Len() int {
	return len(c.residues)
}

func (c *Chain) Dims() int {
	return c.dims
}

// Residue returns the type tag of residue i.
func (c *Chain) Residue(i int) Residue {
	return c.residues[i]
}

// Sequence renders the residue types back as the input alphabet.
func (c *Chain) Sequence() string {
	var b strings.Builder
	for _, r := range c.residues {
		b.WriteString(r.String())
	}
	return b.String()
}

// Pos returns the position of residue i. Meaningful only while Placed(i).
func (c *Chain) Pos(i int) Vec {
	return c.pos[i]
}

func (c *Chain) Placed(i int) bool {
	return c.placed[i]
}

// PlacedCount returns how many residues currently hold a position.
func (c *Chain) PlacedCount() int {
	return len(c.occ)
}

// CanPlace reports whether position p is free.
func (c *Chain) CanPlace(p Vec) bool {
	_, occupied := c.occ[p]
	return !occupied
}

// At returns the index of the residue occupying p.
func (c *Chain) At(p Vec) (int, bool) {
	i, ok := c.occ[p]
	return i, ok
}

// Place assigns residue i to position p and records it in the occupancy
// index. Bond adjacency is not checked here; the search layers guarantee it
// by construction.
func (c *Chain) Place(i int, p Vec) error {
	if i < 0 || i >= len(c.residues) {
		return fmt.Errorf("residue index %d out of range [0,%d)", i, len(c.residues))
	}
	if c.placed[i] {
		return fmt.Errorf("residue %d is already placed", i)
	}
	if j, occupied := c.occ[p]; occupied {
		return fmt.Errorf("position %v is occupied by residue %d", p, j)
	}
	c.pos[i] = p
	c.placed[i] = true
	c.occ[p] = i
	c.scoreOK = false
	return nil
}

// Unplace retracts the placement of residue i, removing exactly what Place
// added. Unplaced residues are left alone.
func (c *Chain) Unplace(i int) {
	if i < 0 || i >= len(c.residues) || !c.placed[i] {
		return
	}
	delete(c.occ, c.pos[i])
	c.placed[i] = false
	c.pos[i] = Vec{}
	c.scoreOK = false
}

// Reset retracts every placement, leaving the chain as freshly built.
func (c *Chain) Reset() {
	for i := range c.placed {
		c.placed[i] = false
		c.pos[i] = Vec{}
	}
	c.occ = make(map[Vec]int, len(c.residues))
	c.scoreOK = false
}

// IsValid reports whether every residue holds a distinct position and every
// bonded pair is lattice-adjacent. It returns false on the first violation.
func (c *Chain) IsValid() bool {
	if len(c.occ) != len(c.residues) {
		return false
	}
	for i := range c.residues {
		if !c.placed[i] {
			return false
		}
		if i > 0 && c.pos[i-1].Manhattan(c.pos[i]) != 1 {
			return false
		}
	}
	return true
}

// Score returns the stability score of the embedding: over every pair of
// non-bonded residues on adjacent lattice positions, the sum of their contact
// contributions. Each pair is discovered from both sides, so the accumulated
// sum is halved. Lower is better. The value is cached until the next
// placement change and is defined for partial embeddings.
func (c *Chain) Score() int {
	if c.scoreOK {
		return c.score
	}
	total := 0
	dirs := Directions(c.dims)
	for p, i := range c.occ {
		for _, d := range dirs {
			j, ok := c.occ[p.Add(d.Vec())]
			if !ok || bonded(i, j) {
				continue
			}
			total += ContactScore(c.residues[i], c.residues[j])
		}
	}
	c.score = total / 2
	c.scoreOK = true
	return c.score
}

// ContactPairs lists the non-bonded adjacent residue pairs with a nonzero
// contribution, lower index first, sorted.
func (c *Chain) ContactPairs() [][2]int {
	var pairs [][2]int
	dirs := Directions(c.dims)
	for p, i := range c.occ {
		for _, d := range dirs {
			j, ok := c.occ[p.Add(d.Vec())]
			if !ok || j <= i || bonded(i, j) {
				continue
			}
			if ContactScore(c.residues[i], c.residues[j]) != 0 {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a][0] != pairs[b][0] {
			return pairs[a][0] < pairs[b][0]
		}
		return pairs[a][1] < pairs[b][1]
	})
	return pairs
}

func bonded(i, j int) bool {
	return j == i-1 || j == i+1
}

// Clone returns a deep copy sharing no state with the original.
func (c *Chain) Clone() *Chain {
	out := &Chain{
		dims:     c.dims,
		residues: append([]Residue(nil), c.residues...),
		pos:      append([]Vec(nil), c.pos...),
		placed:   append([]bool(nil), c.placed...),
		occ:      make(map[Vec]int, len(c.occ)),
		score:    c.score,
		scoreOK:  c.scoreOK,
	}
	for p, i := range c.occ {
		out.occ[p] = i
	}
	return out
}

// Positions returns every residue position in chain order. The chain must be
// fully placed.
func (c *Chain) Positions() ([]Vec, error) {
	for i := range c.residues {
		if !c.placed[i] {
			return nil, fmt.Errorf("residue %d is not placed", i)
		}
	}
	return append([]Vec(nil), c.pos...), nil
}

// Moves returns the direction sequence of a fully placed chain, one move per
// bond.
func (c *Chain) Moves() ([]Direction, error) {
	moves := make([]Direction, 0, len(c.residues)-1)
	for i := 0; i+1 < len(c.residues); i++ {
		if !c.placed[i] || !c.placed[i+1] {
			return nil, fmt.Errorf("residue %d is not placed", i+1)
		}
		d, err := DirectionBetween(c.pos[i], c.pos[i+1])
		if err != nil {
			return nil, err
		}
		moves = append(moves, d)
	}
	return moves, nil
}

// MoveString renders the chain's moves as direction letters.
func (c *Chain) MoveString() (string, error) {
	moves, err := c.Moves()
	if err != nil {
		return "", err
	}
	return MoveString(moves), nil
}

// Folding returns the fold code of each residue's outgoing move
// (dx + 2*dy + 3*dz), with 0 for the final residue. The chain must be fully
// placed.
func (c *Chain) Folding() ([]int, error) {
	moves, err := c.Moves()
	if err != nil {
		return nil, err
	}
	codes := make([]int, len(c.residues))
	for i, d := range moves {
		codes[i] = d.FoldCode()
	}
	return codes, nil
}

// ApplyFolding positions the chain from the origin by replaying fold codes.
// The slice must have one entry per residue; the final entry is ignored.
func (c *Chain) ApplyFolding(codes []int) error {
	if len(codes) != len(c.residues) {
		return fmt.Errorf("folding length %d does not match chain length %d", len(codes), len(c.residues))
	}
	c.Reset()
	if err := c.Place(0, Vec{}); err != nil {
		return err
	}
	p := Vec{}
	for i := 0; i+1 < len(c.residues); i++ {
		d, err := DirectionFromFoldCode(codes[i])
		if err != nil {
			return err
		}
		if c.dims == 2 && (d == Front || d == Back) {
			return fmt.Errorf("fold code %d moves along z in a 2D chain", codes[i])
		}
		p = p.Add(d.Vec())
		if err := c.Place(i+1, p); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceSnippet re-embeds residues lo..hi along the move sequence, holding
// the flanking positions fixed. The sequence runs from the position of
// residue lo-1 and its final move must land on residue hi+1, so it carries
// hi-lo+2 moves. On any conflict the original placements are restored and an
// error is returned.
func (c *Chain) ReplaceSnippet(lo, hi int, moves []Direction) error {
	if lo < 1 || hi < lo || hi > len(c.residues)-2 {
		return fmt.Errorf("snippet [%d,%d] must leave both flanks inside the chain", lo, hi)
	}
	if !c.placed[lo-1] || !c.placed[hi+1] {
		return fmt.Errorf("snippet flanks %d and %d must be placed", lo-1, hi+1)
	}
	if len(moves) != hi-lo+2 {
		return fmt.Errorf("snippet [%d,%d] needs %d moves, got %d", lo, hi, hi-lo+2, len(moves))
	}

	old := make([]Vec, hi-lo+1)
	for i := lo; i <= hi; i++ {
		if !c.placed[i] {
			return fmt.Errorf("snippet residue %d is not placed", i)
		}
		old[i-lo] = c.pos[i]
	}
	for i := lo; i <= hi; i++ {
		c.Unplace(i)
	}

	restore := func(placedThrough int) {
		for i := lo; i <= placedThrough; i++ {
			c.Unplace(i)
		}
		for i := lo; i <= hi; i++ {
			if err := c.Place(i, old[i-lo]); err != nil {
				panic(fmt.Sprintf("snippet rollback failed: %v", err))
			}
		}
	}

	p := c.pos[lo-1]
	for j, d := range moves {
		p = p.Add(d.Vec())
		if j == len(moves)-1 {
			if p != c.pos[hi+1] {
				restore(hi)
				return fmt.Errorf("snippet does not reconnect to residue %d", hi+1)
			}
			return nil
		}
		if err := c.Place(lo+j, p); err != nil {
			restore(lo + j - 1)
			return fmt.Errorf("snippet move %d: %w", j, err)
		}
	}
	return nil
}

// ApplyMoves positions the chain from start by walking the direction
// sequence, one move per bond.
func (c *Chain) ApplyMoves(start Vec, moves []Direction) error {
	if len(moves) != len(c.residues)-1 {
		return fmt.Errorf("move count %d does not match chain length %d", len(moves), len(c.residues))
	}
	c.Reset()
	if err := c.Place(0, start); err != nil {
		return err
	}
	p := start
	for i, d := range moves {
		p = p.Add(d.Vec())
		if err := c.Place(i+1, p); err != nil {
			return err
		}
	}
	return nil
}
