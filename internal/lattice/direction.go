package lattice

import "fmt"

// Direction is a unit move along exactly one lattice axis. The constants are
// laid out in opposite pairs so that Opposite is a bit flip.
type Direction uint8

const (
	Right Direction = iota
	Left
	Up
	Down
	Front
	Back
)

var directionVecs = [6]Vec{
	{X: 1},
	{X: -1},
	{Y: 1},
	{Y: -1},
	{Z: 1},
	{Z: -1},
}

var directionLetters = [6]string{"R", "L", "U", "D", "F", "B"}

// Directions returns the move alphabet for the given dimensionality: four
// moves in 2D, six in 3D.
func Directions(dims int) []Direction {
	if dims == 2 {
		return []Direction{Right, Left, Up, Down}
	}
	return []Direction{Right, Left, Up, Down, Front, Back}
}

// Opposite returns the direction that exactly reverses d.
func (d Direction) Opposite() Direction {
	return d ^ 1
}

// Vec returns the unit step of d.
func (d Direction) Vec() Vec {
	return directionVecs[d]
}

func (d Direction) String() string {
	if int(d) < len(directionLetters) {
		return directionLetters[d]
	}
	return "?"
}

// FoldCode returns the compact move encoding dx + 2*dy + 3*dz used by the
// fold CSV format.
func (d Direction) FoldCode() int {
	v := d.Vec()
	return v.X + 2*v.Y + 3*v.Z
}

// DirectionFromFoldCode inverts FoldCode.
func DirectionFromFoldCode(code int) (Direction, error) {
	switch code {
	case 1:
		return Right, nil
	case -1:
		return Left, nil
	case 2:
		return Up, nil
	case -2:
		return Down, nil
	case 3:
		return Front, nil
	case -3:
		return Back, nil
	default:
		return 0, fmt.Errorf("invalid fold code %d", code)
	}
}

// DirectionBetween returns the move taking from to to. The positions must be
// lattice-adjacent.
func DirectionBetween(from, to Vec) (Direction, error) {
	delta := to.Sub(from)
	for d := Right; d <= Back; d++ {
		if directionVecs[d] == delta {
			return d, nil
		}
	}
	return 0, fmt.Errorf("positions %v and %v are not lattice-adjacent", from, to)
}

// ParseDirections converts a string of direction letters (R, L, U, D, F, B)
// into moves.
func ParseDirections(s string) ([]Direction, error) {
	moves := make([]Direction, 0, len(s))
	for i := 0; i < len(s); i++ {
		var d Direction
		switch s[i] {
		case 'R':
			d = Right
		case 'L':
			d = Left
		case 'U':
			d = Up
		case 'D':
			d = Down
		case 'F':
			d = Front
		case 'B':
			d = Back
		default:
			return nil, fmt.Errorf("invalid direction letter %q at position %d", s[i], i)
		}
		moves = append(moves, d)
	}
	return moves, nil
}

// MoveString renders a direction sequence as its letters.
func MoveString(moves []Direction) string {
	buf := make([]byte, 0, len(moves))
	for _, d := range moves {
		buf = append(buf, d.String()[0])
	}
	return string(buf)
}
