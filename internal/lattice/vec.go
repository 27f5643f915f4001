package lattice

// Vec is an integer lattice position. Chains embedded in two dimensions keep
// Z at zero.
type Vec struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func (v Vec) Add(o Vec) Vec {
	return Vec{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec) Sub(o Vec) Vec {
	return Vec{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec) IsZero() bool {
	return v == Vec{}
}

// Manhattan returns the L1 distance between two positions.
func (v Vec) Manhattan(o Vec) int {
	return abs(v.X-o.X) + abs(v.Y-o.Y) + abs(v.Z-o.Z)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
