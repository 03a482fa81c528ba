// Package hexgrid implements cube-coordinate hex math for the dungeon
// grid. Every coordinate is a (q, r, s) triple with q+r+s = 0; all
// distance, range, and adjacency checks in the server go through this
// package so movement cost, sight range, and ability range agree on the
// same metric.
package hexgrid

import "fmt"

// Hex is an immutable cube coordinate. Construct values with New or
// FromAxial so the q+r+s = 0 invariant holds; a zero Hex is the origin
// and always valid.
type Hex struct {
	Q int `json:"q"`
	R int `json:"r"`
	S int `json:"s"`
}

// New builds a coordinate from all three cube components. It panics if
// the components do not sum to zero, which only happens on programmer
// error; wire input goes through FromAxial instead.
func New(q, r, s int) Hex {
	if q+r+s != 0 {
		panic(fmt.Sprintf("hexgrid: invalid cube coordinate (%d,%d,%d)", q, r, s))
	}
	return Hex{Q: q, R: r, S: s}
}

// FromAxial derives the third component, so the result is always valid.
func FromAxial(q, r int) Hex {
	return Hex{Q: q, R: r, S: -q - r}
}

// Valid reports whether the components sum to zero. Coordinates decoded
// from JSON bypass the constructors and must be checked with this.
func (h Hex) Valid() bool {
	return h.Q+h.R+h.S == 0
}

func (h Hex) String() string {
	return fmt.Sprintf("(%d,%d,%d)", h.Q, h.R, h.S)
}

// Add returns the component-wise sum. The result is valid whenever both
// operands are.
func (h Hex) Add(o Hex) Hex {
	return Hex{Q: h.Q + o.Q, R: h.R + o.R, S: h.S + o.S}
}

// directions is the fixed neighbor offset table, identical for every
// coordinate. Offsets are listed counter-clockwise starting east.
var directions = [6]Hex{
	{Q: 1, R: 0, S: -1},
	{Q: 1, R: -1, S: 0},
	{Q: 0, R: -1, S: 1},
	{Q: -1, R: 0, S: 1},
	{Q: -1, R: 1, S: 0},
	{Q: 0, R: 1, S: -1},
}

// Neighbors returns the six adjacent coordinates.
func (h Hex) Neighbors() [6]Hex {
	var out [6]Hex
	for i, d := range directions {
		out[i] = h.Add(d)
	}
	return out
}

// Distance returns the cube distance max(|dq|,|dr|,|ds|) between two
// coordinates. Distance(h, h) is 0 and adjacency is symmetric.
func Distance(a, b Hex) int {
	dq := abs(a.Q - b.Q)
	dr := abs(a.R - b.R)
	ds := abs(a.S - b.S)
	m := dq
	if dr > m {
		m = dr
	}
	if ds > m {
		m = ds
	}
	return m
}

// Range returns every coordinate within radius of center, center
// included. A negative radius yields an empty slice.
func Range(center Hex, radius int) []Hex {
	if radius < 0 {
		return nil
	}
	out := make([]Hex, 0, 1+3*radius*(radius+1))
	for q := -radius; q <= radius; q++ {
		lo := max(-radius, -q-radius)
		hi := min(radius, -q+radius)
		for r := lo; r <= hi; r++ {
			out = append(out, center.Add(Hex{Q: q, R: r, S: -q - r}))
		}
	}
	return out
}

// Line returns the discrete hex line from a to b inclusive, sampling the
// straight segment between cell centers and rounding each sample back to
// the grid. Length is Distance(a, b)+1; Line(a, a) is just {a}.
func Line(a, b Hex) []Hex {
	n := Distance(a, b)
	if n == 0 {
		return []Hex{a}
	}
	out := make([]Hex, 0, n+1)
	step := 1.0 / float64(n)
	for i := 0; i <= n; i++ {
		t := step * float64(i)
		out = append(out, Round(
			lerp(float64(a.Q), float64(b.Q), t),
			lerp(float64(a.R), float64(b.R), t),
			lerp(float64(a.S), float64(b.S), t),
		))
	}
	return out
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
