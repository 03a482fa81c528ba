package hexgrid

import "math"

// Pixel projection uses pointy-top orientation. Size is the distance
// from a cell center to a corner; the client renders with the same
// constants so round-trips must be exact for every on-grid coordinate.

const sqrt3 = 1.7320508075688772

// ToPixel projects a coordinate to the center of its cell in pixel
// space.
func ToPixel(h Hex, size float64) (x, y float64) {
	x = size * (sqrt3*float64(h.Q) + sqrt3/2*float64(h.R))
	y = size * (1.5 * float64(h.R))
	return x, y
}

// FromPixel inverts ToPixel, snapping to the nearest cell.
func FromPixel(x, y float64, size float64) Hex {
	q := (sqrt3/3*x - 1.0/3*y) / size
	r := (2.0 / 3 * y) / size
	return Round(q, r, -q-r)
}

// Round snaps fractional cube components to the nearest valid
// coordinate. Each component is rounded independently first, then the
// component with the largest rounding error is recomputed from the other
// two so the result still sums to zero.
func Round(q, r, s float64) Hex {
	rq := math.Round(q)
	rr := math.Round(r)
	rs := math.Round(s)

	dq := math.Abs(rq - q)
	dr := math.Abs(rr - r)
	ds := math.Abs(rs - s)

	switch {
	case dq > dr && dq > ds:
		rq = -rr - rs
	case dr > ds:
		rr = -rq - rs
	default:
		rs = -rq - rr
	}
	return Hex{Q: int(rq), R: int(rr), S: int(rs)}
}
