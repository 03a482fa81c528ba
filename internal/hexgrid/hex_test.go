package hexgrid

import "testing"

func TestFromAxialInvariant(t *testing.T) {
	for q := -4; q <= 4; q++ {
		for r := -4; r <= 4; r++ {
			h := FromAxial(q, r)
			if !h.Valid() {
				t.Fatalf("FromAxial(%d,%d) violates q+r+s=0: %v", q, r, h)
			}
		}
	}
}

func TestDistanceSelfIsZero(t *testing.T) {
	cases := []Hex{FromAxial(0, 0), FromAxial(3, -2), FromAxial(-5, 1)}
	for _, h := range cases {
		if got := Distance(h, h); got != 0 {
			t.Fatalf("Distance(%v, %v) = %d, want 0", h, h, got)
		}
	}
}

func TestDistanceKnownPairs(t *testing.T) {
	cases := []struct {
		a, b Hex
		want int
	}{
		{FromAxial(0, 0), FromAxial(1, 0), 1},
		{FromAxial(0, 0), FromAxial(0, 1), 1},
		{FromAxial(0, 0), FromAxial(2, -1), 2},
		{FromAxial(0, 0), FromAxial(3, -3), 3},
		{FromAxial(-2, 1), FromAxial(2, -1), 4},
	}
	for _, tc := range cases {
		if got := Distance(tc.a, tc.b); got != tc.want {
			t.Fatalf("Distance(%v, %v) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
		if got := Distance(tc.b, tc.a); got != tc.want {
			t.Fatalf("Distance(%v, %v) = %d, want %d (symmetry)", tc.b, tc.a, got, tc.want)
		}
	}
}

func TestNeighborsSixDistinctAndSymmetric(t *testing.T) {
	origins := []Hex{FromAxial(0, 0), FromAxial(1, 0), FromAxial(-3, 2), FromAxial(4, -1)}
	for _, h := range origins {
		seen := make(map[Hex]struct{}, 6)
		for _, n := range h.Neighbors() {
			if !n.Valid() {
				t.Fatalf("neighbor %v of %v violates invariant", n, h)
			}
			if _, dup := seen[n]; dup {
				t.Fatalf("duplicate neighbor %v of %v", n, h)
			}
			seen[n] = struct{}{}
			if Distance(h, n) != 1 {
				t.Fatalf("neighbor %v of %v at distance %d", n, h, Distance(h, n))
			}
			back := false
			for _, m := range n.Neighbors() {
				if m == h {
					back = true
					break
				}
			}
			if !back {
				t.Fatalf("adjacency not symmetric: %v in Neighbors(%v) but not vice versa", n, h)
			}
		}
		if len(seen) != 6 {
			t.Fatalf("expected 6 distinct neighbors of %v, got %d", h, len(seen))
		}
	}
}

func TestRangeCountsAndRadius(t *testing.T) {
	center := FromAxial(2, -1)
	cases := []struct {
		radius int
		want   int
	}{
		{0, 1},
		{1, 7},
		{2, 19},
		{3, 37},
	}
	for _, tc := range cases {
		got := Range(center, tc.radius)
		if len(got) != tc.want {
			t.Fatalf("Range radius %d returned %d cells, want %d", tc.radius, len(got), tc.want)
		}
		for _, h := range got {
			if Distance(center, h) > tc.radius {
				t.Fatalf("Range radius %d returned %v at distance %d", tc.radius, h, Distance(center, h))
			}
		}
	}
	if got := Range(center, -1); got != nil {
		t.Fatalf("expected nil for negative radius, got %v", got)
	}
}

func TestLineEndpointsAndLength(t *testing.T) {
	a := FromAxial(0, 0)
	b := FromAxial(4, -2)
	line := Line(a, b)
	if len(line) != Distance(a, b)+1 {
		t.Fatalf("line length %d, want %d", len(line), Distance(a, b)+1)
	}
	if line[0] != a || line[len(line)-1] != b {
		t.Fatalf("line endpoints %v..%v, want %v..%v", line[0], line[len(line)-1], a, b)
	}
	for i := 1; i < len(line); i++ {
		if Distance(line[i-1], line[i]) != 1 {
			t.Fatalf("line cells %v and %v are not adjacent", line[i-1], line[i])
		}
	}
	self := Line(a, a)
	if len(self) != 1 || self[0] != a {
		t.Fatalf("Line(a, a) = %v, want [%v]", self, a)
	}
}

func TestPixelRoundTrip(t *testing.T) {
	const size = 32.0
	for q := -6; q <= 6; q++ {
		for r := -6; r <= 6; r++ {
			h := FromAxial(q, r)
			x, y := ToPixel(h, size)
			if got := FromPixel(x, y, size); got != h {
				t.Fatalf("round trip of %v via (%.2f, %.2f) gave %v", h, x, y, got)
			}
		}
	}
}

func TestRoundPreservesInvariant(t *testing.T) {
	cases := []struct{ q, r, s float64 }{
		{0.4, 0.3, -0.7},
		{1.7, -0.9, -0.8},
		{-2.5, 1.2, 1.3},
		{0.0, 0.0, 0.0},
	}
	for _, tc := range cases {
		h := Round(tc.q, tc.r, tc.s)
		if !h.Valid() {
			t.Fatalf("Round(%.2f, %.2f, %.2f) = %v violates q+r+s=0", tc.q, tc.r, tc.s, h)
		}
	}
}
