package dungeon

import (
	"testing"

	"umbral-nexus/server/internal/hexgrid"
)

// openFloor builds a 5-radius floor with no interior obstructions so
// tests control wall placement explicitly.
func openFloor() *Floor {
	origin := hexgrid.FromAxial(0, 0)
	f := &Floor{Index: 0, Radius: 5, Tiles: make(map[hexgrid.Hex]*Tile), Spawn: origin}
	for _, h := range hexgrid.Range(origin, 5) {
		tileType := TileFloor
		if hexgrid.Distance(origin, h) == 5 {
			tileType = TileWall
		}
		f.Tiles[h] = &Tile{Type: tileType}
	}
	return f
}

func TestSightRange(t *testing.T) {
	cases := []struct {
		base, level, want int
	}{
		{3, 1, 3},
		{3, 5, 3},
		{3, 6, 4},
		{5, 11, 7},
		{4, 0, 4},
	}
	for _, tc := range cases {
		if got := SightRange(tc.base, tc.level); got != tc.want {
			t.Fatalf("SightRange(%d, %d) = %d, want %d", tc.base, tc.level, got, tc.want)
		}
	}
}

func TestLineOfSightBlockedByWall(t *testing.T) {
	f := openFloor()
	from := hexgrid.FromAxial(0, 0)
	to := hexgrid.FromAxial(4, 0)
	if !HasLineOfSight(f, from, to) {
		t.Fatalf("expected clear line of sight on open floor")
	}

	f.Tiles[hexgrid.FromAxial(2, 0)].Type = TileWall
	if HasLineOfSight(f, from, to) {
		t.Fatalf("expected wall at (2,0) to block sight to (4,0)")
	}
	// The wall itself stays visible.
	if !HasLineOfSight(f, from, hexgrid.FromAxial(2, 0)) {
		t.Fatalf("expected the blocking wall itself to be visible")
	}
}

func TestLineOfSightSelfAlwaysSucceeds(t *testing.T) {
	f := openFloor()
	h := hexgrid.FromAxial(1, 1)
	if !HasLineOfSight(f, h, h) {
		t.Fatalf("self line of sight must succeed")
	}
}

func TestVisibilityOnEmptyFloor(t *testing.T) {
	if got := VisibleTiles(nil, hexgrid.FromAxial(0, 0), 3); got != nil {
		t.Fatalf("expected nil visible set for nil floor, got %v", got)
	}
	empty := &Floor{Tiles: map[hexgrid.Hex]*Tile{}}
	if got := VisibleTiles(empty, hexgrid.FromAxial(0, 0), 3); got != nil {
		t.Fatalf("expected nil visible set for empty floor, got %v", got)
	}
	// UpdateFog on an empty floor is a no-op, not a panic.
	UpdateFog(empty, hexgrid.FromAxial(0, 0), 3, 1)
}

func TestFogMonotoneExploration(t *testing.T) {
	f := openFloor()
	origin := hexgrid.FromAxial(0, 0)
	UpdateFog(f, origin, 3, 1)

	target := hexgrid.FromAxial(2, 0)
	tile := f.Tiles[target]
	if !tile.IsVisible || !tile.IsExplored {
		t.Fatalf("tile %v should be visible and explored after first update", target)
	}

	// Move the observer far away; the tile leaves sight but remains
	// explored.
	UpdateFog(f, hexgrid.FromAxial(-4, 0), 3, 1)
	if tile.IsVisible {
		t.Fatalf("tile %v should no longer be visible", target)
	}
	if !tile.IsExplored {
		t.Fatalf("tile %v must stay explored after moving away", target)
	}
}

func TestSharedVisibilityDeduplicates(t *testing.T) {
	f := openFloor()
	observers := []Observer{
		{Position: hexgrid.FromAxial(0, 0), Base: 3, Level: 1},
		{Position: hexgrid.FromAxial(1, 0), Base: 3, Level: 1},
	}
	shared := SharedVisibility(f, observers)
	seen := make(map[hexgrid.Hex]struct{}, len(shared))
	for _, h := range shared {
		if _, dup := seen[h]; dup {
			t.Fatalf("duplicate coordinate %v in shared visibility", h)
		}
		seen[h] = struct{}{}
	}
	// The union must cover at least one cell only the second observer
	// can see.
	if _, ok := seen[hexgrid.FromAxial(4, 0)]; !ok {
		t.Fatalf("expected union to include (4,0) via the forward observer")
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a := Generate(0, 6, 42)
	b := Generate(0, 6, 42)
	if len(a.Tiles) != len(b.Tiles) {
		t.Fatalf("tile counts differ: %d vs %d", len(a.Tiles), len(b.Tiles))
	}
	for h, tile := range a.Tiles {
		other, ok := b.Tiles[h]
		if !ok || other.Type != tile.Type {
			t.Fatalf("floor generation not deterministic at %v", h)
		}
	}
	if a.Stairs != b.Stairs {
		t.Fatalf("stairs placement not deterministic: %v vs %v", a.Stairs, b.Stairs)
	}
}

func TestGenerateSpawnIsWalkableAndStairsFar(t *testing.T) {
	f := Generate(0, 6, 7)
	if !f.Walkable(f.Spawn) {
		t.Fatalf("spawn %v is not walkable", f.Spawn)
	}
	tile, ok := f.TileAt(f.Stairs)
	if !ok || tile.Type != TileStairs {
		t.Fatalf("stairs tile missing or wrong type at %v", f.Stairs)
	}
	if hexgrid.Distance(f.Spawn, f.Stairs) < 2 {
		t.Fatalf("stairs %v suspiciously close to spawn %v", f.Stairs, f.Spawn)
	}
}

func TestSharedFogUnionsObservers(t *testing.T) {
	f := openFloor()
	left := hexgrid.FromAxial(-3, 0)
	right := hexgrid.FromAxial(3, 0)
	party := []Observer{
		{Position: left, Base: 2, Level: 1},
		{Position: right, Base: 2, Level: 1},
	}
	UpdateSharedFog(f, party)

	for _, h := range []hexgrid.Hex{left, right} {
		tile, ok := f.TileAt(h)
		if !ok || !tile.IsVisible || !tile.IsExplored {
			t.Fatalf("tile under observer %v should be visible and explored", h)
		}
	}

	// One observer moving must not clear what the other still sees.
	party[0].Position = hexgrid.FromAxial(-2, 0)
	UpdateSharedFog(f, party)
	if tile, _ := f.TileAt(right); !tile.IsVisible {
		t.Fatalf("tile under stationary observer %v lost visibility", right)
	}
	edge := hexgrid.FromAxial(-5, 0)
	tile, ok := f.TileAt(edge)
	if !ok {
		t.Fatalf("missing edge tile %v", edge)
	}
	if tile.IsVisible {
		t.Fatalf("tile %v out of everyone's sight should not be visible", edge)
	}
	if !tile.IsExplored {
		t.Fatalf("tile %v must stay explored", edge)
	}
}

func TestStairsPlacementStableAcrossRuns(t *testing.T) {
	first := Generate(0, 6, 42).Stairs
	for i := 0; i < 5; i++ {
		if got := Generate(0, 6, 42).Stairs; got != first {
			t.Fatalf("stairs moved between runs: %v vs %v", got, first)
		}
	}
}
