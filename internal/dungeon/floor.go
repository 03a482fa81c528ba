package dungeon

import (
	"math/rand"

	"umbral-nexus/server/internal/hexgrid"
)

// Floor is one level of the dungeon: a hexagonal disc of tiles keyed by
// coordinate. Tiles outside the disc do not exist; movement and
// visibility treat them as out of bounds.
type Floor struct {
	Index  int                   `json:"index"`
	Radius int                   `json:"radius"`
	Tiles  map[hexgrid.Hex]*Tile `json:"-"`
	Spawn  hexgrid.Hex           `json:"spawn"`
	Stairs hexgrid.Hex           `json:"stairs"`
}

// interiorWallChance tunes how cluttered generated floors are.
const interiorWallChance = 0.12

// pitChance is applied after walls; pits block movement but not sight.
const pitChance = 0.04

// Generate builds a floor deterministically from a seed. The perimeter
// ring is wall, the center is kept clear as the spawn point, and the
// stairs land on the walkable cell farthest from spawn.
func Generate(index, radius int, seed int64) *Floor {
	if radius < 2 {
		radius = 2
	}
	rng := rand.New(rand.NewSource(seed))
	origin := hexgrid.FromAxial(0, 0)

	floor := &Floor{
		Index:  index,
		Radius: radius,
		Tiles:  make(map[hexgrid.Hex]*Tile),
		Spawn:  origin,
	}

	for _, h := range hexgrid.Range(origin, radius) {
		tile := &Tile{Type: TileFloor}
		switch {
		case hexgrid.Distance(origin, h) == radius:
			tile.Type = TileWall
		case hexgrid.Distance(origin, h) <= 1:
			// Spawn area stays clear.
		case rng.Float64() < interiorWallChance:
			tile.Type = TileWall
		case rng.Float64() < pitChance:
			tile.Type = TilePit
		}
		floor.Tiles[h] = tile
	}

	floor.Stairs = floor.farthestWalkable(origin)
	if tile, ok := floor.Tiles[floor.Stairs]; ok {
		tile.Type = TileStairs
	}
	return floor
}

// farthestWalkable scans in hexgrid.Range order so ties between
// equally-far cells resolve the same way for the same seed.
func (f *Floor) farthestWalkable(from hexgrid.Hex) hexgrid.Hex {
	best := from
	bestDist := -1
	for _, h := range hexgrid.Range(from, f.Radius) {
		tile, ok := f.Tiles[h]
		if !ok || !tile.Type.Walkable() {
			continue
		}
		if d := hexgrid.Distance(from, h); d > bestDist {
			best = h
			bestDist = d
		}
	}
	return best
}

// Contains reports whether the coordinate is part of the floor.
func (f *Floor) Contains(h hexgrid.Hex) bool {
	if f == nil {
		return false
	}
	_, ok := f.Tiles[h]
	return ok
}

// TileAt returns the tile at a coordinate.
func (f *Floor) TileAt(h hexgrid.Hex) (*Tile, bool) {
	if f == nil {
		return nil, false
	}
	tile, ok := f.Tiles[h]
	return tile, ok
}

// Walkable reports whether a coordinate exists and can be occupied.
func (f *Floor) Walkable(h hexgrid.Hex) bool {
	tile, ok := f.TileAt(h)
	return ok && tile.Type.Walkable()
}
