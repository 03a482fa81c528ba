package dungeon

import (
	"umbral-nexus/server/internal/balance"
	"umbral-nexus/server/internal/hexgrid"
)

// SightRange computes the effective sight radius for a class base range
// and level: the base plus one per level interval.
func SightRange(base, level int) int {
	if base < 0 {
		base = 0
	}
	if level < 1 {
		level = 1
	}
	return base + (level-1)/balance.VisionLevelInterval
}

// HasLineOfSight walks the discrete line between two cells and reports
// whether sight reaches the target. Intermediate wall tiles block;
// looking at a wall itself succeeds. Zero-distance checks always
// succeed, and coordinates off the floor see nothing.
func HasLineOfSight(f *Floor, from, to hexgrid.Hex) bool {
	if f == nil || len(f.Tiles) == 0 {
		return false
	}
	if from == to {
		return true
	}
	if !f.Contains(from) || !f.Contains(to) {
		return false
	}
	line := hexgrid.Line(from, to)
	for _, h := range line[1 : len(line)-1] {
		tile, ok := f.TileAt(h)
		if !ok || tile.Type.BlocksVision() {
			return false
		}
	}
	return true
}

// VisibleTiles returns every floor coordinate within radius of the
// observer that is in line of sight. An empty or missing floor yields an
// empty result; visibility is advisory and never errors.
func VisibleTiles(f *Floor, observer hexgrid.Hex, radius int) []hexgrid.Hex {
	if f == nil || len(f.Tiles) == 0 || radius < 0 {
		return nil
	}
	out := make([]hexgrid.Hex, 0, 1+3*radius*(radius+1))
	for _, h := range hexgrid.Range(observer, radius) {
		if !f.Contains(h) {
			continue
		}
		if HasLineOfSight(f, observer, h) {
			out = append(out, h)
		}
	}
	return out
}

// UpdateFog recomputes the visibility pair on every tile for one
// observer. Tiles in sight become visible and explored; tiles that drop
// out of sight keep their explored flag but lose visibility. Unexplored
// tiles out of sight are untouched.
func UpdateFog(f *Floor, observer hexgrid.Hex, base, level int) {
	UpdateSharedFog(f, []Observer{{Position: observer, Base: base, Level: level}})
}

// Observer is a party member's contribution to shared visibility.
type Observer struct {
	Position hexgrid.Hex
	Base     int
	Level    int
}

// UpdateSharedFog recomputes tile visibility for a whole party in one
// pass. A tile is visible when any observer sees it; tiles nobody sees
// lose visibility but keep their explored flag.
func UpdateSharedFog(f *Floor, observers []Observer) {
	if f == nil || len(f.Tiles) == 0 {
		return
	}
	visible := make(map[hexgrid.Hex]struct{})
	for _, h := range SharedVisibility(f, observers) {
		visible[h] = struct{}{}
	}
	for h, tile := range f.Tiles {
		if _, ok := visible[h]; ok {
			tile.IsVisible = true
			tile.IsExplored = true
		} else {
			tile.IsVisible = false
		}
	}
}

// SharedVisibility unions each observer's visible set, deduplicated by
// coordinate.
func SharedVisibility(f *Floor, observers []Observer) []hexgrid.Hex {
	if f == nil || len(f.Tiles) == 0 {
		return nil
	}
	seen := make(map[hexgrid.Hex]struct{})
	out := make([]hexgrid.Hex, 0)
	for _, obs := range observers {
		for _, h := range VisibleTiles(f, obs.Position, SightRange(obs.Base, obs.Level)) {
			if _, dup := seen[h]; dup {
				continue
			}
			seen[h] = struct{}{}
			out = append(out, h)
		}
	}
	return out
}
