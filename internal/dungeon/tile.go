// Package dungeon owns floor layout and the fog-of-war model. A Floor
// is a hex-keyed tile grid generated deterministically from a seed; the
// visibility engine marks tiles visible/explored per observer party.
package dungeon

// TileType is the static base type of a cell.
type TileType string

const (
	TileFloor  TileType = "floor"
	TileWall   TileType = "wall"
	TilePit    TileType = "pit"
	TileDoor   TileType = "door"
	TileStairs TileType = "stairs"
)

// Tile is one cell of a floor. Type is fixed at generation; the
// visibility pair is mutated by the fog engine as the party moves.
type Tile struct {
	Type       TileType `json:"type"`
	IsVisible  bool     `json:"isVisible"`
	IsExplored bool     `json:"isExplored"`
}

// Walkable reports whether an entity may occupy the tile.
func (t TileType) Walkable() bool {
	switch t {
	case TileFloor, TileDoor, TileStairs:
		return true
	}
	return false
}

// BlocksVision reports whether the tile stops line of sight.
func (t TileType) BlocksVision() bool {
	return t == TileWall
}
