package game

import (
	"time"

	"umbral-nexus/server/internal/dungeon"
	"umbral-nexus/server/internal/hexgrid"
)

// Session is one party's shared play instance. The Manager owns every
// Session exclusively; callers only ever see snapshots.
type Session struct {
	ID         string
	Name       string
	HostID     string
	Capacity   int
	Difficulty string
	Phase      Phase
	Players    []*Player
	Floors     []*dungeon.Floor
	Seed       int64
	CreatedAt  time.Time
	StartedAt  *time.Time
}

// player finds a roster member by id.
func (s *Session) player(id string) (*Player, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// removePlayer drops a roster member, preserving join order.
func (s *Session) removePlayer(id string) bool {
	for i, p := range s.Players {
		if p.ID == id {
			s.Players = append(s.Players[:i], s.Players[i+1:]...)
			return true
		}
	}
	return false
}

// floor returns the floor at an index.
func (s *Session) floor(index int) (*dungeon.Floor, bool) {
	if index < 0 || index >= len(s.Floors) {
		return nil, false
	}
	return s.Floors[index], true
}

// SessionSnapshot is the wire representation of a session, shared by
// the HTTP summaries and the websocket session-state event.
type SessionSnapshot struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	HostID     string           `json:"hostId"`
	Capacity   int              `json:"capacity"`
	Difficulty string           `json:"difficulty"`
	Phase      Phase            `json:"phase"`
	Players    []PlayerSnapshot `json:"players"`
	FloorCount int              `json:"floorCount"`
	StartedAt  *time.Time       `json:"startedAt,omitempty"`
}

// PlayerSnapshot is the wire representation of one roster member.
type PlayerSnapshot struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Class           string         `json:"class"`
	Level           int            `json:"level"`
	Health          int            `json:"health"`
	MaxHealth       int            `json:"maxHealth"`
	ActionPoints    int            `json:"actionPoints"`
	MaxActionPoints int            `json:"maxActionPoints"`
	FloorIndex      int            `json:"floorIndex"`
	Position        hexgrid.Hex    `json:"position"`
	Abilities       []AbilityState `json:"abilities"`
	Echoes          []Echo         `json:"echoes"`
	Inventory       map[string]int `json:"inventory"`
}

// snapshot copies session state for broadcasting outside the lock.
func (s *Session) snapshot() SessionSnapshot {
	players := make([]PlayerSnapshot, 0, len(s.Players))
	for _, p := range s.Players {
		players = append(players, snapshotPlayer(p))
	}
	return SessionSnapshot{
		ID:         s.ID,
		Name:       s.Name,
		HostID:     s.HostID,
		Capacity:   s.Capacity,
		Difficulty: s.Difficulty,
		Phase:      s.Phase,
		Players:    players,
		FloorCount: len(s.Floors),
		StartedAt:  s.StartedAt,
	}
}

func snapshotPlayer(p *Player) PlayerSnapshot {
	abilities := make([]AbilityState, len(p.Abilities))
	copy(abilities, p.Abilities)
	echoes := make([]Echo, len(p.Echoes))
	copy(echoes, p.Echoes)
	inventory := make(map[string]int, len(p.Inventory))
	for k, v := range p.Inventory {
		inventory[k] = v
	}
	return PlayerSnapshot{
		ID:              p.ID,
		Name:            p.Name,
		Class:           string(p.Class),
		Level:           p.Level,
		Health:          p.Health,
		MaxHealth:       p.MaxHealth,
		ActionPoints:    p.ActionPoints,
		MaxActionPoints: p.MaxActionPoints,
		FloorIndex:      p.FloorIndex,
		Position:        p.Position,
		Abilities:       abilities,
		Echoes:          echoes,
		Inventory:       inventory,
	}
}
