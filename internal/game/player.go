package game

import (
	"time"

	"umbral-nexus/server/internal/balance"
	"umbral-nexus/server/internal/hexgrid"
)

// AbilityState pairs a catalog ability with its per-player cooldown
// expiry. The expiry timestamp is the cooldown gate: an ability is
// ready when the clock has passed CooldownUntil.
type AbilityState struct {
	ID            string    `json:"id"`
	CooldownUntil time.Time `json:"cooldownUntil"`
}

// Ready reports whether the ability can fire at the given time.
func (a AbilityState) Ready(now time.Time) bool {
	return !now.Before(a.CooldownUntil)
}

// EchoKind classifies a Nexus Echo power-up.
type EchoKind string

const (
	EchoOffensive EchoKind = "offensive"
	EchoDefensive EchoKind = "defensive"
	EchoUtility   EchoKind = "utility"
	EchoLegendary EchoKind = "legendary"
)

// Echo is one stackable Nexus Echo. DamageBonus and HealBonus are the
// per-stack multiplier contributions (0.1 = +10% per stack).
type Echo struct {
	ID          string   `json:"id"`
	Kind        EchoKind `json:"kind"`
	Stacks      int      `json:"stacks"`
	MaxStacks   int      `json:"maxStacks"`
	DamageBonus float64  `json:"damageBonus,omitempty"`
	HealBonus   float64  `json:"healBonus,omitempty"`
}

// Player is one roster member of a session. All mutation happens under
// the owning session's lock.
type Player struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Class           balance.Class  `json:"class"`
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
	JoinedAt        time.Time      `json:"joinedAt"`
}

// newPlayer initializes a roster member from class data.
func newPlayer(id, name string, class balance.Class, stats balance.ClassStats, spawn hexgrid.Hex, now time.Time) *Player {
	abilities := make([]AbilityState, 0, len(stats.Abilities))
	for _, abilityID := range stats.Abilities {
		abilities = append(abilities, AbilityState{ID: abilityID})
	}
	return &Player{
		ID:              id,
		Name:            name,
		Class:           class,
		Level:           1,
		Health:          stats.BaseHealth,
		MaxHealth:       stats.BaseHealth,
		ActionPoints:    balance.DefaultActionPoints,
		MaxActionPoints: balance.DefaultActionPoints,
		Position:        spawn,
		Abilities:       abilities,
		Echoes:          make([]Echo, 0),
		Inventory:       map[string]int{"health-potion": 2},
		JoinedAt:        now,
	}
}

// ability finds a learned ability by id.
func (p *Player) ability(id string) (*AbilityState, bool) {
	for i := range p.Abilities {
		if p.Abilities[i].ID == id {
			return &p.Abilities[i], true
		}
	}
	return nil, false
}

// damageMultiplier folds Echo stacks into a damage factor.
func (p *Player) damageMultiplier() float64 {
	mult := 1.0
	for _, echo := range p.Echoes {
		mult += float64(echo.Stacks) * echo.DamageBonus
	}
	return mult
}

// healMultiplier folds Echo stacks into a healing factor.
func (p *Player) healMultiplier() float64 {
	mult := 1.0
	for _, echo := range p.Echoes {
		mult += float64(echo.Stacks) * echo.HealBonus
	}
	return mult
}

// AddEcho grants or stacks a Nexus Echo, respecting the stack cap.
// It returns the resulting stack count.
func (p *Player) AddEcho(echo Echo) int {
	if echo.MaxStacks < 1 {
		echo.MaxStacks = 1
	}
	for i := range p.Echoes {
		if p.Echoes[i].ID == echo.ID {
			if p.Echoes[i].Stacks < p.Echoes[i].MaxStacks {
				p.Echoes[i].Stacks++
			}
			return p.Echoes[i].Stacks
		}
	}
	if echo.Stacks < 1 {
		echo.Stacks = 1
	}
	if echo.Stacks > echo.MaxStacks {
		echo.Stacks = echo.MaxStacks
	}
	p.Echoes = append(p.Echoes, echo)
	return echo.Stacks
}

// applyDamage reduces health, clamped at zero.
func (p *Player) applyDamage(amount int) {
	p.Health -= amount
	if p.Health < 0 {
		p.Health = 0
	}
}

// applyHealing raises health, clamped at the maximum.
func (p *Player) applyHealing(amount int) {
	p.Health += amount
	if p.Health > p.MaxHealth {
		p.Health = p.MaxHealth
	}
}

// consumeItem decrements an inventory stack, deleting it at zero so no
// zero-quantity entries linger.
func (p *Player) consumeItem(itemID string) error {
	quantity, ok := p.Inventory[itemID]
	if !ok {
		return newError(CodeItemNotFound, "item %q not in inventory", itemID)
	}
	if quantity <= 0 {
		// Stacks are deleted at zero, so this only fires on corrupted
		// state. Still reported under its own code.
		delete(p.Inventory, itemID)
		return newError(CodeZeroQuantity, "item %q has no remaining uses", itemID)
	}
	quantity--
	if quantity == 0 {
		delete(p.Inventory, itemID)
	} else {
		p.Inventory[itemID] = quantity
	}
	return nil
}
