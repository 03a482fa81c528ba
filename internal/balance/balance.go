// Package balance holds the static game-balance tables: class base
// stats, sight ranges, and the ability catalog. The engine only reads
// these values; designers edit the JSON document under config/ and the
// schema generated by cmd/schema keeps that document honest.
package balance

import "time"

// Class identifies one of the four playable classes.
type Class string

const (
	ClassWarrior Class = "warrior"
	ClassRanger  Class = "ranger"
	ClassMage    Class = "mage"
	ClassCleric  Class = "cleric"
)

// Classes lists every playable class in presentation order.
var Classes = []Class{ClassWarrior, ClassRanger, ClassMage, ClassCleric}

// Valid reports whether the class is one of the playable four.
func (c Class) Valid() bool {
	switch c {
	case ClassWarrior, ClassRanger, ClassMage, ClassCleric:
		return true
	}
	return false
}

// DefaultActionPoints is the per-turn action point pool every player
// starts with. Refresh is driven by the turn cycle outside the session
// engine.
const DefaultActionPoints = 3

// VisionLevelInterval is the number of levels per +1 sight range bonus.
const VisionLevelInterval = 5

// TargetKind constrains what an ability may be aimed at.
type TargetKind string

const (
	TargetEnemy  TargetKind = "enemy"
	TargetAlly   TargetKind = "ally"
	TargetSelf   TargetKind = "self"
	TargetGround TargetKind = "ground"
)

// ClassStats captures everything class selection fixes at join time.
type ClassStats struct {
	BaseHealth     int      `json:"baseHealth" jsonschema:"title=Base Health,minimum=1,required"`
	VisionRange    int      `json:"visionRange" jsonschema:"title=Vision Range,description=Sight radius in hexes before level bonuses.,minimum=1,required"`
	DamageModifier float64  `json:"damageModifier" jsonschema:"title=Damage Modifier,description=Class multiplier applied to ability power.,minimum=0,required"`
	Abilities      []string `json:"abilities" jsonschema:"title=Starting Abilities,description=Ability ids granted on join.,required"`
}

// Ability is one catalog entry. Power is a damage magnitude unless Heals
// is set, in which case it restores health instead.
type Ability struct {
	ID         string     `json:"id" jsonschema:"title=Ability ID,pattern=^[a-z0-9-]+$,minLength=1,required"`
	Name       string     `json:"name" jsonschema:"title=Display Name,minLength=1,required"`
	Cost       int        `json:"cost" jsonschema:"title=Action Point Cost,minimum=0,required"`
	CooldownMS int64      `json:"cooldownMs" jsonschema:"title=Cooldown,description=Milliseconds before the ability can fire again.,minimum=0"`
	Range      int        `json:"range" jsonschema:"title=Range,description=Maximum target distance in hexes.,minimum=0,required"`
	Target     TargetKind `json:"target" jsonschema:"title=Target Kind,enum=enemy,enum=ally,enum=self,enum=ground,required"`
	Power      int        `json:"power,omitempty" jsonschema:"title=Power,description=Damage or heal magnitude before scaling.,minimum=0"`
	Heals      bool       `json:"heals,omitempty" jsonschema:"title=Heals,description=Power restores health instead of removing it."`
	AreaRadius int        `json:"areaRadius,omitempty" jsonschema:"title=Area Radius,description=Radius in hexes around the impact cell.,minimum=0"`
}

// Cooldown returns the catalog cooldown as a duration.
func (a Ability) Cooldown() time.Duration {
	return time.Duration(a.CooldownMS) * time.Millisecond
}

// Catalog bundles the class table and ability registry the engine reads.
type Catalog struct {
	classes   map[Class]ClassStats
	abilities map[string]Ability
}

// Class returns the stats for a class; ok is false for unknown classes.
func (c *Catalog) Class(class Class) (ClassStats, bool) {
	stats, ok := c.classes[class]
	return stats, ok
}

// Ability returns a catalog entry by id.
func (c *Catalog) Ability(id string) (Ability, bool) {
	ability, ok := c.abilities[id]
	return ability, ok
}

// Abilities returns the catalog entries for the given ids, skipping any
// that are unknown.
func (c *Catalog) Abilities(ids []string) []Ability {
	out := make([]Ability, 0, len(ids))
	for _, id := range ids {
		if ability, ok := c.abilities[id]; ok {
			out = append(out, ability)
		}
	}
	return out
}

// Default returns the built-in balance tables. They match the shipped
// config/balance.json and keep the server usable without any config on
// disk.
func Default() *Catalog {
	doc := defaultDocument()
	catalog, err := fromDocument(doc)
	if err != nil {
		// The built-in tables are validated by tests; a failure here is
		// a programmer error.
		panic(err)
	}
	return catalog
}

func defaultDocument() Document {
	return Document{
		Classes: map[Class]ClassStats{
			ClassWarrior: {BaseHealth: 120, VisionRange: 3, DamageModifier: 1.2, Abilities: []string{"cleave", "shield-bash"}},
			ClassRanger:  {BaseHealth: 90, VisionRange: 5, DamageModifier: 1.0, Abilities: []string{"piercing-shot", "snare"}},
			ClassMage:    {BaseHealth: 70, VisionRange: 4, DamageModifier: 1.4, Abilities: []string{"arcane-burst", "blink"}},
			ClassCleric:  {BaseHealth: 100, VisionRange: 4, DamageModifier: 0.9, Abilities: []string{"smite", "healing-word"}},
		},
		Abilities: []Ability{
			{ID: "cleave", Name: "Cleave", Cost: 2, CooldownMS: 3000, Range: 1, Target: TargetEnemy, Power: 14},
			{ID: "shield-bash", Name: "Shield Bash", Cost: 1, CooldownMS: 5000, Range: 1, Target: TargetEnemy, Power: 6},
			{ID: "piercing-shot", Name: "Piercing Shot", Cost: 2, CooldownMS: 4000, Range: 6, Target: TargetEnemy, Power: 12},
			{ID: "snare", Name: "Snare", Cost: 1, CooldownMS: 6000, Range: 4, Target: TargetGround, AreaRadius: 1},
			{ID: "arcane-burst", Name: "Arcane Burst", Cost: 3, CooldownMS: 5000, Range: 5, Target: TargetGround, Power: 18, AreaRadius: 2},
			{ID: "blink", Name: "Blink", Cost: 1, CooldownMS: 8000, Range: 3, Target: TargetSelf},
			{ID: "smite", Name: "Smite", Cost: 2, CooldownMS: 4000, Range: 3, Target: TargetEnemy, Power: 10},
			{ID: "healing-word", Name: "Healing Word", Cost: 1, CooldownMS: 5000, Range: 4, Target: TargetAlly, Power: 12, Heals: true},
		},
	}
}
