package balance

import (
	"encoding/json"
	"fmt"
	"os"
)

// Document is the balance catalog as it appears on disk. It is exported
// so tooling (the schema generator) can reflect over the configuration
// contract shared with designers.
type Document struct {
	Classes   map[Class]ClassStats `json:"classes" jsonschema:"title=Class Table,description=Stats per playable class.,required"`
	Abilities []Ability            `json:"abilities" jsonschema:"title=Ability Catalog,description=Every ability the engine may grant.,required"`
}

// Load reads and validates a balance document from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read balance document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse balance document: %w", err)
	}
	return fromDocument(doc)
}

func fromDocument(doc Document) (*Catalog, error) {
	if len(doc.Classes) == 0 {
		return nil, fmt.Errorf("balance document defines no classes")
	}
	abilities := make(map[string]Ability, len(doc.Abilities))
	for _, ability := range doc.Abilities {
		if ability.ID == "" {
			return nil, fmt.Errorf("ability with empty id")
		}
		if _, dup := abilities[ability.ID]; dup {
			return nil, fmt.Errorf("duplicate ability id %q", ability.ID)
		}
		if ability.Cost < 0 || ability.Range < 0 || ability.Power < 0 {
			return nil, fmt.Errorf("ability %q has negative cost, range, or power", ability.ID)
		}
		abilities[ability.ID] = ability
	}

	classes := make(map[Class]ClassStats, len(doc.Classes))
	for class, stats := range doc.Classes {
		if !class.Valid() {
			return nil, fmt.Errorf("unknown class %q", class)
		}
		if stats.BaseHealth <= 0 {
			return nil, fmt.Errorf("class %q has non-positive base health", class)
		}
		if stats.VisionRange <= 0 {
			return nil, fmt.Errorf("class %q has non-positive vision range", class)
		}
		for _, id := range stats.Abilities {
			if _, ok := abilities[id]; !ok {
				return nil, fmt.Errorf("class %q references unknown ability %q", class, id)
			}
		}
		classes[class] = stats
	}

	return &Catalog{classes: classes, abilities: abilities}, nil
}
