package game

import (
	"context"
	"time"

	"umbral-nexus/server/internal/balance"
	"umbral-nexus/server/internal/hexgrid"
	"umbral-nexus/server/logging"
	"umbral-nexus/server/logging/gameplay"
)

// ActionKind discriminates the player action union.
type ActionKind string

const (
	ActionMove       ActionKind = "move"
	ActionAttack     ActionKind = "attack"
	ActionUseAbility ActionKind = "use_ability"
	ActionUseItem    ActionKind = "use_item"
)

// Basic attacks are class-agnostic in shape: one action point, melee
// reach, modest power before class and Echo scaling.
const (
	basicAttackPower = 10
	basicAttackRange = 1
	basicAttackCost  = 1

	itemUseCost      = 1
	healthPotionID   = "health-potion"
	healthPotionHeal = 25
)

// Action is one decoded player command.
type Action struct {
	Kind           ActionKind   `json:"kind"`
	MessageID      string       `json:"messageId,omitempty"`
	Target         *hexgrid.Hex `json:"target,omitempty"`
	TargetPlayerID string       `json:"targetPlayerId,omitempty"`
	AbilityID      string       `json:"abilityId,omitempty"`
	ItemID         string       `json:"itemId,omitempty"`
}

// ActionResult reports what a processed action did, echoed back to the
// submitting client keyed by its message id.
type ActionResult struct {
	MessageID   string       `json:"messageId,omitempty"`
	Kind        ActionKind   `json:"kind"`
	CostAP      int          `json:"costAp"`
	RemainingAP int          `json:"remainingAp"`
	Damage      int          `json:"damage,omitempty"`
	Healing     int          `json:"healing,omitempty"`
	TargetID    string       `json:"targetId,omitempty"`
	Position    *hexgrid.Hex `json:"position,omitempty"`
}

// Target is something outside the roster that damage can land on.
type Target interface {
	TargetID() string
	ApplyDamage(amount int) (remainingHealth int)
}

// TargetResolver looks up non-player targets by position. The dungeon
// population layer implements it; without one, hostile actions can only
// hit roster members.
type TargetResolver interface {
	ResolveTarget(sessionID string, floorIndex int, at hexgrid.Hex) (Target, bool)
}

// Process validates and applies a single action under the session lock.
// Rejections leave session state untouched; the returned error carries
// a stable code for the wire.
func (m *Manager) Process(ctx context.Context, sessionID, playerID string, action Action) (ActionResult, error) {
	var (
		result ActionResult
		snap   SessionSnapshot
	)
	err := m.withSession(sessionID, func(entry *sessionEntry) error {
		session := entry.session
		if session.Phase != PhaseActive {
			return newError(CodeNotActive, "session %q is in phase %q", sessionID, session.Phase)
		}
		player, ok := session.player(playerID)
		if !ok {
			return newError(CodePlayerNotFound, "player %q is not in session %q", playerID, sessionID)
		}

		var err error
		switch action.Kind {
		case ActionMove:
			result, err = m.applyMove(session, player, action)
		case ActionAttack:
			result, err = m.applyAttack(ctx, session, player, action)
		case ActionUseAbility:
			result, err = m.applyAbility(ctx, session, player, action)
		case ActionUseItem:
			result, err = m.applyItem(ctx, session, player, action)
		default:
			err = newError(CodeInvalidConfig, "unknown action kind %q", action.Kind)
		}
		if err != nil {
			gameplay.ActionRejected(ctx, m.publisher, sessionID, playerRef(playerID), gameplay.ActionPayload{
				Kind:      string(action.Kind),
				AbilityID: action.AbilityID,
				ItemID:    action.ItemID,
				Reason:    string(CodeOf(err)),
			})
			return err
		}

		result.MessageID = action.MessageID
		result.Kind = action.Kind
		result.RemainingAP = player.ActionPoints
		gameplay.ActionApplied(ctx, m.publisher, sessionID, playerRef(playerID), gameplay.ActionPayload{
			Kind:        string(action.Kind),
			AbilityID:   action.AbilityID,
			ItemID:      action.ItemID,
			CostAP:      result.CostAP,
			RemainingAP: result.RemainingAP,
		})
		snap = session.snapshot()
		m.persistLocked(ctx, entry)
		return nil
	})
	if err != nil {
		return ActionResult{}, err
	}
	m.broadcast(sessionID, EventSessionState, snap)
	return result, nil
}

// applyMove walks a player to a reachable tile, spending one action
// point per hex of distance.
func (m *Manager) applyMove(session *Session, player *Player, action Action) (ActionResult, error) {
	if action.Target == nil {
		return ActionResult{}, newError(CodeInvalidConfig, "move requires a target hex")
	}
	target := *action.Target
	if !target.Valid() {
		return ActionResult{}, newError(CodeInvalidConfig, "target %s is not a cube coordinate", target)
	}
	floor, ok := session.floor(player.FloorIndex)
	if !ok {
		return ActionResult{}, newError(CodeOutOfBounds, "floor %d does not exist", player.FloorIndex)
	}
	if !floor.Walkable(target) {
		return ActionResult{}, newError(CodeOutOfBounds, "tile %s is not walkable", target)
	}

	cost := hexgrid.Distance(player.Position, target)
	if cost < 1 {
		cost = 1
	}
	if cost > player.ActionPoints {
		return ActionResult{}, newError(CodeInsufficientAP, "move costs %d, have %d", cost, player.ActionPoints)
	}

	player.ActionPoints -= cost
	player.Position = target
	m.refreshFogLocked(session, player.FloorIndex)
	pos := target
	return ActionResult{CostAP: cost, Position: &pos}, nil
}

// applyAttack resolves a basic melee strike against an adjacent target.
func (m *Manager) applyAttack(ctx context.Context, session *Session, player *Player, action Action) (ActionResult, error) {
	stats, ok := m.catalog.Class(player.Class)
	if !ok {
		return ActionResult{}, newError(CodeInvalidConfig, "unknown class %q", player.Class)
	}
	if player.ActionPoints < basicAttackCost {
		return ActionResult{}, newError(CodeInsufficientAP, "attack costs %d, have %d", basicAttackCost, player.ActionPoints)
	}

	amount := damageAmount(basicAttackPower, stats.DamageModifier, player.Level, player.damageMultiplier(), m.variance())
	result, err := m.dealDamage(ctx, session, player, action, "", basicAttackRange, amount)
	if err != nil {
		return ActionResult{}, err
	}
	player.ActionPoints -= basicAttackCost
	result.CostAP = basicAttackCost
	return result, nil
}

// dealDamage lands damage on a roster member or a resolver target.
func (m *Manager) dealDamage(ctx context.Context, session *Session, player *Player, action Action, abilityID string, reach, amount int) (ActionResult, error) {
	if action.TargetPlayerID != "" {
		victim, ok := session.player(action.TargetPlayerID)
		if !ok {
			return ActionResult{}, newError(CodeTargetNotFound, "player %q is not in the session", action.TargetPlayerID)
		}
		if victim.FloorIndex != player.FloorIndex || hexgrid.Distance(player.Position, victim.Position) > reach {
			return ActionResult{}, newError(CodeOutOfBounds, "player %q is out of reach", action.TargetPlayerID)
		}
		victim.applyDamage(amount)
		gameplay.DamageDealt(ctx, m.publisher, session.ID, playerRef(player.ID), playerRef(victim.ID), gameplay.CombatPayload{
			Amount:       amount,
			TargetHealth: victim.Health,
			AbilityID:    abilityID,
		})
		return ActionResult{Damage: amount, TargetID: victim.ID}, nil
	}

	if action.Target == nil || m.resolver == nil {
		return ActionResult{}, newError(CodeTargetNotFound, "no target for the attack")
	}
	at := *action.Target
	if hexgrid.Distance(player.Position, at) > reach {
		return ActionResult{}, newError(CodeOutOfBounds, "tile %s is out of reach", at)
	}
	target, ok := m.resolver.ResolveTarget(session.ID, player.FloorIndex, at)
	if !ok {
		return ActionResult{}, newError(CodeTargetNotFound, "nothing to hit at %s", at)
	}
	remaining := target.ApplyDamage(amount)
	gameplay.DamageDealt(ctx, m.publisher, session.ID, playerRef(player.ID), logging.EntityRef{ID: target.TargetID(), Kind: logging.EntityKindUnknown}, gameplay.CombatPayload{
		Amount:       amount,
		TargetHealth: remaining,
		AbilityID:    abilityID,
	})
	return ActionResult{Damage: amount, TargetID: target.TargetID()}, nil
}

// applyAbility fires a learned ability. Checks run in a fixed order:
// catalog existence, learned, action points, cooldown. A rejected cast
// never starts the cooldown.
func (m *Manager) applyAbility(ctx context.Context, session *Session, player *Player, action Action) (ActionResult, error) {
	ability, ok := m.catalog.Ability(action.AbilityID)
	if !ok {
		return ActionResult{}, newError(CodeAbilityNotFound, "ability %q is not in the catalog", action.AbilityID)
	}
	state, ok := player.ability(action.AbilityID)
	if !ok {
		return ActionResult{}, newError(CodeAbilityNotFound, "player %q has not learned %q", player.ID, action.AbilityID)
	}
	if player.ActionPoints < ability.Cost {
		return ActionResult{}, newError(CodeInsufficientAP, "ability costs %d, have %d", ability.Cost, player.ActionPoints)
	}
	now := m.clock()
	if !state.Ready(now) {
		return ActionResult{}, newError(CodeOnCooldown, "ability %q ready at %s", ability.ID, state.CooldownUntil.Format(time.RFC3339))
	}

	stats, ok := m.catalog.Class(player.Class)
	if !ok {
		return ActionResult{}, newError(CodeInvalidConfig, "unknown class %q", player.Class)
	}

	var (
		result ActionResult
		err    error
	)
	switch {
	case ability.Heals:
		result, err = m.applyHealing(ctx, session, player, ability, stats, action)
	case ability.Target == balance.TargetSelf:
		result, err = m.applyTranslocation(session, player, ability, action)
	case ability.Target == balance.TargetGround:
		result, err = m.applyGroundBurst(ctx, session, player, ability, stats, action)
	default:
		amount := damageAmount(ability.Power, stats.DamageModifier, player.Level, player.damageMultiplier(), m.variance())
		result, err = m.dealDamage(ctx, session, player, action, ability.ID, ability.Range, amount)
	}
	if err != nil {
		return ActionResult{}, err
	}

	player.ActionPoints -= ability.Cost
	state.CooldownUntil = now.Add(ability.Cooldown())
	result.CostAP = ability.Cost
	return result, nil
}

// applyTranslocation moves the caster to a walkable cell within the
// ability's range without paying per-hex movement cost.
func (m *Manager) applyTranslocation(session *Session, player *Player, ability balance.Ability, action Action) (ActionResult, error) {
	if action.Target == nil {
		return ActionResult{}, newError(CodeInvalidConfig, "%s requires a destination hex", ability.ID)
	}
	target := *action.Target
	if !target.Valid() {
		return ActionResult{}, newError(CodeInvalidConfig, "target %s is not a cube coordinate", target)
	}
	floor, ok := session.floor(player.FloorIndex)
	if !ok {
		return ActionResult{}, newError(CodeOutOfBounds, "floor %d does not exist", player.FloorIndex)
	}
	if hexgrid.Distance(player.Position, target) > ability.Range {
		return ActionResult{}, newError(CodeOutOfBounds, "tile %s is out of reach", target)
	}
	if !floor.Walkable(target) {
		return ActionResult{}, newError(CodeOutOfBounds, "tile %s is not walkable", target)
	}

	player.Position = target
	m.refreshFogLocked(session, player.FloorIndex)
	pos := target
	return ActionResult{Position: &pos, TargetID: player.ID}, nil
}

// applyGroundBurst resolves an area effect around an impact cell,
// striking every occupant within the blast radius. Abilities without
// power (snare) place the effect and deal nothing.
func (m *Manager) applyGroundBurst(ctx context.Context, session *Session, player *Player, ability balance.Ability, stats balance.ClassStats, action Action) (ActionResult, error) {
	if action.Target == nil {
		return ActionResult{}, newError(CodeInvalidConfig, "%s requires an impact hex", ability.ID)
	}
	impact := *action.Target
	if !impact.Valid() {
		return ActionResult{}, newError(CodeInvalidConfig, "target %s is not a cube coordinate", impact)
	}
	floor, ok := session.floor(player.FloorIndex)
	if !ok {
		return ActionResult{}, newError(CodeOutOfBounds, "floor %d does not exist", player.FloorIndex)
	}
	if !floor.Contains(impact) {
		return ActionResult{}, newError(CodeOutOfBounds, "tile %s is off the floor", impact)
	}
	if hexgrid.Distance(player.Position, impact) > ability.Range {
		return ActionResult{}, newError(CodeOutOfBounds, "tile %s is out of reach", impact)
	}

	pos := impact
	result := ActionResult{Position: &pos}
	if ability.Power == 0 {
		return result, nil
	}

	amount := damageAmount(ability.Power, stats.DamageModifier, player.Level, player.damageMultiplier(), m.variance())
	for _, cell := range hexgrid.Range(impact, ability.AreaRadius) {
		if !floor.Contains(cell) {
			continue
		}
		for _, other := range session.Players {
			if other.ID == player.ID || other.FloorIndex != player.FloorIndex || other.Position != cell {
				continue
			}
			other.applyDamage(amount)
			result.Damage += amount
			gameplay.DamageDealt(ctx, m.publisher, session.ID, playerRef(player.ID), playerRef(other.ID), gameplay.CombatPayload{
				Amount:       amount,
				TargetHealth: other.Health,
				AbilityID:    ability.ID,
			})
		}
		if m.resolver != nil {
			if target, ok := m.resolver.ResolveTarget(session.ID, player.FloorIndex, cell); ok {
				remaining := target.ApplyDamage(amount)
				result.Damage += amount
				gameplay.DamageDealt(ctx, m.publisher, session.ID, playerRef(player.ID), logging.EntityRef{ID: target.TargetID(), Kind: logging.EntityKindUnknown}, gameplay.CombatPayload{
					Amount:       amount,
					TargetHealth: remaining,
					AbilityID:    ability.ID,
				})
			}
		}
	}
	return result, nil
}

// applyHealing restores health to the caster or a roster ally.
func (m *Manager) applyHealing(ctx context.Context, session *Session, player *Player, ability balance.Ability, stats balance.ClassStats, action Action) (ActionResult, error) {
	recipient := player
	if ability.Target == balance.TargetAlly && action.TargetPlayerID != "" && action.TargetPlayerID != player.ID {
		ally, ok := session.player(action.TargetPlayerID)
		if !ok {
			return ActionResult{}, newError(CodeTargetNotFound, "player %q is not in the session", action.TargetPlayerID)
		}
		if ally.FloorIndex != player.FloorIndex || hexgrid.Distance(player.Position, ally.Position) > ability.Range {
			return ActionResult{}, newError(CodeOutOfBounds, "player %q is out of reach", action.TargetPlayerID)
		}
		recipient = ally
	}

	amount := healAmount(ability.Power, stats.DamageModifier, player.Level, player.healMultiplier())
	recipient.applyHealing(amount)
	gameplay.HealingApplied(ctx, m.publisher, session.ID, playerRef(player.ID), playerRef(recipient.ID), gameplay.CombatPayload{
		Amount:       amount,
		TargetHealth: recipient.Health,
		AbilityID:    ability.ID,
	})
	return ActionResult{Healing: amount, TargetID: recipient.ID}, nil
}

// applyItem consumes one inventory charge and applies its effect.
func (m *Manager) applyItem(ctx context.Context, session *Session, player *Player, action Action) (ActionResult, error) {
	quantity, ok := player.Inventory[action.ItemID]
	if !ok {
		return ActionResult{}, newError(CodeItemNotFound, "item %q not in inventory", action.ItemID)
	}
	if quantity <= 0 {
		delete(player.Inventory, action.ItemID)
		return ActionResult{}, newError(CodeZeroQuantity, "item %q has no remaining uses", action.ItemID)
	}
	if player.ActionPoints < itemUseCost {
		return ActionResult{}, newError(CodeInsufficientAP, "item use costs %d, have %d", itemUseCost, player.ActionPoints)
	}
	if err := player.consumeItem(action.ItemID); err != nil {
		return ActionResult{}, err
	}
	player.ActionPoints -= itemUseCost

	result := ActionResult{CostAP: itemUseCost, TargetID: player.ID}
	if action.ItemID == healthPotionID {
		before := player.Health
		player.applyHealing(healthPotionHeal)
		result.Healing = player.Health - before
		gameplay.HealingApplied(ctx, m.publisher, session.ID, playerRef(player.ID), playerRef(player.ID), gameplay.CombatPayload{
			Amount:       result.Healing,
			TargetHealth: player.Health,
		})
	}
	return result, nil
}
