// Package gameplay defines action processing events.
package gameplay

import (
	"context"

	"umbral-nexus/server/logging"
)

const (
	// EventActionApplied is emitted when an action mutates session state.
	EventActionApplied logging.EventType = "gameplay.action_applied"
	// EventActionRejected is emitted when an action fails validation.
	EventActionRejected logging.EventType = "gameplay.action_rejected"
	// EventDamageDealt is emitted when combat math resolves damage.
	EventDamageDealt logging.EventType = "gameplay.damage_dealt"
	// EventHealingApplied is emitted when combat math resolves healing.
	EventHealingApplied logging.EventType = "gameplay.healing_applied"
)

// ActionPayload describes one processed action.
type ActionPayload struct {
	Kind        string `json:"kind"`
	AbilityID   string `json:"abilityId,omitempty"`
	ItemID      string `json:"itemId,omitempty"`
	CostAP      int    `json:"costAp,omitempty"`
	RemainingAP int    `json:"remainingAp,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// CombatPayload describes resolved damage or healing.
type CombatPayload struct {
	Amount       int    `json:"amount"`
	TargetHealth int    `json:"targetHealth"`
	AbilityID    string `json:"abilityId,omitempty"`
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	event.Category = logging.CategoryGameplay
	pub.Publish(ctx, event)
}

// ActionApplied publishes a successful action event.
func ActionApplied(ctx context.Context, pub logging.Publisher, sessionID string, actor logging.EntityRef, payload ActionPayload) {
	publish(ctx, pub, logging.Event{
		Type:      EventActionApplied,
		SessionID: sessionID,
		Actor:     actor,
		Severity:  logging.SeverityInfo,
		Payload:   payload,
	})
}

// ActionRejected publishes a rejected action event.
func ActionRejected(ctx context.Context, pub logging.Publisher, sessionID string, actor logging.EntityRef, payload ActionPayload) {
	publish(ctx, pub, logging.Event{
		Type:      EventActionRejected,
		SessionID: sessionID,
		Actor:     actor,
		Severity:  logging.SeverityDebug,
		Payload:   payload,
	})
}

// DamageDealt publishes a damage resolution event.
func DamageDealt(ctx context.Context, pub logging.Publisher, sessionID string, actor logging.EntityRef, target logging.EntityRef, payload CombatPayload) {
	publish(ctx, pub, logging.Event{
		Type:      EventDamageDealt,
		SessionID: sessionID,
		Actor:     actor,
		Targets:   []logging.EntityRef{target},
		Severity:  logging.SeverityInfo,
		Payload:   payload,
	})
}

// HealingApplied publishes a healing resolution event.
func HealingApplied(ctx context.Context, pub logging.Publisher, sessionID string, actor logging.EntityRef, target logging.EntityRef, payload CombatPayload) {
	publish(ctx, pub, logging.Event{
		Type:      EventHealingApplied,
		SessionID: sessionID,
		Actor:     actor,
		Targets:   []logging.EntityRef{target},
		Severity:  logging.SeverityInfo,
		Payload:   payload,
	})
}
