// Package lifecycle defines session and roster lifecycle events.
package lifecycle

import (
	"context"

	"umbral-nexus/server/logging"
)

const (
	// EventSessionCreated is emitted when a new session is allocated.
	EventSessionCreated logging.EventType = "lifecycle.session_created"
	// EventSessionStarted is emitted when the host starts the crawl.
	EventSessionStarted logging.EventType = "lifecycle.session_started"
	// EventSessionDeleted is emitted when the last player leaves.
	EventSessionDeleted logging.EventType = "lifecycle.session_deleted"
	// EventSessionFinished is emitted when a session reaches victory or defeat.
	EventSessionFinished logging.EventType = "lifecycle.session_finished"
	// EventPlayerJoined is emitted when a join is accepted.
	EventPlayerJoined logging.EventType = "lifecycle.player_joined"
	// EventPlayerLeft is emitted when a player leaves the roster.
	EventPlayerLeft logging.EventType = "lifecycle.player_left"
	// EventHostReassigned is emitted when host duty moves to another player.
	EventHostReassigned logging.EventType = "lifecycle.host_reassigned"
)

// SessionCreatedPayload captures the initial session configuration.
type SessionCreatedPayload struct {
	Name       string `json:"name"`
	Capacity   int    `json:"capacity"`
	Difficulty string `json:"difficulty"`
}

// PlayerJoinedPayload captures roster state after an accepted join.
type PlayerJoinedPayload struct {
	Class      string `json:"class"`
	RosterSize int    `json:"rosterSize"`
}

// PlayerLeftPayload captures roster state after a leave.
type PlayerLeftPayload struct {
	RosterSize int `json:"rosterSize"`
}

// HostReassignedPayload names the new host.
type HostReassignedPayload struct {
	NewHostID string `json:"newHostId"`
}

// SessionFinishedPayload records the terminal phase.
type SessionFinishedPayload struct {
	Outcome string `json:"outcome"`
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	event.Category = logging.CategoryLifecycle
	pub.Publish(ctx, event)
}

// SessionCreated publishes a session creation event.
func SessionCreated(ctx context.Context, pub logging.Publisher, sessionID string, actor logging.EntityRef, payload SessionCreatedPayload) {
	publish(ctx, pub, logging.Event{
		Type:      EventSessionCreated,
		SessionID: sessionID,
		Actor:     actor,
		Severity:  logging.SeverityInfo,
		Payload:   payload,
	})
}

// SessionStarted publishes a session start event.
func SessionStarted(ctx context.Context, pub logging.Publisher, sessionID string, actor logging.EntityRef) {
	publish(ctx, pub, logging.Event{
		Type:      EventSessionStarted,
		SessionID: sessionID,
		Actor:     actor,
		Severity:  logging.SeverityInfo,
	})
}

// SessionDeleted publishes a session deletion event.
func SessionDeleted(ctx context.Context, pub logging.Publisher, sessionID string) {
	publish(ctx, pub, logging.Event{
		Type:      EventSessionDeleted,
		SessionID: sessionID,
		Actor:     logging.EntityRef{Kind: logging.EntityKindSystem},
		Severity:  logging.SeverityInfo,
	})
}

// SessionFinished publishes a terminal phase event.
func SessionFinished(ctx context.Context, pub logging.Publisher, sessionID string, payload SessionFinishedPayload) {
	publish(ctx, pub, logging.Event{
		Type:      EventSessionFinished,
		SessionID: sessionID,
		Actor:     logging.EntityRef{Kind: logging.EntityKindSystem},
		Severity:  logging.SeverityInfo,
		Payload:   payload,
	})
}

// PlayerJoined publishes a roster join event.
func PlayerJoined(ctx context.Context, pub logging.Publisher, sessionID string, actor logging.EntityRef, payload PlayerJoinedPayload) {
	publish(ctx, pub, logging.Event{
		Type:      EventPlayerJoined,
		SessionID: sessionID,
		Actor:     actor,
		Severity:  logging.SeverityInfo,
		Payload:   payload,
	})
}

// PlayerLeft publishes a roster leave event.
func PlayerLeft(ctx context.Context, pub logging.Publisher, sessionID string, actor logging.EntityRef, payload PlayerLeftPayload) {
	publish(ctx, pub, logging.Event{
		Type:      EventPlayerLeft,
		SessionID: sessionID,
		Actor:     actor,
		Severity:  logging.SeverityInfo,
		Payload:   payload,
	})
}

// HostReassigned publishes a host promotion event.
func HostReassigned(ctx context.Context, pub logging.Publisher, sessionID string, actor logging.EntityRef, payload HostReassignedPayload) {
	publish(ctx, pub, logging.Event{
		Type:      EventHostReassigned,
		SessionID: sessionID,
		Actor:     actor,
		Severity:  logging.SeverityInfo,
		Payload:   payload,
	})
}
