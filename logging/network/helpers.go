// Package network defines connection registry events.
package network

import (
	"context"

	"umbral-nexus/server/logging"
)

const (
	// EventConnectionAttached is emitted when a player attaches a channel.
	EventConnectionAttached logging.EventType = "network.connection_attached"
	// EventConnectionDetached is emitted on an explicit detach.
	EventConnectionDetached logging.EventType = "network.connection_detached"
	// EventConnectionSuperseded is emitted when a reconnect replaces a live channel.
	EventConnectionSuperseded logging.EventType = "network.connection_superseded"
	// EventConnectionTimedOut is emitted when the sweep evicts a stale connection.
	EventConnectionTimedOut logging.EventType = "network.connection_timed_out"
	// EventConnectionDropped is emitted when the transport closes without a leave.
	EventConnectionDropped logging.EventType = "network.connection_dropped"
)

// ConnectionPayload carries channel identity details.
type ConnectionPayload struct {
	ConnectionID string `json:"connectionId"`
	IdleMillis   int64  `json:"idleMillis,omitempty"`
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	event.Category = logging.CategoryNetwork
	pub.Publish(ctx, event)
}

// Attached publishes a connection attach event.
func Attached(ctx context.Context, pub logging.Publisher, sessionID string, actor logging.EntityRef, payload ConnectionPayload) {
	publish(ctx, pub, logging.Event{
		Type:      EventConnectionAttached,
		SessionID: sessionID,
		Actor:     actor,
		Severity:  logging.SeverityInfo,
		Payload:   payload,
	})
}

// Detached publishes a connection detach event.
func Detached(ctx context.Context, pub logging.Publisher, sessionID string, actor logging.EntityRef, payload ConnectionPayload) {
	publish(ctx, pub, logging.Event{
		Type:      EventConnectionDetached,
		SessionID: sessionID,
		Actor:     actor,
		Severity:  logging.SeverityInfo,
		Payload:   payload,
	})
}

// Superseded publishes a reconnect supersede event.
func Superseded(ctx context.Context, pub logging.Publisher, sessionID string, actor logging.EntityRef, payload ConnectionPayload) {
	publish(ctx, pub, logging.Event{
		Type:      EventConnectionSuperseded,
		SessionID: sessionID,
		Actor:     actor,
		Severity:  logging.SeverityInfo,
		Payload:   payload,
	})
}

// TimedOut publishes a heartbeat eviction event.
func TimedOut(ctx context.Context, pub logging.Publisher, sessionID string, actor logging.EntityRef, payload ConnectionPayload) {
	publish(ctx, pub, logging.Event{
		Type:      EventConnectionTimedOut,
		SessionID: sessionID,
		Actor:     actor,
		Severity:  logging.SeverityWarn,
		Payload:   payload,
	})
}

// Dropped publishes a transport drop event.
func Dropped(ctx context.Context, pub logging.Publisher, sessionID string, actor logging.EntityRef, payload ConnectionPayload) {
	publish(ctx, pub, logging.Event{
		Type:      EventConnectionDropped,
		SessionID: sessionID,
		Actor:     actor,
		Severity:  logging.SeverityInfo,
		Payload:   payload,
	})
}
