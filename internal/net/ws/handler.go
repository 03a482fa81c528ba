// Package ws carries the realtime session channel. A connection binds
// one player to one session; actions, heartbeats, and the leave wave
// all flow over it, while the registry pushes room events back.
package ws

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"

	"umbral-nexus/server/internal/connect"
	"umbral-nexus/server/internal/game"
)

// Client message types.
const (
	msgHeartbeat    = "heartbeat"
	msgSubmitAction = "submit-action"
	msgLeaveSession = "leave-session"
)

// Server event types sent on top of the registry's presence events.
const (
	EventJoinAcknowledged      = "join-acknowledged"
	EventActionAcknowledged    = "action-acknowledged"
	EventActionError           = "action-error"
	EventHeartbeatAcknowledged = "heartbeat-acknowledged"
)

type clientMessage struct {
	Type   string       `json:"type"`
	SentAt int64        `json:"sentAt,omitempty"`
	Action *game.Action `json:"action,omitempty"`
}

type joinAckPayload struct {
	ConnectionID string               `json:"connectionId"`
	Session      game.SessionSnapshot `json:"session"`
}

type actionErrorPayload struct {
	MessageID string `json:"messageId,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

type heartbeatAckPayload struct {
	ServerTime int64 `json:"serverTime"`
	ClientTime int64 `json:"clientTime,omitempty"`
}

type HandlerConfig struct {
	Logger *log.Logger
}

type Handler struct {
	manager  *game.Manager
	registry *connect.Registry
	logger   *log.Logger
	upgrader websocket.Upgrader
}

func NewHandler(manager *game.Manager, registry *connect.Registry, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		manager:  manager,
		registry: registry,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *nethttp.Request) bool {
				return true
			},
		},
	}
}

// Handle upgrades the connection and runs its read loop until the
// client leaves or the transport dies. Dying transports detach without
// touching the roster; only an explicit leave-session does that.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	playerID := r.URL.Query().Get("playerId")
	if sessionID == "" || playerID == "" {
		nethttp.Error(w, "missing sessionId or playerId", nethttp.StatusBadRequest)
		return
	}

	snap, err := h.manager.Snapshot(sessionID)
	if err != nil {
		nethttp.Error(w, "unknown session", nethttp.StatusNotFound)
		return
	}
	if !rosterContains(snap, playerID) {
		nethttp.Error(w, "player not in session", nethttp.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed for %s: %v", playerID, err)
		return
	}

	ch := newChannel(conn)
	ctx := r.Context()
	connID := h.registry.Attach(ctx, sessionID, playerID, ch)

	// Re-read after attaching so the acknowledgement reflects any join
	// that raced the upgrade.
	if snap, err = h.manager.Snapshot(sessionID); err != nil {
		h.registry.Detach(ctx, connID, connect.DetachDrop)
		return
	}
	if err := ch.Send(EventJoinAcknowledged, joinAckPayload{ConnectionID: connID, Session: snap}); err != nil {
		h.registry.Detach(ctx, connID, connect.DetachDrop)
		return
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			h.registry.Detach(ctx, connID, connect.DetachDrop)
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Printf("discarding malformed message from %s: %v", playerID, err)
			continue
		}

		// Every well-formed message proves the client is alive, not
		// just explicit heartbeats.
		known := h.registry.RecordHeartbeat(connID)

		switch msg.Type {
		case msgHeartbeat:
			if known {
				ch.Send(EventHeartbeatAcknowledged, heartbeatAckPayload{
					ServerTime: time.Now().UnixMilli(),
					ClientTime: msg.SentAt,
				})
			}

		case msgSubmitAction:
			if msg.Action == nil {
				ch.Send(EventActionError, actionErrorPayload{
					Code:    string(game.CodeInvalidConfig),
					Message: "submit-action requires an action",
				})
				continue
			}
			result, err := h.manager.Process(ctx, sessionID, playerID, *msg.Action)
			if err != nil {
				ch.Send(EventActionError, actionErrorPayload{
					MessageID: msg.Action.MessageID,
					Code:      string(game.CodeOf(err)),
					Message:   err.Error(),
				})
				continue
			}
			ch.Send(EventActionAcknowledged, result)

		case msgLeaveSession:
			if err := h.manager.Leave(ctx, sessionID, playerID); err != nil {
				h.logger.Printf("leave for %s failed: %v", playerID, err)
			}
			h.registry.Detach(ctx, connID, connect.DetachLeave)
			return

		default:
			h.logger.Printf("ignoring unknown message type %q from %s", msg.Type, playerID)
		}
	}
}

func rosterContains(snap game.SessionSnapshot, playerID string) bool {
	for _, p := range snap.Players {
		if p.ID == playerID {
			return true
		}
	}
	return false
}
