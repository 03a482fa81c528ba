// Package net exposes the session API over HTTP. Handlers translate
// between wire payloads and the game engine; all rules live in the
// engine, which reports rejections through stable error codes.
package net

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"time"

	"umbral-nexus/server/internal/balance"
	"umbral-nexus/server/internal/connect"
	"umbral-nexus/server/internal/game"
	"umbral-nexus/server/internal/net/ws"
)

type HandlerConfig struct {
	Logger *log.Logger
}

type createSessionRequest struct {
	Name       string `json:"name"`
	Difficulty string `json:"difficulty"`
	Capacity   int    `json:"capacity"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Class      string `json:"class"`
}

type joinRequest struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Class      string `json:"class"`
}

type playerRequest struct {
	PlayerID string `json:"playerId"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewHandler builds the full HTTP surface, websocket endpoint included.
func NewHandler(manager *game.Manager, registry *connect.Registry, cfg HandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("GET /health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /stats", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		stats := manager.LiveStats()
		writeJSON(w, nethttp.StatusOK, struct {
			ServerTime  int64              `json:"serverTime"`
			Sessions    int                `json:"sessions"`
			Players     int                `json:"players"`
			Connections int                `json:"connections"`
			ByPhase     map[game.Phase]int `json:"byPhase"`
		}{
			ServerTime:  time.Now().UnixMilli(),
			Sessions:    stats.Sessions,
			Players:     stats.Players,
			Connections: registry.Count(),
			ByPhase:     stats.ByPhase,
		})
	})

	mux.HandleFunc("POST /sessions", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req createSessionRequest
		if !decodeBody(w, r, &req) {
			return
		}
		snap, err := manager.CreateSession(r.Context(), game.CreateConfig{
			Name:       req.Name,
			Difficulty: req.Difficulty,
			Capacity:   req.Capacity,
			HostID:     req.PlayerID,
			HostName:   req.PlayerName,
			HostClass:  balance.Class(req.Class),
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, nethttp.StatusCreated, snap)
	})

	mux.HandleFunc("GET /sessions/{id}", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		snap, err := manager.Snapshot(r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, snap)
	})

	mux.HandleFunc("POST /sessions/{id}/join", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req joinRequest
		if !decodeBody(w, r, &req) {
			return
		}
		snap, err := manager.Join(r.Context(), r.PathValue("id"), req.PlayerID, req.PlayerName, balance.Class(req.Class))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, snap)
	})

	mux.HandleFunc("POST /sessions/{id}/start", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req playerRequest
		if !decodeBody(w, r, &req) {
			return
		}
		snap, err := manager.Start(r.Context(), r.PathValue("id"), req.PlayerID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, snap)
	})

	// Leave always answers 200: leaving twice, or leaving a session
	// that no longer exists, is indistinguishable from success.
	mux.HandleFunc("POST /sessions/{id}/leave", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req playerRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := manager.Leave(r.Context(), r.PathValue("id"), req.PlayerID); err != nil {
			writeError(w, err)
			return
		}
		registry.DetachPlayer(r.Context(), req.PlayerID, connect.DetachLeave)
		writeJSON(w, nethttp.StatusOK, struct {
			Status string `json:"status"`
		}{Status: "ok"})
	})

	wsHandler := ws.NewHandler(manager, registry, ws.HandlerConfig{Logger: logger})
	mux.HandleFunc("GET /ws", wsHandler.Handle)

	return mux
}

func decodeBody(w nethttp.ResponseWriter, r *nethttp.Request, out any) bool {
	if r.Body == nil {
		writeJSON(w, nethttp.StatusBadRequest, errorResponse{Error: "invalid_payload", Message: "request body required"})
		return false
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeJSON(w, nethttp.StatusBadRequest, errorResponse{Error: "invalid_payload", Message: "malformed JSON body"})
		return false
	}
	return true
}

func writeError(w nethttp.ResponseWriter, err error) {
	code := game.CodeOf(err)
	if code == "" {
		writeJSON(w, nethttp.StatusInternalServerError, errorResponse{Error: "internal", Message: err.Error()})
		return
	}
	writeJSON(w, statusForCode(code), errorResponse{Error: string(code), Message: err.Error()})
}

// statusForCode maps engine error codes onto HTTP statuses. New codes
// default to 409 so state conflicts never masquerade as server faults.
func statusForCode(code game.Code) int {
	switch code {
	case game.CodeSessionNotFound, game.CodePlayerNotFound, game.CodeAbilityNotFound,
		game.CodeItemNotFound, game.CodeTargetNotFound:
		return nethttp.StatusNotFound
	case game.CodeNotHost, game.CodeEmptyRoster:
		return nethttp.StatusForbidden
	case game.CodeInvalidConfig:
		return nethttp.StatusBadRequest
	default:
		return nethttp.StatusConflict
	}
}

func writeJSON(w nethttp.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		nethttp.Error(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
