package ws

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"umbral-nexus/server/internal/balance"
	"umbral-nexus/server/internal/connect"
	"umbral-nexus/server/internal/game"
)

func newStack(t *testing.T) (*game.Manager, *httptest.Server) {
	t.Helper()
	registry := connect.NewRegistry(connect.Config{})
	manager := game.NewManager(game.Config{
		Broadcaster: registry,
		Variance:    func() float64 { return 1.0 },
	})
	handler := NewHandler(manager, registry, HandlerConfig{})

	mux := nethttp.NewServeMux()
	mux.HandleFunc("GET /ws", handler.Handle)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return manager, srv
}

func clericSession(t *testing.T, manager *game.Manager, start bool) game.SessionSnapshot {
	t.Helper()
	snap, err := manager.CreateSession(context.Background(), game.CreateConfig{
		Name:      "Realtime",
		Capacity:  4,
		HostID:    "host",
		HostName:  "Hosta",
		HostClass: balance.ClassCleric,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if start {
		if snap, err = manager.Start(context.Background(), snap.ID, "host"); err != nil {
			t.Fatalf("start session: %v", err)
		}
	}
	return snap
}

func dial(t *testing.T, srv *httptest.Server, sessionID, playerID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?sessionId=" + sessionID + "&playerId=" + playerID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("decode frame: %v (raw=%s)", err, data)
	}
	return env.Type, env.Data
}

// readUntil skips frames until the wanted type arrives. Broadcasts such
// as session-state interleave with direct replies.
func readUntil(t *testing.T, conn *websocket.Conn, want string) json.RawMessage {
	t.Helper()
	for i := 0; i < 10; i++ {
		typ, data := readEnvelope(t, conn)
		if typ == want {
			return data
		}
	}
	t.Fatalf("never received %q", want)
	return nil
}

func send(t *testing.T, conn *websocket.Conn, payload any) {
	t.Helper()
	if err := conn.WriteJSON(payload); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func TestHandshakeAcknowledgesJoin(t *testing.T) {
	manager, srv := newStack(t)
	snap := clericSession(t, manager, false)

	conn := dial(t, srv, snap.ID, "host")
	data := readUntil(t, conn, EventJoinAcknowledged)

	var ack joinAckPayload
	if err := json.Unmarshal(data, &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.ConnectionID == "" {
		t.Fatalf("expected a connection id")
	}
	if ack.Session.ID != snap.ID || len(ack.Session.Players) != 1 {
		t.Fatalf("unexpected session in ack: %+v", ack.Session)
	}
}

func TestHandshakeRejections(t *testing.T) {
	manager, srv := newStack(t)
	snap := clericSession(t, manager, false)

	cases := []struct {
		name string
		url  string
	}{
		{"unknown session", "/ws?sessionId=ZZZZZZ&playerId=host"},
		{"player not joined", "/ws?sessionId=" + snap.ID + "&playerId=stranger"},
		{"missing params", "/ws"},
	}
	for _, tc := range cases {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + tc.url
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err == nil {
			conn.Close()
			t.Fatalf("%s: expected the handshake to fail", tc.name)
		}
	}
}

func TestHeartbeatAcknowledged(t *testing.T) {
	manager, srv := newStack(t)
	snap := clericSession(t, manager, false)

	conn := dial(t, srv, snap.ID, "host")
	readUntil(t, conn, EventJoinAcknowledged)

	send(t, conn, map[string]any{"type": "heartbeat", "sentAt": 12345})
	data := readUntil(t, conn, EventHeartbeatAcknowledged)

	var ack heartbeatAckPayload
	if err := json.Unmarshal(data, &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.ClientTime != 12345 {
		t.Fatalf("expected client time echoed, got %d", ack.ClientTime)
	}
	if ack.ServerTime == 0 {
		t.Fatalf("expected a server timestamp")
	}
}

func TestSubmitActionRoundTrip(t *testing.T) {
	manager, srv := newStack(t)
	snap := clericSession(t, manager, true)

	conn := dial(t, srv, snap.ID, "host")
	readUntil(t, conn, EventJoinAcknowledged)

	send(t, conn, map[string]any{
		"type": "submit-action",
		"action": map[string]any{
			"kind":      "use_ability",
			"abilityId": "healing-word",
			"messageId": "cast-1",
		},
	})
	data := readUntil(t, conn, EventActionAcknowledged)

	var result game.ActionResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.MessageID != "cast-1" {
		t.Fatalf("expected message id echoed, got %q", result.MessageID)
	}
	if result.Healing == 0 {
		t.Fatalf("expected healing in the result")
	}
}

func TestSubmitActionErrors(t *testing.T) {
	manager, srv := newStack(t)
	snap := clericSession(t, manager, true)

	conn := dial(t, srv, snap.ID, "host")
	readUntil(t, conn, EventJoinAcknowledged)

	send(t, conn, map[string]any{
		"type": "submit-action",
		"action": map[string]any{
			"kind":      "use_ability",
			"abilityId": "fireball",
			"messageId": "cast-2",
		},
	})
	data := readUntil(t, conn, EventActionError)

	var failure actionErrorPayload
	if err := json.Unmarshal(data, &failure); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if failure.Code != string(game.CodeAbilityNotFound) {
		t.Fatalf("expected %q, got %q", game.CodeAbilityNotFound, failure.Code)
	}
	if failure.MessageID != "cast-2" {
		t.Fatalf("expected message id echoed, got %q", failure.MessageID)
	}

	send(t, conn, map[string]any{"type": "submit-action"})
	readUntil(t, conn, EventActionError)
}

func TestLeaveSessionDetaches(t *testing.T) {
	manager, srv := newStack(t)
	snap := clericSession(t, manager, false)
	if _, err := manager.Join(context.Background(), snap.ID, "p2", "Two", balance.ClassRanger); err != nil {
		t.Fatalf("join p2: %v", err)
	}

	host := dial(t, srv, snap.ID, "host")
	readUntil(t, host, EventJoinAcknowledged)
	peer := dial(t, srv, snap.ID, "p2")
	readUntil(t, peer, EventJoinAcknowledged)

	send(t, peer, map[string]any{"type": "leave-session"})

	readUntil(t, host, connect.EventPeerLeft)
	after, err := manager.Snapshot(snap.ID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(after.Players) != 1 {
		t.Fatalf("expected p2 removed from the roster, got %d players", len(after.Players))
	}
}

func TestReconnectClosesPriorChannel(t *testing.T) {
	manager, srv := newStack(t)
	snap := clericSession(t, manager, false)

	first := dial(t, srv, snap.ID, "host")
	readUntil(t, first, EventJoinAcknowledged)
	second := dial(t, srv, snap.ID, "host")
	readUntil(t, second, EventJoinAcknowledged)

	first.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := first.ReadMessage(); err != nil {
			return
		}
	}
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestActionTrafficKeepsConnectionAlive(t *testing.T) {
	clk := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	registry := connect.NewRegistry(connect.Config{Clock: clk.Now})
	manager := game.NewManager(game.Config{
		Broadcaster: registry,
		Variance:    func() float64 { return 1.0 },
	})
	handler := NewHandler(manager, registry, HandlerConfig{})
	mux := nethttp.NewServeMux()
	mux.HandleFunc("GET /ws", handler.Handle)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	snap := clericSession(t, manager, true)
	conn := dial(t, srv, snap.ID, "host")
	readUntil(t, conn, EventJoinAcknowledged)

	// Past the liveness timeout, but the client is still sending game
	// traffic. The error reply proves the message was processed before
	// the sweep runs.
	clk.Advance(31 * time.Second)
	send(t, conn, clientMessage{Type: msgSubmitAction})
	readUntil(t, conn, EventActionError)

	registry.SweepOnce(context.Background())
	if got := registry.Count(); got != 1 {
		t.Fatalf("action-only client evicted by sweep, %d connections remain", got)
	}

	send(t, conn, clientMessage{Type: msgHeartbeat, SentAt: 777})
	readUntil(t, conn, EventHeartbeatAcknowledged)
}
