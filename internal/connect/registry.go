// Package connect tracks live player channels and fans session events
// out to them. It owns transport presence only: a dropped or timed-out
// channel never removes a player from the roster, it just silences them
// until they reattach.
package connect

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"umbral-nexus/server/logging"
	"umbral-nexus/server/logging/network"
)

const (
	DefaultHeartbeatTimeout = 30 * time.Second
	DefaultSweepInterval    = 10 * time.Second
)

// Presence events broadcast to the rest of the room.
const (
	EventPeerJoined       = "peer-joined"
	EventPeerLeft         = "peer-left"
	EventPeerDisconnected = "peer-disconnected"
	EventPeerTimedOut     = "peer-timed-out"
)

// PeerPayload identifies the player a presence event concerns.
type PeerPayload struct {
	PlayerID string `json:"playerId"`
}

// Channel is one outbound transport. Send must be safe for concurrent
// use; a failed Send marks the channel dead.
type Channel interface {
	Send(event string, payload any) error
	Close()
}

// DetachReason distinguishes a deliberate goodbye from a vanished
// transport.
type DetachReason string

const (
	DetachLeave DetachReason = "leave"
	DetachDrop  DetachReason = "drop"
)

type connection struct {
	id        string
	playerID  string
	sessionID string
	channel   Channel
	lastBeat  time.Time
}

// Config wires the registry's collaborators and timings.
type Config struct {
	Publisher        logging.Publisher
	Logger           *log.Logger
	Clock            func() time.Time
	HeartbeatTimeout time.Duration
	SweepInterval    time.Duration
}

// Registry is the live connection table. It satisfies game.Broadcaster.
type Registry struct {
	mu       sync.Mutex
	byPlayer map[string]*connection
	byConn   map[string]*connection
	rooms    map[string]map[string]*connection

	publisher logging.Publisher
	logger    *log.Logger
	clock     func() time.Time
	timeout   time.Duration
	sweep     time.Duration
}

// NewRegistry builds a registry with the given timings, falling back to
// the 30s timeout / 10s sweep defaults.
func NewRegistry(cfg Config) *Registry {
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	timeout := cfg.HeartbeatTimeout
	if timeout <= 0 {
		timeout = DefaultHeartbeatTimeout
	}
	sweep := cfg.SweepInterval
	if sweep <= 0 {
		sweep = DefaultSweepInterval
	}
	return &Registry{
		byPlayer:  make(map[string]*connection),
		byConn:    make(map[string]*connection),
		rooms:     make(map[string]map[string]*connection),
		publisher: publisher,
		logger:    logger,
		clock:     clock,
		timeout:   timeout,
		sweep:     sweep,
	}
}

// Attach binds a channel to a player and returns the connection id. A
// player has at most one live channel: attaching again supersedes and
// closes the previous one, which is how reconnects work.
func (r *Registry) Attach(ctx context.Context, sessionID, playerID string, ch Channel) string {
	id := uuid.NewString()
	conn := &connection{
		id:        id,
		playerID:  playerID,
		sessionID: sessionID,
		channel:   ch,
		lastBeat:  r.clock(),
	}

	r.mu.Lock()
	prior := r.byPlayer[playerID]
	if prior != nil {
		r.removeLocked(prior)
	}
	r.byPlayer[playerID] = conn
	r.byConn[id] = conn
	room := r.rooms[sessionID]
	if room == nil {
		room = make(map[string]*connection)
		r.rooms[sessionID] = room
	}
	room[playerID] = conn
	r.mu.Unlock()

	if prior != nil {
		prior.channel.Close()
		network.Superseded(ctx, r.publisher, prior.sessionID, connRef(playerID), network.ConnectionPayload{ConnectionID: prior.id})
	}
	network.Attached(ctx, r.publisher, sessionID, connRef(playerID), network.ConnectionPayload{ConnectionID: id})
	r.broadcastExcept(sessionID, playerID, EventPeerJoined, PeerPayload{PlayerID: playerID})
	return id
}

// removeLocked unlinks a connection from every index. Caller holds mu.
func (r *Registry) removeLocked(conn *connection) {
	delete(r.byConn, conn.id)
	if current, ok := r.byPlayer[conn.playerID]; ok && current.id == conn.id {
		delete(r.byPlayer, conn.playerID)
	}
	if room, ok := r.rooms[conn.sessionID]; ok {
		if current, ok := room[conn.playerID]; ok && current.id == conn.id {
			delete(room, conn.playerID)
		}
		if len(room) == 0 {
			delete(r.rooms, conn.sessionID)
		}
	}
}

// Detach drops a connection by id. Stale ids, including those already
// superseded by a reconnect, are ignored, so a late transport close
// never tears down the replacement channel.
func (r *Registry) Detach(ctx context.Context, connectionID string, reason DetachReason) {
	r.mu.Lock()
	conn, ok := r.byConn[connectionID]
	if ok {
		r.removeLocked(conn)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	conn.channel.Close()

	switch reason {
	case DetachLeave:
		network.Detached(ctx, r.publisher, conn.sessionID, connRef(conn.playerID), network.ConnectionPayload{ConnectionID: conn.id})
		r.broadcastExcept(conn.sessionID, conn.playerID, EventPeerLeft, PeerPayload{PlayerID: conn.playerID})
	default:
		network.Dropped(ctx, r.publisher, conn.sessionID, connRef(conn.playerID), network.ConnectionPayload{ConnectionID: conn.id})
		r.broadcastExcept(conn.sessionID, conn.playerID, EventPeerDisconnected, PeerPayload{PlayerID: conn.playerID})
	}
}

// DetachPlayer drops whatever connection a player currently holds. The
// HTTP leave path uses it, since it never learns the connection id.
func (r *Registry) DetachPlayer(ctx context.Context, playerID string, reason DetachReason) {
	r.mu.Lock()
	conn, ok := r.byPlayer[playerID]
	r.mu.Unlock()
	if !ok {
		return
	}
	r.Detach(ctx, conn.id, reason)
}

// RecordHeartbeat refreshes a connection's liveness window. It reports
// whether the connection is still registered.
func (r *Registry) RecordHeartbeat(connectionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.byConn[connectionID]
	if !ok {
		return false
	}
	conn.lastBeat = r.clock()
	return true
}

// Broadcast sends an event to every connected player in a session.
func (r *Registry) Broadcast(sessionID, event string, payload any) {
	r.broadcastExcept(sessionID, "", event, payload)
}

func (r *Registry) broadcastExcept(sessionID, skipPlayerID, event string, payload any) {
	r.mu.Lock()
	targets := make([]*connection, 0, len(r.rooms[sessionID]))
	for playerID, conn := range r.rooms[sessionID] {
		if playerID == skipPlayerID {
			continue
		}
		targets = append(targets, conn)
	}
	r.mu.Unlock()

	for _, conn := range targets {
		if err := conn.channel.Send(event, payload); err != nil {
			r.logger.Printf("send %s to %s failed: %v", event, conn.playerID, err)
			r.Detach(context.Background(), conn.id, DetachDrop)
		}
	}
}

// Unicast sends an event to one player, if connected.
func (r *Registry) Unicast(playerID, event string, payload any) {
	r.mu.Lock()
	conn, ok := r.byPlayer[playerID]
	r.mu.Unlock()
	if !ok {
		return
	}
	if err := conn.channel.Send(event, payload); err != nil {
		r.logger.Printf("send %s to %s failed: %v", event, playerID, err)
		r.Detach(context.Background(), conn.id, DetachDrop)
	}
}

// Count reports the number of live connections.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byConn)
}

// Run sweeps for stale connections until the context ends. Connections
// silent past the heartbeat timeout are evicted and announced to the
// room as timed out.
func (r *Registry) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.SweepOnce(ctx)
		}
	}
}

// SweepOnce evicts every connection whose last heartbeat is older than
// the timeout. Split out from Run so tests can drive it directly.
func (r *Registry) SweepOnce(ctx context.Context) {
	now := r.clock()
	r.mu.Lock()
	var stale []*connection
	for _, conn := range r.byConn {
		if now.Sub(conn.lastBeat) > r.timeout {
			stale = append(stale, conn)
			r.removeLocked(conn)
		}
	}
	r.mu.Unlock()

	for _, conn := range stale {
		conn.channel.Close()
		idle := now.Sub(conn.lastBeat)
		r.logger.Printf("connection %s for %s timed out after %s", conn.id, conn.playerID, idle)
		network.TimedOut(ctx, r.publisher, conn.sessionID, connRef(conn.playerID), network.ConnectionPayload{
			ConnectionID: conn.id,
			IdleMillis:   idle.Milliseconds(),
		})
		r.broadcastExcept(conn.sessionID, conn.playerID, EventPeerTimedOut, PeerPayload{PlayerID: conn.playerID})
	}
}

func connRef(playerID string) logging.EntityRef {
	return logging.EntityRef{ID: playerID, Kind: logging.EntityKindPlayer}
}
