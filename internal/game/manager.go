// Package game implements the session engine: the lifecycle state
// machine, the per-player action economy, and the combat math. All
// mutation of a session is serialized through its entry lock, so
// concurrent transport handlers behave as if queued per session.
package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"umbral-nexus/server/internal/balance"
	"umbral-nexus/server/internal/dungeon"
	"umbral-nexus/server/internal/hexgrid"
	"umbral-nexus/server/internal/storage"
	"umbral-nexus/server/logging"
	"umbral-nexus/server/logging/lifecycle"
)

// Broadcaster is the outbound contract the engine pushes state through.
// The connection registry implements it; tests inject fakes.
type Broadcaster interface {
	Broadcast(sessionID, event string, payload any)
	Unicast(playerID, event string, payload any)
}

// Session ids use an unambiguous alphabet (no 0/O/1/I) so codes survive
// being read aloud.
const (
	sessionIDLength   = 6
	sessionIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	idAttempts        = 32
)

const (
	MinCapacity = 1
	MaxCapacity = 20
)

const defaultFloorRadius = 12

// Event names for room broadcasts. The websocket layer shares these
// constants.
const (
	EventSessionState   = "session-state"
	EventSessionStarted = "session-started"
)

// Config wires the manager's collaborators.
type Config struct {
	Catalog     *balance.Catalog
	Store       storage.SessionStore
	Broadcaster Broadcaster
	Publisher   logging.Publisher
	Logger      *log.Logger
	Clock       func() time.Time
	// Variance returns the bounded random damage factor. Defaults to
	// uniform in [0.9, 1.1].
	Variance func() float64
	// Resolver supplies non-player attack targets. Optional.
	Resolver    TargetResolver
	FloorRadius int
}

// Manager owns all live sessions. The outer mutex guards only the
// session index; each session entry carries its own lock so distinct
// sessions never contend.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry

	catalog     *balance.Catalog
	store       storage.SessionStore
	broadcaster Broadcaster
	publisher   logging.Publisher
	logger      *log.Logger
	clock       func() time.Time
	variance    func() float64
	resolver    TargetResolver
	floorRadius int

	rngMu sync.Mutex
	rng   *rand.Rand
}

type sessionEntry struct {
	mu      sync.Mutex
	session *Session
	version uint64
	deleted bool
}

// NewManager constructs a session manager. Catalog defaults to the
// built-in balance tables; Store defaults to an in-memory store.
func NewManager(cfg Config) *Manager {
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = balance.Default()
	}
	store := cfg.Store
	if store == nil {
		store = storage.NewMemoryStore()
	}
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
	radius := cfg.FloorRadius
	if radius <= 0 {
		radius = defaultFloorRadius
	}

	m := &Manager{
		sessions:    make(map[string]*sessionEntry),
		catalog:     catalog,
		store:       store,
		broadcaster: cfg.Broadcaster,
		publisher:   publisher,
		logger:      logger,
		clock:       clock,
		resolver:    cfg.Resolver,
		floorRadius: radius,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	m.variance = cfg.Variance
	if m.variance == nil {
		m.variance = func() float64 {
			m.rngMu.Lock()
			defer m.rngMu.Unlock()
			return 0.9 + m.rng.Float64()*0.2
		}
	}
	return m
}

// CreateConfig carries the parameters for a new session.
type CreateConfig struct {
	Name       string
	Difficulty string
	Capacity   int
	HostID     string
	HostName   string
	HostClass  balance.Class
}

// CreateSession allocates a session in the lobby phase with the creator
// seated as host.
func (m *Manager) CreateSession(ctx context.Context, cfg CreateConfig) (SessionSnapshot, error) {
	if cfg.Capacity == 0 {
		cfg.Capacity = 4
	}
	if cfg.Capacity < MinCapacity || cfg.Capacity > MaxCapacity {
		return SessionSnapshot{}, newError(CodeInvalidConfig, "capacity %d outside [%d, %d]", cfg.Capacity, MinCapacity, MaxCapacity)
	}
	if strings.TrimSpace(cfg.HostID) == "" {
		return SessionSnapshot{}, newError(CodeInvalidConfig, "host player id is required")
	}
	stats, ok := m.catalog.Class(cfg.HostClass)
	if !ok {
		return SessionSnapshot{}, newError(CodeInvalidConfig, "unknown class %q", cfg.HostClass)
	}
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = "Untitled Delve"
	}
	if cfg.Difficulty == "" {
		cfg.Difficulty = "normal"
	}

	now := m.clock()
	session := &Session{
		Name:       cfg.Name,
		HostID:     cfg.HostID,
		Capacity:   cfg.Capacity,
		Difficulty: cfg.Difficulty,
		Phase:      PhaseLobby,
		Seed:       m.nextSeed(),
		CreatedAt:  now,
	}
	host := newPlayer(cfg.HostID, cfg.HostName, cfg.HostClass, stats, session.spawnPoint(), now)
	session.Players = []*Player{host}

	entry := &sessionEntry{session: session}

	m.mu.Lock()
	id, err := m.allocateIDLocked()
	if err != nil {
		m.mu.Unlock()
		return SessionSnapshot{}, err
	}
	session.ID = id
	m.sessions[id] = entry
	m.mu.Unlock()

	m.persist(ctx, entry)
	lifecycle.SessionCreated(ctx, m.publisher, id, playerRef(cfg.HostID), lifecycle.SessionCreatedPayload{
		Name:       cfg.Name,
		Capacity:   cfg.Capacity,
		Difficulty: cfg.Difficulty,
	})
	return session.snapshot(), nil
}

// allocateIDLocked picks an unused session code. Caller holds m.mu.
func (m *Manager) allocateIDLocked() (string, error) {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	for attempt := 0; attempt < idAttempts; attempt++ {
		code := make([]byte, sessionIDLength)
		for i := range code {
			code[i] = sessionIDAlphabet[m.rng.Intn(len(sessionIDAlphabet))]
		}
		id := string(code)
		if _, taken := m.sessions[id]; !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("exhausted %d attempts allocating a session id", idAttempts)
}

func (m *Manager) nextSeed() int64 {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return m.rng.Int63()
}

// spawnPoint is where players stand before the first floor exists.
func (s *Session) spawnPoint() hexgrid.Hex {
	if len(s.Floors) > 0 {
		return s.Floors[0].Spawn
	}
	return hexgrid.Hex{}
}

// withSession runs fn with the session's entry lock held. The outer
// index lock is released before the entry lock is taken, so slow
// operations on one session never block others.
func (m *Manager) withSession(id string, fn func(*sessionEntry) error) error {
	m.mu.Lock()
	entry, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return newError(CodeSessionNotFound, "session %q not found", id)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.deleted {
		return newError(CodeSessionNotFound, "session %q not found", id)
	}
	return fn(entry)
}

// Join appends a fully initialized player to the roster.
func (m *Manager) Join(ctx context.Context, sessionID, playerID, name string, class balance.Class) (SessionSnapshot, error) {
	stats, ok := m.catalog.Class(class)
	if !ok {
		return SessionSnapshot{}, newError(CodeInvalidConfig, "unknown class %q", class)
	}
	if strings.TrimSpace(playerID) == "" {
		return SessionSnapshot{}, newError(CodeInvalidConfig, "player id is required")
	}

	var snap SessionSnapshot
	err := m.withSession(sessionID, func(entry *sessionEntry) error {
		session := entry.session
		if session.Phase != PhaseLobby {
			return newError(CodeAlreadyStarted, "session %q is no longer in the lobby", sessionID)
		}
		if len(session.Players) >= session.Capacity {
			return newError(CodeSessionFull, "session %q is at capacity %d", sessionID, session.Capacity)
		}
		if _, exists := session.player(playerID); exists {
			return newError(CodeDuplicatePlayer, "player %q already joined", playerID)
		}

		player := newPlayer(playerID, name, class, stats, session.spawnPoint(), m.clock())
		session.Players = append(session.Players, player)
		snap = session.snapshot()
		m.persistLocked(ctx, entry)

		lifecycle.PlayerJoined(ctx, m.publisher, sessionID, playerRef(playerID), lifecycle.PlayerJoinedPayload{
			Class:      string(class),
			RosterSize: len(session.Players),
		})
		return nil
	})
	if err != nil {
		return SessionSnapshot{}, err
	}
	m.broadcast(sessionID, EventSessionState, snap)
	return snap, nil
}

// Leave removes a player from the roster. Leaving twice, or leaving a
// session the player never joined, is a silent no-op. When the host
// leaves, the earliest remaining player by join order is promoted. When
// the last player leaves, the session is deleted.
func (m *Manager) Leave(ctx context.Context, sessionID, playerID string) error {
	var (
		snap      SessionSnapshot
		removed   bool
		destroyed bool
	)
	err := m.withSession(sessionID, func(entry *sessionEntry) error {
		session := entry.session
		if !session.removePlayer(playerID) {
			return nil
		}
		removed = true
		lifecycle.PlayerLeft(ctx, m.publisher, sessionID, playerRef(playerID), lifecycle.PlayerLeftPayload{
			RosterSize: len(session.Players),
		})

		if len(session.Players) == 0 {
			destroyed = true
			m.destroyLocked(ctx, entry)
			return nil
		}
		if session.HostID == playerID {
			session.HostID = session.Players[0].ID
			m.logger.Printf("session %s host left, promoting %s", sessionID, session.HostID)
			lifecycle.HostReassigned(ctx, m.publisher, sessionID, playerRef(playerID), lifecycle.HostReassignedPayload{
				NewHostID: session.HostID,
			})
		}
		snap = session.snapshot()
		m.persistLocked(ctx, entry)
		return nil
	})
	if err != nil {
		// Leave is idempotent at the session level too: leaving a
		// vanished session is not an error.
		if CodeOf(err) == CodeSessionNotFound {
			return nil
		}
		return err
	}
	if removed && !destroyed {
		m.broadcast(sessionID, EventSessionState, snap)
	}
	return nil
}

// destroyLocked tears down a session. Caller holds the entry lock; the
// index lock is acquired afterwards, which is safe because no path
// takes an entry lock while holding the index lock.
func (m *Manager) destroyLocked(ctx context.Context, entry *sessionEntry) {
	entry.deleted = true
	id := entry.session.ID
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	if err := m.store.Delete(ctx, id); err != nil {
		m.logger.Printf("failed to delete session %s from store: %v", id, err)
	}
	lifecycle.SessionDeleted(ctx, m.publisher, id)
}

// Start moves a session from lobby to active, materializing the first
// floor and seating everyone at its spawn.
func (m *Manager) Start(ctx context.Context, sessionID, callerID string) (SessionSnapshot, error) {
	var snap SessionSnapshot
	err := m.withSession(sessionID, func(entry *sessionEntry) error {
		session := entry.session
		if session.HostID != callerID {
			return newError(CodeNotHost, "player %q is not the host", callerID)
		}
		if len(session.Players) == 0 {
			return newError(CodeEmptyRoster, "session %q has no players", sessionID)
		}
		if !session.Phase.CanTransition(PhaseActive) {
			return newError(CodeInvalidTransition, "cannot start session in phase %q", session.Phase)
		}

		floor := dungeon.Generate(0, m.floorRadius, session.Seed)
		session.Floors = []*dungeon.Floor{floor}
		session.Phase = PhaseActive
		now := m.clock()
		session.StartedAt = &now

		for _, player := range session.Players {
			player.FloorIndex = 0
			player.Position = floor.Spawn
		}
		m.refreshFogLocked(session, 0)

		snap = session.snapshot()
		m.persistLocked(ctx, entry)
		lifecycle.SessionStarted(ctx, m.publisher, sessionID, playerRef(callerID))
		return nil
	})
	if err != nil {
		return SessionSnapshot{}, err
	}
	m.broadcast(sessionID, EventSessionStarted, snap)
	return snap, nil
}

// Finish moves an active session to one of the terminal phases.
func (m *Manager) Finish(ctx context.Context, sessionID string, outcome Phase) (SessionSnapshot, error) {
	if !outcome.Terminal() {
		return SessionSnapshot{}, newError(CodeInvalidTransition, "phase %q is not terminal", outcome)
	}
	var snap SessionSnapshot
	err := m.withSession(sessionID, func(entry *sessionEntry) error {
		session := entry.session
		if !session.Phase.CanTransition(outcome) {
			return newError(CodeInvalidTransition, "cannot move from %q to %q", session.Phase, outcome)
		}
		session.Phase = outcome
		snap = session.snapshot()
		m.persistLocked(ctx, entry)
		lifecycle.SessionFinished(ctx, m.publisher, sessionID, lifecycle.SessionFinishedPayload{Outcome: string(outcome)})
		return nil
	})
	if err != nil {
		return SessionSnapshot{}, err
	}
	m.broadcast(sessionID, EventSessionState, snap)
	return snap, nil
}

// Snapshot returns the latest committed state of a session.
func (m *Manager) Snapshot(sessionID string) (SessionSnapshot, error) {
	var snap SessionSnapshot
	err := m.withSession(sessionID, func(entry *sessionEntry) error {
		snap = entry.session.snapshot()
		return nil
	})
	return snap, err
}

// Stats summarizes the live session population.
type Stats struct {
	Sessions int           `json:"sessions"`
	ByPhase  map[Phase]int `json:"byPhase"`
	Players  int           `json:"players"`
}

// LiveStats counts sessions and players without touching entry locks;
// phase reads are advisory.
func (m *Manager) LiveStats() Stats {
	m.mu.Lock()
	entries := make([]*sessionEntry, 0, len(m.sessions))
	for _, entry := range m.sessions {
		entries = append(entries, entry)
	}
	m.mu.Unlock()

	stats := Stats{Sessions: len(entries), ByPhase: make(map[Phase]int)}
	for _, entry := range entries {
		entry.mu.Lock()
		if !entry.deleted {
			stats.ByPhase[entry.session.Phase]++
			stats.Players += len(entry.session.Players)
		} else {
			stats.Sessions--
		}
		entry.mu.Unlock()
	}
	return stats
}

// refreshFogLocked recomputes fog for a floor from the union of every
// player currently on it. Applying fog per player would let the last
// observer erase the others' visible tiles.
func (m *Manager) refreshFogLocked(session *Session, floorIndex int) {
	floor, ok := session.floor(floorIndex)
	if !ok {
		return
	}
	observers := make([]dungeon.Observer, 0, len(session.Players))
	for _, player := range session.Players {
		if player.FloorIndex != floorIndex {
			continue
		}
		stats, ok := m.catalog.Class(player.Class)
		if !ok {
			continue
		}
		observers = append(observers, dungeon.Observer{
			Position: player.Position,
			Base:     stats.VisionRange,
			Level:    player.Level,
		})
	}
	dungeon.UpdateSharedFog(floor, observers)
}

// persistLocked snapshots the session into the store, tolerating
// conflicts: in-memory state stays authoritative.
func (m *Manager) persistLocked(ctx context.Context, entry *sessionEntry) {
	data, err := json.Marshal(persistedSession{
		Snapshot:  entry.session.snapshot(),
		Seed:      entry.session.Seed,
		CreatedAt: entry.session.CreatedAt,
	})
	if err != nil {
		m.logger.Printf("failed to marshal session %s: %v", entry.session.ID, err)
		return
	}
	version, err := m.store.Save(ctx, storage.SessionRecord{
		ID:      entry.session.ID,
		Version: entry.version,
		Data:    data,
	})
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			m.logger.Printf("session %s store version conflict (have %d); keeping in-memory state", entry.session.ID, entry.version)
		} else {
			m.logger.Printf("failed to persist session %s: %v", entry.session.ID, err)
		}
		return
	}
	entry.version = version
}

// persist is persistLocked for callers who already released the entry
// lock but know the entry is freshly created and unshared.
func (m *Manager) persist(ctx context.Context, entry *sessionEntry) {
	entry.mu.Lock()
	defer entry.mu.Unlock()
	m.persistLocked(ctx, entry)
}

type persistedSession struct {
	Snapshot  SessionSnapshot `json:"snapshot"`
	Seed      int64           `json:"seed"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (m *Manager) broadcast(sessionID, event string, payload any) {
	if m.broadcaster == nil {
		return
	}
	m.broadcaster.Broadcast(sessionID, event, payload)
}

func playerRef(id string) logging.EntityRef {
	return logging.EntityRef{ID: id, Kind: logging.EntityKindPlayer}
}
