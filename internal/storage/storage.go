// Package storage defines the session persistence contract. The
// in-memory session is authoritative while a session lives; stores are
// a write-through snapshot with optimistic concurrency as a second line
// of defense against concurrent writers.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound reports a missing session record.
	ErrNotFound = errors.New("storage: not found")
	// ErrConflict reports a version mismatch on save.
	ErrConflict = errors.New("storage: version conflict")
)

// SessionRecord is one persisted session snapshot. Data is the JSON
// serialization owned by the game package; storage never inspects it.
type SessionRecord struct {
	ID        string
	Version   uint64
	Data      []byte
	UpdatedAt time.Time
}

// SessionStore persists session snapshots keyed by session id.
//
// Save enforces optimistic concurrency: the record's Version must match
// the stored version (0 for a new record) or ErrConflict is returned.
// On success the new version is returned.
type SessionStore interface {
	Save(ctx context.Context, record SessionRecord) (uint64, error)
	Get(ctx context.Context, id string) (SessionRecord, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}
