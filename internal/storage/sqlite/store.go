// Package sqlite provides a SQLite-backed session store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"umbral-nexus/server/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
  id         TEXT PRIMARY KEY,
  version    INTEGER NOT NULL,
  data       BLOB NOT NULL,
  updated_at INTEGER NOT NULL
);`

// Store persists session snapshots in SQLite with a version column for
// optimistic concurrency.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (and if necessary creates) the session database.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Save inserts or updates a session record, rejecting concurrent
// writers whose version no longer matches.
func (s *Store) Save(ctx context.Context, record storage.SessionRecord) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	now := time.Now().UTC().UnixMilli()
	next := record.Version + 1

	if record.Version == 0 {
		_, err := s.sqlDB.ExecContext(ctx,
			`INSERT INTO sessions (id, version, data, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(id) DO NOTHING`,
			record.ID, next, record.Data, now,
		)
		if err != nil {
			return 0, fmt.Errorf("insert session: %w", err)
		}
		// ON CONFLICT DO NOTHING reports zero rows when the id exists,
		// which is a create-over-existing conflict.
		var stored uint64
		if err := s.sqlDB.QueryRowContext(ctx, `SELECT version FROM sessions WHERE id = ?`, record.ID).Scan(&stored); err != nil {
			return 0, fmt.Errorf("read back session version: %w", err)
		}
		if stored != next {
			return 0, storage.ErrConflict
		}
		return next, nil
	}

	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE sessions SET version = ?, data = ?, updated_at = ? WHERE id = ? AND version = ?`,
		next, record.Data, now, record.ID, record.Version,
	)
	if err != nil {
		return 0, fmt.Errorf("update session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		var exists int
		err := s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, record.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, storage.ErrNotFound
		}
		return 0, storage.ErrConflict
	}
	return next, nil
}

// Get returns one session record.
func (s *Store) Get(ctx context.Context, id string) (storage.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SessionRecord{}, err
	}
	var record storage.SessionRecord
	var updated int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, version, data, updated_at FROM sessions WHERE id = ?`, id,
	).Scan(&record.ID, &record.Version, &record.Data, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.SessionRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.SessionRecord{}, fmt.Errorf("query session: %w", err)
	}
	record.UpdatedAt = time.UnixMilli(updated).UTC()
	return record, nil
}

// Delete removes a session record. Deleting a missing record is not an
// error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Count returns the number of persisted sessions.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var count int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}
