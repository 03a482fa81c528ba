package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a map-backed SessionStore for tests and for running
// the server without a database path configured.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]SessionRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]SessionRecord)}
}

func (s *MemoryStore) Save(ctx context.Context, record SessionRecord) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.records[record.ID]
	if exists && current.Version != record.Version {
		return 0, ErrConflict
	}
	if !exists && record.Version != 0 {
		return 0, ErrConflict
	}

	record.Version++
	record.Data = append([]byte(nil), record.Data...)
	record.UpdatedAt = time.Now().UTC()
	s.records[record.ID] = record
	return record.Version, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return SessionRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return SessionRecord{}, ErrNotFound
	}
	record.Data = append([]byte(nil), record.Data...)
	return record, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records), nil
}
