package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"umbral-nexus/server/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveGetRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	version, err := store.Save(ctx, storage.SessionRecord{ID: "XY12AB", Data: []byte(`{"name":"delve"}`)})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected version 1, got %d", version)
	}

	record, err := store.Get(ctx, "XY12AB")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Version != 1 || string(record.Data) != `{"name":"delve"}` {
		t.Fatalf("unexpected record %+v", record)
	}
}

func TestOptimisticConcurrency(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	v1, err := store.Save(ctx, storage.SessionRecord{ID: "XY12AB", Data: []byte("a")})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	// Creating over an existing id conflicts.
	if _, err := store.Save(ctx, storage.SessionRecord{ID: "XY12AB", Version: 0, Data: []byte("b")}); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate create, got %v", err)
	}

	// Updating with a stale version conflicts.
	v2, err := store.Save(ctx, storage.SessionRecord{ID: "XY12AB", Version: v1, Data: []byte("c")})
	if err != nil {
		t.Fatalf("versioned update: %v", err)
	}
	if _, err := store.Save(ctx, storage.SessionRecord{ID: "XY12AB", Version: v1, Data: []byte("d")}); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict on stale update, got %v", err)
	}
	if v2 != v1+1 {
		t.Fatalf("expected version %d, got %d", v1+1, v2)
	}
}

func TestUpdateMissingSession(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Save(context.Background(), storage.SessionRecord{ID: "GONE12", Version: 3, Data: []byte("x")}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAndCount(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, storage.SessionRecord{ID: "AAAA11"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.Save(ctx, storage.SessionRecord{ID: "BBBB22"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil || count != 2 {
		t.Fatalf("expected 2 sessions, got %d (%v)", count, err)
	}

	if err := store.Delete(ctx, "AAAA11"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "AAAA11"); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
	if _, err := store.Get(ctx, "AAAA11"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
