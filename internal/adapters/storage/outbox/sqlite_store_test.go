package outbox_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"campus/internal/adapters/storage"
	store "campus/internal/adapters/storage/outbox"
	"campus/internal/domain/outbox"
)

// openTestDB creates an in-memory SQLite database with the full schema.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// TestSQLiteStore_PendingAndFailed tests the worker's queue queries.
func TestSQLiteStore_PendingAndFailed(t *testing.T) {
	s := store.NewSQLiteStore(openTestDB(t))
	ctx := context.Background()
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	entries := []outbox.Entry{
		{ID: "o1", ActionType: outbox.ActionTypeEmail, Payload: "{}", Status: outbox.StatusPending, MaxAttempts: 3, CreatedAt: now},
		{ID: "o2", ActionType: outbox.ActionTypeEmail, Payload: "{}", Status: outbox.StatusRetrying, Attempts: 1, MaxAttempts: 3, LastAttemptedAt: now, CreatedAt: now.Add(time.Second)},
		{ID: "o3", ActionType: outbox.ActionTypeEmail, Payload: "{}", Status: outbox.StatusFailed, Attempts: 3, MaxAttempts: 3, LastAttemptedAt: now, CreatedAt: now, ErrorMessage: "550"},
		{ID: "o4", ActionType: outbox.ActionTypeEmail, Payload: "{}", Status: outbox.StatusDone, Attempts: 1, MaxAttempts: 3, CreatedAt: now},
	}
	for _, e := range entries {
		if err := s.Save(ctx, e); err != nil {
			t.Fatalf("Save(%s): %v", e.ID, err)
		}
	}

	pending, err := s.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != "o1" || pending[1].ID != "o2" {
		t.Errorf("pending = %+v", pending)
	}
	if !pending[1].LastAttemptedAt.Equal(now) || !pending[0].LastAttemptedAt.IsZero() {
		t.Errorf("last attempted not round-tripped: %v / %v", pending[0].LastAttemptedAt, pending[1].LastAttemptedAt)
	}

	failed, err := s.ListFailed(ctx, 10)
	if err != nil || len(failed) != 1 || failed[0].ErrorMessage != "550" {
		t.Errorf("failed = %+v, %v", failed, err)
	}
	if _, err := s.GetByID(ctx, "missing"); !errors.Is(err, outbox.ErrNotFound) {
		t.Errorf("GetByID(missing) = %v", err)
	}
}
