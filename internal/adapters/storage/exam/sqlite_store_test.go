package exam_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"campus/internal/adapters/storage"
	store "campus/internal/adapters/storage/exam"
	"campus/internal/domain/exam"
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

// TestSQLiteStore_ListBySectionInRange tests section and inclusive date filtering.
func TestSQLiteStore_ListBySectionInRange(t *testing.T) {
	s := store.NewSQLiteStore(openTestDB(t))
	ctx := context.Background()
	d := func(day int) time.Time { return time.Date(2026, 11, day, 0, 0, 0, 0, time.UTC) }

	for _, e := range []exam.Exam{
		{ID: "e1", Section: "CSE-A", Subject: "Compilers", Date: d(9)},
		{ID: "e2", Section: "CSE-A", Subject: "Networks", Date: d(11)},
		{ID: "e3", Section: "CSE-B", Subject: "Compilers", Date: d(10)},
	} {
		if err := s.Save(ctx, e); err != nil {
			t.Fatalf("Save(%s): %v", e.ID, err)
		}
	}

	got, err := s.ListBySectionInRange(ctx, "cse-a", d(9), d(10))
	if err != nil {
		t.Fatalf("ListBySectionInRange: %v", err)
	}
	if len(got) != 1 || got[0].ID != "e1" || !got[0].Date.Equal(d(9)) {
		t.Errorf("got %+v, want only e1", got)
	}
	all, err := s.List(ctx)
	if err != nil || len(all) != 3 {
		t.Errorf("List() = %d, %v", len(all), err)
	}
}
