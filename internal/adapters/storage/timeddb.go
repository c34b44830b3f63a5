package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"sync/atomic"
	"time"
)

// SQLDB is the database interface used by all stores.
// Both *sql.DB and *TimedDB satisfy this interface.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var _ SQLDB = (*sql.DB)(nil)

// DefaultSlowQuery is the threshold above which a statement is logged at WARN.
const DefaultSlowQuery = 50 * time.Millisecond

// TimedDB wraps a *sql.DB to log slow statements and count them.
type TimedDB struct {
	db        *sql.DB
	threshold time.Duration
	total     atomic.Int64
	slow      atomic.Int64
}

var _ SQLDB = (*TimedDB)(nil)

// NewTimedDB wraps db; a non-positive threshold falls back to DefaultSlowQuery.
// PRE: db is a valid database connection
func NewTimedDB(db *sql.DB, threshold time.Duration) *TimedDB {
	if threshold <= 0 {
		threshold = DefaultSlowQuery
	}
	return &TimedDB{db: db, threshold: threshold}
}

// RawDB returns the underlying *sql.DB (needed for migrations and pool config).
func (t *TimedDB) RawDB() *sql.DB {
	return t.db
}

// QueryStats reports the number of statements run and how many were slow.
func (t *TimedDB) QueryStats() (total, slow int64) {
	return t.total.Load(), t.slow.Load()
}

func (t *TimedDB) observe(op, query string, start time.Time) {
	elapsed := time.Since(start)
	t.total.Add(1)
	if elapsed >= t.threshold {
		t.slow.Add(1)
		slog.Warn("slow_query", "op", op, "query", query, "duration_ms", elapsed.Milliseconds())
		return
	}
	slog.Debug("query", "op", op, "duration_ms", float64(elapsed.Microseconds())/1000.0)
}

// ExecContext wraps sql.DB.ExecContext with timing.
func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := t.db.ExecContext(ctx, query, args...)
	t.observe("exec", query, start)
	return result, err
}

// QueryContext wraps sql.DB.QueryContext with timing.
func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.db.QueryContext(ctx, query, args...)
	t.observe("query", query, start)
	return rows, err
}

// QueryRowContext wraps sql.DB.QueryRowContext with timing.
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := t.db.QueryRowContext(ctx, query, args...)
	t.observe("query_row", query, start)
	return row
}

// BeginTx wraps sql.DB.BeginTx with timing. With _txlock=immediate this is
// where a writer waits for the database lock.
func (t *TimedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	start := time.Now()
	tx, err := t.db.BeginTx(ctx, opts)
	t.observe("begin", "BEGIN", start)
	return tx, err
}

// PingContext verifies the database connection.
func (t *TimedDB) PingContext(ctx context.Context) error {
	return t.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (t *TimedDB) Close() error {
	return t.db.Close()
}
