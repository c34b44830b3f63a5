package absence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"campus/internal/adapters/storage"
	domain "campus/internal/domain/absence"
)

const (
	dateFormat = "2006-01-02"
	timeFormat = time.RFC3339Nano
)

const selectColumns = `SELECT id, kind, requester_id, section, batch, category, start_date, end_date, duration,
	working_days, reason, place_to_visit, proof_url, status, decision_role, decision_by, decided_at,
	rejection_reason, forwarded_by, forwarded_at, cancelled_from, version, created_at, updated_at
	FROM absence_request`

var sortColumns = map[string]string{
	"start_date":   "start_date",
	"created_at":   "created_at",
	"working_days": "CAST(working_days AS REAL)",
	"status":       "status",
}

// querier is the read surface shared by the pool and a transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new absence request store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a request by its ID.
// PRE: id is non-empty
// POST: Returns the request or a not_found error
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Request, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" WHERE id = ?", id)
	if err != nil {
		return domain.Request{}, fmt.Errorf("get request %s: %w", id, err)
	}
	defer rows.Close()
	list, err := scanRequests(rows)
	if err != nil {
		return domain.Request{}, err
	}
	if len(list) == 0 {
		return domain.Request{}, domain.NotFound(id)
	}
	return list[0], nil
}

// ListByRequester returns a student's requests, optionally restricted to statuses.
// PRE: requesterID is non-empty
// POST: Returns requests ordered by start date
func (s *SQLiteStore) ListByRequester(ctx context.Context, requesterID string, statuses ...string) ([]domain.Request, error) {
	query := selectColumns + " WHERE requester_id = ?"
	args := []any{requesterID}
	if len(statuses) > 0 {
		query += " AND status IN (" + placeholders(len(statuses)) + ")"
		for _, st := range statuses {
			args = append(args, st)
		}
	}
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY start_date, created_at", args...)
	if err != nil {
		return nil, fmt.Errorf("list requests for %s: %w", requesterID, err)
	}
	defer rows.Close()
	return scanRequests(rows)
}

// ListActiveOverlapping returns active requests of the requester that intersect [start, end].
// INVARIANT: Both Leave and OD are considered
func (s *SQLiteStore) ListActiveOverlapping(ctx context.Context, requesterID string, start, end time.Time) ([]domain.Request, error) {
	return listActiveOverlapping(ctx, s.db, requesterID, start, end)
}

func listActiveOverlapping(ctx context.Context, q querier, requesterID string, start, end time.Time) ([]domain.Request, error) {
	args := []any{requesterID, end.Format(dateFormat), start.Format(dateFormat)}
	for _, st := range domain.ActiveStatuses {
		args = append(args, st)
	}
	rows, err := q.QueryContext(ctx,
		selectColumns+" WHERE requester_id = ? AND start_date <= ? AND end_date >= ? AND status IN ("+
			placeholders(len(domain.ActiveStatuses))+") ORDER BY start_date",
		args...)
	if err != nil {
		return nil, fmt.Errorf("overlap check: %w", err)
	}
	defer rows.Close()
	return scanRequests(rows)
}

// List returns a page of requests matching f along with the total count.
// PRE: f.Limit >= 0
// POST: Unknown sort keys fall back to start_date
func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]domain.Request, int, error) {
	var where []string
	var args []any
	if f.RequesterID != "" {
		where = append(where, "requester_id = ?")
		args = append(args, f.RequesterID)
	}
	if len(f.Sections) > 0 {
		where = append(where, "section IN ("+placeholders(len(f.Sections))+")")
		for _, sec := range f.Sections {
			args = append(args, sec)
		}
	}
	if len(f.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(f.Statuses))+")")
		for _, st := range f.Statuses {
			args = append(args, st)
		}
	}
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, f.Kind)
	}
	if !f.From.IsZero() {
		where = append(where, "end_date >= ?")
		args = append(args, f.From.Format(dateFormat))
	}
	if !f.To.IsZero() {
		where = append(where, "start_date <= ?")
		args = append(args, f.To.Format(dateFormat))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM absence_request"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}

	col, ok := sortColumns[f.Sort]
	if !ok {
		col = "start_date"
	}
	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}
	query := selectColumns + clause + " ORDER BY " + col + " " + dir + ", id"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()
	list, err := scanRequests(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// CreateIfNoOverlap inserts req after re-checking overlaps inside the write transaction.
// PRE: req has been validated and has Status pending
// POST: Exactly one of the competing overlapping inserts commits
func (s *SQLiteStore) CreateIfNoOverlap(ctx context.Context, req domain.Request) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback()

	existing, err := listActiveOverlapping(ctx, tx, req.RequesterID, req.StartDate, req.EndDate)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return domain.Overlapping(existing)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO absence_request (id, kind, requester_id, section, batch, category, start_date, end_date, duration,
			working_days, reason, place_to_visit, proof_url, status, decision_role, decision_by, decided_at,
			rejection_reason, forwarded_by, forwarded_at, cancelled_from, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.Kind, req.RequesterID, req.Section, req.Batch, req.Category,
		req.StartDate.Format(dateFormat), req.EndDate.Format(dateFormat), req.Duration,
		req.WorkingDays.String(), req.Reason, req.PlaceToVisit, req.ProofURL, req.Status,
		req.DecisionRole, req.DecisionBy, nullTime(req.DecidedAt), req.RejectionReason,
		req.ForwardedBy, nullTime(req.ForwardedAt), req.CancelledFrom, req.Version,
		req.CreatedAt.Format(timeFormat), req.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("insert request %s: %w", req.ID, err)
	}
	return tx.Commit()
}

// UpdateIfStatus writes the mutable fields of req guarded by status and version.
// A transition that moves req back into an active status re-checks overlaps
// in the same write transaction.
// PRE: req.Version is expectedVersion+1
// POST: Row updated, or not_found / stale_state / overlap error with nothing written
func (s *SQLiteStore) UpdateIfStatus(ctx context.Context, req domain.Request, expectedStatus string, expectedVersion int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update %s: %w", req.ID, err)
	}
	defer tx.Rollback()

	if req.IsActive() && !domain.IsActiveStatus(expectedStatus) {
		existing, err := listActiveOverlapping(ctx, tx, req.RequesterID, req.StartDate, req.EndDate)
		if err != nil {
			return err
		}
		if others := excluding(existing, req.ID); len(others) > 0 {
			return domain.Overlapping(others)
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE absence_request SET status = ?, decision_role = ?, decision_by = ?, decided_at = ?,
			rejection_reason = ?, forwarded_by = ?, forwarded_at = ?, cancelled_from = ?, version = ?, updated_at = ?
		 WHERE id = ? AND status = ? AND version = ?`,
		req.Status, req.DecisionRole, req.DecisionBy, nullTime(req.DecidedAt),
		req.RejectionReason, req.ForwardedBy, nullTime(req.ForwardedAt), req.CancelledFrom,
		req.Version, req.UpdatedAt.Format(timeFormat),
		req.ID, expectedStatus, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update request %s: %w", req.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update request %s: %w", req.ID, err)
	}
	if n == 1 {
		return tx.Commit()
	}

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM absence_request WHERE id = ?", req.ID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound(req.ID)
	}
	if err != nil {
		return fmt.Errorf("update request %s: %w", req.ID, err)
	}
	return domain.Stale(req.ID)
}

func excluding(list []domain.Request, id string) []domain.Request {
	var out []domain.Request
	for _, r := range list {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

func scanRequests(rows *sql.Rows) ([]domain.Request, error) {
	var out []domain.Request
	for rows.Next() {
		var r domain.Request
		var start, end, days, created, updated string
		var decidedAt, forwardedAt sql.NullString
		err := rows.Scan(&r.ID, &r.Kind, &r.RequesterID, &r.Section, &r.Batch, &r.Category, &start, &end,
			&r.Duration, &days, &r.Reason, &r.PlaceToVisit, &r.ProofURL, &r.Status, &r.DecisionRole,
			&r.DecisionBy, &decidedAt, &r.RejectionReason, &r.ForwardedBy, &forwardedAt, &r.CancelledFrom,
			&r.Version, &created, &updated)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		r.StartDate, _ = time.Parse(dateFormat, start)
		r.EndDate, _ = time.Parse(dateFormat, end)
		r.WorkingDays, err = decimal.NewFromString(days)
		if err != nil {
			return nil, fmt.Errorf("request %s has malformed working_days %q: %w", r.ID, days, err)
		}
		r.CreatedAt, _ = time.Parse(timeFormat, created)
		r.UpdatedAt, _ = time.Parse(timeFormat, updated)
		if decidedAt.Valid {
			r.DecidedAt, _ = time.Parse(timeFormat, decidedAt.String)
		}
		if forwardedAt.Valid {
			r.ForwardedAt, _ = time.Parse(timeFormat, forwardedAt.String)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(timeFormat)
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
