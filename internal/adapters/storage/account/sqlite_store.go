package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campus/internal/adapters/storage"
	domain "campus/internal/domain/account"
)

const (
	timeFormat    = time.RFC3339Nano
	selectAccount = "SELECT a.id, a.email, a.password_hash, a.role, a.student_id, a.created_at, a.failed_logins, a.locked_until FROM account a"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new AccountStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Account by its ID.
// PRE: id is non-empty
// POST: Returns the entity with its sections, or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	return s.getOne(ctx, selectAccount+" WHERE a.id = ?", id)
}

// GetByEmail retrieves an Account by email, case-insensitively.
// PRE: email is non-empty
// POST: Returns the entity with its sections, or domain.ErrNotFound
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	return s.getOne(ctx, selectAccount+" WHERE a.email = ? COLLATE NOCASE", email)
}

func (s *SQLiteStore) getOne(ctx context.Context, query string, arg string) (domain.Account, error) {
	entity, err := scanAccount(s.db.QueryRowContext(ctx, query, arg).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("get account: %w", err)
	}
	entity.Sections, err = s.sections(ctx, entity.ID)
	if err != nil {
		return domain.Account{}, err
	}
	return entity, nil
}

// Save persists an Account and replaces its section assignments.
// PRE: entity has been validated
// POST: Account row and account_section rows are written in one transaction
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Account) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var lockedUntil, studentID any
	if !entity.LockedUntil.IsZero() {
		lockedUntil = entity.LockedUntil.Format(timeFormat)
	}
	if entity.StudentID != "" {
		studentID = entity.StudentID
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO account (id, email, password_hash, role, student_id, created_at, failed_logins, locked_until)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET email=excluded.email, password_hash=excluded.password_hash, role=excluded.role,
		   student_id=excluded.student_id, failed_logins=excluded.failed_logins, locked_until=excluded.locked_until`,
		entity.ID, entity.Email, entity.PasswordHash, entity.Role, studentID,
		entity.CreatedAt.Format(timeFormat), entity.FailedLogins, lockedUntil,
	)
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM account_section WHERE account_id = ?", entity.ID); err != nil {
		return fmt.Errorf("clear sections: %w", err)
	}
	for _, sec := range entity.Sections {
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO account_section (account_id, section) VALUES (?, ?)", entity.ID, sec); err != nil {
			return fmt.Errorf("assign section %s: %w", sec, err)
		}
	}
	return tx.Commit()
}

// Count returns the total number of accounts.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM account").Scan(&count)
	return count, err
}

// ListByRole returns every account with role, ordered by email.
func (s *SQLiteStore) ListByRole(ctx context.Context, role string) ([]domain.Account, error) {
	return s.list(ctx, selectAccount+" WHERE a.role = ? ORDER BY a.email", role)
}

// ListTutorsForSection returns tutors assigned to section, ordered by email.
func (s *SQLiteStore) ListTutorsForSection(ctx context.Context, section string) ([]domain.Account, error) {
	return s.list(ctx,
		selectAccount+" JOIN account_section sec ON sec.account_id = a.id WHERE a.role = ? AND sec.section = ? COLLATE NOCASE ORDER BY a.email",
		domain.RoleTutor, section)
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...any) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	var results []domain.Account
	for rows.Next() {
		entity, err := scanAccount(rows.Scan)
		if err != nil {
			rows.Close()
			return nil, err
		}
		results = append(results, entity)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range results {
		if results[i].Sections, err = s.sections(ctx, results[i].ID); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (s *SQLiteStore) sections(ctx context.Context, accountID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT section FROM account_section WHERE account_id = ? ORDER BY section", accountID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var sec string
		if err := rows.Scan(&sec); err != nil {
			return nil, err
		}
		out = append(out, sec)
	}
	return out, rows.Err()
}

// scanAccount extracts an Account from a row scanner function.
func scanAccount(scan func(dest ...any) error) (domain.Account, error) {
	var entity domain.Account
	var createdAt string
	var studentID, lockedUntil sql.NullString
	err := scan(&entity.ID, &entity.Email, &entity.PasswordHash, &entity.Role, &studentID,
		&createdAt, &entity.FailedLogins, &lockedUntil)
	if err != nil {
		return domain.Account{}, err
	}
	entity.StudentID = studentID.String
	entity.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	if lockedUntil.Valid && lockedUntil.String != "" {
		entity.LockedUntil, _ = time.Parse(timeFormat, lockedUntil.String)
	}
	return entity, nil
}
