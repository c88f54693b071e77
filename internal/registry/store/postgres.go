package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"scanpoint/internal/registry/models"
	"scanpoint/pkg/platform/sentinel"
	txcontext "scanpoint/pkg/platform/tx"
)

// Postgres persists identities in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed identity store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execer joins the caller's transaction when one travels in ctx.
func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if dbTx, ok := txcontext.From(ctx); ok {
		return dbTx
	}
	return s.db
}

// EnsureSchema creates the identities table if it does not exist. Idempotent.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS identities (
			identifier   TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			group_label  TEXT NOT NULL
		)
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure identities schema: %w", errors.Join(sentinel.ErrStoreUnavailable, err))
	}
	return nil
}

// Insert adds an identity. A primary-key collision maps to
// sentinel.ErrDuplicateKey and leaves the stored identity untouched.
func (s *Postgres) Insert(ctx context.Context, identity models.Identity) error {
	query := `
		INSERT INTO identities (identifier, display_name, group_label)
		VALUES ($1, $2, $3)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query, identity.Identifier, identity.DisplayName, identity.GroupLabel)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrDuplicateKey
		}
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

// InsertIfAbsent adds an identity unless the identifier already exists.
// An existing row keeps its fields; used by seeding.
func (s *Postgres) InsertIfAbsent(ctx context.Context, identity models.Identity) error {
	query := `
		INSERT INTO identities (identifier, display_name, group_label)
		VALUES ($1, $2, $3)
		ON CONFLICT (identifier) DO NOTHING
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query, identity.Identifier, identity.DisplayName, identity.GroupLabel); err != nil {
		return fmt.Errorf("insert identity if absent: %w", err)
	}
	return nil
}

// Find returns the identity for an exact identifier match, or
// sentinel.ErrNotFound.
func (s *Postgres) Find(ctx context.Context, identifier string) (models.Identity, error) {
	query := `
		SELECT identifier, display_name, group_label
		FROM identities
		WHERE identifier = $1
	`
	var identity models.Identity
	err := s.db.QueryRowContext(ctx, query, identifier).
		Scan(&identity.Identifier, &identity.DisplayName, &identity.GroupLabel)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Identity{}, sentinel.ErrNotFound
		}
		return models.Identity{}, fmt.Errorf("find identity: %w", err)
	}
	return identity, nil
}

// Delete removes an identity. An absent identifier is a no-op.
func (s *Postgres) Delete(ctx context.Context, identifier string) error {
	if _, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM identities WHERE identifier = $1`, identifier); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return nil
}

// List returns every identity ordered by identifier.
func (s *Postgres) List(ctx context.Context) ([]models.Identity, error) {
	query := `
		SELECT identifier, display_name, group_label
		FROM identities
		ORDER BY identifier
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var out []models.Identity
	for rows.Next() {
		var identity models.Identity
		if err := rows.Scan(&identity.Identifier, &identity.DisplayName, &identity.GroupLabel); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		out = append(out, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return out, nil
}

// Count returns the number of stored identities.
func (s *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM identities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return n, nil
}

// Clear removes every identity.
func (s *Postgres) Clear(ctx context.Context) error {
	if _, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM identities`); err != nil {
		return fmt.Errorf("clear identities: %w", err)
	}
	return nil
}
