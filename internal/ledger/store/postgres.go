package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"scanpoint/internal/ledger/models"
	"scanpoint/pkg/platform/sentinel"
	txcontext "scanpoint/pkg/platform/tx"
)

// Postgres persists scan events in PostgreSQL as an append-only table.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed scan store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// execer joins the caller's transaction when one travels in ctx.
func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if dbTx, ok := txcontext.From(ctx); ok {
		return dbTx
	}
	return s.db
}

// EnsureSchema creates the scans table if it does not exist. Idempotent.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS scans (
			seq        BIGSERIAL PRIMARY KEY,
			identifier TEXT NOT NULL,
			scanned_at TIMESTAMPTZ NOT NULL
		)
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure scans schema: %w", errors.Join(sentinel.ErrStoreUnavailable, err))
	}
	return nil
}

// Append adds one scan event; the sequence comes from the table's serial.
func (s *Postgres) Append(ctx context.Context, identifier string, ts time.Time) (models.ScanEvent, error) {
	query := `
		INSERT INTO scans (identifier, scanned_at)
		VALUES ($1, $2)
		RETURNING seq
	`
	event := models.ScanEvent{Identifier: identifier, Timestamp: ts}
	if err := s.execer(ctx).QueryRowContext(ctx, query, identifier, ts).Scan(&event.Seq); err != nil {
		return models.ScanEvent{}, fmt.Errorf("append scan: %w", err)
	}
	return event, nil
}

// ListRecent returns up to limit events, newest first, ties broken by
// descending sequence.
func (s *Postgres) ListRecent(ctx context.Context, limit int) ([]models.ScanEvent, error) {
	query := `
		SELECT seq, identifier, scanned_at
		FROM scans
		ORDER BY scanned_at DESC, seq DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent scans: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListAll returns every event in insertion order.
func (s *Postgres) ListAll(ctx context.Context) ([]models.ScanEvent, error) {
	query := `
		SELECT seq, identifier, scanned_at
		FROM scans
		ORDER BY seq
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// CountByIdentifier returns the number of events per identifier.
func (s *Postgres) CountByIdentifier(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT identifier, COUNT(*) FROM scans GROUP BY identifier`)
	if err != nil {
		return nil, fmt.Errorf("count scans: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var identifier string
		var n int
		if err := rows.Scan(&identifier, &n); err != nil {
			return nil, fmt.Errorf("scan count row: %w", err)
		}
		counts[identifier] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate count rows: %w", err)
	}
	return counts, nil
}

// Clear removes every event. The serial is left alone so sequence numbers
// are never reused.
func (s *Postgres) Clear(ctx context.Context) error {
	if _, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM scans`); err != nil {
		return fmt.Errorf("clear scans: %w", err)
	}
	return nil
}

func scanEvents(rows *sql.Rows) ([]models.ScanEvent, error) {
	var events []models.ScanEvent
	for rows.Next() {
		var event models.ScanEvent
		if err := rows.Scan(&event.Seq, &event.Identifier, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	return events, nil
}
