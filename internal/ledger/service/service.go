package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	ledgermodels "scanpoint/internal/ledger/models"
	"scanpoint/internal/platform/metrics"
	registrymodels "scanpoint/internal/registry/models"
	"scanpoint/internal/transfer"
	"scanpoint/pkg/platform/sentinel"
)

// UnknownLabel is what readers see for an event whose identifier no longer
// resolves to an identity.
const UnknownLabel = "unknown"

const defaultRecentLimit = 50

// Store is the scan store fragment the ledger service needs.
type Store interface {
	Append(ctx context.Context, identifier string, ts time.Time) (ledgermodels.ScanEvent, error)
	ListRecent(ctx context.Context, limit int) ([]ledgermodels.ScanEvent, error)
	ListAll(ctx context.Context) ([]ledgermodels.ScanEvent, error)
	CountByIdentifier(ctx context.Context) (map[string]int, error)
	Clear(ctx context.Context) error
}

// IdentityReader resolves identifiers against the registry as it is at
// query time. A deletion between scans is visible to every later read.
type IdentityReader interface {
	Lookup(ctx context.Context, identifier string) (registrymodels.Identity, error)
	ListAll(ctx context.Context) ([]registrymodels.Identity, error)
}

// Mirror is the best-effort flat-file sink.
type Mirror interface {
	Append(displayName, groupLabel string, ts time.Time) error
	Clear() error
}

// schemaEnsurer is implemented by stores that need a bootstrap step.
type schemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

// Ledger owns the append-only scan history and its dual-sink write
// discipline: durable store first and authoritative, mirror second and
// best-effort.
type Ledger struct {
	store      Store
	identities IdentityReader
	mirror     Mirror
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(l *Ledger)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) {
		l.metrics = m
	}
}

// New constructs a Ledger.
func New(s Store, identities IdentityReader, mirror Mirror, opts ...Option) *Ledger {
	l := &Ledger{store: s, identities: identities, mirror: mirror, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Initialize bootstraps the backing store if needed. Safe on every startup.
func (l *Ledger) Initialize(ctx context.Context) error {
	if ensurer, ok := l.store.(schemaEnsurer); ok {
		return ensurer.EnsureSchema(ctx)
	}
	return nil
}

// Record appends one scan event. The durable write happens first and its
// failure aborts the whole call; the mirror line is then appended with the
// identity resolved at this moment, and a mirror failure is logged and
// counted but never surfaced, since the store already holds the truth.
func (l *Ledger) Record(ctx context.Context, identifier string, now time.Time) (ledgermodels.ScanEvent, error) {
	ts := now.Truncate(time.Second)

	event, err := l.store.Append(ctx, identifier, ts)
	if err != nil {
		return ledgermodels.ScanEvent{}, fmt.Errorf("record scan: %w", errors.Join(sentinel.ErrStoreUnavailable, err))
	}
	if l.metrics != nil {
		l.metrics.ScansRecorded.Inc()
	}

	displayName, groupLabel := UnknownLabel, UnknownLabel
	if identity, err := l.identities.Lookup(ctx, identifier); err == nil {
		displayName, groupLabel = identity.DisplayName, identity.GroupLabel
	}
	if err := l.mirror.Append(displayName, groupLabel, ts); err != nil {
		if l.metrics != nil {
			l.metrics.MirrorWriteFailures.Inc()
		}
		l.logger.Warn("mirror append failed, store write stands",
			slog.String("identifier", identifier),
			slog.Any("error", err))
	}
	return event, nil
}

// Entry is one row of the recent-scans view.
type Entry struct {
	Identifier  string
	DisplayName string
	Timestamp   time.Time
}

// Recent returns up to limit scans, newest first, each joined against the
// current registry state; events whose identity is gone show UnknownLabel.
// A non-positive limit falls back to the default cap of 50.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	events, err := l.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(events))
	for _, event := range events {
		entry := Entry{
			Identifier:  event.Identifier,
			DisplayName: UnknownLabel,
			Timestamp:   event.Timestamp,
		}
		if identity, err := l.identities.Lookup(ctx, event.Identifier); err == nil {
			entry.DisplayName = identity.DisplayName
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// CountRow is one row of the per-identity scan statistics.
type CountRow struct {
	Identifier  string
	DisplayName string
	GroupLabel  string
	Count       int
}

// CountsByIdentity returns one row per registered identity, including those
// never scanned. Rows order by count descending; equal counts order by
// display name then identifier, ascending, so a given state always renders
// the same way.
func (l *Ledger) CountsByIdentity(ctx context.Context) ([]CountRow, error) {
	identities, err := l.identities.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := l.store.CountByIdentifier(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]CountRow, 0, len(identities))
	for _, identity := range identities {
		rows = append(rows, CountRow{
			Identifier:  identity.Identifier,
			DisplayName: identity.DisplayName,
			GroupLabel:  identity.GroupLabel,
			Count:       counts[identity.Identifier],
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		if rows[i].DisplayName != rows[j].DisplayName {
			return rows[i].DisplayName < rows[j].DisplayName
		}
		return rows[i].Identifier < rows[j].Identifier
	})
	return rows, nil
}

// ClearAll removes every event from the durable store. The mirror is a
// separate surface; callers wanting both clears invoke both.
func (l *Ledger) ClearAll(ctx context.Context) error {
	if err := l.store.Clear(ctx); err != nil {
		return err
	}
	l.logger.Info("scan ledger cleared")
	return nil
}

// ClearMirror truncates the flat-file mirror only.
func (l *Ledger) ClearMirror() error {
	if err := l.mirror.Clear(); err != nil {
		return err
	}
	l.logger.Info("mirror cleared")
	return nil
}

// ExportSnapshot serializes current identities and scans to destination,
// overwriting it. Fails with a sentinel.ErrIOFailure wrap when the
// destination cannot be written.
func (l *Ledger) ExportSnapshot(ctx context.Context, destination string) error {
	identities, err := l.identities.ListAll(ctx)
	if err != nil {
		return err
	}
	events, err := l.store.ListAll(ctx)
	if err != nil {
		return err
	}
	if err := transfer.WriteSnapshot(destination, identities, events); err != nil {
		return err
	}
	l.logger.Info("snapshot exported",
		slog.String("destination", destination),
		slog.Int("identities", len(identities)),
		slog.Int("scans", len(events)))
	return nil
}
