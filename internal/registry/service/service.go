package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"scanpoint/internal/platform/metrics"
	"scanpoint/internal/registry/models"
	"scanpoint/internal/registry/store"
	"scanpoint/pkg/platform/sentinel"
)

// Store is the identity store fragment the registry service needs.
type Store interface {
	Insert(ctx context.Context, identity models.Identity) error
	InsertIfAbsent(ctx context.Context, identity models.Identity) error
	Find(ctx context.Context, identifier string) (models.Identity, error)
	Delete(ctx context.Context, identifier string) error
	List(ctx context.Context) ([]models.Identity, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// schemaEnsurer is implemented by stores that need a bootstrap step (the
// Postgres store); the in-memory store does not.
type schemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

// Registry orchestrates the durable card → identity mapping.
type Registry struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(r *Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// New constructs a Registry.
func New(s Store, opts ...Option) *Registry {
	r := &Registry{store: s, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Initialize bootstraps the backing store if needed and inserts the seed
// identities with insert-if-absent semantics. Safe to call on every startup.
func (r *Registry) Initialize(ctx context.Context) error {
	if ensurer, ok := r.store.(schemaEnsurer); ok {
		if err := ensurer.EnsureSchema(ctx); err != nil {
			return err
		}
	}
	if err := store.Seed(ctx, r.store); err != nil {
		return fmt.Errorf("seed identities: %w", err)
	}
	return nil
}

// Lookup resolves an identifier by exact match. A miss returns
// sentinel.ErrNotFound and is a normal outcome, not a failure.
func (r *Registry) Lookup(ctx context.Context, identifier string) (models.Identity, error) {
	return r.store.Find(ctx, identifier)
}

// Register creates a new identity. An existing identifier is rejected with
// sentinel.ErrDuplicateKey; the stored identity keeps its fields.
func (r *Registry) Register(ctx context.Context, identifier, displayName, groupLabel string) error {
	identity := models.Identity{
		Identifier:  identifier,
		DisplayName: displayName,
		GroupLabel:  groupLabel,
	}
	if err := r.store.Insert(ctx, identity); err != nil {
		return err
	}
	if r.metrics != nil {
		r.metrics.CardsRegistered.Inc()
	}
	r.logger.Info("card registered",
		slog.String("identifier", identifier),
		slog.String("display_name", displayName),
		slog.String("group_label", groupLabel))
	return nil
}

// Delete removes an identity. Deleting an absent identifier is a no-op, and
// past scan events for the identifier are never touched.
func (r *Registry) Delete(ctx context.Context, identifier string) error {
	if err := r.store.Delete(ctx, identifier); err != nil {
		return err
	}
	r.logger.Info("card deleted", slog.String("identifier", identifier))
	return nil
}

// ListAll returns every identity in identifier order.
func (r *Registry) ListAll(ctx context.Context) ([]models.Identity, error) {
	return r.store.List(ctx)
}

// Count returns the number of registered identities.
func (r *Registry) Count(ctx context.Context) (int, error) {
	return r.store.Count(ctx)
}

// ClearAll removes every identity. Irreversible; scan history survives and
// resolves as unknown afterwards.
func (r *Registry) ClearAll(ctx context.Context) error {
	if err := r.store.Clear(ctx); err != nil {
		return err
	}
	r.logger.Info("registry cleared")
	return nil
}

// ImportRecord is one identity candidate from a roster file.
type ImportRecord struct {
	Identifier  string
	DisplayName string
	GroupLabel  string
}

// ImportReport tells the operator what a bulk import actually did. Existing
// identities are never overwritten; their rows count as skipped duplicates.
type ImportReport struct {
	Imported          int
	SkippedDuplicates int
	SkippedMalformed  int
}

// ImportMany registers each record in turn. Duplicate identifiers and blank
// identifiers are skipped without aborting the batch; the report carries the
// per-outcome counts.
func (r *Registry) ImportMany(ctx context.Context, records []ImportRecord) (ImportReport, error) {
	var report ImportReport
	for _, rec := range records {
		if strings.TrimSpace(rec.Identifier) == "" {
			report.SkippedMalformed++
			continue
		}
		err := r.Register(ctx, rec.Identifier, rec.DisplayName, rec.GroupLabel)
		switch {
		case err == nil:
			report.Imported++
		case errors.Is(err, sentinel.ErrDuplicateKey):
			report.SkippedDuplicates++
			r.logger.Debug("import row skipped, identifier exists",
				slog.String("identifier", rec.Identifier))
		default:
			return report, fmt.Errorf("import identity %q: %w", rec.Identifier, err)
		}
	}
	if r.metrics != nil {
		skipped := report.SkippedDuplicates + report.SkippedMalformed
		r.metrics.ImportRowsSkipped.Add(float64(skipped))
	}
	r.logger.Info("roster import finished",
		slog.Int("imported", report.Imported),
		slog.Int("skipped_duplicates", report.SkippedDuplicates),
		slog.Int("skipped_malformed", report.SkippedMalformed))
	return report, nil
}
