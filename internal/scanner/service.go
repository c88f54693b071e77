// Package scanner is the serialization point between the presentation layer
// and the core: key events and operator commands enter here one at a time,
// and the four UI signals leave here.
package scanner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"scanpoint/internal/framer"
	ledgerservice "scanpoint/internal/ledger/service"
	"scanpoint/internal/platform/metrics"
	registrymodels "scanpoint/internal/registry/models"
	registryservice "scanpoint/internal/registry/service"
	"scanpoint/internal/transfer"
	"scanpoint/internal/workflow"
	"scanpoint/pkg/platform/sentinel"
)

// ErrorKind names a failure class for the presentation layer.
type ErrorKind string

const (
	KindStoreUnavailable ErrorKind = "store_unavailable"
	KindIOFailure        ErrorKind = "io_failure"
	KindDuplicateKey     ErrorKind = "duplicate_key"
	KindNotFound         ErrorKind = "not_found"
	KindInternal         ErrorKind = "internal"
)

// Classify maps an error chain onto its ErrorKind.
func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, sentinel.ErrStoreUnavailable):
		return KindStoreUnavailable
	case errors.Is(err, sentinel.ErrIOFailure):
		return KindIOFailure
	case errors.Is(err, sentinel.ErrDuplicateKey):
		return KindDuplicateKey
	case errors.Is(err, sentinel.ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

// Events is the signal surface the presentation layer renders. Calls arrive
// on the goroutine that delivered the triggering command.
type Events interface {
	ScanResolved(displayName, groupLabel string)
	UnknownCard(identifier string)
	RegistrationResult(err error)
	Error(kind ErrorKind, detail error)
}

// NopEvents discards every signal.
type NopEvents struct{}

func (NopEvents) ScanResolved(string, string) {}
func (NopEvents) UnknownCard(string)          {}
func (NopEvents) RegistrationResult(error)    {}
func (NopEvents) Error(ErrorKind, error)      {}

// Service implements the collaborator command surface. One mutex serializes
// every command, so the framer, workflow and stores below it never see
// concurrent mutation.
type Service struct {
	mu       sync.Mutex
	framer   *framer.Framer
	workflow *workflow.Workflow
	registry *registryservice.Registry
	ledger   *ledgerservice.Ledger
	events   Events
	logger   *slog.Logger
	metrics  *metrics.Metrics
	clock    func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// New constructs the façade. A nil events sink is replaced by NopEvents.
func New(registry *registryservice.Registry, ledger *ledgerservice.Ledger, events Events, opts ...Option) *Service {
	if events == nil {
		events = NopEvents{}
	}
	s := &Service{
		framer:   framer.New(),
		registry: registry,
		ledger:   ledger,
		events:   events,
		logger:   slog.Default(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.workflow = workflow.New(registry, ledger, workflow.WithLogger(s.logger))
	return s
}

// DeliverKeyEvent feeds one key press through the framer and, when a token
// completes, through the resolution cycle. An empty token is logged and
// dropped before any lookup, so a stray terminator never prompts for
// registration.
func (s *Service) DeliverKeyEvent(ctx context.Context, ev framer.KeyEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, emitted := s.framer.Feed(ev)
	if !emitted {
		return
	}
	if token == "" {
		s.logger.Debug("empty token ignored")
		return
	}

	res, err := s.workflow.HandleToken(ctx, token, s.clock())
	if err != nil {
		s.events.Error(Classify(err), err)
		return
	}
	if !res.Known {
		if s.metrics != nil {
			s.metrics.UnknownCards.Inc()
		}
		s.events.UnknownCard(token)
		return
	}
	s.events.ScanResolved(res.Identity.DisplayName, res.Identity.GroupLabel)
}

// SubmitRegistration completes the pending registration. The outcome goes
// to the events sink and back to the caller; a duplicate-key race keeps the
// identifier pending for a retry or decline.
func (s *Service) SubmitRegistration(ctx context.Context, identifier, displayName, groupLabel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.workflow.Submit(ctx, identifier, displayName, groupLabel, s.clock())
	s.events.RegistrationResult(err)
	return err
}

// DeclineRegistration abandons the pending registration, if any.
func (s *Service) DeclineRegistration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflow.Decline()
}

// PendingIdentifier reports the identifier awaiting registration, if any.
func (s *Service) PendingIdentifier() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workflow.Pending()
}

// RequestDelete removes an identity; an absent identifier is a no-op.
func (s *Service) RequestDelete(ctx context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Delete(ctx, identifier)
}

// RequestClearRegistry removes every identity. Scan history stays.
func (s *Service) RequestClearRegistry(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.ClearAll(ctx)
}

// RequestClearLedger removes every scan event. The mirror file stays.
func (s *Service) RequestClearLedger(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.ClearAll(ctx)
}

// RequestClearMirror truncates the flat-file mirror only.
func (s *Service) RequestClearMirror() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.ClearMirror()
}

// RequestExport writes the snapshot file to path.
func (s *Service) RequestExport(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	opID := uuid.NewString()
	s.logger.Info("export requested", slog.String("op_id", opID), slog.String("path", path))
	if err := s.ledger.ExportSnapshot(ctx, path); err != nil {
		s.logger.Error("export failed", slog.String("op_id", opID), slog.Any("error", err))
		return err
	}
	return nil
}

// RequestImport reads a roster file and registers its rows. Rows that are
// malformed or collide with existing identities are skipped and counted.
func (s *Service) RequestImport(ctx context.Context, path string) (registryservice.ImportReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	opID := uuid.NewString()
	s.logger.Info("import requested", slog.String("op_id", opID), slog.String("path", path))

	records, malformed, err := transfer.ReadRoster(path)
	if err != nil {
		s.logger.Error("import failed", slog.String("op_id", opID), slog.Any("error", err))
		return registryservice.ImportReport{}, err
	}
	report, err := s.registry.ImportMany(ctx, records)
	report.SkippedMalformed += malformed
	if err != nil {
		s.logger.Error("import aborted", slog.String("op_id", opID), slog.Any("error", err))
		return report, err
	}
	return report, nil
}

// Identities lists every registered identity for display or export.
func (s *Service) Identities(ctx context.Context) ([]registrymodels.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.ListAll(ctx)
}

// IdentityCount returns how many identities are registered.
func (s *Service) IdentityCount(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Count(ctx)
}

// Recent returns the latest scans joined against current registry state.
func (s *Service) Recent(ctx context.Context, limit int) ([]ledgerservice.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Recent(ctx, limit)
}

// Counts returns per-identity scan statistics.
func (s *Service) Counts(ctx context.Context) ([]ledgerservice.CountRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.CountsByIdentity(ctx)
}
