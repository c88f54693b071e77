// Package workflow drives the unknown-identifier path: a token that
// resolves is recorded immediately; one that does not is parked as the
// pending registration until the operator registers or declines it.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	ledgermodels "scanpoint/internal/ledger/models"
	registrymodels "scanpoint/internal/registry/models"
	"scanpoint/pkg/platform/sentinel"
)

// ErrNoPending is returned when a registration decision arrives without a
// matching pending identifier, e.g. after a newer scan superseded it.
var ErrNoPending = errors.New("no pending registration for identifier")

// Registrar is the registry fragment the workflow needs.
type Registrar interface {
	Lookup(ctx context.Context, identifier string) (registrymodels.Identity, error)
	Register(ctx context.Context, identifier, displayName, groupLabel string) error
}

// Recorder is the ledger fragment the workflow needs.
type Recorder interface {
	Record(ctx context.Context, identifier string, now time.Time) (ledgermodels.ScanEvent, error)
}

// Resolution is the outcome of one token arriving.
type Resolution struct {
	// Known is true when the token resolved to an identity and a scan
	// event was recorded.
	Known    bool
	Identity registrymodels.Identity
	Event    ledgermodels.ScanEvent
}

// Workflow is the two-state machine of §"registration": Idle, or awaiting a
// decision for exactly one pending identifier. Pending state is in-memory
// only; after a restart the card is simply scanned again. Not safe for
// concurrent use; callers serialize (see scanner.Service).
type Workflow struct {
	registry Registrar
	ledger   Recorder
	logger   *slog.Logger

	pending string
}

type Option func(w *Workflow)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		w.logger = logger
	}
}

// New constructs a Workflow in the Idle state.
func New(registry Registrar, ledger Recorder, opts ...Option) *Workflow {
	w := &Workflow{registry: registry, ledger: ledger, logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Pending returns the identifier awaiting registration, if any.
func (w *Workflow) Pending() (string, bool) {
	return w.pending, w.pending != ""
}

// HandleToken resolves one token. A hit records a scan and returns to Idle;
// a miss parks the identifier as pending so the caller can prompt for
// registration. A token arriving while another identifier is pending
// abandons the old one: the operator handles one card at a time, and the
// most recent scan wins.
func (w *Workflow) HandleToken(ctx context.Context, token string, now time.Time) (Resolution, error) {
	if prev, ok := w.Pending(); ok && prev != token {
		w.logger.Info("pending registration superseded by new scan",
			slog.String("abandoned", prev),
			slog.String("identifier", token))
	}
	w.pending = ""

	identity, err := w.registry.Lookup(ctx, token)
	if errors.Is(err, sentinel.ErrNotFound) {
		w.pending = token
		return Resolution{Known: false}, nil
	}
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve token: %w", err)
	}

	event, err := w.ledger.Record(ctx, token, now)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{Known: true, Identity: identity, Event: event}, nil
}

// Submit completes the pending registration for identifier. On success the
// identity is created and the scan that triggered the prompt is logged
// retroactively, then the machine returns to Idle. A duplicate-key failure
// (the identifier was registered by another path since the miss) keeps the
// identifier pending so the operator can retry or decline.
func (w *Workflow) Submit(ctx context.Context, identifier, displayName, groupLabel string, now time.Time) (ledgermodels.ScanEvent, error) {
	if w.pending == "" || w.pending != identifier {
		return ledgermodels.ScanEvent{}, ErrNoPending
	}

	if err := w.registry.Register(ctx, identifier, displayName, groupLabel); err != nil {
		return ledgermodels.ScanEvent{}, err
	}

	// The identity now exists regardless of what happens below, so the
	// pending state is spent either way.
	w.pending = ""

	event, err := w.ledger.Record(ctx, identifier, now)
	if err != nil {
		return ledgermodels.ScanEvent{}, err
	}
	return event, nil
}

// Decline abandons the pending registration, if any.
func (w *Workflow) Decline() {
	if w.pending != "" {
		w.logger.Info("registration declined", slog.String("identifier", w.pending))
	}
	w.pending = ""
}
