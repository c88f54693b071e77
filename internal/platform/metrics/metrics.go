package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the scan point.
type Metrics struct {
	ScansRecorded       prometheus.Counter
	UnknownCards        prometheus.Counter
	CardsRegistered     prometheus.Counter
	ImportRowsSkipped   prometheus.Counter
	MirrorWriteFailures prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ScansRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scanpoint_scans_recorded_total",
			Help: "Total number of scan events appended to the ledger",
		}),
		UnknownCards: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scanpoint_unknown_cards_total",
			Help: "Total number of scans that resolved to no identity",
		}),
		CardsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scanpoint_cards_registered_total",
			Help: "Total number of identities created by registration or import",
		}),
		ImportRowsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scanpoint_import_rows_skipped_total",
			Help: "Total number of roster import rows skipped as duplicate or malformed",
		}),
		MirrorWriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scanpoint_mirror_write_failures_total",
			Help: "Total number of best-effort mirror appends that failed",
		}),
	}
}
