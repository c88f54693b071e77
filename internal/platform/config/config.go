package config

import (
	"os"
	"strconv"
)

// Config carries every external location and tunable the core needs. It is
// built once in main and passed at construction so no package reads process
// wide state on its own.
type Config struct {
	// PostgresDSN selects the durable store. Empty means the in-memory
	// stores, which is the development default.
	PostgresDSN string
	// MirrorPath is the flat-file scan mirror location.
	MirrorPath string
	// OpsAddr is the listen address for the /healthz + /metrics surface.
	OpsAddr string
	// RecentLimit caps the recent-scans query when the caller passes none.
	RecentLimit int
}

// DefaultRecentLimit bounds recent-scan queries when unconfigured.
const DefaultRecentLimit = 50

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	mirror := os.Getenv("SCANPOINT_MIRROR_FILE")
	if mirror == "" {
		mirror = "scan_log.csv"
	}

	opsAddr := os.Getenv("SCANPOINT_OPS_ADDR")
	if opsAddr == "" {
		opsAddr = ":9180"
	}

	limit := DefaultRecentLimit
	if raw := os.Getenv("SCANPOINT_RECENT_LIMIT"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	return Config{
		PostgresDSN: os.Getenv("SCANPOINT_POSTGRES_DSN"),
		MirrorPath:  mirror,
		OpsAddr:     opsAddr,
		RecentLimit: limit,
	}
}
