// scanpointd wires the scan-point core and runs its two surfaces: stdin as
// the keyboard-emulating RFID reader (plus operator commands) and a small
// ops listener for health and metrics. Business logic lives in the internal
// services packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"scanpoint/internal/ledger/mirror"
	ledgerservice "scanpoint/internal/ledger/service"
	ledgerstore "scanpoint/internal/ledger/store"
	"scanpoint/internal/ops"
	"scanpoint/internal/platform/config"
	"scanpoint/internal/platform/httpserver"
	"scanpoint/internal/platform/logger"
	"scanpoint/internal/platform/metrics"
	registryservice "scanpoint/internal/registry/service"
	registrystore "scanpoint/internal/registry/store"
	"scanpoint/internal/scanner"
	"scanpoint/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	var (
		db            *sql.DB
		identityStore registryservice.Store
		scanStore     ledgerservice.Store
	)
	if cfg.PostgresDSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("open database", slog.Any("error", err))
			os.Exit(1)
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err != nil {
			log.Error("database unreachable", slog.Any("error", err))
			os.Exit(1)
		}
		identityStore = registrystore.NewPostgres(db)
		scanStore = ledgerstore.NewPostgres(db)
	} else {
		log.Info("SCANPOINT_POSTGRES_DSN not set, using in-memory stores")
		identityStore = registrystore.NewInMemory()
		scanStore = ledgerstore.NewInMemory()
	}

	registry := registryservice.New(identityStore,
		registryservice.WithLogger(log),
		registryservice.WithMetrics(m))
	ledger := ledgerservice.New(scanStore, registry, mirror.NewFile(cfg.MirrorPath),
		ledgerservice.WithLogger(log),
		ledgerservice.WithMetrics(m))

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	initialize := func(ctx context.Context) error {
		if err := registry.Initialize(ctx); err != nil {
			return err
		}
		return ledger.Initialize(ctx)
	}
	// Schema and seed rows land atomically on the durable path.
	var initErr error
	if db != nil {
		initErr = tx.Run(initCtx, db, initialize)
	} else {
		initErr = initialize(initCtx)
	}
	if initErr != nil {
		log.Error("initialize stores", slog.Any("error", initErr))
		os.Exit(1)
	}

	console := newConsole(os.Stdout)
	svc := scanner.New(registry, ledger, console,
		scanner.WithLogger(log),
		scanner.WithMetrics(m))

	srv := httpserver.New(cfg.OpsAddr, ops.NewRouter())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("ops listener started", slog.String("addr", cfg.OpsAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		defer stop()
		console.run(gctx, svc, os.Stdin, cfg.RecentLimit)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("shutdown", slog.Any("error", err))
		os.Exit(1)
	}
}
