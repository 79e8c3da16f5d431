// Package main implements the nuke server: a sharded, network-accessible
// key-value store with JSON snapshots.
//
// The server:
//   - Opens (or resumes) a fixed number of partitions from the data path
//   - Serves the line protocol over TCP, one goroutine per connection
//   - Optionally serves an HTTP admin API
//   - Optionally snapshots every partition on a fixed interval
//   - Persists every partition on shutdown unless disabled
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│              nuke-server                │
//	├─────────────────────────────────────────┤
//	│  TCP (LISTEN_ADDR):                     │
//	│    get/read/push/pop/keys/count/...     │
//	│  HTTP (ADMIN_ADDR):                     │
//	│    /health /info /partitions /persist   │
//	├─────────────────────────────────────────┤
//	│  Database                               │
//	│    partition_0 … partition_{n-1}        │
//	│  Snapshotter (SNAPSHOT_INTERVAL)        │
//	└─────────────────────────────────────────┘
//
// Configuration is described in package config.
//
// Example usage:
//
//	PARTITION_NUMBER=10 DATA_PATH=/var/lib/nuke ./nuke-server
//
//	$ nc localhost 8080
//	push user:1 alice
//	{"key":"user:1","value":[97,108,105,99,101]}
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dreamware/nuke/internal/config"
	"github.com/dreamware/nuke/internal/database"
	"github.com/dreamware/nuke/internal/logging"
	"github.com/dreamware/nuke/internal/protocol"
	"github.com/dreamware/nuke/internal/server"
)

// shutdownTimeout bounds the HTTP admin server drain
const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet; fall back to a production logger for this one line
		logging.Must("info", false).Fatal("invalid configuration", zap.Error(err))
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		logging.Must("info", false).Fatal("invalid log configuration", zap.Error(err))
	}
	defer logger.Sync()

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

// run opens the database and serves until ctx is canceled.
//
// A corrupt snapshot makes run return before anything listens. On a clean
// stop, every partition is persisted when cfg.PersistOnShutdown is set;
// persistence errors are logged and do not fail the shutdown.
func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	db, err := database.New(cfg.PartitionCount, cfg.DataPath, database.WithLogger(logger))
	if err != nil {
		return err
	}

	tcp := server.New(cfg.ListenAddr, protocol.NewHandler(db, logger), logger)

	var admin *http.Server
	if cfg.AdminAddr != "" {
		admin = &http.Server{
			Addr:              cfg.AdminAddr,
			Handler:           newAdminMux(db, logger),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	snapshotter := database.NewSnapshotter(db, cfg.SnapshotInterval, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errc := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcp.ListenAndServe(ctx); err != nil && !errors.Is(err, server.ErrServerClosed) {
			errc <- err
		}
		cancel()
	}()

	if admin != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("admin listening", zap.String("addr", cfg.AdminAddr))
			if err := admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
				cancel()
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		snapshotter.Start(ctx)
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	tcp.Shutdown()
	if admin != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := admin.Shutdown(shutdownCtx); err != nil {
			logger.Warn("admin shutdown error", zap.Error(err))
		}
		cancelShutdown()
	}
	snapshotter.Stop()
	wg.Wait()

	if cfg.PersistOnShutdown {
		if err := db.PersistAll(); err != nil {
			logger.Error("final persist failed", zap.Error(err))
		} else {
			logger.Info("final persist complete", zap.Int("entries", db.CountAll()))
		}
	}

	select {
	case err := <-errc:
		return err
	default:
		return nil
	}
}
