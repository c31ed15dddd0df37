package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fentz26/petalpath/internal/api"
	"github.com/fentz26/petalpath/internal/audit"
	"github.com/fentz26/petalpath/internal/scheduler"
	"github.com/fentz26/petalpath/internal/store"
	"github.com/fentz26/petalpath/internal/strategy"
)

var (
	listenAddr string
	dbPath     string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start the petalpath daemon",
	Long:  `Starts the petalpath daemon which serves the HTTP API and runs queued solves.`,
	RunE:  runDaemon,
}

func init() {
	daemonCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address for the API server (overrides config)")
	daemonCmd.Flags().StringVar(&dbPath, "db", "", "Path to SQLite database (overrides config)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Server.Listen = listenAddr
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := cfg.NewLogger(os.Stderr)
	logger.Info("starting petalpath daemon", "version", api.Version, "db", cfg.Database.Path)

	// Initialize store
	s, err := store.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() {
		logger.Info("closing database connection")
		if err := s.Close(); err != nil {
			logger.Error("database close error", "error", err)
		}
	}()

	// Initialize components
	decisions := audit.NewDecisionWriter(s)
	registry := strategy.NewRegistry(cfg.Strategies.Allowed, cfg.SolverOptions(logger.With("component", "solver"))...)

	// Create service and server
	service := api.NewService(s, decisions, registry,
		api.WithLogger(logger.With("component", "api")),
		api.WithDefaultStrategy(cfg.Strategies.Default),
		api.WithLockTTL(time.Duration(cfg.Server.LockTTLSec)*time.Second),
		api.WithGenerateOptions(cfg.GenerateOptions(0)),
	)
	server := api.NewServer(service, cfg.Server.Listen)

	// Create and start scheduler
	sched := scheduler.New(s, decisions, service, cfg.Scheduler, logger.With("component", "scheduler"))
	server.SetScheduler(sched)

	sched.Start()
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP server")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("daemon stopped", "error", err)
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
