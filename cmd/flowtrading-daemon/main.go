// Command flowtrading-daemon runs the batch-auction marketplace
// server: it serves the REST surface of spec section 6.1, drives the
// auto-solve mailbox in the background on both bid-mutation wake-ups
// and a fixed schedule, and exposes /metrics for Prometheus scraping.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andrescamacho/flowtrading-go/internal/adapters/httpapi"
	"github.com/andrescamacho/flowtrading-go/internal/adapters/metrics"
	"github.com/andrescamacho/flowtrading-go/internal/adapters/persistence"
	"github.com/andrescamacho/flowtrading-go/internal/application/autosolve"
	"github.com/andrescamacho/flowtrading-go/internal/application/compiler"
	"github.com/andrescamacho/flowtrading-go/internal/application/runner"
	"github.com/andrescamacho/flowtrading-go/internal/application/solver"
	"github.com/andrescamacho/flowtrading-go/internal/application/solver/activeset"
	"github.com/andrescamacho/flowtrading-go/internal/domain/bidbook"
	"github.com/andrescamacho/flowtrading-go/internal/domain/product"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
	"github.com/andrescamacho/flowtrading-go/internal/infrastructure/config"
	"github.com/andrescamacho/flowtrading-go/internal/infrastructure/database"
	"github.com/andrescamacho/flowtrading-go/internal/infrastructure/pidfile"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	pidPath := flag.String("pidfile", "", "path to PID file (single-instance enforcement)")
	flag.Parse()

	cfg := config.MustLoadConfig(*configPath)
	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	if *pidPath != "" {
		pf := pidfile.New(*pidPath)
		if err := pf.Acquire(); err != nil {
			logger.Error("failed to acquire pid file", "error", err)
			os.Exit(1)
		}
		defer pf.Release()
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		logger.Error("failed to auto-migrate database", "error", err)
		os.Exit(1)
	}

	clock := shared.NewRealClock()

	edgeStore := persistence.NewGormProductStore(db)
	bookStore := persistence.NewGormBidBookStore(db)
	batchStore := persistence.NewGormBatchStore(db)

	existence := product.NewExistenceChecker(edgeStore)
	registry := product.NewRegistry(edgeStore, clock)
	book := bidbook.NewBook(bookStore, existence, clock)

	gather := compiler.NewGatherBatchHandler(book, registry)
	engine := activeset.New()
	driver := solver.NewDriver(engine, solver.DefaultTolerances)
	run := runner.New(gather, driver, batchStore, cfg.Schedule.TimeUnitSeconds, cfg.Schedule.SolveTimeout)

	mailbox := autosolve.New(run, clock, logger)

	if cfg.Metrics.Enabled {
		setupMetrics(logger)
		go serveMetrics(cfg.Metrics, logger)
	}

	verifier := httpapi.NewTokenVerifier(cfg.Secret.JWTSigningKey)
	router := httpapi.NewRouter(httpapi.Deps{
		Book:       book,
		Registry:   registry,
		EdgeStore:  edgeStore,
		BatchStore: batchStore,
		Runner:     run,
		Gather:     gather,
		Mailbox:    mailbox,
		Verifier:   verifier,
		Clock:      clock,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go mailbox.Run(ctx)
	go runSchedule(ctx, mailbox, cfg.Schedule.Period)

	go func() {
		logger.Info("serving", "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped unexpectedly", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// runSchedule wakes the auto-solve mailbox at every tick of period,
// guaranteeing a minimum batch cadence even when no bid mutation
// arrives to trigger one (spec section 6.3's schedule.every).
func runSchedule(ctx context.Context, mailbox *autosolve.Mailbox, period time.Duration) {
	if period <= 0 {
		return
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mailbox.Notify()
		}
	}
}

func setupMetrics(logger *slog.Logger) {
	metrics.InitRegistry()
	collectors := []interface{ Register() error }{
		metrics.NewSolverMetricsCollector(),
		metrics.NewBatchMetricsCollector(),
		metrics.NewHTTPMetricsCollector(),
	}
	for _, c := range collectors {
		if err := c.Register(); err != nil {
			logger.Error("failed to register metrics collector", "error", err)
			os.Exit(1)
		}
		switch typed := c.(type) {
		case *metrics.SolverMetricsCollector:
			metrics.SetGlobalSolverCollector(typed)
		case *metrics.BatchMetricsCollector:
			metrics.SetGlobalBatchCollector(typed)
		case *metrics.HTTPMetricsCollector:
			metrics.SetGlobalHTTPCollector(typed)
		}
	}
}

func serveMetrics(cfg config.MetricsConfig, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	logger.Info("serving metrics", "address", addr, "path", cfg.Path)
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server stopped unexpectedly", "error", err)
	}
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	out := os.Stdout
	if cfg.Output == "stderr" {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.IncludeCaller}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return slog.New(handler)
}
