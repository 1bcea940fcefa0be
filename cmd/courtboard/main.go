package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/courtboard/internal/application"
	"github.com/example/courtboard/internal/config"
	"github.com/example/courtboard/internal/events"
	httptransport "github.com/example/courtboard/internal/http"
	"github.com/example/courtboard/internal/metrics"
	"github.com/example/courtboard/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	idGenerator := func() string { return uuid.NewString() }

	if err := storage.Migrate(context.Background(), cfg.CourtCount, idGenerator); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	recorder, metricsHandler, shutdownMetrics, err := metrics.Setup(ctx, metrics.TelemetryConfig{
		Enabled:     cfg.MetricsEnabled,
		ServiceName: "courtboard",
	})
	if err != nil {
		logger.Error("failed to set up telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if merr := shutdownMetrics(shutdownCtx); merr != nil {
			logger.Error("failed to shut down telemetry", "error", merr)
		}
	}()

	bus := events.NewBus()

	orchestrator := application.NewOrchestrator(
		storage,
		storage,
		bus,
		recorder,
		application.Settings{
			CourtCount:        cfg.CourtCount,
			SinglesMinutes:    cfg.SinglesMinutes,
			DoublesMinutes:    cfg.DoublesMinutes,
			AvgGameMinutes:    cfg.AvgGameMinutes,
			MinSessionMinutes: cfg.MinSessionMinutes,
			MaxSessionMinutes: cfg.MaxSessionMinutes,
			SinglesOnlyCourts: cfg.SinglesOnlyCourts,
		},
		idGenerator,
		time.Now,
		logger,
	)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Courts:   httptransport.NewCourtHandler(orchestrator, logger),
		Waitlist: httptransport.NewWaitlistHandler(orchestrator, logger),
		Blocks:   httptransport.NewBlockHandler(orchestrator, logger),
		Roster:   httptransport.NewRosterHandler(orchestrator, logger),
		Metrics:  metricsHandler,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger, recorder),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("courtboard API listening", "addr", server.Addr, "courts", cfg.CourtCount)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
