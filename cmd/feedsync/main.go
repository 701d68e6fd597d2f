package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/disaster-feed-sync/internal/adapter/gdacs"
	"github.com/couchcryptid/disaster-feed-sync/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/disaster-feed-sync/internal/adapter/kafka"
	"github.com/couchcryptid/disaster-feed-sync/internal/adapter/store"
	"github.com/couchcryptid/disaster-feed-sync/internal/config"
	"github.com/couchcryptid/disaster-feed-sync/internal/domain"
	"github.com/couchcryptid/disaster-feed-sync/internal/observability"
	"github.com/couchcryptid/disaster-feed-sync/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ref, err := domain.LoadReferenceData()
	if err != nil {
		logger.Error("failed to load reference data", "error", err)
		os.Exit(1)
	}
	normalizer := domain.NewNormalizer(domain.NewGeoResolver(ref), domain.DefaultTypeMapper())
	logger.Info("reference data loaded", "countries", len(ref.Countries), "oceans", len(ref.Oceans))

	db, err := store.Open(cfg.DatabasePath, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err, "path", cfg.DatabasePath)
		os.Exit(1)
	}

	fetcher := gdacs.NewClient(cfg.FeedURL, cfg.FeedTimeout, metrics, logger)

	// Notifications are feature-flagged via NOTIFY_ENABLED.
	var (
		notifier   pipeline.Notifier
		dispatcher *pipeline.Dispatcher
		alerts     *kafkaadapter.AlertWriter
		emails     *kafkaadapter.EmailRequestWriter
	)
	if cfg.NotifyEnabled {
		alerts = kafkaadapter.NewAlertWriter(cfg.KafkaBrokers, cfg.KafkaAlertTopic, logger)
		emails = kafkaadapter.NewEmailRequestWriter(cfg.KafkaBrokers, cfg.KafkaEmailTopic, logger)
		dispatcher = pipeline.NewDispatcher(alerts, emails, clock, pipeline.DispatcherConfig{
			Delay:      cfg.NotifyDelay,
			MaxPerPass: cfg.NotifyMaxPerPass,
			Timeout:    cfg.NotifyTimeout,
		}, logger, metrics)
		notifier = dispatcher
		logger.Info("notifications enabled",
			"alert_topic", cfg.KafkaAlertTopic,
			"email_topic", cfg.KafkaEmailTopic,
			"delay", cfg.NotifyDelay,
			"max_per_pass", cfg.NotifyMaxPerPass,
		)
	} else {
		logger.Info("notifications disabled")
	}

	reconciler := pipeline.NewReconciler(fetcher, normalizer, db, notifier, clock, cfg.RealTimeWindow, logger, metrics)
	scheduler := pipeline.NewScheduler(reconciler, clock, cfg.PollInterval, logger)

	srv := httpadapter.NewServer(cfg.HTTPAddr, reconciler, reconciler, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start polling.
	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		if err := scheduler.Run(ctx); err != nil {
			logger.Error("scheduler error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	select {
	case <-schedulerDone:
	case <-shutdownCtx.Done():
		logger.Warn("scheduler did not stop before shutdown timeout")
	}

	if dispatcher != nil {
		if err := dispatcher.Shutdown(shutdownCtx); err != nil {
			logger.Error("notification dispatcher shutdown error", "error", err)
		}
		if err := alerts.Close(); err != nil {
			logger.Error("kafka alert writer close error", "error", err)
		}
		if err := emails.Close(); err != nil {
			logger.Error("kafka email writer close error", "error", err)
		}
	}
	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("shutdown complete")
}
