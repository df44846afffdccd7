package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/covid-state-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/covid-state-etl/internal/adapter/kafka"
	"github.com/couchcryptid/covid-state-etl/internal/adapter/trackingapi"
	"github.com/couchcryptid/covid-state-etl/internal/config"
	"github.com/couchcryptid/covid-state-etl/internal/domain"
	"github.com/couchcryptid/covid-state-etl/internal/observability"
	"github.com/couchcryptid/covid-state-etl/internal/pipeline"
	"github.com/couchcryptid/covid-state-etl/internal/region"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := domain.ValidateRegistry(); err != nil {
		slog.Error("invalid metric registry", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	catalog, err := region.Load(cfg.RegionsFile)
	if err != nil {
		logger.Error("failed to load region catalog", "path", cfg.RegionsFile, "error", err)
		os.Exit(1)
	}
	logger.Info("region catalog loaded", "regions", catalog.Len())

	// History seeding is feature-flagged via TRACKING_API_ENABLED / TRACKING_API_URL.
	var history domain.HistorySource
	if cfg.TrackingAPIEnabled {
		client := trackingapi.NewClient(cfg.TrackingAPIURL, cfg.TrackingAPITimeout, metrics, logger)
		history = trackingapi.NewCachedSource(client, cfg.TrackingAPICacheSize, cfg.TrackingAPICacheTTL, metrics)
		metrics.HistoryEnabled.Set(1)
		logger.Info("history seeding enabled",
			"url", cfg.TrackingAPIURL,
			"cache_size", cfg.TrackingAPICacheSize,
			"cache_ttl", cfg.TrackingAPICacheTTL,
			"timeout", cfg.TrackingAPITimeout)
	} else {
		logger.Info("history seeding disabled")
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)

	windows := pipeline.NewWindowStore(domain.WindowDays)
	snapshots := pipeline.NewSnapshotStore()
	transformer := pipeline.NewTransformer(catalog)
	aggregator := pipeline.NewAggregator(catalog, domain.Metrics(), windows, snapshots, history, logger, metrics)

	p := pipeline.New(reader, transformer, aggregator, writer, logger, metrics, cfg.BatchSize)

	api, err := httpadapter.NewAPI(catalog, domain.Metrics(), windows, snapshots, logger)
	if err != nil {
		logger.Error("failed to build map api", "error", err)
		os.Exit(1)
	}
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, api, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
