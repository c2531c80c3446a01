package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/sensor-warning-map/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/sensor-warning-map/internal/adapter/kafka"
	"github.com/couchcryptid/sensor-warning-map/internal/adapter/mapbox"
	"github.com/couchcryptid/sensor-warning-map/internal/adapter/sensorcsv"
	"github.com/couchcryptid/sensor-warning-map/internal/adapter/smhi"
	"github.com/couchcryptid/sensor-warning-map/internal/adapter/webhook"
	"github.com/couchcryptid/sensor-warning-map/internal/catalog"
	"github.com/couchcryptid/sensor-warning-map/internal/config"
	"github.com/couchcryptid/sensor-warning-map/internal/observability"
	"github.com/couchcryptid/sensor-warning-map/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := sensorcsv.NewRegistry(nil)
	if cfg.SensorsFile != "" {
		loaded, err := sensorcsv.Load(cfg.SensorsFile)
		if err != nil {
			logger.Error("failed to load sensors", "path", cfg.SensorsFile, "error", err)
			os.Exit(1)
		}
		registry = sensorcsv.NewRegistry(loaded)
		logger.Info("sensors loaded", "path", cfg.SensorsFile, "count", len(loaded))
	}

	// Place names are resolved once at startup (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		registry.Enrich(ctx, geocoder, logger)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var sinks []pipeline.Sink
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, pipeline.Sink{Name: "kafka", Loader: writer})
	}
	if len(cfg.WebhookURLs) > 0 {
		sinks = append(sinks, pipeline.Sink{Name: "webhook", Loader: webhook.NewNotifier(cfg.WebhookURLs, cfg.WebhookTimeout, logger)})
	}
	loader := pipeline.NewFanOutLoader(logger, metrics, sinks...)
	logger.Info("notification sinks configured", "count", loader.Len())

	warnings := catalog.New(nil)
	p := pipeline.New(
		smhi.NewClient(cfg.SMHIURL, cfg.SMHITimeout, logger),
		warnings,
		registry,
		pipeline.NewTransformer(),
		loader,
		logger,
		metrics,
		pipeline.WithInterval(cfg.PollInterval),
	)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, warnings, registry, cfg.APIToken, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start warning poller.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("poller error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
