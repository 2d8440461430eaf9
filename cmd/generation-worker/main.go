package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/genmedia-backend/internal/analytics/writer"
	"github.com/angelmondragon/genmedia-backend/internal/generation"
	"github.com/angelmondragon/genmedia-backend/internal/media"
	"github.com/angelmondragon/genmedia-backend/internal/prompts"
	"github.com/angelmondragon/genmedia-backend/pkg/bigquery"
	"github.com/angelmondragon/genmedia-backend/pkg/config"
	"github.com/angelmondragon/genmedia-backend/pkg/db"
	"github.com/angelmondragon/genmedia-backend/pkg/genai"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
	"github.com/angelmondragon/genmedia-backend/pkg/metrics"
	"github.com/angelmondragon/genmedia-backend/pkg/migrate"
	"github.com/angelmondragon/genmedia-backend/pkg/pubsub"
	"github.com/angelmondragon/genmedia-backend/pkg/redis"
	pkgstorage "github.com/angelmondragon/genmedia-backend/pkg/storage"
	"github.com/angelmondragon/genmedia-backend/pkg/storage/backend"
	"github.com/angelmondragon/genmedia-backend/pkg/thumbnail"
)

const serviceName = "generation-worker"

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: serviceName})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)
	cfg.Service.Kind = serviceName

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "failed to close database", err)
		}
	}()
	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "failed to close redis client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	store, closeStore, err := backend.Open(ctx, *cfg, logg)
	requireResource(ctx, logg, "object store", err)
	defer func() {
		if err := closeStore(); err != nil {
			logg.Error(ctx, "failed to close object store", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	genMetrics := metrics.NewGenerationMetrics(registry)

	model, err := genai.New(ctx, cfg.GCP, cfg.GenAI, logg, genai.WithRetryHook(genMetrics.IncRetry))
	requireResource(ctx, logg, "genai", err)

	catalogue, err := prompts.Load()
	requireResource(ctx, logg, "prompt catalogue", err)

	deps := []dependency{
		{name: "database", ping: dbClient.Ping},
		{name: "redis", ping: redisClient.Ping},
		{name: "pubsub", ping: pubsubClient.Ping},
		{name: "object_store", ping: store.Ping},
	}

	workerDeps := generation.WorkerDeps{
		Items:        media.NewRepository(dbClient.DB()),
		Claims:       redisClient,
		Remote:       model,
		Store:        store,
		Thumbnails:   thumbnail.New(cfg.Media),
		Instructions: catalogue,
		Metrics:      genMetrics,
		Logger:       logg,
	}

	var events flusher
	if cfg.BigQuery.Enabled() {
		bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
		requireResource(ctx, logg, "bigquery client", err)
		defer func() {
			if err := bqClient.Close(); err != nil {
				logg.Error(ctx, "failed to close bigquery client", err)
			}
		}()
		eventWriter, err := writer.Open(ctx, bqClient, writer.Config{Table: cfg.BigQuery.GenerationTable})
		requireResource(ctx, logg, "generation event writer", err)
		workerDeps.Events = eventWriter
		events = eventWriter
		deps = append(deps, dependency{name: "bigquery", ping: bqClient.Ping})
	}

	worker, err := generation.NewWorker(workerDeps, generation.WorkerConfig{
		PollInterval:  cfg.GenAI.PollInterval,
		PollCeiling:   cfg.GenAI.PollCeiling,
		ClaimTTL:      cfg.Redis.JobClaimTTL,
		PromptRewrite: cfg.FeatureFlags.PromptRewrite,
		OutputBase:    outputBase(cfg.GCS),
		WorkerID:      workerID(),
	})
	requireResource(ctx, logg, "generation worker", err)

	subscription := pubsubClient.GenerationSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "generation subscription", errors.New("subscription not configured"))
	}
	consumer, err := generation.NewConsumer(subscription, worker, logg)
	requireResource(ctx, logg, "generation consumer", err)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	service, err := NewService(ServiceParams{
		Logger:       logg,
		Consumer:     consumer,
		Dependencies: deps,
		Events:       events,
		MetricsServer: &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	})
	requireResource(ctx, logg, "generation worker service", err)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(runCtx, "generation worker ready")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "generation worker failed", err)
		os.Exit(1)
	}
	logg.Info(runCtx, "generation worker shutting down gracefully")
}

// outputBase is where the video model writes its artifacts.
func outputBase(cfg config.GCSConfig) string {
	return fmt.Sprintf("%s://%s", pkgstorage.SchemeGCS, pkgstorage.JoinPath(cfg.BucketName, cfg.GenerationPrefix))
}

func workerID() string {
	if id := os.Getenv("WORKER_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
