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

	"github.com/angelmondragon/genmedia-backend/api/controllers"
	"github.com/angelmondragon/genmedia-backend/api/routes"
	"github.com/angelmondragon/genmedia-backend/internal/brandguidelines"
	"github.com/angelmondragon/genmedia-backend/internal/enrich"
	"github.com/angelmondragon/genmedia-backend/internal/generation"
	"github.com/angelmondragon/genmedia-backend/internal/media"
	"github.com/angelmondragon/genmedia-backend/internal/prompts"
	"github.com/angelmondragon/genmedia-backend/internal/sourceassets"
	"github.com/angelmondragon/genmedia-backend/internal/templates"
	"github.com/angelmondragon/genmedia-backend/internal/upscale"
	"github.com/angelmondragon/genmedia-backend/internal/users"
	"github.com/angelmondragon/genmedia-backend/internal/workspaces"
	"github.com/angelmondragon/genmedia-backend/pkg/config"
	"github.com/angelmondragon/genmedia-backend/pkg/db"
	"github.com/angelmondragon/genmedia-backend/pkg/genai"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
	"github.com/angelmondragon/genmedia-backend/pkg/metrics"
	"github.com/angelmondragon/genmedia-backend/pkg/migrate"
	"github.com/angelmondragon/genmedia-backend/pkg/pubsub"
	"github.com/angelmondragon/genmedia-backend/pkg/redis"
	"github.com/angelmondragon/genmedia-backend/pkg/storage/backend"
	"github.com/angelmondragon/genmedia-backend/pkg/thumbnail"
)

const shutdownTimeout = 20 * time.Second

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	store, closeStore, err := backend.Open(ctx, *cfg, logg)
	requireResource(ctx, logg, "object store", err)
	defer func() {
		if err := closeStore(); err != nil {
			logg.Error(ctx, "error closing object store", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	genMetrics := metrics.NewGenerationMetrics(registry)

	model, err := genai.New(ctx, cfg.GCP, cfg.GenAI, logg, genai.WithRetryHook(genMetrics.IncRetry))
	requireResource(ctx, logg, "genai", err)

	catalogue, err := prompts.Load()
	requireResource(ctx, logg, "prompt catalogue", err)

	userRepo := users.NewRepository(dbClient.DB())
	workspaceRepo := workspaces.NewRepository(dbClient.DB())
	assetRepo := sourceassets.NewRepository(dbClient.DB())
	mediaRepo := media.NewRepository(dbClient.DB())

	signer, err := enrich.NewSigner(store, cfg.GCS.DownloadURLExpiry, logg, genMetrics)
	requireResource(ctx, logg, "url signer", err)
	presenter := enrich.NewMediaPresenter(signer, assetRepo, mediaRepo)

	userService, err := users.NewService(userRepo, logg)
	requireResource(ctx, logg, "users service", err)

	workspaceService, err := workspaces.NewService(workspaceRepo, userRepo, logg)
	requireResource(ctx, logg, "workspaces service", err)

	gallery, err := media.NewService(mediaRepo, workspaceRepo, presenter)
	requireResource(ctx, logg, "gallery service", err)

	dispatcher, err := generation.NewDispatcher(pubsub.WrapPublisher(pubsubClient.GenerationPublisher()))
	requireResource(ctx, logg, "generation dispatcher", err)
	generationService, err := generation.NewService(mediaRepo, workspaceRepo, assetRepo, dispatcher, genMetrics, logg)
	requireResource(ctx, logg, "generation service", err)

	var autoUpscale sourceassets.Upscaler
	if cfg.FeatureFlags.AutoUpscale {
		autoUpscale = model
	}
	assetService, err := sourceassets.NewService(sourceassets.ServiceParams{
		Repo:       assetRepo,
		Store:      store,
		Thumbnails: thumbnail.New(cfg.Media),
		Presenter:  signer,
		Workspaces: workspaceRepo,
		Users:      userRepo,
		Logger:     logg,
		MaxBytes:   cfg.Media.MaxAssetUploadBytes,
		Upscaler:   autoUpscale,
	})
	requireResource(ctx, logg, "source assets service", err)

	assistant, err := prompts.NewAssistant(model, catalogue, logg)
	requireResource(ctx, logg, "prompt assistant", err)

	upscaleService, err := upscale.NewService(upscale.ServiceParams{
		Model:      model,
		Store:      store,
		Signer:     signer,
		Assets:     assetRepo,
		Media:      mediaRepo,
		Workspaces: workspaceRepo,
		Logger:     logg,
	})
	requireResource(ctx, logg, "upscale service", err)

	extractor, err := brandguidelines.NewExtractor(model, catalogue, logg)
	requireResource(ctx, logg, "guideline extractor", err)
	guidelineService, err := brandguidelines.NewService(brandguidelines.ServiceParams{
		Repo:       brandguidelines.NewRepository(dbClient.DB()),
		Workspaces: workspaceRepo,
		Store:      store,
		Extractor:  extractor,
		Presenter:  signer,
		Logger:     logg,
		MaxBytes:   cfg.Media.MaxGuidelineBytes,
		ChunkBytes: cfg.Media.GuidelineChunkBytes,
	})
	requireResource(ctx, logg, "brand guidelines service", err)

	templateService, err := templates.NewService(templates.ServiceParams{
		Repo:         templates.NewRepository(dbClient.DB()),
		Media:        mediaRepo,
		Writer:       model,
		Instructions: catalogue,
		Presenter:    signer,
		Logger:       logg,
	})
	requireResource(ctx, logg, "templates service", err)

	router := routes.NewRouter(routes.Dependencies{
		Config: cfg,
		Logger: logg,
		Redis:  redisClient,
		Readiness: []controllers.ReadinessCheck{
			{Name: "database", Pinger: dbClient},
			{Name: "redis", Pinger: redisClient},
			{Name: "object_store", Pinger: store},
			{Name: "pubsub", Pinger: pubsubClient},
		},
		Metrics:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Users:           userService,
		Generation:      generationService,
		Presenter:       presenter,
		Gallery:         gallery,
		SourceAssets:    assetService,
		Workspaces:      workspaceService,
		BrandGuidelines: guidelineService,
		Templates:       templateService,
		Prompts:         assistant,
		Upscale:         upscaleService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"serviceKind": cfg.Service.Kind,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(runCtx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(runCtx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
		logg.Info(shutdownCtx, "api server shut down gracefully")
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
