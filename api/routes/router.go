package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/genmedia-backend/api/controllers"
	"github.com/angelmondragon/genmedia-backend/api/middleware"
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
	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	"github.com/angelmondragon/genmedia-backend/pkg/enums"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/genmedia-backend/pkg/redis"
)

// RedisStore is the slice of the Redis client the HTTP layer needs.
type RedisStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type MediaPresenter interface {
	Present(ctx context.Context, item models.MediaItem) enrich.MediaItemResponse
}

// Dependencies are the services mounted under /api/v1.
type Dependencies struct {
	Config    *config.Config
	Logger    *logger.Logger
	Redis     RedisStore
	Readiness []controllers.ReadinessCheck
	Metrics   http.Handler

	Users           users.Service
	Generation      generation.Service
	Presenter       MediaPresenter
	Gallery         media.Service
	SourceAssets    sourceassets.Service
	Workspaces      workspaces.Service
	BrandGuidelines brandguidelines.Service
	Templates       templates.Service
	Prompts         *prompts.Assistant
	Upscale         *upscale.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg, logg := deps.Config, deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness...))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	generatePolicy := middleware.RateLimitPolicy{
		Name:   "generate",
		Window: cfg.RateLimit.GenerationWindow,
		Limit:  cfg.RateLimit.GenerationLimit,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Auth, deps.Users, logg))
		r.Use(middleware.Idempotency(deps.Redis, cfg.Redis.IdempotencyTTL, logg))

		r.Route("/generate", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleCreator))
			r.Use(middleware.RateLimit(generatePolicy, deps.Redis, logg))
			r.Post("/images", controllers.GenerateMedia(generation.KindImage, deps.Generation, deps.Presenter, logg))
			r.Post("/videos", controllers.GenerateMedia(generation.KindVideo, deps.Generation, deps.Presenter, logg))
			r.Post("/vto", controllers.GenerateFrom[generation.TryOnRequest](generation.KindTryOn, deps.Generation, deps.Presenter, logg))
			r.Post("/edit", controllers.GenerateFrom[generation.EditRequest](generation.KindEdit, deps.Generation, deps.Presenter, logg))
			r.Post("/recontext", controllers.GenerateFrom[generation.RecontextRequest](generation.KindRecontext, deps.Generation, deps.Presenter, logg))
		})

		r.Route("/prompts", func(r chi.Router) {
			r.Post("/rewrite", controllers.PromptRewrite(deps.Prompts, logg))
			r.Get("/random", controllers.PromptRandom(deps.Prompts, logg))
		})

		r.With(middleware.RequireRole(logg, enums.UserRoleCreator)).
			Post("/images/upscale", controllers.ImageUpscale(deps.Upscale, logg))

		r.Route("/gallery", func(r chi.Router) {
			r.Post("/search", controllers.GallerySearch(deps.Gallery, logg))
			r.Get("/items/{id}", controllers.GalleryItem(deps.Gallery, logg))
		})

		r.Route("/source-assets", func(r chi.Router) {
			r.Post("/", controllers.SourceAssetUpload(deps.SourceAssets, cfg.Media.MaxAssetUploadBytes, logg))
			r.Post("/search", controllers.SourceAssetSearch(deps.SourceAssets, logg))
			r.Get("/vto", controllers.SourceAssetVTO(deps.SourceAssets, logg))
			r.Get("/{id}", controllers.SourceAssetGet(deps.SourceAssets, logg))
			r.With(middleware.RequireRole(logg, enums.UserRoleAdmin)).
				Delete("/{id}", controllers.SourceAssetDelete(deps.SourceAssets, logg))
		})

		r.Route("/workspaces", func(r chi.Router) {
			r.Post("/", controllers.WorkspaceCreate(deps.Workspaces, logg))
			r.Get("/", controllers.WorkspaceList(deps.Workspaces, logg))
			r.Get("/{id}", controllers.WorkspaceGet(deps.Workspaces, logg))
			r.Post("/{id}/invite", controllers.WorkspaceInvite(deps.Workspaces, logg))
			r.Get("/{id}/brand-guideline", controllers.WorkspaceBrandGuideline(deps.BrandGuidelines, logg))
		})

		r.Route("/brand-guidelines", func(r chi.Router) {
			r.Post("/", controllers.BrandGuidelineCreate(deps.BrandGuidelines, cfg.Media.MaxGuidelineBytes, logg))
			r.Get("/{id}", controllers.BrandGuidelineGet(deps.BrandGuidelines, logg))
			r.Delete("/{id}", controllers.BrandGuidelineDelete(deps.BrandGuidelines, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", controllers.UserMe(logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))
				r.Post("/search", controllers.UserSearch(deps.Users, logg))
				r.Get("/{id}", controllers.UserGet(deps.Users, logg))
				r.Put("/{id}/roles", controllers.UserSetRoles(deps.Users, logg))
				r.Delete("/{id}", controllers.UserDelete(deps.Users, logg))
			})
		})

		r.Route("/templates", func(r chi.Router) {
			r.Post("/search", controllers.TemplateSearch(deps.Templates, logg))
			r.Get("/{id}", controllers.TemplateGet(deps.Templates, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))
				r.Post("/from-media/{media_item_id}", controllers.TemplateFromMedia(deps.Templates, logg))
				r.Patch("/{id}", controllers.TemplateUpdate(deps.Templates, logg))
				r.Delete("/{id}", controllers.TemplateDelete(deps.Templates, logg))
			})
		})
	})

	return r
}
