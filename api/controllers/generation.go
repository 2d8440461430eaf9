package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/genmedia-backend/api/responses"
	"github.com/angelmondragon/genmedia-backend/api/validators"
	"github.com/angelmondragon/genmedia-backend/internal/enrich"
	"github.com/angelmondragon/genmedia-backend/internal/generation"
	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
)

type mediaPresenter interface {
	Present(ctx context.Context, item models.MediaItem) enrich.MediaItemResponse
}

// GenerateMedia accepts a generation request and answers 202 with the
// PROCESSING placeholder; the worker fills it in later.
func GenerateMedia(kind generation.Kind, svc generation.Service, presenter mediaPresenter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload generation.GenerateRequest
		submitJob(w, r, kind, svc, presenter, logg, &payload, func() generation.GenerateRequest { return payload })
	}
}

// GenerateFrom is GenerateMedia for the typed try-on, edit and recontext
// bodies.
func GenerateFrom[P generation.JobPayload](kind generation.Kind, svc generation.Service, presenter mediaPresenter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload P
		submitJob(w, r, kind, svc, presenter, logg, &payload, func() generation.GenerateRequest { return payload.GenerateRequest() })
	}
}

func submitJob(w http.ResponseWriter, r *http.Request, kind generation.Kind, svc generation.Service, presenter mediaPresenter, logg *logger.Logger, dest any, build func() generation.GenerateRequest) {
	actor, ok := requireActor(w, r, logg)
	if !ok {
		return
	}
	if err := validators.DecodeJSONBody(w, r, dest); err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}

	item, err := svc.CreateJob(r.Context(), actor, kind, build())
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}

	responses.WriteSuccessStatus(w, http.StatusAccepted, presenter.Present(r.Context(), *item))
}
