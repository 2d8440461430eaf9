package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/genmedia-backend/api/responses"
	"github.com/angelmondragon/genmedia-backend/api/validators"
	"github.com/angelmondragon/genmedia-backend/internal/prompts"
	"github.com/angelmondragon/genmedia-backend/internal/upscale"
	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/genmedia-backend/pkg/errors"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
)

type promptAssistant interface {
	Rewrite(ctx context.Context, in prompts.RewriteInput) (string, error)
	Random(ctx context.Context, target prompts.Target) (string, error)
}

type imageUpscaler interface {
	Upscale(ctx context.Context, actor *models.User, req upscale.Request) (*upscale.Result, error)
}

type rewrittenPrompt struct {
	RewrittenPrompt string `json:"rewritten_prompt"`
}

type randomPrompt struct {
	Prompt string `json:"prompt"`
}

func PromptRewrite(svc promptAssistant, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload prompts.RewriteInput
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := svc.Rewrite(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rewrittenPrompt{RewrittenPrompt: out})
	}
}

// PromptRandom reads the target from ?target_type=, defaulting to image.
func PromptRandom(svc promptAssistant, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := prompts.Target(r.URL.Query().Get("target_type"))
		if target == "" {
			target = prompts.TargetImage
		}
		if !target.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "target_type must be image or video"))
			return
		}
		out, err := svc.Random(r.Context(), target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, randomPrompt{Prompt: out})
	}
}

func ImageUpscale(svc imageUpscaler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		var payload upscale.Request
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		res, err := svc.Upscale(r.Context(), actor, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, res)
	}
}
