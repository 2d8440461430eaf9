package controllers

import (
	"net/http"

	"github.com/angelmondragon/genmedia-backend/api/responses"
	"github.com/angelmondragon/genmedia-backend/api/validators"
	"github.com/angelmondragon/genmedia-backend/internal/brandguidelines"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
)

const maxGuidelineNameLength = 200

// BrandGuidelineCreate handles the multipart upload: file, name and an
// optional workspace_id (absent means the global guideline).
func BrandGuidelineCreate(svc brandguidelines.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		file, err := validators.ParseMultipartUpload(w, r, "file", maxBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		workspaceID, err := validators.ParseOptionalUUID(validators.FormString(r, "workspace_id"), "workspace_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		guideline, err := svc.Create(r.Context(), actor, brandguidelines.CreateInput{
			Name:        validators.CleanText(r.FormValue("name"), maxGuidelineNameLength),
			WorkspaceID: workspaceID,
			Filename:    file.Filename,
			Data:        file.Data,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, guideline)
	}
}

func BrandGuidelineGet(svc brandguidelines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		guideline, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, guideline)
	}
}

func WorkspaceBrandGuideline(svc brandguidelines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		guideline, err := svc.GetByWorkspace(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, guideline)
	}
}

func BrandGuidelineDelete(svc brandguidelines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
