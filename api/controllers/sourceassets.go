package controllers

import (
	"net/http"

	"github.com/angelmondragon/genmedia-backend/api/responses"
	"github.com/angelmondragon/genmedia-backend/api/validators"
	"github.com/angelmondragon/genmedia-backend/internal/sourceassets"
	"github.com/angelmondragon/genmedia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/genmedia-backend/pkg/errors"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
)

// SourceAssetUpload handles the multipart upload: file, scope, asset_type
// and workspace_id.
func SourceAssetUpload(svc sourceassets.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
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

		input := sourceassets.UploadInput{
			Filename:    file.Filename,
			ContentType: file.ContentType,
			Data:        file.Data,
		}
		if raw := validators.FormString(r, "scope"); raw != nil {
			scope, err := enums.ParseAssetScope(*raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid scope"))
				return
			}
			input.Scope = &scope
		}
		if raw := validators.FormString(r, "asset_type"); raw != nil {
			assetType, err := enums.ParseAssetType(*raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid asset_type"))
				return
			}
			input.AssetType = &assetType
		}
		input.WorkspaceID, err = validators.ParseOptionalUUID(validators.FormString(r, "workspace_id"), "workspace_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		asset, err := svc.Upload(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, asset)
	}
}

func SourceAssetSearch(svc sourceassets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		var payload sourceassets.SearchInput
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.Search(r.Context(), actor, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func SourceAssetVTO(svc sourceassets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assets, err := svc.VTO(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assets)
	}
}

func SourceAssetGet(svc sourceassets.Service, logg *logger.Logger) http.HandlerFunc {
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
		asset, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, asset)
	}
}

func SourceAssetDelete(svc sourceassets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
