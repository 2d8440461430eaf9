package controllers

import (
	"net/http"

	"github.com/angelmondragon/genmedia-backend/api/middleware"
	"github.com/angelmondragon/genmedia-backend/api/responses"
	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/genmedia-backend/pkg/errors"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
)

// requireActor writes 401 and reports false when Auth did not run.
func requireActor(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (*models.User, bool) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return nil, false
	}
	return user, true
}
