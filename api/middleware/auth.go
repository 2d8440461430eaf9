package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/genmedia-backend/api/responses"
	pkgAuth "github.com/angelmondragon/genmedia-backend/pkg/auth"
	"github.com/angelmondragon/genmedia-backend/pkg/config"
	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/genmedia-backend/pkg/errors"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
)

// Provisioner resolves a verified identity to a stored user, creating it on
// first sight.
type Provisioner interface {
	Provision(ctx context.Context, identity pkgAuth.Identity) (*models.User, error)
}

// Auth validates a bearer token, provisions the caller and seeds the request
// context with the user.
func Auth(cfg config.AuthConfig, users Provisioner, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			token, ok := pkgAuth.BearerToken(raw)
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "bearer token required"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			user, err := users.Provision(r.Context(), claims.Identity())
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithUser(r.Context(), user)
			if logg != nil {
				ctx = logg.WithUserID(ctx, user.ID.String())
				ctx = logg.WithField(ctx, "actor_roles", []string(user.Roles))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
