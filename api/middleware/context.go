package middleware

import (
	"context"

	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
)

type contextKey string

const ctxUser contextKey = "user"

// UserFromContext returns the provisioned caller, or nil outside Auth.
func UserFromContext(ctx context.Context) *models.User {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxUser).(*models.User); ok {
		return v
	}
	return nil
}

func UserIDFromContext(ctx context.Context) string {
	if u := UserFromContext(ctx); u != nil {
		return u.ID.String()
	}
	return ""
}

// WithUser injects the caller into the context for downstream handlers.
func WithUser(ctx context.Context, user *models.User) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUser, user)
}
