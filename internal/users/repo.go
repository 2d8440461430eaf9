package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/genmedia-backend/internal/repo"
	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	"github.com/angelmondragon/genmedia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/genmedia-backend/pkg/errors"
	"github.com/angelmondragon/genmedia-backend/pkg/pagination"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	store *repo.Store[models.User]
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{store: repo.NewStore[models.User](db, "user")}
}

// CreateIfNotExists inserts a user with the default role unless one with the
// same email already exists, then returns the stored row.
func (r *Repository) CreateIfNotExists(ctx context.Context, email, name, picture string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user := &models.User{
		Email:   email,
		Name:    name,
		Picture: picture,
		Roles:   pq.StringArray{enums.UserRoleUser.String()},
	}
	err := r.store.DB(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(user).Error
	if err != nil {
		return nil, fmt.Errorf("provision user %s: %w", email, err)
	}
	return r.FindByEmail(ctx, email)
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.store.DB(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.store.Get(ctx, id)
}

// Search returns one newest-first page of users.
func (r *Repository) Search(ctx context.Context, req pagination.Request, bounds pagination.Bounds) (*pagination.Page[models.User], error) {
	return r.store.Query(ctx, req, bounds)
}

// UpdateRoles overwrites the user's roles.
func (r *Repository) UpdateRoles(ctx context.Context, id uuid.UUID, update models.UserRolesUpdate) (*models.User, error) {
	return r.store.Update(ctx, id, update)
}

// Delete removes the user, reporting whether a row existed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.store.Delete(ctx, id)
}

// HasRole scopes a query to users holding role.
func HasRole(role enums.UserRole) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("? = ANY(roles)", role.String())
	}
}
