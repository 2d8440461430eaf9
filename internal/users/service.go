package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/genmedia-backend/pkg/auth"
	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	"github.com/angelmondragon/genmedia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/genmedia-backend/pkg/errors"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
	"github.com/angelmondragon/genmedia-backend/pkg/pagination"
)

// SearchBounds are the page-size limits of the admin user listing.
var SearchBounds = pagination.Bounds{Default: 20, Max: 100}

type userRepository interface {
	CreateIfNotExists(ctx context.Context, email, name, picture string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Search(ctx context.Context, req pagination.Request, bounds pagination.Bounds) (*pagination.Page[models.User], error)
	UpdateRoles(ctx context.Context, id uuid.UUID, update models.UserRolesUpdate) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service manages user profiles.
type Service interface {
	// Provision returns the user for identity, creating it with the default
	// role on first sight.
	Provision(ctx context.Context, identity auth.Identity) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	Search(ctx context.Context, input SearchInput) (*pagination.Page[UserDTO], error)
	SetRoles(ctx context.Context, id uuid.UUID, input RolesInput) (*UserDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo userRepository
	logg *logger.Logger
}

// NewService wires the users service.
func NewService(repo userRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Provision(ctx context.Context, identity auth.Identity) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "token carries no email")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	user, err = s.repo.CreateIfNotExists(ctx, email, identity.Name, identity.Picture)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "provision user")
	}
	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "user provisioned")
	return user, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) Search(ctx context.Context, input SearchInput) (*pagination.Page[UserDTO], error) {
	req := pagination.Request{StartAfter: input.StartAfter, Limit: input.Limit}
	if input.Email != nil && strings.TrimSpace(*input.Email) != "" {
		req.Filters = append(req.Filters, pagination.Eq("email", strings.ToLower(strings.TrimSpace(*input.Email))))
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role").
				WithDetails(map[string]string{"role": string(*input.Role)})
		}
		req.Scopes = append(req.Scopes, HasRole(*input.Role))
	}

	page, err := s.repo.Search(ctx, req, SearchBounds)
	if err != nil {
		return nil, err
	}
	return pagination.Map(page, func(u models.User) UserDTO { return *FromModel(&u) }), nil
}

func (s *service) SetRoles(ctx context.Context, id uuid.UUID, input RolesInput) (*UserDTO, error) {
	if len(input.Roles) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one role is required")
	}
	seen := make(map[enums.UserRole]bool, len(input.Roles))
	roles := make([]enums.UserRole, 0, len(input.Roles))
	for _, role := range input.Roles {
		if !role.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role").
				WithDetails(map[string]string{"roles": string(role)})
		}
		if seen[role] {
			continue
		}
		seen[role] = true
		roles = append(roles, role)
	}

	user, err := s.repo.UpdateRoles(ctx, id, models.UserRolesUpdate{Roles: roles})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"target_user_id": id.String(), "roles": user.Roles}), "user roles updated")
	return FromModel(user), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}
