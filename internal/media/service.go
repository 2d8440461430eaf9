package media

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/genmedia-backend/internal/enrich"
	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	"github.com/angelmondragon/genmedia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/genmedia-backend/pkg/errors"
	"github.com/angelmondragon/genmedia-backend/pkg/pagination"
)

// GalleryBounds are the page-size limits of gallery search.
var GalleryBounds = pagination.Bounds{Default: 12, Max: 100}

type mediaRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.MediaItem, error)
	Search(ctx context.Context, req pagination.Request, bounds pagination.Bounds) (*pagination.Page[models.MediaItem], error)
}

type workspaceReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error)
}

type presenter interface {
	Present(ctx context.Context, item models.MediaItem) enrich.MediaItemResponse
	PresentAll(ctx context.Context, items []models.MediaItem) []enrich.MediaItemResponse
}

// SearchInput filters the gallery of one workspace.
type SearchInput struct {
	WorkspaceID uuid.UUID              `json:"workspace_id" validate:"required"`
	UserEmail   *string                `json:"user_email,omitempty" validate:"omitempty,email"`
	MimeType    *enums.MimeType        `json:"mime_type,omitempty"`
	Model       *enums.GenerationModel `json:"model,omitempty"`
	Status      *enums.JobStatus       `json:"status,omitempty"`
	Limit       *int                   `json:"limit,omitempty"`
	StartAfter  string                 `json:"start_after,omitempty"`
}

// Service exposes gallery browsing.
type Service interface {
	Search(ctx context.Context, actor *models.User, input SearchInput) (*pagination.Page[enrich.MediaItemResponse], error)
	Get(ctx context.Context, actor *models.User, id uuid.UUID) (*enrich.MediaItemResponse, error)
}

type service struct {
	repo       mediaRepository
	workspaces workspaceReader
	presenter  presenter
}

// NewService constructs the gallery service.
func NewService(repo mediaRepository, workspaces workspaceReader, presenter presenter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("media repository required")
	}
	if workspaces == nil {
		return nil, fmt.Errorf("workspace repository required")
	}
	if presenter == nil {
		return nil, fmt.Errorf("presenter required")
	}
	return &service{repo: repo, workspaces: workspaces, presenter: presenter}, nil
}

func (s *service) Search(ctx context.Context, actor *models.User, input SearchInput) (*pagination.Page[enrich.MediaItemResponse], error) {
	if input.WorkspaceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workspace_id is required")
	}
	if _, err := pagination.ResolveLimit(input.Limit, GalleryBounds); err != nil {
		return nil, err
	}
	if err := s.authorizeWorkspace(ctx, actor, input.WorkspaceID); err != nil {
		return nil, err
	}

	filters := []pagination.Filter{pagination.Eq("workspace_id", input.WorkspaceID)}
	if input.UserEmail != nil && strings.TrimSpace(*input.UserEmail) != "" {
		filters = append(filters, pagination.Eq("user_email", strings.ToLower(strings.TrimSpace(*input.UserEmail))))
	}
	if input.MimeType != nil {
		if !input.MimeType.IsValid() {
			return nil, invalidField("mime_type", "unsupported mime type")
		}
		filters = append(filters, pagination.Eq("mime_type", *input.MimeType))
	}
	if input.Model != nil {
		if !input.Model.IsValid() {
			return nil, invalidField("model", "unsupported model")
		}
		filters = append(filters, pagination.Eq("model", *input.Model))
	}

	status := input.Status
	if !actor.HasRole(enums.UserRoleAdmin) {
		completed := enums.JobStatusCompleted
		status = &completed
	}
	if status != nil {
		if !status.IsValid() {
			return nil, invalidField("status", "unsupported status")
		}
		filters = append(filters, pagination.Eq("status", *status))
	}

	page, err := s.repo.Search(ctx, pagination.Request{
		Filters:    filters,
		StartAfter: input.StartAfter,
		Limit:      input.Limit,
	}, GalleryBounds)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search gallery")
	}

	return &pagination.Page[enrich.MediaItemResponse]{
		Data:           s.presenter.PresentAll(ctx, page.Data),
		Count:          page.Count,
		NextPageCursor: page.NextPageCursor,
	}, nil
}

func (s *service) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*enrich.MediaItemResponse, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor == nil || item.UserID != actor.ID {
		if err := s.authorizeWorkspace(ctx, actor, item.WorkspaceID); err != nil {
			return nil, err
		}
	}
	resp := s.presenter.Present(ctx, *item)
	return &resp, nil
}

func (s *service) authorizeWorkspace(ctx context.Context, actor *models.User, workspaceID uuid.UUID) error {
	if actor == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if actor.HasRole(enums.UserRoleAdmin) {
		return nil
	}
	ws, err := s.workspaces.FindByID(ctx, workspaceID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "workspace access denied")
		}
		return err
	}
	if !ws.CanRead(actor) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "workspace access denied")
	}
	return nil
}

func invalidField(field, reason string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid gallery filter").WithDetails(map[string]string{field: reason})
}
