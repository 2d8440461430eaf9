package workspaces

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	"github.com/angelmondragon/genmedia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/genmedia-backend/pkg/errors"
	"github.com/angelmondragon/genmedia-backend/pkg/logger"
)

type workspaceRepository interface {
	Create(ctx context.Context, ws *models.Workspace, owner *models.User) (*models.Workspace, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error)
	ListVisible(ctx context.Context, userID uuid.UUID) ([]models.Workspace, error)
	AddMember(ctx context.Context, id uuid.UUID, member models.WorkspaceMember) (bool, error)
}

type userLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// Service manages workspaces and their membership.
type Service interface {
	Create(ctx context.Context, actor *models.User, input CreateInput) (*WorkspaceDTO, error)
	List(ctx context.Context, actor *models.User) ([]WorkspaceDTO, error)
	Get(ctx context.Context, actor *models.User, id uuid.UUID) (*WorkspaceDTO, error)
	Invite(ctx context.Context, actor *models.User, id uuid.UUID, input InviteInput) (*WorkspaceDTO, error)
}

type service struct {
	repo  workspaceRepository
	users userLookup
	logg  *logger.Logger
}

// NewService wires the workspace service.
func NewService(repo workspaceRepository, users userLookup, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("workspace repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, users: users, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, actor *models.User, input CreateInput) (*WorkspaceDTO, error) {
	if actor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	name := strings.TrimSpace(input.Name)
	if len(name) < 3 || len(name) > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must be between 3 and 100 characters").
			WithDetails(map[string]string{"name": "length must be 3..100"})
	}

	scope := input.Scope
	if scope == "" {
		scope = enums.WorkspaceScopePrivate
	}
	if !scope.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid scope").
			WithDetails(map[string]string{"scope": string(scope)})
	}
	if scope == enums.WorkspaceScopePublic && !actor.HasRole(enums.UserRoleAdmin) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins may create public workspaces")
	}

	ws, err := s.repo.Create(ctx, &models.Workspace{Name: name, Scope: scope}, actor)
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithWorkspaceID(ctx, ws.ID.String()), "workspace created")
	return FromModel(ws), nil
}

func (s *service) List(ctx context.Context, actor *models.User) ([]WorkspaceDTO, error) {
	if actor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	rows, err := s.repo.ListVisible(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	out := make([]WorkspaceDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*WorkspaceDTO, error) {
	ws, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ws.CanRead(actor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this workspace")
	}
	return FromModel(ws), nil
}

func (s *service) Invite(ctx context.Context, actor *models.User, id uuid.UUID, input InviteInput) (*WorkspaceDTO, error) {
	role := input.Role
	if role == "" {
		role = enums.WorkspaceRoleViewer
	}
	if !role.IsValid() || role == enums.WorkspaceRoleOwner {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role").
			WithDetails(map[string]string{"role": string(role)})
	}

	ws, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ws.CanManage(actor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the workspace owner or an admin may invite members")
	}

	invitee, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user to invite not found")
		}
		return nil, err
	}

	added, err := s.repo.AddMember(ctx, id, models.WorkspaceMember{UserID: invitee.ID, Email: invitee.Email, Role: role})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add workspace member")
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{"workspace_id": id.String(), "invitee_id": invitee.ID.String(), "added": added})
	s.logg.Info(logCtx, "workspace invite processed")

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}
