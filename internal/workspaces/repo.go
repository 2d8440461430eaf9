package workspaces

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/genmedia-backend/internal/repo"
	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/genmedia-backend/pkg/db/types"
	"github.com/angelmondragon/genmedia-backend/pkg/enums"
)

// Repository persists workspaces and their membership arrays.
type Repository struct {
	store *repo.Store[models.Workspace]
}

// NewRepository constructs a workspace repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{store: repo.NewStore[models.Workspace](db, "workspace")}
}

// Create stores a workspace whose only member is its owner.
func (r *Repository) Create(ctx context.Context, ws *models.Workspace, owner *models.User) (*models.Workspace, error) {
	ws.OwnerID = owner.ID
	ws.Members = []models.WorkspaceMember{{UserID: owner.ID, Email: owner.Email, Role: enums.WorkspaceRoleOwner}}
	ws.MemberIDs = dbtypes.UUIDArray{owner.ID}
	if err := r.store.Create(ctx, ws); err != nil {
		return nil, err
	}
	return ws, nil
}

// FindByID retrieves a workspace or returns NOT_FOUND.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	return r.store.Get(ctx, id)
}

// ListVisible returns the public workspaces plus those userID belongs to,
// newest first.
func (r *Repository) ListVisible(ctx context.Context, userID uuid.UUID) ([]models.Workspace, error) {
	var rows []models.Workspace
	err := r.store.DB(ctx).
		Where("? = ANY(member_ids) OR scope = ?", userID, enums.WorkspaceScopePublic).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list workspaces for %s: %w", userID, err)
	}
	return rows, nil
}

// AddMember appends member to both membership arrays in one statement. It
// reports false when the user already belongs to the workspace.
func (r *Repository) AddMember(ctx context.Context, id uuid.UUID, member models.WorkspaceMember) (bool, error) {
	entry, err := json.Marshal([]models.WorkspaceMember{member})
	if err != nil {
		return false, fmt.Errorf("encode workspace member: %w", err)
	}

	res := r.store.DB(ctx).
		Model(&models.Workspace{}).
		Where("id = ? AND NOT (? = ANY(member_ids))", id, member.UserID).
		Updates(map[string]any{
			"members":    gorm.Expr("members || ?::jsonb", string(entry)),
			"member_ids": gorm.Expr("array_append(member_ids, ?)", member.UserID),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("add member to workspace %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}
