package workspaces

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	"github.com/angelmondragon/genmedia-backend/pkg/enums"
)

// CreateInput names a new workspace.
type CreateInput struct {
	Name  string               `json:"name" validate:"required,min=3,max=100"`
	Scope enums.WorkspaceScope `json:"scope,omitempty" validate:"omitempty,enum"`
}

// InviteInput adds a user to a workspace by email.
type InviteInput struct {
	Email string              `json:"email" validate:"required,email"`
	Role  enums.WorkspaceRole `json:"role,omitempty" validate:"omitempty,enum"`
}

type MemberDTO struct {
	UserID uuid.UUID           `json:"user_id"`
	Email  string              `json:"email"`
	Role   enums.WorkspaceRole `json:"role"`
}

// WorkspaceDTO is the transport shape of a workspace.
type WorkspaceDTO struct {
	ID        uuid.UUID            `json:"id"`
	Name      string               `json:"name"`
	OwnerID   uuid.UUID            `json:"owner_id"`
	Scope     enums.WorkspaceScope `json:"scope"`
	Members   []MemberDTO          `json:"members"`
	MemberIDs []uuid.UUID          `json:"member_ids"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

func FromModel(ws *models.Workspace) *WorkspaceDTO {
	if ws == nil {
		return nil
	}
	members := make([]MemberDTO, 0, len(ws.Members))
	for _, m := range ws.Members {
		members = append(members, MemberDTO{UserID: m.UserID, Email: m.Email, Role: m.Role})
	}
	return &WorkspaceDTO{
		ID:        ws.ID,
		Name:      ws.Name,
		OwnerID:   ws.OwnerID,
		Scope:     ws.Scope,
		Members:   members,
		MemberIDs: append([]uuid.UUID{}, ws.MemberIDs...),
		CreatedAt: ws.CreatedAt,
		UpdatedAt: ws.UpdatedAt,
	}
}
