package models

import (
	"github.com/google/uuid"

	dbtypes "github.com/angelmondragon/genmedia-backend/pkg/db/types"
	"github.com/angelmondragon/genmedia-backend/pkg/enums"
)

// WorkspaceMember is the denormalized membership entry stored on the workspace.
type WorkspaceMember struct {
	UserID uuid.UUID           `json:"user_id"`
	Email  string              `json:"email"`
	Role   enums.WorkspaceRole `json:"role"`
}

// Workspace groups media, assets and a brand guideline. Members and MemberIDs
// always change together in a single statement.
type Workspace struct {
	Record

	Name      string               `gorm:"column:name;not null"`
	OwnerID   uuid.UUID            `gorm:"column:owner_id;type:uuid;not null"`
	Scope     enums.WorkspaceScope `gorm:"column:scope;not null"`
	Members   []WorkspaceMember    `gorm:"column:members;type:jsonb;serializer:json;not null"`
	MemberIDs dbtypes.UUIDArray    `gorm:"column:member_ids;type:uuid[];not null"`
}

func (Workspace) TableName() string { return "workspaces" }

// Member returns the membership entry for userID.
func (w *Workspace) Member(userID uuid.UUID) (WorkspaceMember, bool) {
	if w == nil {
		return WorkspaceMember{}, false
	}
	for _, m := range w.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return WorkspaceMember{}, false
}

// CanRead reports whether user may see the workspace and its media.
func (w *Workspace) CanRead(user *User) bool {
	if w == nil || user == nil {
		return false
	}
	if user.HasRole(enums.UserRoleAdmin) || w.Scope == enums.WorkspaceScopePublic {
		return true
	}
	_, ok := w.Member(user.ID)
	return ok
}

// CanManage reports whether user may invite members or replace the brand guideline.
func (w *Workspace) CanManage(user *User) bool {
	if w == nil || user == nil {
		return false
	}
	if user.HasRole(enums.UserRoleAdmin) {
		return true
	}
	m, ok := w.Member(user.ID)
	return ok && m.Role.CanManage()
}

// IsMember reports whether user belongs to the workspace.
func (w *Workspace) IsMember(user *User) bool {
	if w == nil || user == nil {
		return false
	}
	_, ok := w.Member(user.ID)
	return ok
}
