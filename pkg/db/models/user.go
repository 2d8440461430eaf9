package models

import (
	"github.com/lib/pq"

	"github.com/angelmondragon/genmedia-backend/pkg/enums"
)

// User is provisioned on first authenticated request.
type User struct {
	Record

	Email   string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	Name    string         `gorm:"column:name;not null;default:''"`
	Picture string         `gorm:"column:picture;not null;default:''"`
	Roles   pq.StringArray `gorm:"column:roles;type:text[];not null"`
}

func (User) TableName() string { return "users" }

// HasRole reports whether the user holds role; admin implies all roles.
func (u *User) HasRole(role enums.UserRole) bool {
	if u == nil {
		return false
	}
	return enums.HasRole(u.Roles, role)
}

// UserRolesUpdate replaces the role set.
type UserRolesUpdate struct {
	Roles []enums.UserRole
}

func (u UserRolesUpdate) Columns() map[string]any {
	roles := make(pq.StringArray, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, r.String())
	}
	return map[string]any{"roles": roles}
}
