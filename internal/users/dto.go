package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/genmedia-backend/pkg/db/models"
	"github.com/angelmondragon/genmedia-backend/pkg/enums"
)

// UserDTO is the transport shape of a user profile.
type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchInput filters the admin user listing.
type SearchInput struct {
	Email      *string         `json:"email,omitempty"`
	Role       *enums.UserRole `json:"role,omitempty"`
	Limit      *int            `json:"limit,omitempty"`
	StartAfter string          `json:"start_after,omitempty"`
}

// RolesInput replaces a user's roles.
type RolesInput struct {
	Roles []enums.UserRole `json:"roles" validate:"required,min=1,dive,enum"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	roles := append([]string{}, u.Roles...)
	return &UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Picture:   u.Picture,
		Roles:     roles,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
