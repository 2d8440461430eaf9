package enums

// UserRole gates API access. A user holds one or more roles.
type UserRole string

const (
	UserRoleUser    UserRole = "user"
	UserRoleCreator UserRole = "creator"
	UserRoleAdmin   UserRole = "admin"
)

var validUserRoles = []UserRole{
	UserRoleUser,
	UserRoleCreator,
	UserRoleAdmin,
}

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsValid() bool {
	return contains(validUserRoles, r)
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	return parse(validUserRoles, value, "user role")
}

// HasRole reports whether roles grants want. Admin implies every role.
func HasRole(roles []string, want UserRole) bool {
	for _, raw := range roles {
		switch UserRole(raw) {
		case want, UserRoleAdmin:
			return true
		case UserRoleUser, UserRoleCreator:
			continue
		}
	}
	return false
}
