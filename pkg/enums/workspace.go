package enums

// WorkspaceRole is a member's permission level inside a workspace.
type WorkspaceRole string

const (
	WorkspaceRoleViewer WorkspaceRole = "viewer"
	WorkspaceRoleEditor WorkspaceRole = "editor"
	WorkspaceRoleAdmin  WorkspaceRole = "admin"
	WorkspaceRoleOwner  WorkspaceRole = "owner"
)

var validWorkspaceRoles = []WorkspaceRole{
	WorkspaceRoleViewer,
	WorkspaceRoleEditor,
	WorkspaceRoleAdmin,
	WorkspaceRoleOwner,
}

func (r WorkspaceRole) String() string {
	return string(r)
}

func (r WorkspaceRole) IsValid() bool {
	return contains(validWorkspaceRoles, r)
}

// CanManage reports whether the role may invite members or replace the brand guideline.
func (r WorkspaceRole) CanManage() bool {
	switch r {
	case WorkspaceRoleOwner, WorkspaceRoleAdmin:
		return true
	case WorkspaceRoleEditor, WorkspaceRoleViewer:
		return false
	default:
		return false
	}
}

// ParseWorkspaceRole converts raw input into a WorkspaceRole.
func ParseWorkspaceRole(value string) (WorkspaceRole, error) {
	return parse(validWorkspaceRoles, value, "workspace role")
}

// WorkspaceScope controls who can see a workspace.
type WorkspaceScope string

const (
	WorkspaceScopePublic  WorkspaceScope = "public"
	WorkspaceScopePrivate WorkspaceScope = "private"
)

var validWorkspaceScopes = []WorkspaceScope{
	WorkspaceScopePublic,
	WorkspaceScopePrivate,
}

func (s WorkspaceScope) String() string {
	return string(s)
}

func (s WorkspaceScope) IsValid() bool {
	return contains(validWorkspaceScopes, s)
}

// ParseWorkspaceScope converts raw input into a WorkspaceScope.
func ParseWorkspaceScope(value string) (WorkspaceScope, error) {
	return parse(validWorkspaceScopes, value, "workspace scope")
}
