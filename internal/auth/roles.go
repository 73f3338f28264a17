// Package auth defines the authenticated identity attached to requests and
// the role vocabulary used for authorization decisions.
package auth

// Platform-level roles carried on the user record itself.
const (
	RoleAdmin  = "admin"
	RoleUser   = "user"
	RoleViewer = "viewer"
)

// Workspace membership roles. Access to bases, tables and records is derived
// by walking up to the owning workspace and checking the membership role.
const (
	MemberOwner  = "owner"
	MemberEditor = "editor"
	MemberViewer = "viewer"
)

// CanWrite reports whether a workspace membership role permits mutations.
// Unknown or empty roles are denied; authorization never defaults to
// permissive on values the schema does not recognize.
func CanWrite(role string) bool {
	switch role {
	case MemberOwner, MemberEditor:
		return true
	default:
		return false
	}
}
