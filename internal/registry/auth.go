// ABOUTME: Authorization signal observed by the run registry
// ABOUTME: Pairs a bearer token with the caller's role

package registry

import "strings"

// Role is the caller's role as reported by the authentication service.
type Role int

const (
	RoleOther Role = iota
	RoleOwner
)

func (r Role) String() string {
	if r == RoleOwner {
		return "OWNER"
	}
	return "OTHER"
}

// ParseRole maps a role name onto a Role. Run owners may be reported as
// "owner" or "runner"; anything else is RoleOther.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "owner", "runner":
		return RoleOwner
	default:
		return RoleOther
	}
}

// Authorization is a snapshot of the external authorization state.
// A non-empty token means the caller is authenticated.
type Authorization struct {
	Token string
	Role  Role
}

// Authenticated reports whether a session token is present.
func (a Authorization) Authenticated() bool {
	return a.Token != ""
}

// Permitted reports whether the caller may see the run collection.
func (a Authorization) Permitted() bool {
	return a.Authenticated() && a.Role == RoleOwner
}
