// internal/domain/models/role.go
package models

// Role is the closed set of membership roles within an activity.
// Roles are ordered: OWNER > ADMIN > MEMBER. Use AtLeast for
// "at least this privileged" checks instead of string comparison.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// rank maps each role to its privilege level. Higher is more privileged.
var rank = map[Role]int{
	RoleMember: 1,
	RoleAdmin:  2,
	RoleOwner:  3,
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	_, ok := rank[r]
	return ok
}

// AtLeast reports whether r is at least as privileged as min.
// An unknown role is never at least anything.
func (r Role) AtLeast(min Role) bool {
	rr, ok := rank[r]
	if !ok {
		return false
	}
	mr, ok := rank[min]
	if !ok {
		return false
	}
	return rr >= mr
}

// ParseRole validates a raw role string coming from a request body.
// Only ADMIN and MEMBER are assignable through the API; OWNER is set
// exclusively at activity creation.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	if r == RoleAdmin || r == RoleMember {
		return r, true
	}
	return "", false
}
