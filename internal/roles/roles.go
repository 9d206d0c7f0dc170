// Package roles defines the global role vocabulary and its fixed authority
// ordering. Every authorization decision in the system compares roles through
// this package; the raw ordering is never exposed.
package roles

import "fmt"

// Role is a global role held by a user.
type Role string

// Known roles.
const (
	Admin     Role = "admin"
	ClubOwner Role = "club_owner"
	Trainer   Role = "trainer"
	Assistant Role = "assistant"
	User      Role = "user"
	// Parent is a secondary tag for guardians of club members. It carries the
	// same authority as User and is not a rung in the hierarchy.
	Parent Role = "parent"
)

// authority maps each role to its rank. Higher means more privileged. The map
// is fixed at compile time and unexported so callers cannot compare ranks
// directly and skip HasAuthorityAtLeast.
var authority = map[Role]int{
	Admin:     5,
	ClubOwner: 4,
	Trainer:   3,
	Assistant: 2,
	User:      1,
	Parent:    1,
}

// AuthorityOf returns the rank of a role, or 0 for an unknown role.
func AuthorityOf(r Role) int {
	return authority[r]
}

// HasAuthorityAtLeast reports whether role carries at least the authority of
// required. Unknown roles never satisfy any requirement.
func HasAuthorityAtLeast(role, required Role) bool {
	have, ok := authority[role]
	if !ok {
		return false
	}
	want, ok := authority[required]
	if !ok {
		return false
	}
	return have >= want
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := authority[r]
	return ok
}

func (r Role) String() string {
	return string(r)
}

// Parse converts a raw string into a Role.
func Parse(raw string) (Role, error) {
	r := Role(raw)
	if !r.Valid() {
		return "", fmt.Errorf("roles: unknown role %q", raw)
	}
	return r, nil
}

// Assignable lists the roles that may be granted through the role assignment
// flow. User and Parent are acquired at registration, not granted.
func Assignable() []Role {
	return []Role{Admin, ClubOwner, Trainer, Assistant}
}
