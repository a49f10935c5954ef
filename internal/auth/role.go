package auth

import (
	"fmt"
	"strings"
)

// Role is the single fixed role a user holds.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleTherapist   Role = "THERAPIST"
	RoleNurse       Role = "NURSE"
	RoleResearcher  Role = "RESEARCHER"
	RoleCoordinator Role = "COORDINATOR"
)

var roles = map[Role]struct{}{
	RoleAdmin:       {},
	RoleTherapist:   {},
	RoleNurse:       {},
	RoleResearcher:  {},
	RoleCoordinator: {},
}

// ParseRole normalizes and validates a role name.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := roles[role]; !ok {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, raw)
	}
	return role, nil
}

// Valid reports whether the role is one of the enumerated values.
func (r Role) Valid() bool {
	_, ok := roles[r]
	return ok
}

// Authority returns the role's normalized authority label.
func (r Role) Authority() string {
	return "ROLE_" + string(r)
}
