package auth

import (
	"time"

	"github.com/google/uuid"
)

// PermUserDelete allows deleting user accounts.
const PermUserDelete = "USER:DELETE"

// rolePermissions is the static role → permission table. It is compiled in:
// changing it means a deployment, not a data migration. Roles absent from the
// map hold no permissions.
var rolePermissions = map[Role][]string{
	RoleAdmin: {PermUserDelete},
}

// ResolvePermissions returns the permission set for a role. The function is
// total: an unmapped role yields an empty slice, never an error.
func ResolvePermissions(role Role) []string {
	perms := rolePermissions[role]
	if len(perms) == 0 {
		return nil
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// HasPermission reports whether the role's resolved set contains perm.
func HasPermission(role Role, perm string) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// PermissionAuthority returns the normalized authority label for a
// resource:action permission string.
func PermissionAuthority(perm string) string {
	return "PERMISSION_" + perm
}

// Permission is one row of the persisted permission catalog. The catalog is
// bookkeeping only; authorization decisions read the compiled table above.
type Permission struct {
	ID          uuid.UUID
	Resource    string
	Action      string
	Description string
	CreatedAt   time.Time
}

// Key renders the resource:action pair.
func (p Permission) Key() string {
	return p.Resource + ":" + p.Action
}

// BuiltinPermissions are seeded into the catalog at startup.
var BuiltinPermissions = []Permission{
	{Resource: "USER", Action: "DELETE", Description: "Allows deleting user accounts"},
}
