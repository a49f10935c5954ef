package auth

import (
	"context"

	"github.com/google/uuid"
)

// SecurityContext is the per-request record of resolved identity: the subject
// plus the authority set derived from the user's role. It is created by the
// authentication filter, lives in the request context, and is discarded with
// the request.
type SecurityContext struct {
	UserID      uuid.UUID
	Role        Role
	authorities map[string]struct{}
}

// NewSecurityContext builds the authority set for a user: ROLE_<role> plus
// one PERMISSION_<resource:action> per resolved permission.
func NewSecurityContext(user *User) SecurityContext {
	authorities := make(map[string]struct{}, 1+len(rolePermissions[user.Role]))
	authorities[user.Role.Authority()] = struct{}{}
	for _, perm := range ResolvePermissions(user.Role) {
		authorities[PermissionAuthority(perm)] = struct{}{}
	}
	return SecurityContext{
		UserID:      user.ID,
		Role:        user.Role,
		authorities: authorities,
	}
}

// HasAuthority reports whether the context carries the given authority label.
func (s SecurityContext) HasAuthority(authority string) bool {
	_, ok := s.authorities[authority]
	return ok
}

// HasRole reports whether the context carries ROLE_<role>.
func (s SecurityContext) HasRole(role Role) bool {
	return s.HasAuthority(role.Authority())
}

// HasPermission reports whether the context carries PERMISSION_<perm>.
func (s SecurityContext) HasPermission(perm string) bool {
	return s.HasAuthority(PermissionAuthority(perm))
}

// Authorities returns a copy of the authority labels.
func (s SecurityContext) Authorities() []string {
	out := make([]string, 0, len(s.authorities))
	for a := range s.authorities {
		out = append(out, a)
	}
	return out
}

type securityContextKey struct{}

// ContextWithSecurity installs the security context for the request.
func ContextWithSecurity(ctx context.Context, sc SecurityContext) context.Context {
	return context.WithValue(ctx, securityContextKey{}, &sc)
}

// SecurityFromContext extracts the security context, if one was installed.
func SecurityFromContext(ctx context.Context) (SecurityContext, bool) {
	if ctx == nil {
		return SecurityContext{}, false
	}
	v, ok := ctx.Value(securityContextKey{}).(*SecurityContext)
	if !ok || v == nil {
		return SecurityContext{}, false
	}
	return *v, true
}
