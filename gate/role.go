package gate

import "context"

// Role is a named set of permissions.
type Role interface {
	Name() string
	Allows(p Permission) bool
}

// RoleResolver maps a subject to its role. A nil role means no permissions.
type RoleResolver[S any] interface {
	RoleOf(ctx context.Context, subject S) (Role, error)
}

// RoleResolverFunc adapts a function to RoleResolver.
type RoleResolverFunc[S any] func(ctx context.Context, subject S) (Role, error)

func (f RoleResolverFunc[S]) RoleOf(ctx context.Context, subject S) (Role, error) {
	return f(ctx, subject)
}

// StaticRole is an in-memory Role.
type StaticRole struct {
	name  string
	perms []Permission
}

// NewRole builds a StaticRole.
func NewRole(name string, perms ...Permission) *StaticRole {
	return &StaticRole{name: name, perms: perms}
}

func (r *StaticRole) Name() string { return r.name }

// Permissions returns a copy of the granted permissions.
func (r *StaticRole) Permissions() []Permission {
	out := make([]Permission, len(r.perms))
	copy(out, r.perms)
	return out
}

func (r *StaticRole) Allows(requested Permission) bool {
	for _, p := range r.perms {
		if p.Covers(requested) {
			return true
		}
	}
	return false
}
