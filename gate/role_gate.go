package gate

import "context"

// RoleGate layers role permissions over resource policies:
//  1. the subject must not be anonymous
//  2. its role must allow resource:action
//  3. when a resource is given and a policy is registered, the policy must agree
type RoleGate[S comparable] struct {
	roles    RoleResolver[S]
	policies map[string]Policy[S]
}

// NewRoleGate returns a RoleGate that resolves roles with r.
func NewRoleGate[S comparable](r RoleResolver[S]) *RoleGate[S] {
	return &RoleGate[S]{roles: r, policies: make(map[string]Policy[S])}
}

// Register sets the resource policy consulted in step 3.
func (g *RoleGate[S]) Register(resourceType string, p Policy[S]) {
	g.policies[resourceType] = p
}

func (g *RoleGate[S]) Authorize(ctx context.Context, subject S, action Action, resourceType string, resource any) error {
	if !g.Allowed(ctx, subject, action, resourceType) {
		return ErrDenied
	}
	if resource == nil {
		return nil
	}
	if p, ok := g.policies[resourceType]; ok && !p.Can(ctx, subject, action, resource) {
		return ErrDenied
	}
	return nil
}

func (g *RoleGate[S]) Can(ctx context.Context, subject S, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, subject, action, resourceType, resource) == nil
}

// Allowed checks the role alone, without loading any resource.
func (g *RoleGate[S]) Allowed(ctx context.Context, subject S, action Action, resourceType string) bool {
	var zero S
	if subject == zero {
		return false
	}
	role, err := g.roles.RoleOf(ctx, subject)
	if err != nil || role == nil {
		return false
	}
	return role.Allows(NewPermission(resourceType, action))
}
