// Package gate is a small policy-based authorization layer.
//
// A Gate keeps one Policy per resource type ("repair", "client", ...). Callers ask
// Authorize(ctx, subject, action, resourceType, resource) before touching a resource.
// The package knows nothing about the domain; the subject type is a type parameter:
//   - Gate[uint] when a user id is enough
//   - Gate[Actor] when the check needs a resolved tenant or role
package gate

import "context"

// Gate is the policy registry. S is the subject type; its zero value means "anonymous".
type Gate[S comparable] struct {
	policies map[string]Policy[S]
}

// NewGate returns an empty Gate.
func NewGate[S comparable]() *Gate[S] {
	return &Gate[S]{policies: make(map[string]Policy[S])}
}

// Register sets the policy for resourceType, replacing any previous one.
func (g *Gate[S]) Register(resourceType string, p Policy[S]) {
	g.policies[resourceType] = p
}

// Authorize returns ErrDenied for an anonymous subject or a refused action,
// and ErrNoPolicy when resourceType was never registered.
func (g *Gate[S]) Authorize(ctx context.Context, subject S, action Action, resourceType string, resource any) error {
	var zero S
	if subject == zero {
		return ErrDenied
	}
	p, ok := g.policies[resourceType]
	if !ok {
		return ErrNoPolicy
	}
	if !p.Can(ctx, subject, action, resource) {
		return ErrDenied
	}
	return nil
}

// Can is Authorize as a boolean.
func (g *Gate[S]) Can(ctx context.Context, subject S, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, subject, action, resourceType, resource) == nil
}
