// Package policy wires the gate to the repair-shop domain: who the actor is,
// which establishment it runs, and what it may touch.
package policy

import (
	"context"
	"errors"
	"net/http"

	"github.com/diewo77/go-repairs/auth"
	"github.com/diewo77/go-repairs/gate"
	"github.com/diewo77/go-repairs/httpx"
	"github.com/diewo77/go-repairs/internal/models"
)

// AuthGate is the tenant access gate used by services and middleware.
type AuthGate struct {
	gate   *gate.RoleGate[Actor]
	actors *ActorResolver
}

// NewAuthGate registers the tenant policies for every tenant-owned resource.
func NewAuthGate(actors *ActorResolver) *AuthGate {
	g := gate.NewRoleGate[Actor](gate.RoleResolverFunc[Actor](RoleOf))
	g.Register(ResourceRepair, TenantPolicy{})
	g.Register(ResourceClient, TenantPolicy{})
	g.Register(ResourceQuote, TenantPolicy{})
	g.Register(ResourceEstablishment, AdminBypassPolicy{Inner: TenantPolicy{}})
	return &AuthGate{gate: g, actors: actors}
}

// Actor resolves the actor behind userID.
func (ag *AuthGate) Actor(ctx context.Context, userID uint) (Actor, error) {
	return ag.actors.Resolve(ctx, userID)
}

// Forget drops cached state for userID.
func (ag *AuthGate) Forget(userID uint) {
	ag.actors.Invalidate(userID)
}

// Authorize returns models.ErrForbidden when actor may not perform action on resource.
func (ag *AuthGate) Authorize(ctx context.Context, actor Actor, action gate.Action, resourceType string, resource any) error {
	if err := ag.gate.Authorize(ctx, actor, action, resourceType, resource); err != nil {
		if errors.Is(err, gate.ErrDenied) || errors.Is(err, gate.ErrNoPolicy) {
			return models.ErrForbidden
		}
		return err
	}
	return nil
}

// AuthorizeUser resolves userID then authorizes. It returns the actor for further scoping.
func (ag *AuthGate) AuthorizeUser(ctx context.Context, userID uint, action gate.Action, resourceType string, resource any) (Actor, error) {
	actor, err := ag.Actor(ctx, userID)
	if err != nil {
		return Actor{}, err
	}
	if err := ag.Authorize(ctx, actor, action, resourceType, resource); err != nil {
		return Actor{}, err
	}
	return actor, nil
}

// RequireAdmin rejects requests whose session user is not in the admin allowlist.
func (ag *AuthGate) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		actor, err := ag.Actor(r.Context(), uid)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if !actor.Admin {
			httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
