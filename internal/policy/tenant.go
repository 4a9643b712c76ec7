package policy

import (
	"context"

	"github.com/diewo77/go-repairs/gate"
)

// Tenanted is implemented by every entity owned by an establishment.
type Tenanted interface {
	GetEstablishmentID() uint
}

// TenantPolicy grants access iff the resource belongs to the actor's establishment.
// With a nil resource (list, create) it only requires the actor to own an establishment.
type TenantPolicy struct{}

func (TenantPolicy) Can(_ context.Context, actor Actor, _ gate.Action, resource any) bool {
	if actor.EstablishmentID == 0 {
		return false
	}
	if resource == nil {
		return true
	}
	t, ok := resource.(Tenanted)
	if !ok {
		return false
	}
	return t.GetEstablishmentID() == actor.EstablishmentID
}

// AdminBypassPolicy lets admins through and defers to inner for everyone else.
type AdminBypassPolicy struct {
	Inner gate.Policy[Actor]
}

func (p AdminBypassPolicy) Can(ctx context.Context, actor Actor, action gate.Action, resource any) bool {
	if actor.Admin {
		return true
	}
	return p.Inner.Can(ctx, actor, action, resource)
}
