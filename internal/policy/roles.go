package policy

import (
	"context"

	"github.com/diewo77/go-repairs/gate"
)

// Resource type names used with the gate.
const (
	ResourceRepair        = "repair"
	ResourceClient        = "client"
	ResourceQuote         = "quote"
	ResourceEstablishment = "establishment"
)

var (
	// RoleAdmin holds every permission; resource policies still apply.
	RoleAdmin = gate.NewRole("admin", gate.PermissionAll)
	// RoleOwner is a user running an establishment.
	RoleOwner = gate.NewRole("owner",
		"repair:*",
		"client:*",
		"quote:*",
		gate.NewPermission(ResourceEstablishment, gate.ActionView),
		gate.NewPermission(ResourceEstablishment, gate.ActionUpdate),
	)
	// RoleNewcomer is a user who has not created an establishment yet.
	RoleNewcomer = gate.NewRole("newcomer",
		gate.NewPermission(ResourceEstablishment, gate.ActionCreate),
	)
)

// RoleOf derives the role from the resolved actor.
func RoleOf(_ context.Context, actor Actor) (gate.Role, error) {
	switch {
	case actor.Admin:
		return RoleAdmin, nil
	case actor.EstablishmentID != 0:
		return RoleOwner, nil
	default:
		return RoleNewcomer, nil
	}
}
