package gate

import "strings"

// Permission is a "resource:action" pair, e.g. "repair:update".
type Permission string

const (
	// Wildcard stands for any resource or any action.
	Wildcard = "*"
	// PermissionAll grants everything.
	PermissionAll Permission = "*:*"
)

// NewPermission joins a resource type and an action.
func NewPermission(resourceType string, action Action) Permission {
	return Permission(resourceType + ":" + string(action))
}

// Split returns the resource and action halves; both are empty when p is malformed.
func (p Permission) Split() (resourceType string, action Action) {
	res, act, ok := strings.Cut(string(p), ":")
	if !ok {
		return "", ""
	}
	return res, Action(act)
}

// Covers reports whether holding p grants requested.
// "*:*" covers everything and "repair:*" covers every repair action.
func (p Permission) Covers(requested Permission) bool {
	if p == PermissionAll || p == requested {
		return true
	}
	res, act := p.Split()
	reqRes, _ := requested.Split()
	return res != "" && res == reqRes && string(act) == Wildcard
}
