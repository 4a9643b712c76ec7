package gate

import "errors"

var (
	// ErrDenied is returned when the subject is anonymous or the policy refuses.
	ErrDenied = errors.New("access denied")
	// ErrNoPolicy is returned when no policy is registered for the resource type.
	ErrNoPolicy = errors.New("no policy registered for resource")
)
