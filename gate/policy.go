package gate

import "context"

// Policy decides whether subject may perform action on resource.
// resource is nil for list and create checks.
type Policy[S any] interface {
	Can(ctx context.Context, subject S, action Action, resource any) bool
}

// PolicyFunc adapts a plain function to Policy.
type PolicyFunc[S any] func(ctx context.Context, subject S, action Action, resource any) bool

func (f PolicyFunc[S]) Can(ctx context.Context, subject S, action Action, resource any) bool {
	return f(ctx, subject, action, resource)
}
