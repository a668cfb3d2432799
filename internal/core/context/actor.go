package context

import "context"

// Actor is the user on whose behalf a request runs.
// Handlers read it once and pass the ID explicitly into domain calls.
type Actor struct {
	UserID   string
	Username string
	Role     string
}

type actorKey struct{}

// WithActor adds Actor to context.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// GetActor returns Actor from context or nil.
func GetActor(ctx context.Context) *Actor {
	if v, ok := ctx.Value(actorKey{}).(*Actor); ok {
		return v
	}
	return nil
}

// GetActorRole returns the actor role or empty string.
func GetActorRole(ctx context.Context) string {
	if a := GetActor(ctx); a != nil {
		return a.Role
	}
	return ""
}
