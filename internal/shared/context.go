package shared

import "context"

// Actor is a snapshot of the authenticated admin performing an action.
// It is embedded verbatim into activity log entries so historical records
// survive user renames and deletions.
type Actor struct {
	ID    string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type actorContextKey struct{}

// ContextWithActor stores the actor in the context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext retrieves the actor from the context, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
