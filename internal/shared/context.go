package shared

import "context"

type actorContextKey struct{}

// ContextWithActor stores the id of the user acting on the request. The
// ledger never looks up a default user; every write carries an explicit actor.
func ContextWithActor(ctx context.Context, actorID int64) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actorID)
}

// ActorFromContext extracts the acting user id.
func ActorFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(actorContextKey{}).(int64)
	return id, ok && id > 0
}
