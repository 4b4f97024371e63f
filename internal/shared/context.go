package shared

import "context"

type userContextKey struct{}

// ContextWithUserID stores the authenticated user ID in context.
func ContextWithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userContextKey{}, id)
}

// UserIDFromContext extracts the authenticated user ID from context.
// The second return value reports whether a user ID was present.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userContextKey{}).(int64)
	return id, ok
}
