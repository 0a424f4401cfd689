package service

import "context"

type actingUserKey struct{}

// WithActingUser attaches the user scheduling changes are attributed to.
func WithActingUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actingUserKey{}, userID)
}

// ActingUser returns the user attached by WithActingUser, or "".
func ActingUser(ctx context.Context) string {
	id, _ := ctx.Value(actingUserKey{}).(string)
	return id
}
