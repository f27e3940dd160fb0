package common

import "context"

type ctxKey string

const (
	userIDKey   ctxKey = "identity/user-id"
	userNameKey ctxKey = "identity/user-name"
)

// WithUserID stores the resolved user identifier on the provided context.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID extracts the resolved user identifier from the context if present.
func UserID(ctx context.Context) (string, bool) {
	v := ctx.Value(userIDKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

// WithUserName stores the resolved display name on the provided context.
func WithUserName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, userNameKey, name)
}

// UserName extracts the resolved display name from the context if present.
func UserName(ctx context.Context) (string, bool) {
	v := ctx.Value(userNameKey)
	if v == nil {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}
