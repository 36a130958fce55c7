package common

import "context"

type ctxKey string

const (
	userIDKey    ctxKey = "auth/user-id"
	userEmailKey ctxKey = "auth/user-email"
	userRoleKey  ctxKey = "auth/user-role"
	bearerKey    ctxKey = "auth/bearer"
)

// WithUser stores the authenticated user identity on the provided context.
func WithUser(ctx context.Context, id, email string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, id)
	return context.WithValue(ctx, userEmailKey, email)
}

// UserID extracts the authenticated user identifier from the context if present.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// UserEmail extracts the authenticated user's email from the context if present.
func UserEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(userEmailKey).(string)
	return email, ok && email != ""
}

// WithUserRole stores the caller's role for permission checks.
func WithUserRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, userRoleKey, role)
}

// UserRole returns the caller's role, empty when unauthenticated.
func UserRole(ctx context.Context) string {
	role, _ := ctx.Value(userRoleKey).(string)
	return role
}

// WithBearerToken stores the raw bearer token so it can be forwarded to
// downstream services.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey, token)
}

// BearerToken returns the raw bearer token carried by the context, if any.
func BearerToken(ctx context.Context) string {
	token, _ := ctx.Value(bearerKey).(string)
	return token
}
