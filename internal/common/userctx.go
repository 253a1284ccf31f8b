package common

import (
	"context"
)

// UserContext holds per-request identity resolved by the HTTP middleware.
// AuthToken is the raw Authorization header value, forwarded to downstream
// services that require the caller's credentials (stock quote, trade history).
type UserContext struct {
	UserID    string
	AuthToken string
}

type contextKey int

const (
	userContextKey contextKey = iota
)

// WithUserContext stores a UserContext in the request context.
func WithUserContext(ctx context.Context, uc *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, uc)
}

// UserContextFromContext retrieves the UserContext from context, or nil if absent.
func UserContextFromContext(ctx context.Context) *UserContext {
	uc, _ := ctx.Value(userContextKey).(*UserContext)
	return uc
}

// ResolveAuthToken returns the forwarded Authorization value, or "" when
// the request carried none.
func ResolveAuthToken(ctx context.Context) string {
	if uc := UserContextFromContext(ctx); uc != nil {
		return uc.AuthToken
	}
	return ""
}

// ResolveActingUser returns the authenticated user, or "" for anonymous calls.
func ResolveActingUser(ctx context.Context) string {
	if uc := UserContextFromContext(ctx); uc != nil {
		return uc.UserID
	}
	return ""
}
