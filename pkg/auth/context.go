package auth

import (
	"context"
	"fmt"
)

// GetUserIDFromContext extracts the caller's user id from JWT claims in the context.
// Returns 0 and false if not authenticated or the subject is not a valid id.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return 0, false
	}
	id, err := claims.UserID()
	if err != nil {
		return 0, false
	}
	return id, true
}

// RequireUserIDFromContext extracts the user id from context and returns an error if not found.
func RequireUserIDFromContext(ctx context.Context) (int64, error) {
	id, ok := GetUserIDFromContext(ctx)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return id, nil
}

// WithClaims returns a copy of ctx carrying claims. Used by the middleware and
// by tests that exercise handlers directly.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}
