// Package auth issues and validates the HS256 access tokens used by weave-api
// and provides the HTTP middleware that resolves the calling user.
package auth

import (
	"context"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// ClaimsKey is the context key for storing JWT claims.
const ClaimsKey contextKey = "claims"

// Claims is the access token payload. Subject carries the user id in decimal.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
}

// UserID parses the subject as a user id.
func (c *Claims) UserID() (int64, error) {
	if c.Subject == "" {
		return 0, fmt.Errorf("missing subject in token")
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid subject %q in token", c.Subject)
	}
	return id, nil
}

// GetClaims retrieves JWT claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}
