// Package testhelpers provides utilities for testing weave-api components.
package testhelpers

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestJWTSecret is the signing secret used by handler tests.
const TestJWTSecret = "test-secret-do-not-use"

// GenerateTestJWT creates an HS256 token for userID signed with secret.
func GenerateTestJWT(secret string, userID int64, ttl time.Duration) string {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		panic("testhelpers: failed to sign token: " + err.Error())
	}
	return signed
}

// GenerateTestJWTWithBearer returns a token with "Bearer " prefix for the Authorization header.
func GenerateTestJWTWithBearer(secret string, userID int64) string {
	return "Bearer " + GenerateTestJWT(secret, userID, time.Hour)
}
