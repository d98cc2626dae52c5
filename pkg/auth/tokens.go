package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/weavenet/weave-api/pkg/models"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or issuer checks.
var ErrInvalidToken = errors.New("invalid token")

// TokenManager issues and validates access tokens.
type TokenManager interface {
	Issue(user *models.User) (string, error)
	Validate(tokenString string) (*Claims, error)
}

type hmacTokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

var _ TokenManager = (*hmacTokenManager)(nil)

// NewTokenManager returns an HS256 TokenManager.
func NewTokenManager(secret, issuer string, ttl time.Duration) TokenManager {
	return &hmacTokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (m *hmacTokenManager) Issue(user *models.User) (string, error) {
	now := m.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Username: user.Username,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (m *hmacTokenManager) Validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
