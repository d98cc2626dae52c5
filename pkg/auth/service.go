package auth

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Common authentication errors.
var (
	ErrMissingAuthorization = errors.New("missing authorization")
	ErrInvalidAuthFormat    = errors.New("invalid authorization header format")
)

// AuthService defines the interface for authentication operations.
// This abstraction enables clean separation between HTTP handling
// and authentication logic, making both easier to test.
type AuthService interface {
	// ValidateRequest extracts and validates the access token from the
	// Authorization header. Both "Bearer <token>" and "Token <token>" are
	// accepted.
	ValidateRequest(r *http.Request) (*Claims, error)
}

type authService struct {
	tokens TokenManager
	logger *zap.Logger
}

// NewAuthService creates a new AuthService backed by the given token manager.
func NewAuthService(tokens TokenManager, logger *zap.Logger) AuthService {
	return &authService{
		tokens: tokens,
		logger: logger,
	}
}

func (s *authService) ValidateRequest(r *http.Request) (*Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		s.logger.Debug("No token found in request",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method))
		return nil, ErrMissingAuthorization
	}

	scheme, tokenString, ok := strings.Cut(authHeader, " ")
	if !ok || tokenString == "" || (scheme != "Bearer" && scheme != "Token") {
		s.logger.Debug("Invalid Authorization header format",
			zap.String("path", r.URL.Path))
		return nil, ErrInvalidAuthFormat
	}

	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		s.logger.Debug("Token validation failed",
			zap.Error(err),
			zap.String("path", r.URL.Path))
		return nil, err
	}

	return claims, nil
}

// Ensure authService implements AuthService at compile time.
var _ AuthService = (*authService)(nil)
