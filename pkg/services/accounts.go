package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/weavenet/weave-api/pkg/apperrors"
	"github.com/weavenet/weave-api/pkg/auth"
	"github.com/weavenet/weave-api/pkg/metrics"
	"github.com/weavenet/weave-api/pkg/models"
	"github.com/weavenet/weave-api/pkg/repositories"
	"github.com/weavenet/weave-api/pkg/validation"
)

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Username string `json:"username" validate:"required,max=150,username"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginInput is the body of a login request.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AccountService registers users and exchanges credentials for access tokens.
type AccountService interface {
	// Register creates a user and returns it with a fresh token.
	// Returns *validation.Error for bad input and apperrors.ErrAlreadyExists
	// when the username is taken.
	Register(ctx context.Context, input RegisterInput) (*models.User, string, error)

	// Login returns the user and a fresh token. Unknown usernames and wrong
	// passwords both yield apperrors.ErrInvalidCredentials.
	Login(ctx context.Context, input LoginInput) (*models.User, string, error)
}

type accountService struct {
	userRepo   repositories.UserRepository
	tokens     auth.TokenManager
	bcryptCost int
	dummyHash  string
	logger     *zap.Logger
}

var _ AccountService = (*accountService)(nil)

// NewAccountService creates a new account service. bcryptCost 0 uses the bcrypt default.
func NewAccountService(
	userRepo repositories.UserRepository,
	tokens auth.TokenManager,
	bcryptCost int,
	logger *zap.Logger,
) (AccountService, error) {
	// Compared against on unknown usernames so both failure paths cost one bcrypt.
	dummy, err := auth.HashPassword("weave-dummy-password", bcryptCost)
	if err != nil {
		return nil, err
	}

	return &accountService{
		userRepo:   userRepo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
		logger:     logger.Named("accounts"),
	}, nil
}

func (s *accountService) Register(ctx context.Context, input RegisterInput) (*models.User, string, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	if err := validation.ValidateStruct(&input); err != nil {
		metrics.RecordAuthAttempt("register", false)
		return nil, "", err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		metrics.RecordAuthAttempt("register", false)
		return nil, "", err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}

	metrics.RecordAuthAttempt("register", true)
	s.logger.Info("User registered",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username))
	return user, token, nil
}

func (s *accountService) Login(ctx context.Context, input LoginInput) (*models.User, string, error) {
	if err := validation.ValidateStruct(&input); err != nil {
		metrics.RecordAuthAttempt("login", false)
		return nil, "", err
	}

	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", fmt.Errorf("failed to look up user: %w", err)
		}
		_, _ = auth.CheckPassword(s.dummyHash, input.Password)
		metrics.RecordAuthAttempt("login", false)
		return nil, "", apperrors.ErrInvalidCredentials
	}

	ok, err := auth.CheckPassword(user.PasswordHash, input.Password)
	if err != nil {
		s.logger.Error("Stored password hash is unreadable",
			zap.Int64("user_id", user.ID),
			zap.Error(err))
		metrics.RecordAuthAttempt("login", false)
		return nil, "", apperrors.ErrInvalidCredentials
	}
	if !ok {
		metrics.RecordAuthAttempt("login", false)
		return nil, "", apperrors.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}

	metrics.RecordAuthAttempt("login", true)
	return user, token, nil
}
