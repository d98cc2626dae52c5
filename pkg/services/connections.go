package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/weavenet/weave-api/pkg/apperrors"
	"github.com/weavenet/weave-api/pkg/cache"
	"github.com/weavenet/weave-api/pkg/metrics"
	"github.com/weavenet/weave-api/pkg/models"
	"github.com/weavenet/weave-api/pkg/repositories"
)

// ConnectionService manages the connection request lifecycle:
// none -> pending -> accepted | declined. Resolved states are terminal.
// The caller's user id is always passed explicitly.
type ConnectionService interface {
	// SendRequest creates a pending request from callerID to targetID.
	// Returns apperrors.ErrSelfReference, apperrors.ErrUserNotFound, or
	// apperrors.ErrAlreadyExists when any edge callerID -> targetID exists.
	SendRequest(ctx context.Context, callerID, targetID int64) (*models.Connection, error)

	// AcceptRequest accepts a pending request addressed to callerID.
	// Returns apperrors.ErrNotFound if the id is unknown, addressed to someone
	// else, or already resolved.
	AcceptRequest(ctx context.Context, callerID, connectionID int64) (*models.Connection, error)

	// DeclineRequest declines a pending request addressed to callerID.
	// Same error semantics as AcceptRequest.
	DeclineRequest(ctx context.Context, callerID, connectionID int64) (*models.Connection, error)

	// ListIncoming returns pending requests addressed to callerID. Never nil.
	ListIncoming(ctx context.Context, callerID int64) ([]*models.Connection, error)

	// GetConnection returns callerID's outgoing edge toward otherID.
	GetConnection(ctx context.Context, callerID, otherID int64) (*models.Connection, error)

	// MutualCount returns how many of callerID's accepted targets otherID
	// also has an accepted edge toward.
	MutualCount(ctx context.Context, callerID, otherID int64) (int, error)
}

type connectionService struct {
	connRepo repositories.ConnectionRepository
	userRepo repositories.UserRepository
	recCache cache.RecommendationCache
	logger   *zap.Logger
}

var _ ConnectionService = (*connectionService)(nil)

// NewConnectionService creates a new connection service. recCache may be nil.
func NewConnectionService(
	connRepo repositories.ConnectionRepository,
	userRepo repositories.UserRepository,
	recCache cache.RecommendationCache,
	logger *zap.Logger,
) ConnectionService {
	return &connectionService{
		connRepo: connRepo,
		userRepo: userRepo,
		recCache: recCache,
		logger:   logger.Named("connections"),
	}
}

func (s *connectionService) SendRequest(ctx context.Context, callerID, targetID int64) (*models.Connection, error) {
	if callerID == targetID {
		metrics.RecordConnectionOperation("send", metrics.OutcomeSelf)
		return nil, apperrors.ErrSelfReference
	}

	exists, err := s.userRepo.Exists(ctx, targetID)
	if err != nil {
		metrics.RecordConnectionOperation("send", metrics.OutcomeError)
		return nil, fmt.Errorf("failed to look up target user: %w", err)
	}
	if !exists {
		metrics.RecordConnectionOperation("send", metrics.OutcomeNotFound)
		return nil, apperrors.ErrUserNotFound
	}

	conn, err := s.connRepo.Create(ctx, callerID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrAlreadyExists):
			metrics.RecordConnectionOperation("send", metrics.OutcomeDuplicate)
		case errors.Is(err, apperrors.ErrUserNotFound):
			metrics.RecordConnectionOperation("send", metrics.OutcomeNotFound)
		default:
			metrics.RecordConnectionOperation("send", metrics.OutcomeError)
		}
		return nil, err
	}

	metrics.RecordConnectionOperation("send", metrics.OutcomeSuccess)
	s.logger.Debug("Connection request sent",
		zap.Int64("connection_id", conn.ID),
		zap.Int64("from_user", callerID),
		zap.Int64("to_user", targetID))
	return conn, nil
}

func (s *connectionService) AcceptRequest(ctx context.Context, callerID, connectionID int64) (*models.Connection, error) {
	conn, err := s.resolve(ctx, "accept", callerID, connectionID, models.ConnectionStatusAccepted)
	if err != nil {
		return nil, err
	}

	// The sender gained an accepted target, so their suggestions are stale.
	s.invalidateRecommendations(ctx, conn.FromUserID)
	return conn, nil
}

func (s *connectionService) DeclineRequest(ctx context.Context, callerID, connectionID int64) (*models.Connection, error) {
	return s.resolve(ctx, "decline", callerID, connectionID, models.ConnectionStatusDeclined)
}

func (s *connectionService) resolve(ctx context.Context, op string, callerID, connectionID int64, status string) (*models.Connection, error) {
	conn, err := s.connRepo.SetStatus(ctx, connectionID, callerID, status)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			metrics.RecordConnectionOperation(op, metrics.OutcomeNotFound)
		} else {
			metrics.RecordConnectionOperation(op, metrics.OutcomeError)
		}
		return nil, err
	}

	metrics.RecordConnectionOperation(op, metrics.OutcomeSuccess)
	s.logger.Debug("Connection request resolved",
		zap.Int64("connection_id", conn.ID),
		zap.Int64("to_user", callerID),
		zap.String("status", conn.Status))
	return conn, nil
}

func (s *connectionService) ListIncoming(ctx context.Context, callerID int64) ([]*models.Connection, error) {
	conns, err := s.connRepo.ListIncoming(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if conns == nil {
		conns = []*models.Connection{}
	}
	return conns, nil
}

func (s *connectionService) GetConnection(ctx context.Context, callerID, otherID int64) (*models.Connection, error) {
	if callerID == otherID {
		return nil, apperrors.ErrSelfReference
	}
	return s.connRepo.Find(ctx, callerID, otherID)
}

func (s *connectionService) MutualCount(ctx context.Context, callerID, otherID int64) (int, error) {
	if callerID == otherID {
		return 0, apperrors.ErrSelfReference
	}

	exists, err := s.userRepo.Exists(ctx, otherID)
	if err != nil {
		return 0, fmt.Errorf("failed to look up user: %w", err)
	}
	if !exists {
		return 0, apperrors.ErrUserNotFound
	}

	targets, err := s.connRepo.ListAcceptedTargets(ctx, callerID)
	if err != nil {
		return 0, err
	}
	return s.connRepo.CountAcceptedBetween(ctx, otherID, targets)
}

func (s *connectionService) invalidateRecommendations(ctx context.Context, userIDs ...int64) {
	if s.recCache == nil {
		return
	}
	if err := s.recCache.Invalidate(ctx, userIDs...); err != nil {
		s.logger.Warn("Failed to invalidate cached recommendations",
			zap.Int64s("user_ids", userIDs),
			zap.Error(err))
	}
}
