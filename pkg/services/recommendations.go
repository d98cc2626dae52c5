package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/weavenet/weave-api/pkg/cache"
	"github.com/weavenet/weave-api/pkg/metrics"
	"github.com/weavenet/weave-api/pkg/models"
	"github.com/weavenet/weave-api/pkg/repositories"
)

// RecommendationService suggests users to connect with based on mutual
// accepted connections.
type RecommendationService interface {
	// Recommend returns users the caller has not accepted (excluding the
	// caller) that have an accepted edge toward at least one of the caller's
	// accepted targets. Ranked by mutual count descending, then id ascending.
	// limit <= 0 uses the configured maximum; a configured maximum of 0 means
	// unlimited. Never nil.
	Recommend(ctx context.Context, callerID int64, limit int) ([]*models.User, error)
}

type recommendationService struct {
	connRepo   repositories.ConnectionRepository
	userRepo   repositories.UserRepository
	recCache   cache.RecommendationCache
	maxResults int
	logger     *zap.Logger
}

var _ RecommendationService = (*recommendationService)(nil)

// NewRecommendationService creates a new recommendation service. recCache may be nil.
func NewRecommendationService(
	connRepo repositories.ConnectionRepository,
	userRepo repositories.UserRepository,
	recCache cache.RecommendationCache,
	maxResults int,
	logger *zap.Logger,
) RecommendationService {
	return &recommendationService{
		connRepo:   connRepo,
		userRepo:   userRepo,
		recCache:   recCache,
		maxResults: maxResults,
		logger:     logger.Named("recommendations"),
	}
}

func (s *recommendationService) Recommend(ctx context.Context, callerID int64, limit int) ([]*models.User, error) {
	if users, ok := s.fromCache(ctx, callerID); ok {
		return s.applyLimit(users, limit), nil
	}

	start := time.Now()
	users, err := s.compute(ctx, callerID)
	if err != nil {
		return nil, err
	}
	metrics.RecordRecommendation(time.Since(start), len(users))

	if s.recCache != nil {
		if err := s.recCache.Set(ctx, callerID, users); err != nil {
			s.logger.Warn("Failed to cache recommendations",
				zap.Int64("user_id", callerID),
				zap.Error(err))
		}
	}

	return s.applyLimit(users, limit), nil
}

func (s *recommendationService) fromCache(ctx context.Context, callerID int64) ([]*models.User, bool) {
	if s.recCache == nil {
		return nil, false
	}

	users, hit, err := s.recCache.Get(ctx, callerID)
	switch {
	case err != nil:
		metrics.RecordRecommendationCache("error")
		s.logger.Warn("Recommendation cache lookup failed, computing directly",
			zap.Int64("user_id", callerID),
			zap.Error(err))
		return nil, false
	case !hit:
		metrics.RecordRecommendationCache("miss")
		return nil, false
	}

	metrics.RecordRecommendationCache("hit")
	if users == nil {
		users = []*models.User{}
	}
	return users, true
}

// compute runs the aggregation query and resolves candidate ids to users,
// preserving the ranking.
func (s *recommendationService) compute(ctx context.Context, callerID int64) ([]*models.User, error) {
	candidates, err := s.connRepo.ListMutualCandidates(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []*models.User{}, nil
	}

	ids := make([]int64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.UserID
	}

	found, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*models.User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}

	users := make([]*models.User, 0, len(candidates))
	for _, c := range candidates {
		// A user deleted between the two queries is skipped.
		if u, ok := byID[c.UserID]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (s *recommendationService) applyLimit(users []*models.User, limit int) []*models.User {
	if limit <= 0 || (s.maxResults > 0 && limit > s.maxResults) {
		limit = s.maxResults
	}
	if limit > 0 && len(users) > limit {
		return users[:limit]
	}
	return users
}
