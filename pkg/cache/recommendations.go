// Package cache holds short-lived read caches backed by Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/weavenet/weave-api/pkg/models"
)

const recommendationKeyPrefix = "weave:recommend:"

// RecommendationCache stores the ranked recommendation list per user.
// Entries expire after a TTL; Invalidate drops an entry early when the
// owner's accepted connections change.
type RecommendationCache interface {
	// Get returns the cached list and true on a hit.
	Get(ctx context.Context, userID int64) ([]*models.User, bool, error)
	Set(ctx context.Context, userID int64, users []*models.User) error
	Invalidate(ctx context.Context, userIDs ...int64) error
}

type redisRecommendationCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

var _ RecommendationCache = (*redisRecommendationCache)(nil)

// NewRedisRecommendationCache returns a cache backed by client.
func NewRedisRecommendationCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) RecommendationCache {
	return &redisRecommendationCache{
		client: client,
		ttl:    ttl,
		logger: logger.Named("recommendation-cache"),
	}
}

func recommendationKey(userID int64) string {
	return recommendationKeyPrefix + strconv.FormatInt(userID, 10)
}

func (c *redisRecommendationCache) Get(ctx context.Context, userID int64) ([]*models.User, bool, error) {
	data, err := c.client.Get(ctx, recommendationKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached recommendations: %w", err)
	}

	var users []*models.User
	if err := json.Unmarshal(data, &users); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next Set.
		c.logger.Warn("Discarding unreadable cache entry",
			zap.Int64("user_id", userID),
			zap.Error(err))
		return nil, false, nil
	}
	return users, true, nil
}

func (c *redisRecommendationCache) Set(ctx context.Context, userID int64, users []*models.User) error {
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("failed to encode recommendations: %w", err)
	}
	if err := c.client.Set(ctx, recommendationKey(userID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache recommendations: %w", err)
	}
	return nil
}

func (c *redisRecommendationCache) Invalidate(ctx context.Context, userIDs ...int64) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = recommendationKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate recommendations: %w", err)
	}
	return nil
}
