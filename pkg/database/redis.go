package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/weavenet/weave-api/pkg/config"
	"github.com/weavenet/weave-api/pkg/logging"
	"github.com/weavenet/weave-api/pkg/retry"
)

// NewRedisClient creates a new Redis client with the given configuration and
// pings it under retryCfg until the server answers.
// Returns nil if Redis is not configured (host is empty).
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig, retryCfg *retry.Config, logger *zap.Logger) (*redis.Client, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	attempt := 0
	err := retry.Do(ctx, retryCfg, func() error {
		attempt++
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis ping failed",
				zap.Int("attempt", attempt),
				zap.String("addr", cfg.Addr()),
				zap.String("error", logging.SanitizeError(err)))
			return err
		}
		return nil
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}

	return client, nil
}
