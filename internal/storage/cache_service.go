package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheService provides high-level caching for subscription lookups. Pro
// status is consulted on every public profile view, so a short-lived cache
// keeps the identity provider off the hot path.
type CacheService struct {
	redis *RedisCache
	ttl   time.Duration
}

// NewCacheService creates a new cache service
func NewCacheService(redis *RedisCache, ttl time.Duration) *CacheService {
	return &CacheService{
		redis: redis,
		ttl:   ttl,
	}
}

// GenerateProStatusKey generates a cache key for a user's pro status
// Format: sub:pro:<user-id>
func (c *CacheService) GenerateProStatusKey(userID string) string {
	return fmt.Sprintf("sub:pro:%s", userID)
}

// GetProStatus returns a user's cached pro status. The second return value is
// false on a cache miss.
func (c *CacheService) GetProStatus(ctx context.Context, userID string) (bool, bool, error) {
	value, err := c.redis.Get(ctx, c.GenerateProStatusKey(userID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("failed to get cached pro status: %w", err)
	}

	return value == "1", true, nil
}

// SetProStatus caches a user's pro status with the configured TTL
func (c *CacheService) SetProStatus(ctx context.Context, userID string, isPro bool) error {
	value := "0"
	if isPro {
		value = "1"
	}

	if err := c.redis.Set(ctx, c.GenerateProStatusKey(userID), value, c.ttl); err != nil {
		return fmt.Errorf("failed to cache pro status: %w", err)
	}

	return nil
}

// InvalidateProStatus removes a user's cached pro status. Called when a plan
// changes so the next lookup reflects the new tier.
func (c *CacheService) InvalidateProStatus(ctx context.Context, userID string) error {
	if err := c.redis.Del(ctx, c.GenerateProStatusKey(userID)); err != nil {
		return fmt.Errorf("failed to invalidate pro status: %w", err)
	}

	return nil
}
