package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"digitalsight/model"

	"github.com/go-redis/redis/v8"
)

// releaseCacheTTL bounds staleness if an invalidation is ever missed.
const releaseCacheTTL = 30 * time.Minute

// GetReleaseKey builds the Redis key for a cached release document.
func GetReleaseKey(releaseID string) string {
	return fmt.Sprintf("release:%s", releaseID)
}

// GetCachedRelease returns the cached release, or nil on a miss.
func GetCachedRelease(ctx context.Context, releaseID string) (*model.Release, error) {
	if RedisClient == nil {
		return nil, nil
	}

	data, err := RedisClient.Get(ctx, GetReleaseKey(releaseID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read release cache: %w", err)
	}

	var release model.Release
	if err := json.Unmarshal([]byte(data), &release); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached release: %w", err)
	}
	return &release, nil
}

// CacheRelease stores a release document with the standard TTL.
func CacheRelease(ctx context.Context, release *model.Release) error {
	if RedisClient == nil {
		return nil
	}

	data, err := json.Marshal(release)
	if err != nil {
		return fmt.Errorf("failed to marshal release: %w", err)
	}
	return RedisClient.Set(ctx, GetReleaseKey(release.ID), data, releaseCacheTTL).Err()
}

// InvalidateRelease drops the cached copy after a write.
func InvalidateRelease(ctx context.Context, releaseID string) error {
	if RedisClient == nil {
		return nil
	}
	return RedisClient.Del(ctx, GetReleaseKey(releaseID)).Err()
}
