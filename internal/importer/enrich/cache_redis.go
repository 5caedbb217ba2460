package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"regsync/internal/importer/source"
)

const redisKeyPrefix = "regsync:project:"

// RedisCache implements Cache on Redis so project metadata survives
// process restarts and is shared across concurrently running importers.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed project cache.
func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, projectID string) (*source.Project, error) {
	payload, err := c.client.Get(ctx, redisKeyPrefix+projectID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached project: %w", err)
	}
	var project source.Project
	if err := json.Unmarshal(payload, &project); err != nil {
		// A corrupt entry is a miss; the next Set overwrites it.
		return nil, nil
	}
	return &project, nil
}

func (c *RedisCache) Set(ctx context.Context, project *source.Project) error {
	if project == nil || project.ID == "" {
		return nil
	}
	payload, err := json.Marshal(project)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	if err := c.client.Set(ctx, redisKeyPrefix+project.ID, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache project: %w", err)
	}
	return nil
}
