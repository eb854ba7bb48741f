package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vidshare/backend/internal/models"
)

const statsKeyPrefix = "stats:channel:"

// StatsCache holds recently computed channel stats.
type StatsCache interface {
	Get(ctx context.Context, ownerID uuid.UUID) (*models.ChannelStats, error)
	Set(ctx context.Context, stats *models.ChannelStats) error
}

// ErrCacheMiss is returned by StatsCache.Get when nothing is cached.
var ErrCacheMiss = errors.New("stats cache miss")

// RedisStatsCache stores stats as JSON under a per-channel key with a TTL.
type RedisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStatsCache creates a stats cache. Entries expire after ttl.
func NewRedisStatsCache(client *redis.Client, ttl time.Duration) *RedisStatsCache {
	return &RedisStatsCache{client: client, ttl: ttl}
}

func statsKey(ownerID uuid.UUID) string {
	return statsKeyPrefix + ownerID.String()
}

// Get returns cached stats or ErrCacheMiss.
func (c *RedisStatsCache) Get(ctx context.Context, ownerID uuid.UUID) (*models.ChannelStats, error) {
	raw, err := c.client.Get(ctx, statsKey(ownerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	var stats models.ChannelStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Set caches stats for their channel.
func (c *RedisStatsCache) Set(ctx context.Context, stats *models.ChannelStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statsKey(stats.ChannelID), raw, c.ttl).Err()
}
