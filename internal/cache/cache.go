package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sitespark/backend/internal/config"
)

// ScoreCache is a short-TTL read cache for computed viral scores. It only
// ever caches derived values: the counters of record stay in Postgres and
// every write path bypasses it entirely.
type ScoreCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewScoreCache creates a Redis-backed score cache
func NewScoreCache(cfg config.RedisConfig, ttl time.Duration) (*ScoreCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	opts.DB = cfg.DB

	return &ScoreCache{
		client: redis.NewClient(opts),
		ttl:    ttl,
	}, nil
}

func scoreKey(siteID string) string {
	return "viral:score:" + siteID
}

// Get returns a cached score, or ok=false on miss or any Redis error --
// callers fall back to computing from the ledger.
func (c *ScoreCache) Get(ctx context.Context, siteID string) (float64, bool) {
	val, err := c.client.Get(ctx, scoreKey(siteID)).Result()
	if err != nil {
		return 0, false
	}
	score, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	return score, true
}

// Set stores a computed score. Failures are ignored; the cache is an
// optimization, never a source of truth.
func (c *ScoreCache) Set(ctx context.Context, siteID string, score float64) {
	_ = c.client.Set(ctx, scoreKey(siteID), strconv.FormatFloat(score, 'g', -1, 64), c.ttl).Err()
}

// Invalidate drops a cached score, used after counter mutations.
func (c *ScoreCache) Invalidate(ctx context.Context, siteID string) {
	_ = c.client.Del(ctx, scoreKey(siteID)).Err()
}

// Close releases the Redis connection
func (c *ScoreCache) Close() error {
	return c.client.Close()
}
