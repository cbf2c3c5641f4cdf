// Package cache keeps top-K ranking results in Redis. Keys are derived from
// a fingerprint of the ranked posts, so an entry can never be stale: any
// change to the posts produces a different key.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/content-store/internal/model"
	pkgredis "github.com/Adithya-Monish-Kumar-K/content-store/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "rank:top:"

// KV is the subset of the Redis client the cache needs.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type RankCache struct {
	kv     KV
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

func New(kv KV, ttl time.Duration) *RankCache {
	return &RankCache{
		kv:     kv,
		ttl:    ttl,
		logger: slog.Default().With("component", "rank-cache"),
	}
}

func (c *RankCache) get(ctx context.Context, key string) ([]model.Post, bool) {
	data, err := c.kv.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	var posts []model.Post
	if err := json.Unmarshal([]byte(data), &posts); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	return posts, true
}

func (c *RankCache) set(ctx context.Context, key string, posts []model.Post) {
	data, err := json.Marshal(posts)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.kv.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached ranking for (fingerprint, k), or runs
// compute once per key across concurrent callers and stores the result.
// Redis failures degrade to computing; only compute errors are returned.
func (c *RankCache) GetOrCompute(
	ctx context.Context,
	fingerprint uint64,
	k int,
	compute func() ([]model.Post, error),
) ([]model.Post, bool, error) {
	key := buildKey(fingerprint, k)
	if posts, ok := c.get(ctx, key); ok {
		c.hits.Add(1)
		return posts, true, nil
	}
	c.misses.Add(1)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if posts, ok := c.get(ctx, key); ok {
			return posts, nil
		}
		posts, err := compute()
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, posts)
		return posts, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]model.Post), false, nil
}

// Invalidate drops every cached ranking.
func (c *RankCache) Invalidate(ctx context.Context) error {
	deleted, err := c.kv.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating rank cache: %w", err)
	}
	c.logger.Info("rank cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *RankCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func buildKey(fingerprint uint64, k int) string {
	return fmt.Sprintf("%s%016x:k=%d", keyPrefix, fingerprint, k)
}
