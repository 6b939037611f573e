// Package cache holds the optional availability read cache. Reads through it
// may be stale until the next commit invalidates the product.
package cache

import (
	"context"
	stderrors "errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Youmanvi/venuereserve/internal/domain"
	"github.com/Youmanvi/venuereserve/internal/infrastructure/config"
)

// AvailabilityCache stores fungible availability counts per product and range
type AvailabilityCache interface {
	Count(ctx context.Context, productID string, r domain.DateRange) (int, bool, error)
	SetCount(ctx context.Context, productID string, r domain.DateRange, count int) error
	Invalidate(ctx context.Context, productIDs ...string) error
}

// RedisCache keeps one hash per product, keyed by range
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisCache wraps an existing client
func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// NewFromConfig connects to redis when the cache is enabled and returns a
// no-op cache otherwise.
func NewFromConfig(ctx context.Context, cfg *config.CacheConfig) (AvailabilityCache, func() error, error) {
	if !cfg.Enabled {
		return NopCache{}, func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, err
	}
	return NewRedisCache(client, cfg.TTL), client.Close, nil
}

func key(productID string) string {
	return "availability:" + productID
}

func field(r domain.DateRange) string {
	return r.CheckIn.Format(domain.DateLayout) + "/" + r.CheckOut.Format(domain.DateLayout)
}

// Count returns the cached count and whether it was present
func (c *RedisCache) Count(ctx context.Context, productID string, r domain.DateRange) (int, bool, error) {
	val, err := c.client.HGet(ctx, key(productID), field(r)).Result()
	if stderrors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

// SetCount stores a count and refreshes the product hash expiry
func (c *RedisCache) SetCount(ctx context.Context, productID string, r domain.DateRange, count int) error {
	k := key(productID)
	if err := c.client.HSet(ctx, k, field(r), strconv.Itoa(count)).Err(); err != nil {
		return err
	}
	return c.client.Expire(ctx, k, c.ttl).Err()
}

// Invalidate drops every cached range of the products
func (c *RedisCache) Invalidate(ctx context.Context, productIDs ...string) error {
	if len(productIDs) == 0 {
		return nil
	}
	keys := make([]string, len(productIDs))
	for i, id := range productIDs {
		keys[i] = key(id)
	}
	return c.client.Del(ctx, keys...).Err()
}

// NopCache always misses
type NopCache struct{}

func (NopCache) Count(context.Context, string, domain.DateRange) (int, bool, error) {
	return 0, false, nil
}

func (NopCache) SetCount(context.Context, string, domain.DateRange, int) error { return nil }

func (NopCache) Invalidate(context.Context, ...string) error { return nil }
