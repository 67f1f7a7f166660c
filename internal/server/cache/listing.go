// Package cache memoizes children listings. Keys embed a per-owner
// generation counter, so invalidating an owner's listings is one INCR and
// stale entries simply age out.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const rootKey = "root"

// ListingCache caches ListChildren results per owner and parent.
type ListingCache interface {
	// Lookup returns the cached listing when hit is true. The returned token
	// must be passed to Store so a listing read before a concurrent
	// invalidation cannot be served afterwards.
	Lookup(ctx context.Context, ownerID string, parentID *string) (entries []*models.Entry, token string, hit bool, err error)
	Store(ctx context.Context, token string, entries []*models.Entry) error
	// Invalidate drops every cached listing of ownerID.
	Invalidate(ctx context.Context, ownerID string) error
}

// RedisListingCache implements ListingCache on Redis.
type RedisListingCache struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisListingCache builds a cache storing keys under prefix with the given TTL.
func NewRedisListingCache(rdb redis.UniversalClient, prefix string, ttl time.Duration) *RedisListingCache {
	return &RedisListingCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *RedisListingCache) generationKey(ownerID string) string {
	return fmt.Sprintf("%s:listing:%s:gen", c.prefix, ownerID)
}

func (c *RedisListingCache) Lookup(ctx context.Context, ownerID string, parentID *string) ([]*models.Entry, string, bool, error) {
	gen, err := c.rdb.Get(ctx, c.generationKey(ownerID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, "", false, fmt.Errorf("read generation: %w", err)
	}

	parent := rootKey
	if parentID != nil {
		parent = *parentID
	}
	token := fmt.Sprintf("%s:listing:%s:%d:%s", c.prefix, ownerID, gen, parent)

	raw, err := c.rdb.Get(ctx, token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, token, false, nil
	}
	if err != nil {
		return nil, token, false, fmt.Errorf("read listing: %w", err)
	}

	var entries []*models.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, token, false, fmt.Errorf("decode listing: %w", err)
	}
	return entries, token, true, nil
}

func (c *RedisListingCache) Store(ctx context.Context, token string, entries []*models.Entry) error {
	if token == "" {
		return nil
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode listing: %w", err)
	}
	if err := c.rdb.Set(ctx, token, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("write listing: %w", err)
	}
	return nil
}

func (c *RedisListingCache) Invalidate(ctx context.Context, ownerID string) error {
	if err := c.rdb.Incr(ctx, c.generationKey(ownerID)).Err(); err != nil {
		return fmt.Errorf("bump generation: %w", err)
	}
	return nil
}

// NopListingCache never hits. It is used when Redis is not configured.
type NopListingCache struct{}

func (NopListingCache) Lookup(ctx context.Context, ownerID string, parentID *string) ([]*models.Entry, string, bool, error) {
	return nil, "", false, nil
}

func (NopListingCache) Store(ctx context.Context, token string, entries []*models.Entry) error {
	return nil
}

func (NopListingCache) Invalidate(ctx context.Context, ownerID string) error {
	return nil
}
