package drills

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	cacheGenerationKey = "drills:gen"
	defaultCacheTTL    = 5 * time.Minute
)

// CachedStore decorates a Store with a Redis listing cache. Listings are
// keyed by a generation counter plus the filter; admin writes bump the
// generation, which lazily invalidates every cached listing at once and
// lets the stale generation expire via TTL. Cache failures degrade to the
// underlying store.
type CachedStore struct {
	store Store
	redis *redis.Client
	ttl   time.Duration
	log   *slog.Logger
}

// CachedStoreOption configures a CachedStore.
type CachedStoreOption func(*CachedStore)

// WithCacheTTL overrides the default listing TTL.
func WithCacheTTL(ttl time.Duration) CachedStoreOption {
	return func(c *CachedStore) {
		if ttl <= 0 {
			panic("drills: cache TTL must be positive")
		}
		c.ttl = ttl
	}
}

// WithCacheLogger sets the logger for cache degradation warnings.
func WithCacheLogger(log *slog.Logger) CachedStoreOption {
	return func(c *CachedStore) {
		if log == nil {
			panic("drills: logger cannot be nil")
		}
		c.log = log
	}
}

// NewCachedStore wraps a Store with the Redis listing cache.
func NewCachedStore(store Store, client *redis.Client, opts ...CachedStoreOption) *CachedStore {
	if store == nil {
		panic("drills: store cannot be nil")
	}
	if client == nil {
		panic("drills: redis client cannot be nil")
	}

	c := &CachedStore{
		store: store,
		redis: client,
		ttl:   defaultCacheTTL,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CachedStore) List(ctx context.Context, filter Filter) ([]Drill, error) {
	key := c.listKey(ctx, filter)

	if key != "" {
		cached, err := c.redis.Get(ctx, key).Bytes()
		if err == nil {
			var out []Drill
			if err := json.Unmarshal(cached, &out); err == nil {
				return out, nil
			}
			c.log.WarnContext(ctx, "discarding undecodable drill cache entry", slog.String("key", key))
		} else if err != redis.Nil {
			c.log.WarnContext(ctx, "drill cache read failed", slog.Any("error", err))
		}
	}

	out, err := c.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	if key != "" {
		if encoded, err := json.Marshal(out); err == nil {
			if err := c.redis.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
				c.log.WarnContext(ctx, "drill cache write failed", slog.Any("error", err))
			}
		}
	}

	return out, nil
}

func (c *CachedStore) GetBySlug(ctx context.Context, slug string) (*Drill, error) {
	return c.store.GetBySlug(ctx, slug)
}

func (c *CachedStore) Update(ctx context.Context, id uuid.UUID, patch Patch) (*Drill, error) {
	d, err := c.store.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	return d, nil
}

func (c *CachedStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// listKey builds the cache key for a filter under the current generation.
// Returns empty on Redis failure so the caller skips caching.
func (c *CachedStore) listKey(ctx context.Context, filter Filter) string {
	gen, err := c.redis.Get(ctx, cacheGenerationKey).Int64()
	if err != nil && err != redis.Nil {
		c.log.WarnContext(ctx, "drill cache generation read failed", slog.Any("error", err))
		return ""
	}

	return fmt.Sprintf("drills:list:%d:%s:%s:%s:%s:%s",
		gen, filter.Sport, filter.AgeGroup, filter.SkillLevel, filter.FocusTag, filter.Search)
}

func (c *CachedStore) invalidate(ctx context.Context) {
	if err := c.redis.Incr(ctx, cacheGenerationKey).Err(); err != nil {
		c.log.WarnContext(ctx, "drill cache invalidation failed", slog.Any("error", err))
	}
}
