package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goGuard/logging"
)

// DefaultCacheTTL bounds how long a deactivated tenant may still resolve.
const DefaultCacheTTL = 30 * time.Second

// CachedLookup is a Redis read-through cache in front of another Lookup.
// Misses are not cached.
type CachedLookup struct {
	next   Lookup
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	log    logging.Logger
}

// NewCachedLookup wraps next. A zero ttl uses DefaultCacheTTL.
func NewCachedLookup(next Lookup, client redis.UniversalClient, prefix string, ttl time.Duration, log logging.Logger) *CachedLookup {
	if prefix == "" {
		prefix = "gg"
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &CachedLookup{next: next, client: client, prefix: prefix, ttl: ttl, log: log}
}

// FindByID implements Lookup.
func (c *CachedLookup) FindByID(ctx context.Context, id string) (*Tenant, error) {
	return c.cached(ctx, c.prefix+":tenant:id:"+id, func() (*Tenant, error) {
		return c.next.FindByID(ctx, id)
	})
}

// FindBySlug implements Lookup.
func (c *CachedLookup) FindBySlug(ctx context.Context, slug string) (*Tenant, error) {
	return c.cached(ctx, c.prefix+":tenant:slug:"+slug, func() (*Tenant, error) {
		return c.next.FindBySlug(ctx, slug)
	})
}

// Invalidate drops both cache entries for t.
func (c *CachedLookup) Invalidate(ctx context.Context, t *Tenant) error {
	return c.client.Del(ctx, c.prefix+":tenant:id:"+t.ID, c.prefix+":tenant:slug:"+t.Slug).Err()
}

func (c *CachedLookup) cached(ctx context.Context, key string, load func() (*Tenant, error)) (*Tenant, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var t Tenant
		if jerr := json.Unmarshal(raw, &t); jerr == nil {
			return &t, nil
		}
		c.log.Warnw("tenant cache entry corrupt", "key", key)
	case !errors.Is(err, redis.Nil):
		c.log.Warnw("tenant cache unavailable", "error", err)
	}

	t, err := load()
	if err != nil {
		return nil, err
	}
	if b, jerr := json.Marshal(t); jerr == nil {
		if serr := c.client.Set(ctx, key, b, c.ttl).Err(); serr != nil {
			c.log.Warnw("tenant cache write failed", "error", serr)
		}
	}
	return t, nil
}
