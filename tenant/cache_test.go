package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/mock/gomock"
)

func newCacheRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCachedLookup_ReadThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	mr, rdb := newCacheRedis(t)

	acme := &Tenant{ID: "t-1", Slug: "acme", Name: "Acme", IsActive: true}
	next := NewMockLookup(ctrl)
	next.EXPECT().FindByID(gomock.Any(), "t-1").Return(acme, nil).Times(1)

	c := NewCachedLookup(next, rdb, "test", 0, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := c.FindByID(ctx, "t-1")
		if err != nil {
			t.Fatalf("FindByID #%d: %v", i, err)
		}
		if got.Slug != "acme" || !got.IsActive {
			t.Fatalf("unexpected tenant %+v", got)
		}
	}
	if ttl := mr.TTL("test:tenant:id:t-1"); ttl != DefaultCacheTTL {
		t.Fatalf("expected ttl %v, got %v", DefaultCacheTTL, ttl)
	}

	if err := c.Invalidate(ctx, acme); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if mr.Exists("test:tenant:id:t-1") {
		t.Fatal("entry should be gone")
	}
}

func TestCachedLookup_MissNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	mr, rdb := newCacheRedis(t)

	next := NewMockLookup(ctrl)
	next.EXPECT().FindBySlug(gomock.Any(), "ghost").Return(nil, ErrTenantNotFound).Times(2)

	c := NewCachedLookup(next, rdb, "test", 0, nil)
	for i := 0; i < 2; i++ {
		if _, err := c.FindBySlug(context.Background(), "ghost"); !errors.Is(err, ErrTenantNotFound) {
			t.Fatalf("expected ErrTenantNotFound, got %v", err)
		}
	}
	if mr.Exists("test:tenant:slug:ghost") {
		t.Fatal("miss must not be cached")
	}
}

func TestCachedLookup_RedisDownFallsThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	mr, rdb := newCacheRedis(t)
	mr.Close()

	acme := &Tenant{ID: "t-1", Slug: "acme", IsActive: true}
	next := NewMockLookup(ctrl)
	next.EXPECT().FindByID(gomock.Any(), "t-1").Return(acme, nil)

	c := NewCachedLookup(next, rdb, "test", 0, nil)
	got, err := c.FindByID(context.Background(), "t-1")
	if err != nil || got.ID != "t-1" {
		t.Fatalf("expected fallthrough, got %+v, %v", got, err)
	}
}
