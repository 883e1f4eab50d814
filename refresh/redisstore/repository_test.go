package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goGuard/refresh"
	"github.com/MrEthical07/goGuard/session"
)

func newTestRepo(t *testing.T) (*miniredis.Miniredis, *Repository) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, New(client, "test")
}

func record(hash, user string, now time.Time, ttl time.Duration) *refresh.Record {
	return &refresh.Record{
		ID:             "id-" + hash,
		TokenHash:      hash,
		TokenEncrypted: "enc-" + hash,
		UserID:         user,
		UserType:       session.UserTypeTenantUser,
		TenantID:       "tenant-a",
		ExpiresAt:      now.Add(ttl),
		CreatedAt:      now,
	}
}

func TestCreateAndFind(t *testing.T) {
	mr, repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond)

	if err := repo.Create(ctx, record("h1", "u1", now, time.Hour)); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	rec, err := repo.FindByHash(ctx, "h1")
	if err != nil {
		t.Fatalf("FindByHash error: %v", err)
	}
	if rec.ID != "id-h1" || rec.TenantID != "tenant-a" || rec.Revoked {
		t.Fatalf("unexpected record %+v", rec)
	}
	if !rec.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", rec.ExpiresAt)
	}
	if ttl := mr.TTL("test:rt:h1"); ttl <= time.Hour {
		t.Fatalf("expected record to outlive expiry, ttl=%v", ttl)
	}
	if ok, _ := mr.SIsMember("test:rtu:TENANT_USER:u1", "h1"); !ok {
		t.Fatal("expected principal index entry")
	}

	if _, err := repo.FindByHash(ctx, "nope"); !errors.Is(err, refresh.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestMarkRevokedIsIdempotent(t *testing.T) {
	_, repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now()

	if err := repo.Create(ctx, record("h1", "u1", now, time.Hour)); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	n, err := repo.MarkRevoked(ctx, "h1", now)
	if err != nil || n != 1 {
		t.Fatalf("first revoke: n=%d err=%v", n, err)
	}
	n, err = repo.MarkRevoked(ctx, "h1", now.Add(time.Minute))
	if err != nil || n != 0 {
		t.Fatalf("second revoke: n=%d err=%v", n, err)
	}
	n, err = repo.MarkRevoked(ctx, "missing", now)
	if err != nil || n != 0 {
		t.Fatalf("missing revoke: n=%d err=%v", n, err)
	}

	rec, err := repo.FindByHash(ctx, "h1")
	if err != nil {
		t.Fatalf("FindByHash error: %v", err)
	}
	if !rec.Revoked || rec.RevokedAt == nil || rec.RevokedAt.UnixMilli() != now.UnixMilli() {
		t.Fatalf("expected first revocation timestamp to stick, got %+v", rec)
	}
}

func TestRevokeAllForUser(t *testing.T) {
	_, repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now()

	for _, h := range []string{"a", "b", "c"} {
		if err := repo.Create(ctx, record(h, "u1", now, time.Hour)); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}
	if err := repo.Create(ctx, record("other", "u2", now, time.Hour)); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if _, err := repo.MarkRevoked(ctx, "a", now); err != nil {
		t.Fatalf("MarkRevoked error: %v", err)
	}

	n, err := repo.RevokeAllForUser(ctx, "u1", session.UserTypeTenantUser, now)
	if err != nil {
		t.Fatalf("RevokeAllForUser error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 newly revoked, got %d", n)
	}

	other, err := repo.FindByHash(ctx, "other")
	if err != nil {
		t.Fatalf("FindByHash error: %v", err)
	}
	if other.Revoked {
		t.Fatal("expected other principal untouched")
	}
}

func TestTouchDoesNotRecreate(t *testing.T) {
	mr, repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now()

	if err := repo.Touch(ctx, "ghost", now); err != nil {
		t.Fatalf("Touch error: %v", err)
	}
	if mr.Exists("test:rt:ghost") {
		t.Fatal("expected touch to leave missing record absent")
	}

	if err := repo.Create(ctx, record("h1", "u1", now, time.Hour)); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := repo.Touch(ctx, "h1", now); err != nil {
		t.Fatalf("Touch error: %v", err)
	}
	rec, err := repo.FindByHash(ctx, "h1")
	if err != nil {
		t.Fatalf("FindByHash error: %v", err)
	}
	if rec.LastUsedAt == nil {
		t.Fatal("expected lastUsedAt to be set")
	}
}

func TestDeleteExpired(t *testing.T) {
	mr, repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now()

	if err := repo.Create(ctx, record("old", "u1", now.Add(-2*time.Hour), time.Hour)); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := repo.Create(ctx, record("new", "u1", now, time.Hour)); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	n, err := repo.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpired error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 deleted, got %d", n)
	}
	if mr.Exists("test:rt:old") {
		t.Fatal("expected expired record removed")
	}
	if ok, _ := mr.SIsMember("test:rtu:TENANT_USER:u1", "old"); ok {
		t.Fatal("expected expired record removed from principal index")
	}
	if !mr.Exists("test:rt:new") {
		t.Fatal("expected live record kept")
	}

	n, err = repo.DeleteExpired(ctx, now)
	if err != nil || n != 0 {
		t.Fatalf("second sweep: n=%d err=%v", n, err)
	}
}

func TestDeleteExpiredAfterRecordEvicted(t *testing.T) {
	mr, repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now()

	if err := repo.Create(ctx, record("gone", "u1", now.Add(-2*time.Hour), time.Hour)); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := repo.Create(ctx, record("kept", "u1", now, time.Hour)); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	mr.Del("test:rt:gone")

	n, err := repo.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpired error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 deleted, got %d", n)
	}
	if ok, _ := mr.SIsMember("test:rtu:TENANT_USER:u1", "gone"); ok {
		t.Fatal("evicted record left in principal index")
	}
	if ok, _ := mr.SIsMember("test:rtu:TENANT_USER:u1", "kept"); !ok {
		t.Fatal("live record dropped from principal index")
	}
	if mr.HGet("test:rtown", "gone") != "" {
		t.Fatal("owner entry not removed")
	}
	if mr.HGet("test:rtown", "kept") != "TENANT_USER:u1" {
		t.Fatalf("owner entry = %q", mr.HGet("test:rtown", "kept"))
	}
}
