// Package redisstore persists refresh records in Redis.
//
// Layout, for prefix p:
//
//	p:rt:<hash>              hash record, expires RetentionAfterExpiry after expiresAt
//	p:rtu:<userType>:<uid>   set of token hashes per principal
//	p:rtexp                  sorted set of token hashes scored by expiresAt (ms)
//	p:rtown                  hash of token hash -> "<userType>:<uid>"
//
// The owner hash has no TTL, so the sweep can clean the principal index even
// after the record key itself has expired or been evicted.
//
// Records outlive their expiry by the retention window so that validation can
// still distinguish an expired token from an unknown one until it is swept.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrEthical07/goGuard/refresh"
	"github.com/MrEthical07/goGuard/session"
)

// DefaultRetentionAfterExpiry keeps expired records readable until swept.
const DefaultRetentionAfterExpiry = 24 * time.Hour

const (
	fieldID         = "id"
	fieldEncrypted  = "enc"
	fieldUserID     = "uid"
	fieldUserType   = "utype"
	fieldTenantID   = "tid"
	fieldExpiresAt  = "exp"
	fieldRevoked    = "revoked"
	fieldRevokedAt  = "revoked_at"
	fieldLastUsedAt = "last_used_at"
	fieldCreatedAt  = "created_at"
)

// revokeScript flips a live record to revoked. Returns 1 when it changed.
const revokeScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
if redis.call("HGET", KEYS[1], "revoked") == "1" then
  return 0
end
redis.call("HSET", KEYS[1], "revoked", "1", "revoked_at", ARGV[1])
return 1
`

// touchScript updates last use without recreating a missing record.
const touchScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("HSET", KEYS[1], "last_used_at", ARGV[1])
return 1
`

var (
	revokeLua = redis.NewScript(revokeScript)
	touchLua  = redis.NewScript(touchScript)
)

var _ refresh.Repository = (*Repository)(nil)

// Repository implements refresh.Repository over Redis.
type Repository struct {
	redis     redis.UniversalClient
	prefix    string
	retention time.Duration
	tracer    trace.Tracer
}

// New returns a Repository. An empty prefix defaults to "gg".
func New(client redis.UniversalClient, prefix string) *Repository {
	if prefix == "" {
		prefix = "gg"
	}
	return &Repository{
		redis:     client,
		prefix:    prefix,
		retention: DefaultRetentionAfterExpiry,
		tracer:    otel.Tracer("github.com/MrEthical07/goGuard/refresh/redisstore"),
	}
}

// WithRetention overrides DefaultRetentionAfterExpiry.
func (r *Repository) WithRetention(d time.Duration) *Repository {
	if d > 0 {
		r.retention = d
	}
	return r
}

func (r *Repository) recordKey(hash string) string {
	return r.prefix + ":rt:" + hash
}

func (r *Repository) principalKey(userType session.UserType, userID string) string {
	return r.prefix + ":rtu:" + string(userType) + ":" + userID
}

func (r *Repository) expiryKey() string {
	return r.prefix + ":rtexp"
}

func (r *Repository) ownerKey() string {
	return r.prefix + ":rtown"
}

func ownerValue(userType session.UserType, userID string) string {
	return string(userType) + ":" + userID
}

func parseOwner(v string) (session.UserType, string, bool) {
	utype, uid, ok := strings.Cut(v, ":")
	if !ok || uid == "" {
		return "", "", false
	}
	return session.UserType(utype), uid, true
}

func (r *Repository) Create(ctx context.Context, rec *refresh.Record) error {
	ctx, span := r.tracer.Start(ctx, "redisstore.Create")
	defer span.End()

	key := r.recordKey(rec.TokenHash)
	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			fieldID, rec.ID,
			fieldEncrypted, rec.TokenEncrypted,
			fieldUserID, rec.UserID,
			fieldUserType, string(rec.UserType),
			fieldTenantID, rec.TenantID,
			fieldExpiresAt, millis(rec.ExpiresAt),
			fieldRevoked, "0",
			fieldCreatedAt, millis(rec.CreatedAt),
		)
		pipe.PExpireAt(ctx, key, rec.ExpiresAt.Add(r.retention))
		pipe.SAdd(ctx, r.principalKey(rec.UserType, rec.UserID), rec.TokenHash)
		pipe.ZAdd(ctx, r.expiryKey(), redis.Z{Score: float64(rec.ExpiresAt.UnixMilli()), Member: rec.TokenHash})
		pipe.HSet(ctx, r.ownerKey(), rec.TokenHash, ownerValue(rec.UserType, rec.UserID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", refresh.ErrRepositoryUnavailable, err)
	}
	return nil
}

func (r *Repository) FindByHash(ctx context.Context, tokenHash string) (*refresh.Record, error) {
	ctx, span := r.tracer.Start(ctx, "redisstore.FindByHash")
	defer span.End()

	fields, err := r.redis.HGetAll(ctx, r.recordKey(tokenHash)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", refresh.ErrRepositoryUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, refresh.ErrRecordNotFound
	}

	rec, err := decodeRecord(tokenHash, fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", refresh.ErrRepositoryUnavailable, err)
	}
	return rec, nil
}

func (r *Repository) MarkRevoked(ctx context.Context, tokenHash string, at time.Time) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "redisstore.MarkRevoked")
	defer span.End()

	n, err := revokeLua.Run(ctx, r.redis, []string{r.recordKey(tokenHash)}, millis(at)).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", refresh.ErrRepositoryUnavailable, err)
	}
	return n, nil
}

// RevokeAllForUser revokes every indexed record of the principal. Records
// issued while the call is in flight may survive; callers that need a hard
// cut-off should also rotate the signing secret.
func (r *Repository) RevokeAllForUser(ctx context.Context, userID string, userType session.UserType, at time.Time) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "redisstore.RevokeAllForUser")
	defer span.End()

	idx := r.principalKey(userType, userID)
	hashes, err := r.redis.SMembers(ctx, idx).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", refresh.ErrRepositoryUnavailable, err)
	}

	var revoked int64
	for _, h := range hashes {
		n, err := revokeLua.Run(ctx, r.redis, []string{r.recordKey(h)}, millis(at)).Int64()
		if err != nil {
			return revoked, fmt.Errorf("%w: %v", refresh.ErrRepositoryUnavailable, err)
		}
		revoked += n
	}
	return revoked, nil
}

func (r *Repository) Touch(ctx context.Context, tokenHash string, at time.Time) error {
	ctx, span := r.tracer.Start(ctx, "redisstore.Touch")
	defer span.End()

	if err := touchLua.Run(ctx, r.redis, []string{r.recordKey(tokenHash)}, millis(at)).Err(); err != nil {
		return fmt.Errorf("%w: %v", refresh.ErrRepositoryUnavailable, err)
	}
	return nil
}

func (r *Repository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "redisstore.DeleteExpired")
	defer span.End()

	hashes, err := r.redis.ZRangeByScore(ctx, r.expiryKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + millis(before),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", refresh.ErrRepositoryUnavailable, err)
	}
	if len(hashes) == 0 {
		return 0, nil
	}

	owners, err := r.redis.HMGet(ctx, r.ownerKey(), hashes...).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", refresh.ErrRepositoryUnavailable, err)
	}

	var deleted int64
	_, err = r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, h := range hashes {
			if v, ok := owners[i].(string); ok {
				if utype, uid, ok := parseOwner(v); ok {
					pipe.SRem(ctx, r.principalKey(utype, uid), h)
				}
			}
			pipe.Del(ctx, r.recordKey(h))
			pipe.HDel(ctx, r.ownerKey(), h)
			pipe.ZRem(ctx, r.expiryKey(), h)
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", refresh.ErrRepositoryUnavailable, err)
	}
	return deleted, nil
}

func decodeRecord(hash string, f map[string]string) (*refresh.Record, error) {
	exp, err := parseMillis(f[fieldExpiresAt])
	if err != nil {
		return nil, errors.New("corrupt expires_at")
	}
	created, err := parseMillis(f[fieldCreatedAt])
	if err != nil {
		return nil, errors.New("corrupt created_at")
	}

	rec := &refresh.Record{
		ID:             f[fieldID],
		TokenHash:      hash,
		TokenEncrypted: f[fieldEncrypted],
		UserID:         f[fieldUserID],
		UserType:       session.UserType(f[fieldUserType]),
		TenantID:       f[fieldTenantID],
		ExpiresAt:      exp,
		Revoked:        f[fieldRevoked] == "1",
		CreatedAt:      created,
	}
	if v := f[fieldRevokedAt]; v != "" {
		if t, err := parseMillis(v); err == nil {
			rec.RevokedAt = &t
		}
	}
	if v := f[fieldLastUsedAt]; v != "" {
		if t, err := parseMillis(v); err == nil {
			rec.LastUsedAt = &t
		}
	}
	return rec, nil
}

func millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func parseMillis(s string) (time.Time, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}
