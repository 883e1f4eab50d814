package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/MrEthical07/goGuard/logging"
)

var (
	// ErrLimitExceeded is returned by Decision.Err when the request is throttled.
	ErrLimitExceeded = errors.New("ratelimit: limit exceeded")
	// ErrUnknownTier is returned for tiers without a configured limit.
	ErrUnknownTier = errors.New("ratelimit: unknown tier")
	// ErrRedisUnavailable wraps backend failures.
	ErrRedisUnavailable = errors.New("ratelimit: redis unavailable")
)

var slidingLog = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call("ZREMRANGEBYSCORE", key, "-inf", now - window)
local count = redis.call("ZCARD", key)
local allowed = 0
if count < limit then
  redis.call("ZADD", key, now, member)
  count = count + 1
  allowed = 1
end
redis.call("PEXPIRE", key, window)

local reset = now + window
local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
if oldest[2] then
  reset = tonumber(oldest[2]) + window
end
return {allowed, count, reset}
`)

// Decision is the outcome of one check.
type Decision struct {
	Tier      Tier
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// Degraded is set when the backend failed and the request was let through.
	Degraded bool
}

// Err returns ErrLimitExceeded for a denied decision.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return ErrLimitExceeded
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithLimits overrides tier budgets. Unlisted tiers keep their defaults.
func WithLimits(limits map[Tier]Limit) Option {
	return func(l *Limiter) {
		for t, lim := range limits {
			l.limits[t] = lim
		}
	}
}

// WithPrefix sets the Redis key prefix.
func WithPrefix(prefix string) Option {
	return func(l *Limiter) {
		if prefix != "" {
			l.prefix = prefix
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the logger used for fail-open warnings.
func WithLogger(log logging.Logger) Option {
	return func(l *Limiter) {
		if log != nil {
			l.log = log
		}
	}
}

// WithDegradedHook is called on every fail-open decision.
func WithDegradedHook(fn func(ctx context.Context, tier Tier, err error)) Option {
	return func(l *Limiter) {
		l.onDegraded = fn
	}
}

// Limiter checks tiered sliding-window limits.
type Limiter struct {
	redis      redis.UniversalClient
	limits     map[Tier]Limit
	prefix     string
	now        func() time.Time
	log        logging.Logger
	warn       rate.Sometimes
	onDegraded func(ctx context.Context, tier Tier, err error)
}

// New creates a Limiter backed by client.
func New(client redis.UniversalClient, opts ...Option) (*Limiter, error) {
	l := &Limiter{
		redis:  client,
		limits: DefaultLimits(),
		prefix: "gg:rl",
		now:    time.Now,
		log:    logging.NewNop(),
		warn:   rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	if client == nil {
		return nil, fmt.Errorf("%w: nil client", ErrRedisUnavailable)
	}
	for t, lim := range l.limits {
		if err := lim.validate(t); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Limit returns the budget for tier.
func (l *Limiter) Limit(tier Tier) (Limit, bool) {
	lim, ok := l.limits[tier]
	return lim, ok
}

// Key returns the Redis key for identity under tier.
func (l *Limiter) Key(tier Tier, identity string) string {
	if identity == "" {
		identity = UnknownIdentity
	}
	return l.prefix + ":" + string(tier) + ":" + strings.ToLower(identity)
}

// Check records one request for identity and reports whether it is allowed.
// Backend failures fail open.
func (l *Limiter) Check(ctx context.Context, identity string, tier Tier) Decision {
	lim, ok := l.limits[tier]
	if !ok {
		l.degrade(ctx, tier, fmt.Errorf("%w: %s", ErrUnknownTier, tier))
		return Decision{Tier: tier, Allowed: true, Degraded: true}
	}

	now := l.now()
	d, err := l.eval(ctx, l.Key(tier, identity), now, lim)
	if err != nil {
		l.degrade(ctx, tier, err)
		return Decision{
			Tier:      tier,
			Allowed:   true,
			Limit:     lim.Requests,
			Remaining: lim.Requests,
			ResetAt:   now.Add(lim.Window),
			Degraded:  true,
		}
	}
	d.Tier = tier
	return d
}

func (l *Limiter) eval(ctx context.Context, key string, now time.Time, lim Limit) (Decision, error) {
	res, err := slidingLog.Run(ctx, l.redis, []string{key},
		now.UnixMilli(),
		lim.Window.Milliseconds(),
		lim.Requests,
		ulid.Make().String(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("%w: unexpected script reply %v", ErrRedisUnavailable, res)
	}

	remaining := lim.Requests - int(res[1])
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   res[0] == 1,
		Limit:     lim.Requests,
		Remaining: remaining,
		ResetAt:   time.UnixMilli(res[2]),
	}, nil
}

func (l *Limiter) degrade(ctx context.Context, tier Tier, err error) {
	l.warn.Do(func() {
		logging.FromContext(ctx, l.log).Warnw("rate limiter failing open",
			"tier", string(tier),
			"error", err,
		)
	})
	if l.onDegraded != nil {
		l.onDegraded(ctx, tier, err)
	}
}

// Reset clears the window for identity under tier.
func (l *Limiter) Reset(ctx context.Context, identity string, tier Tier) error {
	if err := l.redis.Del(ctx, l.Key(tier, identity)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
