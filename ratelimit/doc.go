// Package ratelimit implements tiered sliding-window rate limits in Redis.
//
// Every check runs one Lua script against a sorted set keyed by tier and
// client identity. The script prunes entries older than the window, counts
// what remains, records the request if under the limit, and reports when the
// oldest entry leaves the window. Redis provides the atomicity; the process
// holds no counters.
//
// When Redis is unreachable the limiter fails open: the request is allowed,
// the decision is marked Degraded, and a throttled warning is logged.
package ratelimit
