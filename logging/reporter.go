package logging

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Incident is one event forwarded to the error-tracking sink.
type Incident struct {
	Kind      string
	Severity  string
	Message   string
	Err       error
	RequestID string
	UserID    string
	TenantID  string
	Path      string
	Method    string
	Tags      map[string]string
	Time      time.Time
}

// Reporter forwards incidents to an external error-tracking system.
type Reporter interface {
	Report(ctx context.Context, inc Incident)
}

// NopReporter drops every incident.
type NopReporter struct{}

// Report implements Reporter.
func (NopReporter) Report(context.Context, Incident) {}

// LogReporter writes incidents as structured error lines, throttled so a
// burst of failures cannot flood the sink.
type LogReporter struct {
	logger  Logger
	limiter *rate.Limiter
	dropped atomic.Uint64
}

// NewLogReporter returns a LogReporter allowing perSecond incidents with the
// given burst. A non-positive perSecond disables throttling.
func NewLogReporter(l Logger, perSecond float64, burst int) *LogReporter {
	if l == nil {
		l = NewNop()
	}
	lim := rate.NewLimiter(rate.Inf, 0)
	if perSecond > 0 {
		if burst <= 0 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return &LogReporter{logger: l, limiter: lim}
}

// Report implements Reporter.
func (r *LogReporter) Report(_ context.Context, inc Incident) {
	if !r.limiter.Allow() {
		r.dropped.Add(1)
		return
	}
	if inc.Time.IsZero() {
		inc.Time = time.Now()
	}

	kv := []any{
		"incident", inc.Kind,
		"severity", inc.Severity,
		"request_id", inc.RequestID,
		"user_id", inc.UserID,
		"tenant_id", inc.TenantID,
		"path", inc.Path,
		"method", inc.Method,
		"at", inc.Time,
	}
	if inc.Err != nil {
		kv = append(kv, "error", inc.Err.Error())
	}
	for k, v := range inc.Tags {
		kv = append(kv, k, v)
	}
	r.logger.Errorw(inc.Message, kv...)
}

// Dropped returns the number of incidents suppressed by throttling.
func (r *LogReporter) Dropped() uint64 {
	return r.dropped.Load()
}
