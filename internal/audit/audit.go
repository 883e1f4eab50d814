package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Event is the canonical audit record.
type Event struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	UserType  string            `json:"user_type,omitempty"`
	TenantID  string            `json:"tenant_id,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	IP        string            `json:"ip,omitempty"`
	Path      string            `json:"path,omitempty"`
	Severity  string            `json:"severity,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink receives emitted audit events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink writes audit events into a buffered channel.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.writer.Write(data)
}

// InfoLogger is the subset of a structured logger LoggerSink needs.
type InfoLogger interface {
	Infow(msg string, keysAndValues ...any)
}

// LoggerSink writes each event as one structured log line.
type LoggerSink struct {
	log InfoLogger
}

func NewLoggerSink(l InfoLogger) *LoggerSink {
	return &LoggerSink{log: l}
}

func (s *LoggerSink) Emit(_ context.Context, e Event) {
	if s == nil || s.log == nil {
		return
	}
	kv := []any{
		"audit_id", e.ID,
		"event_type", e.EventType,
		"success", e.Success,
	}
	for _, f := range [...]struct{ k, v string }{
		{"user_id", e.UserID},
		{"user_type", e.UserType},
		{"tenant_id", e.TenantID},
		{"request_id", e.RequestID},
		{"ip", e.IP},
		{"path", e.Path},
		{"severity", e.Severity},
		{"error", e.Error},
	} {
		if f.v != "" {
			kv = append(kv, f.k, f.v)
		}
	}
	if len(e.Metadata) > 0 {
		kv = append(kv, "metadata", e.Metadata)
	}
	s.log.Infow("audit", kv...)
}

// MultiSink fans an event out to every sink in order.
type MultiSink []Sink

func (m MultiSink) Emit(ctx context.Context, e Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(ctx, e)
		}
	}
}
