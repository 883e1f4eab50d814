package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

type gateSink struct {
	gate chan struct{}
	mu   sync.Mutex
	got  []Event
}

func newGateSink() *gateSink {
	return &gateSink{gate: make(chan struct{})}
}

func (s *gateSink) Emit(_ context.Context, e Event) {
	<-s.gate
	s.mu.Lock()
	s.got = append(s.got, e)
	s.mu.Unlock()
}

type recordingLogger struct {
	msg string
	kv  []any
}

func (l *recordingLogger) Infow(msg string, kv ...any) {
	l.msg = msg
	l.kv = kv
}

func TestDispatcher_DisabledIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NoOpSink{})
	if d != nil {
		t.Fatal("disabled dispatcher should be nil")
	}
	d.Emit(context.Background(), Event{EventType: "x"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher dropped count must be zero")
	}
}

func TestDispatcher_StampsIDAndTimestamp(t *testing.T) {
	sink := NewChannelSink(4)
	n := 0
	d := NewDispatcher(Config{
		Enabled:    true,
		BufferSize: 4,
		NextID: func() string {
			n++
			return fmt.Sprintf("evt-%d", n)
		},
		Now: func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	}, sink)
	defer d.Close()

	d.Emit(context.Background(), Event{EventType: "login_success"})
	d.Emit(context.Background(), Event{ID: "preset", EventType: "logout"})

	first := <-sink.Events()
	second := <-sink.Events()
	if first.ID != "evt-1" || first.Timestamp.Year() != 2026 {
		t.Fatalf("first event not stamped: %+v", first)
	}
	if second.ID != "preset" {
		t.Fatalf("preset id overwritten: %q", second.ID)
	}
}

func TestDispatcher_DropIfFull(t *testing.T) {
	sink := newGateSink()
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// One event is held by the blocked sink, one fills the buffer.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{EventType: "waf_block"})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected drops with a blocked sink")
	}

	close(sink.gate)
	d.Close()

	sink.mu.Lock()
	delivered := len(sink.got)
	sink.mu.Unlock()
	if uint64(delivered)+d.Dropped() != 10 {
		t.Fatalf("delivered %d + dropped %d != 10", delivered, d.Dropped())
	}
}

func TestDispatcher_BlockingHonorsContext(t *testing.T) {
	sink := newGateSink()
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)
	defer func() {
		close(sink.gate)
		d.Close()
	}()

	d.Emit(context.Background(), Event{EventType: "a"})
	d.Emit(context.Background(), Event{EventType: "b"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		d.Emit(ctx, Event{EventType: "c"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit did not return after ctx deadline")
	}
	if d.Dropped() != 0 {
		t.Fatal("blocking mode must not count drops")
	}
}

func TestDispatcher_CloseDrains(t *testing.T) {
	sink := NewChannelSink(16)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 16}, sink)
	for i := 0; i < 8; i++ {
		d.Emit(context.Background(), Event{EventType: "refresh_success"})
	}
	d.Close()
	d.Emit(context.Background(), Event{EventType: "after_close"})

	if got := len(sink.Events()); got != 8 {
		t.Fatalf("expected 8 drained events, got %d", got)
	}
}

type panicSink struct {
	next Sink
}

func (s panicSink) Emit(ctx context.Context, e Event) {
	if e.EventType == "boom" {
		panic("sink exploded")
	}
	s.next.Emit(ctx, e)
}

func TestDispatcher_SinkPanicIsContained(t *testing.T) {
	out := NewChannelSink(4)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, panicSink{next: out})

	d.Emit(context.Background(), Event{EventType: "boom"})
	d.Emit(context.Background(), Event{EventType: "login_success"})
	d.Close()

	if d.Failed() != 1 {
		t.Fatalf("failed = %d, want 1", d.Failed())
	}
	if got := len(out.Events()); got != 1 {
		t.Fatalf("expected delivery to continue after a panic, got %d events", got)
	}
}

func TestDispatcher_CloseReleasesBlockedEmit(t *testing.T) {
	sink := newGateSink()
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)

	d.Emit(context.Background(), Event{EventType: "a"})
	d.Emit(context.Background(), Event{EventType: "b"})

	done := make(chan struct{})
	go func() {
		d.Emit(context.Background(), Event{EventType: "c"})
		close(done)
	}()

	closed := make(chan struct{})
	go func() {
		d.Close()
		close(closed)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not release the blocked Emit")
	}
	close(sink.gate)
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after the sink drained")
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewJSONWriterSink(&buf)
	s.Emit(context.Background(), Event{ID: "1", EventType: "login_failure", TenantID: "t1", Error: "invalid_credentials"})
	s.Emit(context.Background(), Event{ID: "2", EventType: "logout", Success: true})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var e Event
	if err := json.Unmarshal([]byte(lines[0]), &e); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if e.TenantID != "t1" || e.Error != "invalid_credentials" {
		t.Fatalf("unexpected event: %+v", e)
	}
	if strings.Contains(lines[1], "tenant_id") {
		t.Fatalf("empty tenant should be omitted: %s", lines[1])
	}
}

func TestLoggerSink_SkipsEmptyFields(t *testing.T) {
	l := &recordingLogger{}
	MultiSink{nil, NewLoggerSink(l)}.Emit(context.Background(), Event{
		ID:        "abc",
		EventType: "tenant_isolation_violation",
		TenantID:  "t1",
		Severity:  "high",
	})

	if l.msg != "audit" {
		t.Fatalf("msg = %q", l.msg)
	}
	keys := map[string]bool{}
	for i := 0; i < len(l.kv); i += 2 {
		keys[l.kv[i].(string)] = true
	}
	for _, k := range []string{"audit_id", "event_type", "success", "tenant_id", "severity"} {
		if !keys[k] {
			t.Errorf("missing key %s", k)
		}
	}
	for _, k := range []string{"user_id", "ip", "error", "metadata"} {
		if keys[k] {
			t.Errorf("unexpected key %s", k)
		}
	}
}
