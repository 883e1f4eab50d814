package logging

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewBackends(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatConsole, ""} {
		l, err := New(Config{Level: "debug", Format: format})
		if err != nil {
			t.Fatalf("New(%q) error: %v", format, err)
		}
		l.With("k", "v").Debugw("ok")
	}

	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Fatal("expected unknown format to fail")
	}
}

func TestNewWithRotatingFile(t *testing.T) {
	dir := t.TempDir()
	l, err := New(Config{Format: FormatJSON, File: filepath.Join(dir, "goguard.%Y%m%d.log")})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	l.Infow("written to file")
	_ = l.Sync()
}

func TestLevelFromString(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := levelFromString(in); got != want {
			t.Fatalf("levelFromString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestContextLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := NewFromZap(zap.New(core))

	ctx := WithContext(context.Background(), base.With("request_id", "r-1"))
	FromContext(ctx, NewNop()).Infow("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["request_id"] != "r-1" {
		t.Fatalf("expected request_id on entry, got %v", entries[0].ContextMap())
	}

	if FromContext(context.Background(), nil) == nil {
		t.Fatal("expected nop fallback")
	}
}

func TestLogReporterThrottles(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := NewLogReporter(NewFromZap(zap.New(core)), 0.001, 2)

	for i := 0; i < 5; i++ {
		r.Report(context.Background(), Incident{Kind: "panic", Message: "boom", Err: errors.New("x"), TenantID: "t1"})
	}

	if got := logs.Len(); got != 2 {
		t.Fatalf("expected 2 reported incidents, got %d", got)
	}
	if r.Dropped() != 3 {
		t.Fatalf("expected 3 dropped incidents, got %d", r.Dropped())
	}
	if logs.All()[0].ContextMap()["tenant_id"] != "t1" {
		t.Fatalf("expected tenant context on incident")
	}
}
