package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format selects the logging backend.
type Format string

const (
	// FormatJSON writes one JSON object per line.
	FormatJSON Format = "json"
	// FormatConsole writes human readable lines.
	FormatConsole Format = "console"
)

// Logger is the structured logging capability.
type Logger interface {
	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
	With(keysAndValues ...any) Logger
	Sync() error
}

// Config controls backend selection and output.
type Config struct {
	Level  string
	Format Format
	// File enables rotating file output. It is a strftime pattern such as
	// /var/log/goguard/app.%Y%m%d.log.
	File         string
	MaxAge       time.Duration
	RotationTime time.Duration
}

type zapLogger struct {
	s *zap.SugaredLogger
}

// New builds a zap-backed Logger.
func New(cfg Config) (Logger, error) {
	lvl := levelFromString(cfg.Level)

	out, err := output(cfg)
	if err != nil {
		return nil, err
	}

	var core zapcore.Core
	switch cfg.Format {
	case FormatConsole:
		encoderCfg := zap.NewDevelopmentEncoderConfig()
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		core = zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), out, lvl)
	case FormatJSON, "":
		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		core = zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), out, lvl)
	default:
		return nil, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}

	l := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	return &zapLogger{s: l.Sugar()}, nil
}

// NewFromZap adapts an existing zap logger.
func NewFromZap(l *zap.Logger) Logger {
	return &zapLogger{s: l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

// NewNop returns a Logger that discards everything.
func NewNop() Logger {
	return &zapLogger{s: zap.NewNop().Sugar()}
}

func output(cfg Config) (zapcore.WriteSyncer, error) {
	if cfg.File == "" {
		return zapcore.Lock(os.Stdout), nil
	}

	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	rotation := cfg.RotationTime
	if rotation <= 0 {
		rotation = 24 * time.Hour
	}

	rl, err := rotatelogs.New(
		cfg.File,
		rotatelogs.WithMaxAge(maxAge),
		rotatelogs.WithRotationTime(rotation),
	)
	if err != nil {
		return nil, fmt.Errorf("logging: open rotating file: %w", err)
	}
	return zapcore.AddSync(io.MultiWriter(os.Stdout, rl)), nil
}

func levelFromString(l string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		return zapcore.DebugLevel
	case "info", "":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *zapLogger) Debugw(msg string, kv ...any) { l.s.Debugw(msg, kv...) }
func (l *zapLogger) Infow(msg string, kv ...any)  { l.s.Infow(msg, kv...) }
func (l *zapLogger) Warnw(msg string, kv ...any)  { l.s.Warnw(msg, kv...) }
func (l *zapLogger) Errorw(msg string, kv ...any) { l.s.Errorw(msg, kv...) }

func (l *zapLogger) With(kv ...any) Logger {
	return &zapLogger{s: l.s.With(kv...)}
}

func (l *zapLogger) Sync() error {
	return l.s.Sync()
}

type loggerContextKey struct{}

// WithContext returns a copy of ctx carrying l.
func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, l)
}

// FromContext returns the request logger stored in ctx, or fallback.
func FromContext(ctx context.Context, fallback Logger) Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerContextKey{}).(Logger); ok && l != nil {
			return l
		}
	}
	if fallback == nil {
		return NewNop()
	}
	return fallback
}
