package tracing

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/MrEthical07/goGuard/logging"
)

// Config selects the OTLP/HTTP collector.
type Config struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	Logger      logging.Logger
}

// Provider owns the SDK tracer provider when tracing is enabled.
type Provider struct {
	sdk *sdktrace.TracerProvider
	log logging.Logger
}

// NewProvider installs a global tracer provider exporting to cfg.Endpoint.
// When disabled the global no-op provider is left in place.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	log := cfg.Logger
	if log == nil {
		log = logging.NewNop()
	}
	p := &Provider{log: log}
	if !cfg.Enabled {
		log.Infow("tracing disabled")
		return p, nil
	}

	var opts []otlptracehttp.Option
	if cfg.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	}
	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	name := cfg.ServiceName
	if name == "" {
		name = "goguard"
	}
	p.sdk = newSDKProvider(sdktrace.WithBatcher(exp), name)
	log.Infow("tracing enabled", "endpoint", cfg.Endpoint, "service", name)
	return p, nil
}

func newSDKProvider(processor sdktrace.TracerProviderOption, service string) *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider(
		processor,
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", service))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool {
	return p != nil && p.sdk != nil
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	if err := p.sdk.Shutdown(ctx); err != nil {
		p.log.Warnw("tracer shutdown failed", "error", err)
		return err
	}
	return nil
}

// Middleware starts a server span per request.
func Middleware(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, "server")
}
