// Package tracing sets up OpenTelemetry spans for backend calls.
package tracing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
	"go.uber.org/multierr"

	"rankings-proxy/internal/config"
)

// ServiceName is reported as the service.name resource attribute.
const ServiceName = "rankings-proxy"

// Provider wraps the SDK tracer provider so it can be flushed on shutdown.
// A zero sdk field means tracing is disabled and spans are no-ops.
type Provider struct {
	trace.TracerProvider
	sdk *sdktrace.TracerProvider
}

// NewProvider builds a tracer provider from config. Spans go to stderr so they
// do not interleave with structured logs on stdout.
func NewProvider(cfg *config.Config) (*Provider, error) {
	if !cfg.Tracing.Enabled {
		return &Provider{TracerProvider: noop.NewTracerProvider()}, nil
	}
	return newSDKProvider(os.Stderr)
}

func newSDKProvider(w io.Writer) (*Provider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("tracing: create exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			"",
			attribute.String("service.name", ServiceName),
		)),
	)
	return &Provider{TracerProvider: tp, sdk: tp}, nil
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool {
	return p.sdk != nil
}

// Shutdown flushes pending spans and stops the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.sdk == nil {
		return nil
	}
	return multierr.Append(p.sdk.ForceFlush(ctx), p.sdk.Shutdown(ctx))
}

// Register ties the provider's shutdown to the fx lifecycle.
func Register(lc fx.Lifecycle, p *Provider, logger *slog.Logger) {
	if !p.Enabled() {
		return
	}
	logger.Info("tracing enabled", "exporter", "stdout")
	lc.Append(fx.Hook{
		OnStop: p.Shutdown,
	})
}
