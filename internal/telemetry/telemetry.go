package telemetry

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const serviceName = "genie-spaces"

// Config holds the configuration for telemetry
type Config struct {
	Enabled bool
	// Endpoint is the host:port of an OTLP/HTTP collector
	Endpoint       string
	Insecure       bool
	ServiceVersion string
}

// Provider owns the tracer provider handed to the spaces manager. When telemetry is
// disabled it hands out a no-op provider and Shutdown does nothing.
type Provider struct {
	tracerProvider trace.TracerProvider
	sdkProvider    *sdktrace.TracerProvider
	exporter       *otlptrace.Exporter
}

// NewProvider creates a new telemetry provider
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	if !config.Enabled {
		log.Ctx(ctx).Debug().Msg("telemetry disabled")
		return &Provider{tracerProvider: noop.NewTracerProvider()}, nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(config.Endpoint)}
	if config.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	version := config.ServiceVersion
	if version == "" {
		version = "dev"
	}
	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", version),
	)

	sdkProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	log.Ctx(ctx).Debug().Str("endpoint", config.Endpoint).Msg("telemetry enabled")

	return &Provider{
		tracerProvider: sdkProvider,
		sdkProvider:    sdkProvider,
		exporter:       exporter,
	}, nil
}

// TracerProvider returns the provider spans should be created from
func (p *Provider) TracerProvider() trace.TracerProvider {
	return p.tracerProvider
}

// Enabled reports whether spans are exported
func (p *Provider) Enabled() bool {
	return p.sdkProvider != nil
}

// InstallGlobal registers the provider as the process-wide OpenTelemetry provider so that
// components constructed without an explicit provider pick it up.
func (p *Provider) InstallGlobal() {
	otel.SetTracerProvider(p.tracerProvider)
}

// Shutdown flushes pending spans and shuts down the telemetry provider
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.sdkProvider == nil {
		return nil
	}
	log.Ctx(ctx).Debug().Msg("shutting down telemetry provider")
	if err := p.sdkProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down tracer provider: %w", err)
	}
	return nil
}
