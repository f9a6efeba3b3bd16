package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestNewProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	p, err := NewProvider(ctx, Config{Enabled: false})
	require.NoError(t, err)
	require.False(t, p.Enabled())
	require.IsType(t, noop.TracerProvider{}, p.TracerProvider())

	_, span := p.TracerProvider().Tracer("test").Start(ctx, "op")
	require.False(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, p.Shutdown(ctx))
}

func TestNewProvider_Enabled(t *testing.T) {
	ctx := context.Background()

	// The exporter connects lazily, so no collector is needed to construct it
	p, err := NewProvider(ctx, Config{Enabled: true, Endpoint: "127.0.0.1:1", Insecure: true})
	require.NoError(t, err)
	require.True(t, p.Enabled())

	_, span := p.TracerProvider().Tracer("test").Start(ctx, "op")
	require.True(t, span.SpanContext().IsValid())
	span.End()

	shutdownCtx, cancel := context.WithCancel(ctx)
	cancel()
	// Export to an unreachable collector fails; only verify Shutdown returns
	_ = p.Shutdown(shutdownCtx)
}
