package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cchalm/genie-spaces/internal/spaces"
	"github.com/cchalm/genie-spaces/internal/telemetry"
	"github.com/cchalm/genie-spaces/internal/workspace"
)

// setupContext cancels the returned context on the first interrupt and exits on the
// second. Both are reported through logger.
func setupContext(parent context.Context, logger zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	// Setup graceful shutdown
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		select {
		case <-interrupt:
		case <-ctx.Done():
			signal.Stop(interrupt)
			return
		}
		logger.Warn().Msg("Interrupt signal detected, cancelling requests...")
		cancel()
		<-interrupt
		logger.Fatal().Msg("Forcing shutdown")
	}()

	return ctx, cancel
}

// spacesManager creates the Manager on first use, so commands that never reach the
// workspace need no credentials
func (a *app) spacesManager(ctx context.Context) (*spaces.Manager, error) {
	if a.manager != nil {
		return a.manager, nil
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	tp, err := createTelemetryProvider(ctx, cfg.Telemetry.Enabled, cfg.Telemetry.Endpoint, cfg.Telemetry.Insecure)
	if err != nil {
		return nil, err
	}
	a.telemetry = tp
	if tp.Enabled() {
		tp.InstallGlobal()
	}

	client, err := workspace.NewClient(ctx, workspace.ConfigFromSettings(cfg.Workspace, "genie-spaces/"+versionInfo.version))
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace client: %w", err)
	}
	log.Ctx(ctx).Debug().Str("host", client.Host()).Msg("connected workspace client")

	a.manager = spaces.NewManager(client, spaces.WithTracerProvider(tp.TracerProvider()))
	return a.manager, nil
}

func createTelemetryProvider(ctx context.Context, enabled bool, endpoint string, insecure bool) (*telemetry.Provider, error) {
	telemetryConfig := telemetry.Config{
		Enabled:        enabled,
		Endpoint:       endpoint,
		Insecure:       insecure,
		ServiceVersion: versionInfo.version,
	}
	tp, err := telemetry.NewProvider(ctx, telemetryConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry provider: %w", err)
	}
	return tp, nil
}
