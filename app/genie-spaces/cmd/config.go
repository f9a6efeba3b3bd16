package cmd

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/cchalm/genie-spaces/internal/config"
	"github.com/cchalm/genie-spaces/internal/spaces"
	"github.com/cchalm/genie-spaces/internal/telemetry"
)

// globalOptions holds the flags shared by every command
type globalOptions struct {
	profile    string
	configPath string
	output     string
	logLevel   string
}

// app carries state from flag parsing to the running command
type app struct {
	opts globalOptions

	logger    zerolog.Logger
	cancel    context.CancelFunc
	telemetry *telemetry.Provider
	manager   *spaces.Manager
}

func (a *app) loadConfig() (config.Config, error) {
	path := a.opts.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path, a.opts.profile)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
