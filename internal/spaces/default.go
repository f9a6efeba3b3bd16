package spaces

import (
	"context"
	"fmt"

	"github.com/cchalm/genie-spaces/internal/config"
	"github.com/cchalm/genie-spaces/internal/workspace"
)

// NewFromEnvironment creates a Manager authenticated with the default profile of the
// config file in the home directory, overridden by DATABRICKS_* environment variables.
func NewFromEnvironment(ctx context.Context, opts ...Option) (*Manager, error) {
	cfg, err := config.Load(config.DefaultPath(), config.DefaultProfile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := workspace.NewClient(ctx, workspace.ConfigFromSettings(cfg.Workspace, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace client: %w", err)
	}
	return NewManager(client, opts...), nil
}
