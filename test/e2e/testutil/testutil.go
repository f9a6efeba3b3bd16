//go:build e2e

package testutil

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cchalm/genie-spaces/internal/spaces"
)

// TestConfig holds configuration for end-to-end tests
type TestConfig struct {
	WarehouseID string
	ParentPath  string
	Timeout     time.Duration
	// SourceSpaceID, when set, names an existing space to export from
	SourceSpaceID string
}

// LoadTestConfig loads test configuration from environment variables
func LoadTestConfig() TestConfig {
	config := TestConfig{
		Timeout: 120 * time.Second,
	}

	if timeout := os.Getenv("E2E_TIMEOUT"); timeout != "" {
		if val, err := strconv.Atoi(timeout); err == nil {
			config.Timeout = time.Duration(val) * time.Second
		}
	}

	config.WarehouseID = os.Getenv("E2E_WAREHOUSE_ID")
	config.ParentPath = os.Getenv("E2E_PARENT_PATH")
	config.SourceSpaceID = os.Getenv("E2E_SOURCE_SPACE_ID")

	return config
}

// TestHarness provides utilities for end-to-end testing against a live workspace
type TestHarness struct {
	t       *testing.T
	config  TestConfig
	manager *spaces.Manager
}

// NewTestHarness creates a new test harness. Credentials come from the same profile
// file and DATABRICKS_* variables the CLI uses.
func NewTestHarness(t *testing.T) *TestHarness {
	config := LoadTestConfig()

	require.NotEmpty(t, config.WarehouseID, "E2E_WAREHOUSE_ID environment variable is required for e2e tests")
	require.NotEmpty(t, config.ParentPath, "E2E_PARENT_PATH environment variable is required for e2e tests")

	manager, err := spaces.NewFromEnvironment(context.Background())
	require.NoError(t, err)

	return &TestHarness{
		t:       t,
		config:  config,
		manager: manager,
	}
}

// Config returns the test configuration
func (h *TestHarness) Config() TestConfig {
	return h.config
}

// Manager returns the spaces manager
func (h *TestHarness) Manager() *spaces.Manager {
	return h.manager
}

// WithTimeout runs a function with the configured timeout
func (h *TestHarness) WithTimeout(fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	return fn(ctx)
}

// CreateSpace creates a uniquely titled space and trashes it when the test ends
func (h *TestHarness) CreateSpace(ctx context.Context, serializedSpace string) *spaces.Space {
	h.t.Helper()

	space, err := h.manager.CreateSpace(ctx, spaces.CreateSpaceRequest{
		WarehouseID:     h.config.WarehouseID,
		ParentPath:      h.config.ParentPath,
		SerializedSpace: spaces.SerializedSpaceFromString(serializedSpace),
		Title:           "e2e " + uuid.NewString(),
		Description:     "Created by the genie-spaces e2e tests",
	})
	require.NoError(h.t, err)
	h.TrashOnCleanup(space.SpaceID)
	return space
}

// TrashOnCleanup trashes a space when the test ends, ignoring spaces already gone
func (h *TestHarness) TrashOnCleanup(spaceID string) {
	h.t.Cleanup(func() {
		err := h.WithTimeout(func(ctx context.Context) error {
			return h.manager.TrashSpace(ctx, spaceID)
		})
		if err != nil && !spaces.IsNotFound(err) {
			h.t.Logf("Failed to trash space %s: %v", spaceID, err)
		}
	})
}
