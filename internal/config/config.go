// Package config provides configuration management for genie-spaces.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

const (
	DefaultProfile  = "DEFAULT"
	DefaultFileName = ".genie-spaces.toml"
)

// Workspace identifies a workspace and the credentials used to call it. Environment
// variables use the DATABRICKS_ prefix, e.g. DATABRICKS_HOST and DATABRICKS_CLIENT_ID.
type Workspace struct {
	Host         string        `toml:"host"`
	Token        string        `toml:"token"`
	ClientID     string        `toml:"client_id" split_words:"true"`
	ClientSecret string        `toml:"client_secret" split_words:"true"`
	HTTPTimeout  time.Duration `toml:"timeout" split_words:"true"`
	// MaxRateLimitRetries bounds retries of 429 responses, 0 means unbounded
	MaxRateLimitRetries int `toml:"max_rate_limit_retries" split_words:"true"`
}

// Telemetry configures span export. Environment variables use the GENIE_ prefix.
type Telemetry struct {
	Enabled  bool   `toml:"enabled" envconfig:"TELEMETRY_ENABLED"`
	Endpoint string `toml:"endpoint" envconfig:"OTLP_ENDPOINT"`
	Insecure bool   `toml:"insecure" envconfig:"OTLP_INSECURE"`
}

// Config holds the configuration of one profile
type Config struct {
	Workspace Workspace `toml:"workspace"`
	Telemetry Telemetry `toml:"telemetry"`
}

type file struct {
	Profiles map[string]toml.Primitive `toml:"profiles"`
}

// Default returns a Config populated with defaults only
func Default() Config {
	return Config{
		Workspace: Workspace{
			HTTPTimeout:         60 * time.Second,
			MaxRateLimitRetries: 10,
		},
	}
}

// DefaultPath returns the profile file in the user's home directory
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(home, DefaultFileName)
}

// Load builds the configuration for profile: defaults, then the profile section of the
// file at path, then environment variables. A missing file is not an error.
func Load(path, profile string) (Config, error) {
	cfg := Default()
	if profile == "" {
		profile = DefaultProfile
	}

	if path != "" {
		if err := loadFile(path, profile, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := envconfig.Process("DATABRICKS", &cfg.Workspace); err != nil {
		return Config{}, fmt.Errorf("failed to read workspace config from environment: %w", err)
	}
	if err := envconfig.Process("GENIE", &cfg.Telemetry); err != nil {
		return Config{}, fmt.Errorf("failed to read telemetry config from environment: %w", err)
	}

	return cfg, nil
}

func loadFile(path, profile string, cfg *Config) error {
	var f file
	md, err := toml.DecodeFile(path, &f)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}

	p, ok := f.Profiles[profile]
	if !ok {
		return fmt.Errorf("profile '%s' not found in config file '%s'", profile, path)
	}
	// Fields the profile leaves out keep their defaults
	if err := md.PrimitiveDecode(p, cfg); err != nil {
		return fmt.Errorf("failed to decode profile '%s': %w", profile, err)
	}
	return nil
}

// Validate checks if the required configuration is present
func (c Config) Validate() error {
	if c.Workspace.Host == "" {
		return fmt.Errorf("missing workspace host: set DATABRICKS_HOST or 'host' in the config file")
	}
	if c.Workspace.Token == "" && (c.Workspace.ClientID == "" || c.Workspace.ClientSecret == "") {
		return fmt.Errorf("missing credentials: set DATABRICKS_TOKEN, or DATABRICKS_CLIENT_ID and DATABRICKS_CLIENT_SECRET")
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry is enabled but GENIE_OTLP_ENDPOINT is not set")
	}
	return nil
}
