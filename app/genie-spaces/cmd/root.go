package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Execute runs the command line with the process arguments
func Execute() error {
	a := &app{}
	defer a.shutdown()

	return newRootCmd(a).ExecuteContext(context.Background())
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "genie-spaces",
		Short: "Manage Genie spaces in a Databricks workspace",
		Long: `genie-spaces lists, creates, exports, updates and trashes Genie spaces.

Credentials come from the profile file (~/.genie-spaces.toml) and from DATABRICKS_HOST,
DATABRICKS_TOKEN, DATABRICKS_CLIENT_ID and DATABRICKS_CLIENT_SECRET. A .env file in the
working directory is loaded first.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.opts.profile, "profile", "", "Profile in the config file (default \"DEFAULT\")")
	flags.StringVar(&a.opts.configPath, "config", "", "Config file (default ~/.genie-spaces.toml)")
	flags.StringVarP(&a.opts.output, "output", "o", outputJSON, "Output format: json or yaml")
	flags.StringVar(&a.opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newListCmd(a),
		newGetCmd(a),
		newExportCmd(a),
		newCreateCmd(a),
		newUpdateCmd(a),
		newTrashCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	level, err := zerolog.ParseLevel(a.opts.logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level '%s': %w", a.opts.logLevel, err)
	}
	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
	ctx, cancel := setupContext(a.logger.WithContext(cmd.Context()), a.logger)
	a.cancel = cancel
	cmd.SetContext(ctx)

	if a.opts.output != outputJSON && a.opts.output != outputYAML {
		return fmt.Errorf("invalid output format '%s', expected json or yaml", a.opts.output)
	}

	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
		a.logger.Debug().Msg("no .env file found, using environment variables")
	}
	return nil
}

// shutdown flushes pending spans, giving up after five seconds
func (a *app) shutdown() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.telemetry == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.telemetry.Shutdown(a.logger.WithContext(ctx))
}
