package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cchalm/genie-spaces/internal/spaces"
)

func newExportCmd(a *app) *cobra.Command {
	var file string

	exportCmd := &cobra.Command{
		Use:   "export SPACE_ID",
		Short: "Export a space with its serialized configuration",
		Long: `Export reads a space together with its serialized configuration. The file written
with --file can be passed to 'create --from-file' to copy the space, possibly into
another workspace, or to 'update --serialized-space-file'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, err := a.spacesManager(ctx)
			if err != nil {
				return err
			}
			space, err := m.ExportSpace(ctx, args[0])
			if err != nil {
				return err
			}

			if file == "" {
				return a.print(cmd.OutOrStdout(), space)
			}
			// Written unformatted so the configuration keeps the server's bytes
			b, err := space.MarshalJSON()
			if err != nil {
				return fmt.Errorf("failed to encode export: %w", err)
			}
			if err := os.WriteFile(file, append(b, '\n'), 0o644); err != nil {
				return fmt.Errorf("failed to write export file: %w", err)
			}
			log.Ctx(ctx).Info().Str("space_id", space.SpaceID).Str("file", file).Msg("exported space")
			return nil
		},
	}

	exportCmd.Flags().StringVarP(&file, "file", "f", "", "Write the export to this file instead of stdout")

	return exportCmd
}

// readExport loads a file written by export. A file that is not an export is taken to
// hold the configuration itself.
func readExport(path string) (*spaces.Space, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read '%s': %w", path, err)
	}

	var space spaces.Space
	if err := json.Unmarshal(b, &space); err == nil && space.HasSerializedSpace() {
		return &space, nil
	}
	return &spaces.Space{SerializedSpace: spaces.SerializedSpaceFromString(string(b))}, nil
}
