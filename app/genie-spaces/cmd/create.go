package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cchalm/genie-spaces/internal/spaces"
)

func newCreateCmd(a *app) *cobra.Command {
	var (
		req             spaces.CreateSpaceRequest
		serializedSpace string
		fromFile        string
	)

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a space",
		Long: `Create a space from a serialized configuration, given inline with
--serialized-space or read from a file written by 'export --file'. When importing
from a file, the warehouse, parent path, title and description of the export are used
unless overridden by flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, err := a.spacesManager(ctx)
			if err != nil {
				return err
			}

			var space *spaces.Space
			if fromFile != "" {
				exported, err := readExport(fromFile)
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("title") {
					exported.Title = req.Title
				}
				if cmd.Flags().Changed("description") {
					exported.Description = req.Description
				}
				space, err = m.ImportSpace(ctx, exported, req.WarehouseID, req.ParentPath)
				if err != nil {
					return err
				}
			} else {
				if serializedSpace != "" {
					req.SerializedSpace = spaces.SerializedSpaceFromString(serializedSpace)
				}
				space, err = m.CreateSpace(ctx, req)
				if err != nil {
					return err
				}
			}

			log.Ctx(ctx).Info().Str("space_id", space.SpaceID).Msg("created space")
			return a.print(cmd.OutOrStdout(), space)
		},
	}

	createCmd.Flags().StringVar(&req.WarehouseID, "warehouse-id", "", "SQL warehouse the space queries with")
	createCmd.Flags().StringVar(&req.ParentPath, "parent-path", "", "Workspace folder to create the space in")
	createCmd.Flags().StringVar(&req.Title, "title", "", "Title of the space")
	createCmd.Flags().StringVar(&req.Description, "description", "", "Description of the space")
	createCmd.Flags().StringVar(&serializedSpace, "serialized-space", "", "Serialized configuration of the space")
	createCmd.Flags().StringVar(&fromFile, "from-file", "", "Create from an export file")
	createCmd.MarkFlagsMutuallyExclusive("serialized-space", "from-file")
	createCmd.MarkFlagsOneRequired("serialized-space", "from-file")

	return createCmd
}
