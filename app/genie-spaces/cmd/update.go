package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cchalm/genie-spaces/internal/spaces"
)

func newUpdateCmd(a *app) *cobra.Command {
	var (
		title, description      string
		warehouseID, parentPath string
		serializedSpaceFile     string
	)

	updateCmd := &cobra.Command{
		Use:   "update SPACE_ID",
		Short: "Change fields of a space",
		Long: `Update sends only the fields given as flags; the rest of the space is left as it is.
Pass an empty value, e.g. --description "", to clear a field.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, err := a.spacesManager(ctx)
			if err != nil {
				return err
			}

			var req spaces.UpdateSpaceRequest
			flags := cmd.Flags()
			if flags.Changed("title") {
				req.Title = &title
			}
			if flags.Changed("description") {
				req.Description = &description
			}
			if flags.Changed("warehouse-id") {
				req.WarehouseID = &warehouseID
			}
			if flags.Changed("parent-path") {
				req.ParentPath = &parentPath
			}
			if serializedSpaceFile != "" {
				exported, err := readExport(serializedSpaceFile)
				if err != nil {
					return err
				}
				req.SerializedSpace = exported.SerializedSpace
			}

			space, err := m.UpdateSpace(ctx, args[0], req)
			if err != nil {
				return err
			}
			log.Ctx(ctx).Info().Str("space_id", space.SpaceID).Msg("updated space")
			return a.print(cmd.OutOrStdout(), space)
		},
	}

	updateCmd.Flags().StringVar(&title, "title", "", "New title")
	updateCmd.Flags().StringVar(&description, "description", "", "New description")
	updateCmd.Flags().StringVar(&warehouseID, "warehouse-id", "", "New SQL warehouse")
	updateCmd.Flags().StringVar(&parentPath, "parent-path", "", "New workspace folder")
	updateCmd.Flags().StringVar(&serializedSpaceFile, "serialized-space-file", "", "Replace the configuration with one from an export or configuration file")

	return updateCmd
}
