package cmd

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newTrashCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "trash SPACE_ID...",
		Short: "Move spaces to the trash",
		Long: `Trash moves each given space to the trash. Every id is attempted; failures are
reported together at the end.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, err := a.spacesManager(ctx)
			if err != nil {
				return err
			}

			var result *multierror.Error
			for _, id := range args {
				if err := m.TrashSpace(ctx, id); err != nil {
					result = multierror.Append(result, fmt.Errorf("space %s: %w", id, err))
					continue
				}
				log.Ctx(ctx).Info().Str("space_id", id).Msg("trashed space")
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return result.ErrorOrNil()
		},
	}
}
