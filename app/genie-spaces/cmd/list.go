package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cchalm/genie-spaces/internal/spaces"
)

func newListCmd(a *app) *cobra.Command {
	var (
		opts spaces.ListSpacesOptions
		all  bool
	)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the spaces visible to the caller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, err := a.spacesManager(ctx)
			if err != nil {
				return err
			}

			if all {
				found, err := m.ListAllSpaces(ctx, opts.PageSize)
				if err != nil {
					return err
				}
				log.Ctx(ctx).Debug().Int("count", len(found)).Msg("listed all spaces")
				return a.print(cmd.OutOrStdout(), spaces.ListSpacesResponse{Spaces: found})
			}

			resp, err := m.ListSpaces(ctx, opts)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), resp)
		},
	}

	listCmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "Maximum number of spaces per page")
	listCmd.Flags().StringVar(&opts.PageToken, "page-token", "", "Token of the page to fetch, from a previous next_page_token")
	listCmd.Flags().BoolVar(&all, "all", false, "Follow page tokens and list every space")
	listCmd.MarkFlagsMutuallyExclusive("all", "page-token")

	return listCmd
}
