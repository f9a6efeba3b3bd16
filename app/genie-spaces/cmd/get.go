package cmd

import (
	"github.com/spf13/cobra"
)

func newGetCmd(a *app) *cobra.Command {
	var includeSerializedSpace bool

	getCmd := &cobra.Command{
		Use:   "get SPACE_ID",
		Short: "Show a space",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, err := a.spacesManager(ctx)
			if err != nil {
				return err
			}
			space, err := m.GetSpace(ctx, args[0], includeSerializedSpace)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), space)
		},
	}

	getCmd.Flags().BoolVar(&includeSerializedSpace, "include-serialized-space", false, "Include the serialized configuration")

	return getCmd
}
