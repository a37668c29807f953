package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the archintel version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "archintel", deps.Version)
		},
	}
}
