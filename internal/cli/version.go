package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	bridge "vintageshock/bridge"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the bridge version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "shockbridge %s\n", bridge.Version)
	},
}
