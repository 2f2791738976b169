package cmd

import (
	"fmt"

	"github.com/amalgamconnect/docqa/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the version of docqa`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "docqa v%s\n", version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
