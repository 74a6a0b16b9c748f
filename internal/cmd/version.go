package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/stevedore/compose/schema"
)

// versionCmd represents the version command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the stevedore version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stevedore version %s\n", version)
		fmt.Printf("supported compose versions: %s\n", strings.Join(schema.Versions(), ", "))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
