// Package cmd provides the CLI commands for stevedore.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "stevedore",
	Short: "Typed tooling for docker-compose manifests",
	Long: `stevedore - typed tooling for docker-compose manifests

Reads compose files (YAML or JSON) into a typed model, validates them
against their declared schema version, and re-emits them in canonical
form.

COMMANDS
  validate [file...]    Check files against their schema version
    --refs, -r          Also check cross-service references
  render [file]         Decode and re-emit in canonical form
    --output, -o <file> Write output to a file instead of stdout
  merge [base] [overlay...]  Merge override layers onto a base file
  interpolate [file]    Resolve ${VAR} references and emit
    --env-file, -e <file>    Read variables from a .env file
    --var <NAME=VALUE>       Set a single variable (repeatable)
    --strict                 Fail on undefined variables
  version               Print the stevedore version

Pass "-" as a file argument to read from stdin. With no file
arguments, commands discover the project's compose file (and its
override file, for merge) by walking upward from the working
directory.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate("stevedore version {{.Version}}\n")
}
