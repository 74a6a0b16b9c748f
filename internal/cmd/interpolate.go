package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/stevedore/compose"
	"github.com/cameronsjo/stevedore/compose/interp"
	"github.com/cameronsjo/stevedore/envfile"
	"github.com/cameronsjo/stevedore/internal/ui"
)

var (
	interpolateEnvFiles []string
	interpolateVars     []string
	interpolateStrict   bool
	interpolateOutput   string
)

// interpolateCmd represents the interpolate command.
var interpolateCmd = &cobra.Command{
	Use:   "interpolate [file]",
	Short: "Resolve ${VAR} references and emit the result",
	Long: `Substitute variable references throughout a compose file.

Variables come from .env-style files (--env-file, repeatable, later
files win) and individual --var flags (which win over files). The
process environment is never consulted.

By default undefined plain references expand to the empty string, as
docker-compose does. With --strict they fail instead. ${VAR:-default}
and ${VAR:?message} behave the same in both modes.

Examples:
  stevedore interpolate -e .env docker-compose.yml
  stevedore interpolate -e .env -e prod.env --strict docker-compose.yml
  stevedore interpolate --var TAG=1.4 docker-compose.yml

With no argument the project's compose file is discovered by walking
upward from the working directory.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runInterpolate,
}

func init() {
	interpolateCmd.Flags().StringSliceVarP(&interpolateEnvFiles, "env-file", "e", nil, "Variable file (repeatable, later files win)")
	interpolateCmd.Flags().StringArrayVar(&interpolateVars, "var", nil, "Set a variable as NAME=VALUE (repeatable)")
	interpolateCmd.Flags().BoolVar(&interpolateStrict, "strict", false, "Fail on undefined variables")
	interpolateCmd.Flags().StringVarP(&interpolateOutput, "output", "o", "", "Output file (prints to stdout if not set)")

	rootCmd.AddCommand(interpolateCmd)
}

func runInterpolate(cmd *cobra.Command, args []string) {
	vars := make(interp.Mapping)
	for _, path := range interpolateEnvFiles {
		fileVars, err := envfile.Load(path)
		if err != nil {
			ui.Fatal("%v", err)
		}
		for name, value := range fileVars {
			vars[name] = value
		}
	}
	for _, assignment := range interpolateVars {
		name, value, ok := strings.Cut(assignment, "=")
		if !ok || name == "" {
			ui.Fatal("invalid --var %q, expected NAME=VALUE", assignment)
		}
		vars[name] = value
	}

	files, err := resolveFileArgs(args)
	if err != nil {
		ui.Fatal("%v", err)
	}
	doc, err := loadDocument(files[0])
	if err != nil {
		ui.Fatal("%v", err)
	}

	mode := interp.Lenient
	if interpolateStrict {
		mode = interp.Strict
	}
	resolved, err := compose.Resolve(doc, vars, mode)
	if err != nil {
		ui.Fatal("%s: %v", displayName(files[0]), err)
	}

	if err := emit(resolved, interpolateOutput); err != nil {
		ui.Fatal("writing output: %v", err)
	}
	if interpolateOutput != "" {
		ui.Success("Wrote %s", interpolateOutput)
	}
}
