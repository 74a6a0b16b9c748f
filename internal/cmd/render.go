package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cameronsjo/stevedore/internal/ui"
)

var renderOutput string

// renderCmd represents the render command.
var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Decode a compose file and re-emit it in canonical form",
	Long: `Render a compose file through the typed model.

The file is validated, decoded, and re-emitted with every polymorphic
field in its canonical shape: environment and labels as mappings, ports
and volumes as short strings, list-form environment entries folded into
the mapping. Unresolved ${VAR} references are kept verbatim; use the
interpolate command to resolve them.

Examples:
  stevedore render docker-compose.yml
  stevedore render -o canonical.yml docker-compose.yml
  stevedore render compose.json           # JSON in, YAML out
  stevedore render -o out.json compose.yml  # YAML in, JSON out

With no argument the project's compose file is discovered by walking
upward from the working directory.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output file (prints to stdout if not set)")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) {
	files, err := resolveFileArgs(args)
	if err != nil {
		ui.Fatal("%v", err)
	}
	doc, err := loadDocument(files[0])
	if err != nil {
		ui.Fatal("%v", err)
	}
	if err := emit(doc, renderOutput); err != nil {
		ui.Fatal("writing output: %v", err)
	}
	if renderOutput != "" {
		ui.Success("Wrote %s", renderOutput)
	}
}
