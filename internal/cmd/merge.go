package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cameronsjo/stevedore/compose"
	"github.com/cameronsjo/stevedore/compose/merge"
	"github.com/cameronsjo/stevedore/internal/ui"
)

var mergeOutput string

// mergeCmd represents the merge command.
var mergeCmd = &cobra.Command{
	Use:   "merge <base> [overlay...]",
	Short: "Merge override layers onto a base compose file",
	Long: `Merge compose files left to right and emit the result.

Later files override earlier ones: scalar fields take the last value,
environment and labels union key-wise, depends_on lists union, and
ports and volumes are replaced wholesale by a layer that sets them.
All layers must declare the same schema version.

Dangling depends_on entries in the merged result are reported as
warnings, since an overlay may intentionally reference services that
live in a file outside the merge set.

With no arguments the project's compose file and its override file are
discovered by walking upward from the working directory and merged in
that order.

Examples:
  stevedore merge
  stevedore merge docker-compose.yml docker-compose.prod.yml
  stevedore merge -o merged.yml base.yml override.yml`,
	Args: cobra.ArbitraryArgs,
	Run:  runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "Output file (prints to stdout if not set)")

	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) {
	files, err := resolveFileArgs(args)
	if err != nil {
		ui.Fatal("%v", err)
	}
	layers := make([]*compose.Document, len(files))
	for i, path := range files {
		doc, err := loadDocument(path)
		if err != nil {
			ui.Fatal("%v", err)
		}
		layers[i] = doc
	}

	merged, err := merge.Merge(layers...)
	if err != nil {
		ui.Fatal("merging: %v", err)
	}
	for _, v := range compose.ValidateReferences(merged) {
		ui.Warning("%s: %s", v.Path, v.Message)
	}

	if err := emit(merged, mergeOutput); err != nil {
		ui.Fatal("writing output: %v", err)
	}
	if mergeOutput != "" {
		ui.Success("Wrote %s", mergeOutput)
	}
}
