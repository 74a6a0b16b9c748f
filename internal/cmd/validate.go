package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/stevedore/compose"
	"github.com/cameronsjo/stevedore/compose/schema"
	"github.com/cameronsjo/stevedore/internal/ui"
)

var validateRefs bool

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:   "validate [file...]",
	Short: "Check compose files against their schema version",
	Long: `Validate compose files without making changes.

Each file is checked against the schema ruleset for its declared
version. All independent violations are reported together, tagged with
the path of the offending value.

With --refs the decoded documents are additionally checked for
dangling depends_on entries and link targets. Skip --refs when
validating a single override layer whose references are satisfied by
its base file.

With no arguments the project's compose file is discovered by walking
upward from the working directory.

Examples:
  stevedore validate
  stevedore validate docker-compose.yml
  stevedore validate --refs docker-compose.yml
  cat compose.json | stevedore validate -`,
	Args: cobra.ArbitraryArgs,
	Run:  runValidate,
}

func init() {
	validateCmd.Flags().BoolVarP(&validateRefs, "refs", "r", false, "Also check cross-service references")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) {
	files, err := resolveFileArgs(args)
	if err != nil {
		ui.Fatal("%v", err)
	}
	failed := 0
	for _, path := range files {
		if ok := validateFile(path); !ok {
			failed++
		}
	}
	fmt.Println()
	if failed > 0 {
		ui.Red.Printf("%d of %d file(s) failed validation.\n", failed, len(files))
		os.Exit(1)
	}
	ui.Success("All %d file(s) are valid.", len(files))
}

func validateFile(path string) bool {
	root, err := loadTree(path)
	if err != nil {
		ui.Error("%s: %v", displayName(path), err)
		return false
	}
	doc, err := compose.Decode(root)
	if err != nil {
		var vs schema.Violations
		if errors.As(err, &vs) {
			printViolations(path, vs)
			return false
		}
		ui.Error("%s: %v", displayName(path), err)
		return false
	}
	if validateRefs {
		if vs := compose.ValidateReferences(doc); len(vs) > 0 {
			printViolations(path, vs)
			return false
		}
	}
	ui.Success("%s (version %s, %d service(s))", displayName(path), doc.Version, doc.Services.Len())
	return true
}
