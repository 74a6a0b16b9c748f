package cmd

import (
	"fmt"
	"strings"

	"github.com/cameronsjo/stevedore/compose"
	"github.com/cameronsjo/stevedore/compose/schema"
	"github.com/cameronsjo/stevedore/internal/config"
	"github.com/cameronsjo/stevedore/internal/fileutil"
	"github.com/cameronsjo/stevedore/internal/ui"
	"github.com/cameronsjo/stevedore/tree"
)

// loadTree reads a compose file into a node tree. JSON input is
// detected by file extension; everything else is parsed as YAML.
func loadTree(path string) (*tree.Node, error) {
	data, err := fileutil.ReadInput(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".json") {
		return tree.FromJSON(data)
	}
	return tree.FromYAML(data)
}

// loadDocument reads and decodes a compose file.
func loadDocument(path string) (*compose.Document, error) {
	root, err := loadTree(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", displayName(path), err)
	}
	doc, err := compose.Decode(root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", displayName(path), err)
	}
	return doc, nil
}

// emit writes a document in canonical form to a file, or to stdout
// when path is empty. A ".json" output path selects JSON; everything
// else is YAML.
func emit(doc *compose.Document, path string) error {
	var data []byte
	var err error
	if strings.HasSuffix(path, ".json") {
		data, err = tree.MarshalJSON(compose.Encode(doc))
	} else {
		data, err = compose.EncodeYAML(doc)
	}
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Print(string(data))
		return nil
	}
	return fileutil.WriteFileAtomic(path, data)
}

// printViolations lists schema violations one per line with their
// paths.
func printViolations(path string, vs schema.Violations) {
	ui.Error("%s: %d problem(s)", displayName(path), len(vs))
	for _, v := range vs {
		ui.Red.Printf("  %s: %s\n", v.Path, v.Message)
	}
}

func displayName(path string) string {
	if path == "-" {
		return "<stdin>"
	}
	return path
}

// resolveFileArgs returns the files named on the command line, or
// discovers the project's compose file (and override, if present) when
// none were given.
func resolveFileArgs(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	proj, err := config.Discover("")
	if err != nil {
		return nil, err
	}
	return proj.Files(), nil
}
