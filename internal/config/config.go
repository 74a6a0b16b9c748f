// Package config handles compose project discovery.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// baseNames are the manifest filenames recognized during discovery, in
// precedence order.
var baseNames = []string{
	"compose.yaml",
	"compose.yml",
	"docker-compose.yaml",
	"docker-compose.yml",
}

// overrideNames are the override filenames matched alongside a
// discovered base file.
var overrideNames = []string{
	"compose.override.yaml",
	"compose.override.yml",
	"docker-compose.override.yaml",
	"docker-compose.override.yml",
}

// Project describes a discovered compose project.
type Project struct {
	// Root is the directory containing the manifest file.
	Root string

	// ComposeFile is the path to the base manifest.
	ComposeFile string

	// OverrideFile is the path to the override manifest, empty when the
	// project has none.
	OverrideFile string
}

// Files returns the manifest paths in merge order: base first, then the
// override when present.
func (p *Project) Files() []string {
	if p.OverrideFile == "" {
		return []string{p.ComposeFile}
	}
	return []string{p.ComposeFile, p.OverrideFile}
}

// Discover searches upward from dir for a compose manifest. An empty
// dir means the current working directory.
func Discover(dir string) (*Project, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		dir = wd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	for {
		for _, name := range baseNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return &Project{
					Root:         dir,
					ComposeFile:  path,
					OverrideFile: findOverride(dir),
				}, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return nil, fmt.Errorf("no compose file found (looked for %s upward from the working directory)", baseNames[len(baseNames)-1])
}

func findOverride(dir string) string {
	for _, name := range overrideNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}
