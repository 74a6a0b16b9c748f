// Package envfile reads `.env`-style variable files into the mapping
// consumed by the interpolation engine.
package envfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cameronsjo/stevedore/compose/interp"
)

// ParseError reports a line that is neither a comment, a blank line,
// nor a NAME=VALUE assignment.
type ParseError struct {
	Line int
	Text string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: invalid variable assignment %q", e.Line, e.Text)
}

// Parse reads NAME=VALUE assignments, one per line. Blank lines and
// lines starting with "#" are skipped. Names must start with a letter
// or underscore and contain only letters, digits and underscores;
// values are taken verbatim to the end of the line, with no quote
// processing. Later assignments to the same name win.
func Parse(r io.Reader) (interp.Mapping, error) {
	vars := make(interp.Mapping)
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		name, value, ok := strings.Cut(text, "=")
		if !ok || !validName(name) {
			return nil, &ParseError{Line: line, Text: text}
		}
		vars[name] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading variable file: %w", err)
	}
	return vars, nil
}

// Load reads a variable file from disk.
func Load(path string) (interp.Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening variable file: %w", err)
	}
	defer f.Close()

	vars, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return vars, nil
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		switch {
		case c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
