// Package schema provides version detection and structural validation
// for compose node trees.
//
// Each supported schema version registers a Ruleset in a process-wide
// registry at init time. The registry is never mutated afterwards, so
// concurrent lookups need no locking. Validation collects every
// independent violation in a single pass instead of stopping at the
// first, so tooling can report them together.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cameronsjo/stevedore/tree"
)

// Rule identifiers attached to violations.
const (
	RuleInvalidType       = "invalid_type"
	RuleRequired          = "required"
	RuleInvalidEnum       = "invalid_enum"
	RuleInvalidName       = "invalid_name"
	RuleMutuallyExclusive = "mutually_exclusive"
	RuleUnknownDependency = "unknown_dependency"
)

// Violation is one schema rule broken by a node tree.
type Violation struct {
	// Path locates the offending node from the document root.
	Path tree.Path

	// Rule identifies the violated rule (one of the Rule* constants).
	Rule string

	// Message is a human-readable description.
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s at %s: %s", v.Rule, v.Path, v.Message)
}

// Violations is the list of everything found wrong with one tree. It
// implements error; an empty list means the tree was accepted.
type Violations []Violation

// Error summarizes the first few violations.
func (vs Violations) Error() string {
	const maxShown = 3
	var b strings.Builder
	lim := len(vs)
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(vs[i].String())
	}
	if len(vs) > lim {
		fmt.Fprintf(&b, "; ... (%d total)", len(vs))
	}
	return b.String()
}

// Ruleset validates node trees against one schema version.
type Ruleset interface {
	// Version is the version tag this ruleset covers.
	Version() string

	// Validate walks the tree and returns every violation found.
	// Unknown keys are not violations; they become passthrough data.
	Validate(root *tree.Node) Violations
}

// registry holds all registered rulesets, keyed by version. It is
// populated from init and read-only afterwards.
var registry = map[string]Ruleset{}

// register panics on duplicate versions; it runs only during init.
func register(rs Ruleset) {
	if _, dup := registry[rs.Version()]; dup {
		panic(fmt.Sprintf("schema: duplicate ruleset for version %q", rs.Version()))
	}
	registry[rs.Version()] = rs
}

// Versions returns the registered version tags, sorted.
func Versions() []string {
	out := make([]string, 0, len(registry))
	for v := range registry {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the ruleset for an exact version tag.
func Lookup(version string) (Ruleset, bool) {
	rs, ok := registry[version]
	return rs, ok
}

// UnsupportedVersionError reports a version tag with no registered
// ruleset.
type UnsupportedVersionError struct {
	// Version is the rejected tag.
	Version string

	// Known lists the registered versions.
	Known []string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported compose version %q (supported: %s)",
		e.Version, strings.Join(e.Known, ", "))
}

// Detect reads the top-level version field of a tree and selects the
// matching ruleset. A missing version key selects the legacy "1" format.
func Detect(root *tree.Node) (Ruleset, error) {
	if root == nil || root.Kind != tree.Mapping {
		return nil, Violations{{
			Path:    "",
			Rule:    RuleInvalidType,
			Message: "document root must be a mapping",
		}}
	}
	version := "1"
	if node := root.Get("version"); node != nil {
		if node.Kind != tree.Scalar {
			return nil, Violations{{
				Path:    node.Path,
				Rule:    RuleInvalidType,
				Message: "version must be a scalar",
			}}
		}
		version = node.Value
	}
	rs, ok := registry[version]
	if !ok {
		return nil, &UnsupportedVersionError{Version: version, Known: Versions()}
	}
	return rs, nil
}
