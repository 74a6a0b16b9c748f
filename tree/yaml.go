package tree

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// FromYAML parses YAML text into a Node tree. The document root must be a
// single document; multi-document streams are rejected.
func FromYAML(data []byte) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		// Empty input decodes to an empty mapping, which keeps the
		// rest of the pipeline free of nil checks.
		return NewMapping(""), nil
	}
	return fromYAMLNode(doc.Content[0], "")
}

// FromYAMLNode converts an already-parsed yaml.v3 node into a Node tree.
// Callers that decode multi-document streams themselves can feed each
// document root through here.
func FromYAMLNode(n *yaml.Node, path Path) (*Node, error) {
	return fromYAMLNode(n, path)
}

func fromYAMLNode(n *yaml.Node, path Path) (*Node, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return NewMapping(path), nil
		}
		return fromYAMLNode(n.Content[0], path)

	case yaml.AliasNode:
		// Aliases are resolved structurally; the anchor's content is
		// copied into place so later stages never see sharing.
		return fromYAMLNode(n.Alias, path)

	case yaml.ScalarNode:
		return &Node{
			Kind:   Scalar,
			Path:   path,
			Line:   n.Line,
			Column: n.Column,
			Value:  n.Value,
			Tag:    n.Tag,
		}, nil

	case yaml.SequenceNode:
		out := &Node{Kind: Sequence, Path: path, Line: n.Line, Column: n.Column}
		out.Items = make([]*Node, 0, len(n.Content))
		for i, item := range n.Content {
			child, err := fromYAMLNode(item, path.Index(i))
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, child)
		}
		return out, nil

	case yaml.MappingNode:
		out := &Node{Kind: Mapping, Path: path, Line: n.Line, Column: n.Column}
		out.Pairs = make([]Pair, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode := n.Content[i]
			if keyNode.Kind == yaml.AliasNode {
				keyNode = keyNode.Alias
			}
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("parse yaml: non-scalar mapping key at %s (line %d)", path, keyNode.Line)
			}
			key := keyNode.Value
			if out.Has(key) {
				return nil, fmt.Errorf("parse yaml: duplicate mapping key %q at %s (line %d)", key, path, keyNode.Line)
			}
			child, err := fromYAMLNode(n.Content[i+1], path.Key(key))
			if err != nil {
				return nil, err
			}
			out.Pairs = append(out.Pairs, Pair{Key: key, Value: child})
		}
		return out, nil

	default:
		return nil, fmt.Errorf("parse yaml: unsupported node kind %d at %s", n.Kind, path)
	}
}

// ToYAML converts a Node tree back into a yaml.v3 node suitable for
// yaml.Marshal. Mapping key order is preserved.
func ToYAML(n *Node) *yaml.Node {
	switch n.Kind {
	case Scalar:
		out := &yaml.Node{Kind: yaml.ScalarNode, Value: n.Value}
		if n.Tag != "" && n.Tag != "!!str" {
			out.Tag = n.Tag
		}
		if needsQuoting(n) {
			out.Style = yaml.DoubleQuotedStyle
		}
		return out

	case Sequence:
		out := &yaml.Node{Kind: yaml.SequenceNode}
		out.Content = make([]*yaml.Node, len(n.Items))
		for i, item := range n.Items {
			out.Content[i] = ToYAML(item)
		}
		return out

	case Mapping:
		out := &yaml.Node{Kind: yaml.MappingNode}
		out.Content = make([]*yaml.Node, 0, len(n.Pairs)*2)
		for _, p := range n.Pairs {
			key := &yaml.Node{Kind: yaml.ScalarNode, Value: p.Key}
			out.Content = append(out.Content, key, ToYAML(p.Value))
		}
		return out
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

// MarshalYAML renders a Node tree as YAML text.
func MarshalYAML(n *Node) ([]byte, error) {
	out, err := yaml.Marshal(ToYAML(n))
	if err != nil {
		return nil, fmt.Errorf("emit yaml: %w", err)
	}
	return out, nil
}

// needsQuoting reports whether a string scalar would be re-parsed as a
// different YAML type (number, boolean, null) if emitted bare.
func needsQuoting(n *Node) bool {
	if n.Tag != "" && n.Tag != "!!str" {
		return false
	}
	switch n.Value {
	case "", "~", "null", "Null", "NULL", "true", "True", "TRUE", "false", "False", "FALSE", "yes", "no", "on", "off":
		return true
	}
	// Port mappings like "8080:80" parse as sexagesimal ints in some YAML
	// dialects, and leading-zero or numeric strings flip type on re-parse.
	c := n.Value[0]
	return (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.'
}
