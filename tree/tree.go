// Package tree provides a version-agnostic node tree for parsed YAML and
// JSON documents.
//
// A Node is a closed variant over scalars, sequences, and mappings. Every
// node carries the path at which it was found, so diagnostics produced by
// later pipeline stages (validation, decoding) can point at the exact
// offending location. Mappings preserve key insertion order for stable
// re-serialization.
//
// Nodes are immutable once built and safe for concurrent reads.
package tree

import "fmt"

// Kind identifies the shape of a Node.
type Kind int

const (
	// Scalar is a single text value (strings, numbers, booleans, null).
	Scalar Kind = iota

	// Sequence is an ordered list of nodes.
	Sequence

	// Mapping is an ordered set of key/value pairs with unique keys.
	Mapping
)

// String returns a human-readable kind name for diagnostics.
func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Sequence:
		return "sequence"
	case Mapping:
		return "mapping"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Pair is one key/value entry of a Mapping node.
type Pair struct {
	// Key is the mapping key.
	Key string

	// Value is the node stored under Key.
	Value *Node
}

// Node is one node of a parsed document tree.
type Node struct {
	// Kind discriminates which of the fields below is meaningful.
	Kind Kind

	// Path locates this node from the document root.
	Path Path

	// Line and Column are 1-based source positions when known, 0 otherwise.
	Line   int
	Column int

	// Value is the scalar text. Only meaningful for Scalar nodes.
	Value string

	// Tag is the resolved YAML tag ("!!str", "!!int", ...) for Scalar
	// nodes, used to re-emit non-string scalars faithfully. Empty for
	// JSON-sourced strings and for non-scalar nodes.
	Tag string

	// Items holds the elements of a Sequence node.
	Items []*Node

	// Pairs holds the entries of a Mapping node in insertion order.
	Pairs []Pair
}

// Path locates a node from the document root as a dotted key path with
// bracketed sequence indices, e.g. "services.web.ports[0]".
type Path string

// Key returns the path extended by a mapping key.
func (p Path) Key(k string) Path {
	if p == "" {
		return Path(k)
	}
	return p + "." + Path(k)
}

// Index returns the path extended by a sequence index.
func (p Path) Index(i int) Path {
	return Path(fmt.Sprintf("%s[%d]", p, i))
}

// String renders the path. The document root renders as ".".
func (p Path) String() string {
	if p == "" {
		return "."
	}
	return string(p)
}

// NewScalar builds a scalar node at the given path.
func NewScalar(path Path, value string) *Node {
	return &Node{Kind: Scalar, Path: path, Value: value, Tag: "!!str"}
}

// NewSequence builds a sequence node from its items.
func NewSequence(path Path, items ...*Node) *Node {
	return &Node{Kind: Sequence, Path: path, Items: items}
}

// NewMapping builds an empty mapping node at the given path.
func NewMapping(path Path) *Node {
	return &Node{Kind: Mapping, Path: path}
}

// Put appends a key/value pair to a mapping node. An existing entry with
// the same key is replaced in place, keeping its position.
func (n *Node) Put(key string, value *Node) {
	for i := range n.Pairs {
		if n.Pairs[i].Key == key {
			n.Pairs[i].Value = value
			return
		}
	}
	n.Pairs = append(n.Pairs, Pair{Key: key, Value: value})
}

// Get returns the value stored under key in a mapping node, or nil when
// the key is absent or the node is not a mapping.
func (n *Node) Get(key string) *Node {
	if n == nil || n.Kind != Mapping {
		return nil
	}
	for _, p := range n.Pairs {
		if p.Key == key {
			return p.Value
		}
	}
	return nil
}

// Has reports whether a mapping node contains the given key.
func (n *Node) Has(key string) bool {
	return n.Get(key) != nil
}

// Keys returns the mapping keys in insertion order.
func (n *Node) Keys() []string {
	if n == nil || n.Kind != Mapping {
		return nil
	}
	keys := make([]string, len(n.Pairs))
	for i, p := range n.Pairs {
		keys[i] = p.Key
	}
	return keys
}

// IsNull reports whether a scalar node holds a YAML null.
func (n *Node) IsNull() bool {
	return n != nil && n.Kind == Scalar && (n.Tag == "!!null" || (n.Tag == "" && n.Value == ""))
}

// Clone returns a deep copy of the tree rooted at n, re-rooted at path.
// Sharing is never introduced between the copy and the original, so the
// copy may be handed to callers that mutate it.
func (n *Node) Clone(path Path) *Node {
	if n == nil {
		return nil
	}
	out := &Node{
		Kind:   n.Kind,
		Path:   path,
		Line:   n.Line,
		Column: n.Column,
		Value:  n.Value,
		Tag:    n.Tag,
	}
	switch n.Kind {
	case Sequence:
		out.Items = make([]*Node, len(n.Items))
		for i, item := range n.Items {
			out.Items[i] = item.Clone(path.Index(i))
		}
	case Mapping:
		out.Pairs = make([]Pair, len(n.Pairs))
		for i, p := range n.Pairs {
			out.Pairs[i] = Pair{Key: p.Key, Value: p.Value.Clone(path.Key(p.Key))}
		}
	}
	return out
}

// Equal reports whether two trees have the same shape and values,
// ignoring paths and source positions.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.Kind != other.Kind {
		return false
	}
	switch n.Kind {
	case Scalar:
		return n.Value == other.Value && n.Tag == other.Tag
	case Sequence:
		if len(n.Items) != len(other.Items) {
			return false
		}
		for i := range n.Items {
			if !n.Items[i].Equal(other.Items[i]) {
				return false
			}
		}
		return true
	case Mapping:
		if len(n.Pairs) != len(other.Pairs) {
			return false
		}
		for i := range n.Pairs {
			if n.Pairs[i].Key != other.Pairs[i].Key {
				return false
			}
			if !n.Pairs[i].Value.Equal(other.Pairs[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}
