package compose

import (
	"fmt"

	"github.com/cameronsjo/stevedore/compose/interp"
)

// Raw is a field value that may still contain unresolved interpolation
// references. When the source text has no references it is parsed
// eagerly into the canonical form T; otherwise only the raw text is
// kept, to be re-emitted verbatim on encode and parsed after a later
// interpolation pass.
type Raw[T fmt.Stringer] struct {
	src    *interp.String
	parsed *T
}

// ParseRaw builds a Raw[T] from manifest text using the field's value
// grammar. Interpolation syntax is validated eagerly; the grammar itself
// only runs when the text has no references.
func ParseRaw[T fmt.Stringer](text string, parse func(string) (T, error)) (Raw[T], error) {
	src, err := interp.Parse(text)
	if err != nil {
		return Raw[T]{}, err
	}
	if lit, ok := src.Literal(); ok {
		v, err := parse(lit)
		if err != nil {
			return Raw[T]{}, err
		}
		return Raw[T]{src: src, parsed: &v}, nil
	}
	return Raw[T]{src: src}, nil
}

// Lit wraps an already-canonical value.
func Lit[T fmt.Stringer](v T) Raw[T] {
	return Raw[T]{src: interp.Literal(v.String()), parsed: &v}
}

// Value returns the parsed canonical value. ok is false when the text
// still contains variable references.
func (r Raw[T]) Value() (T, bool) {
	if r.parsed == nil {
		var zero T
		return zero, false
	}
	return *r.parsed, true
}

// Raw returns the source text with references unexpanded.
func (r Raw[T]) Raw() *interp.String { return r.src }

// Encode renders the canonical on-disk text: the value's canonical form
// (with literal dollar signs escaped) when parsed, the verbatim source
// text otherwise.
func (r Raw[T]) Encode() string {
	if r.parsed != nil {
		return interp.Escape((*r.parsed).String())
	}
	return r.src.Raw()
}

// Resolve substitutes variables and re-parses the result with the given
// grammar, producing a fully-canonical value. Already-parsed values are
// returned unchanged; r itself is never mutated.
func (r Raw[T]) Resolve(vars interp.Mapping, mode interp.Mode, parse func(string) (T, error)) (Raw[T], error) {
	if r.parsed != nil {
		return r, nil
	}
	resolved, err := r.src.Resolve(vars, mode)
	if err != nil {
		return Raw[T]{}, err
	}
	v, err := parse(resolved)
	if err != nil {
		return Raw[T]{}, err
	}
	return Lit(v), nil
}

// Equal compares two values by their canonical encoded text.
func (r Raw[T]) Equal(other Raw[T]) bool {
	if (r.src == nil) != (other.src == nil) {
		return false
	}
	if r.src == nil {
		return true
	}
	return r.Encode() == other.Encode()
}

// IsZero reports whether the value is the absent zero Raw.
func (r Raw[T]) IsZero() bool { return r.src == nil }

// Map is an insertion-ordered map with string keys, used everywhere the
// document model needs stable re-serialization of mapping fields.
type Map[V any] struct {
	keys   []string
	values map[string]V
}

// NewMap returns an empty ordered map.
func NewMap[V any]() *Map[V] {
	return &Map[V]{values: make(map[string]V)}
}

// Len returns the number of entries.
func (m *Map[V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Get looks up a key.
func (m *Map[V]) Get(key string) (V, bool) {
	if m == nil {
		var zero V
		return zero, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Set inserts or replaces a key. New keys append to the iteration order;
// existing keys keep their position.
func (m *Map[V]) Set(key string, value V) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Keys returns the keys in insertion order. The slice is a copy.
func (m *Map[V]) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Range calls fn for each entry in insertion order until fn returns
// false.
func (m *Map[V]) Range(fn func(key string, value V) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// Clone returns a copy sharing the values but not the bookkeeping, so
// Set on the copy never disturbs the original.
func (m *Map[V]) Clone() *Map[V] {
	out := NewMap[V]()
	if m == nil {
		return out
	}
	out.keys = make([]string, len(m.keys))
	copy(out.keys, m.keys)
	for k, v := range m.values {
		out.values[k] = v
	}
	return out
}

// Dict is an ordered mapping of names to scalar values that may contain
// interpolation references: environment, labels, build args. A nil value
// is a name declared without a value.
type Dict = Map[*interp.String]
