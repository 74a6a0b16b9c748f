// Package interp implements shell-style variable interpolation for
// compose manifests.
//
// Any scalar in a manifest may contain references like ${TAG},
// ${TAG:-latest}, ${TAG:?tag is required} or $TAG, plus $$ as an escaped
// literal dollar sign. A String keeps the original source text alongside
// its parsed token sequence, so the same value can be resolved repeatedly
// against different variable mappings, or re-emitted verbatim when no
// resolution was requested.
//
// Resolution is a pure function: nothing reads the process environment,
// and a String is immutable once parsed.
package interp

import (
	"fmt"
	"sort"
	"strings"
)

// Mapping supplies variable values during resolution. Provenance is the
// caller's business; see the envfile package for the usual source.
type Mapping map[string]string

// Mode selects how unset variables without a default are handled.
type Mode int

const (
	// Lenient substitutes the empty string for unset variables, matching
	// docker-compose behavior.
	Lenient Mode = iota

	// Strict fails resolution on unset variables. Tooling that rewrites
	// manifests usually wants this mode so typos surface early.
	Strict
)

// operator is what follows the variable name inside ${...}.
type operator int

const (
	opNone     operator = iota // ${NAME} or $NAME
	opDefault                  // ${NAME:-word}, word used when unset or empty
	opRequired                 // ${NAME:?word}, error with word when unset
)

// token is one literal run or variable reference of a parsed String.
type token struct {
	literal string
	name    string
	op      operator
	word    string
	isVar   bool
}

// String is a scalar that may contain variable references. The zero value
// is the empty literal.
type String struct {
	raw    string
	tokens []token
}

// SyntaxError reports malformed interpolation syntax, such as "${" or
// "${foo!}".
type SyntaxError struct {
	// Input is the full scalar that failed to parse.
	Input string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid interpolation syntax: %q", e.Input)
}

// UndefinedVariableError reports a reference to a variable missing from
// the mapping, in strict mode or through the ${NAME:?msg} form.
type UndefinedVariableError struct {
	// Name is the unresolved variable.
	Name string

	// Message is the custom text from a ${NAME:?msg} reference, empty
	// otherwise.
	Message string
}

func (e *UndefinedVariableError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("undefined variable %q: %s", e.Name, e.Message)
	}
	return fmt.Sprintf("undefined variable %q", e.Name)
}

// Parse validates and tokenizes an interpolation string. Syntax errors
// are reported eagerly so malformed references never survive into a
// decoded document.
func Parse(s string) (*String, error) {
	tokens, err := scan(s)
	if err != nil {
		return nil, err
	}
	return &String{raw: s, tokens: tokens}, nil
}

// Literal builds a String that resolves to exactly s, escaping any dollar
// signs it contains.
func Literal(s string) *String {
	escaped := Escape(s)
	parsed, err := Parse(escaped)
	if err != nil {
		// Escaping leaves no unescaped '$', so scanning cannot fail.
		panic(fmt.Sprintf("interp: escape produced invalid syntax: %v", err))
	}
	return parsed
}

// Escape doubles every dollar sign so the result parses as pure literal
// text.
func Escape(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}

// Raw returns the original source text, with references unexpanded.
func (s *String) Raw() string { return s.raw }

// String returns the original source text.
func (s *String) String() string { return s.raw }

// Equal reports whether two values have identical source text.
func (s *String) Equal(other *String) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.raw == other.raw
}

// HasReferences reports whether resolution would substitute anything.
// Escaped dollar signs count, because the resolved text differs from the
// raw text.
func (s *String) HasReferences() bool {
	for _, t := range s.tokens {
		if t.isVar {
			return true
		}
	}
	return s.raw != s.literalText()
}

// Literal returns the unescaped text when the string contains no
// variable references, with ok=false otherwise. This is how decoders
// obtain parseable text without performing any substitution.
func (s *String) Literal() (string, bool) {
	for _, t := range s.tokens {
		if t.isVar {
			return "", false
		}
	}
	return s.literalText(), true
}

// Variables returns the sorted set of variable names referenced.
func (s *String) Variables() []string {
	seen := map[string]bool{}
	for _, t := range s.tokens {
		if t.isVar {
			seen[t.name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve substitutes every reference from vars and returns the resulting
// plain string. Substituted values are not re-scanned for references.
func (s *String) Resolve(vars Mapping, mode Mode) (string, error) {
	var b strings.Builder
	for _, t := range s.tokens {
		if !t.isVar {
			b.WriteString(t.literal)
			continue
		}
		val, ok := vars[t.name]
		switch t.op {
		case opDefault:
			if !ok || val == "" {
				val = t.word
			}
		case opRequired:
			if !ok {
				return "", &UndefinedVariableError{Name: t.name, Message: t.word}
			}
		default:
			if !ok {
				if mode == Strict {
					return "", &UndefinedVariableError{Name: t.name}
				}
				val = ""
			}
		}
		b.WriteString(val)
	}
	return b.String(), nil
}

// literalText is the resolved form assuming no variables, i.e. with $$
// collapsed. Used to detect whether escaping is present.
func (s *String) literalText() string {
	var b strings.Builder
	for _, t := range s.tokens {
		if !t.isVar {
			b.WriteString(t.literal)
		}
	}
	return b.String()
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}

// scan splits s into literal runs and variable references. Adjacent
// literals are coalesced so token sequences stay short.
func scan(s string) ([]token, error) {
	var tokens []token
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, token{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(s); {
		c := s[i]
		if c != '$' {
			lit.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(s) {
			return nil, &SyntaxError{Input: s}
		}
		next := s[i+1]
		switch {
		case next == '$':
			lit.WriteByte('$')
			i += 2

		case next == '{':
			end := strings.IndexByte(s[i+2:], '}')
			if end < 0 {
				return nil, &SyntaxError{Input: s}
			}
			body := s[i+2 : i+2+end]
			tok, err := parseBraced(s, body)
			if err != nil {
				return nil, err
			}
			flush()
			tokens = append(tokens, tok)
			i += 2 + end + 1

		case isNameStart(next):
			j := i + 1
			for j < len(s) && isNameChar(s[j]) {
				j++
			}
			flush()
			tokens = append(tokens, token{isVar: true, name: s[i+1 : j]})
			i = j

		default:
			return nil, &SyntaxError{Input: s}
		}
	}
	flush()
	return tokens, nil
}

// parseBraced interprets the body of a ${...} reference.
func parseBraced(input, body string) (token, error) {
	name := body
	op := opNone
	word := ""
	if idx := strings.Index(body, ":-"); idx >= 0 {
		name, op, word = body[:idx], opDefault, body[idx+2:]
	} else if idx := strings.Index(body, ":?"); idx >= 0 {
		name, op, word = body[:idx], opRequired, body[idx+2:]
	}
	if name == "" || !isNameStart(name[0]) {
		return token{}, &SyntaxError{Input: input}
	}
	for i := 1; i < len(name); i++ {
		if !isNameChar(name[i]) {
			return token{}, &SyntaxError{Input: input}
		}
	}
	return token{isVar: true, name: name, op: op, word: word}, nil
}
