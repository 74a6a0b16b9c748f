package compose

import (
	"fmt"

	"github.com/cameronsjo/stevedore/tree"
)

// MalformedFieldError reports a field whose node matched none of the
// shapes registered for it.
type MalformedFieldError struct {
	// Path locates the offending node from the document root.
	Path tree.Path

	// Expected describes the accepted shapes, e.g. `"HOST:CONTAINER"
	// string or mapping with "target"`.
	Expected string

	// Cause is the underlying parse error, when one exists.
	Cause error
}

func (e *MalformedFieldError) Error() string {
	msg := fmt.Sprintf("malformed field at %s: expected %s", e.Path, e.Expected)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *MalformedFieldError) Unwrap() error { return e.Cause }

// InvalidImageReferenceError reports an image reference that does not
// match the [registry/]repository[:tag|@digest] grammar.
type InvalidImageReferenceError struct {
	// Ref is the rejected reference text.
	Ref string

	// Reason says which rule the text broke.
	Reason string
}

func (e *InvalidImageReferenceError) Error() string {
	return fmt.Sprintf("invalid image reference %q: %s", e.Ref, e.Reason)
}
