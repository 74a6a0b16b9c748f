package compose

import "strings"

// ImageSpec is a parsed image reference of the form
// [registry/]repository[:tag|@digest]. Tag and Digest are mutually
// exclusive; a bare repository implies the registry's default tag.
type ImageSpec struct {
	// Registry is the registry host, possibly with a port
	// ("registry.example.com", "localhost:5000"). Empty for the default
	// registry.
	Registry string

	// Repository is the image name, possibly with namespace segments
	// ("app", "library/postgres").
	Repository string

	// Tag is the version tag, empty when absent or when Digest is set.
	Tag string

	// Digest is the raw "sha256:<64 hex>" text, empty when Tag is set.
	// Stored unvalidated beyond algorithm, length and charset.
	Digest string
}

// ParseImage parses an image reference. It fails with
// *InvalidImageReferenceError on text carrying both a tag and a digest,
// an unknown digest algorithm, or a digest of the wrong shape.
func ParseImage(ref string) (ImageSpec, error) {
	if ref == "" {
		return ImageSpec{}, &InvalidImageReferenceError{Ref: ref, Reason: "empty reference"}
	}
	rest := ref
	var spec ImageSpec

	// The registry is the first path segment only when it can't be a
	// plain repository name: it contains a dot or a port, or is the
	// conventional "localhost".
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		head := rest[:idx]
		if strings.ContainsAny(head, ".:") || head == "localhost" {
			spec.Registry = head
			rest = rest[idx+1:]
		}
	}

	// Split off a digest first so a tag inside the digest text ("sha256:")
	// is not mistaken for a version tag.
	if idx := strings.IndexByte(rest, '@'); idx >= 0 {
		spec.Digest = rest[idx+1:]
		rest = rest[:idx]
		if err := checkDigest(ref, spec.Digest); err != nil {
			return ImageSpec{}, err
		}
	}

	// A tag is a colon after the last slash of what remains.
	if idx := strings.LastIndexByte(rest, ':'); idx > strings.LastIndexByte(rest, '/') && idx >= 0 {
		spec.Tag = rest[idx+1:]
		rest = rest[:idx]
		if spec.Tag == "" {
			return ImageSpec{}, &InvalidImageReferenceError{Ref: ref, Reason: "empty tag"}
		}
		if spec.Digest != "" {
			return ImageSpec{}, &InvalidImageReferenceError{Ref: ref, Reason: "tag and digest are mutually exclusive"}
		}
	}

	spec.Repository = rest
	if spec.Repository == "" {
		return ImageSpec{}, &InvalidImageReferenceError{Ref: ref, Reason: "empty repository"}
	}
	if strings.ContainsAny(spec.Repository, ":@ ") {
		return ImageSpec{}, &InvalidImageReferenceError{Ref: ref, Reason: "repository contains invalid characters"}
	}
	return spec, nil
}

// checkDigest enforces the sha256:<64 hex> shape without interpreting the
// hash itself.
func checkDigest(ref, digest string) error {
	const prefix = "sha256:"
	if !strings.HasPrefix(digest, prefix) {
		return &InvalidImageReferenceError{Ref: ref, Reason: "unsupported digest algorithm"}
	}
	hexPart := digest[len(prefix):]
	if len(hexPart) != 64 {
		return &InvalidImageReferenceError{Ref: ref, Reason: "digest must be 64 hex characters"}
	}
	for i := 0; i < len(hexPart); i++ {
		c := hexPart[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return &InvalidImageReferenceError{Ref: ref, Reason: "digest must be 64 hex characters"}
		}
	}
	return nil
}

// String renders the reference in its canonical text form.
func (s ImageSpec) String() string {
	var b strings.Builder
	if s.Registry != "" {
		b.WriteString(s.Registry)
		b.WriteByte('/')
	}
	b.WriteString(s.Repository)
	if s.Tag != "" {
		b.WriteByte(':')
		b.WriteString(s.Tag)
	} else if s.Digest != "" {
		b.WriteByte('@')
		b.WriteString(s.Digest)
	}
	return b.String()
}

// WithoutVersion returns the reference with tag and digest stripped.
func (s ImageSpec) WithoutVersion() ImageSpec {
	s.Tag = ""
	s.Digest = ""
	return s
}
