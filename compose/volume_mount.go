package compose

import (
	"fmt"
	"strings"
)

// VolumeMount is the canonical form of one volumes entry. It is reachable
// from the short "[SOURCE:]TARGET[:MODE]" string shape and from the long
// mapping shape with type/source/target/read_only keys; encoding always
// emits the short shape.
type VolumeMount struct {
	// Source is the host side: an absolute path, a relative path
	// beginning with "./", "../" or "~/", or the name of a top-level
	// volume. Empty for an anonymous volume.
	Source string

	// Target is the absolute mount path inside the container.
	Target string

	// ReadOnly marks the mount read-only (the short shape's ":ro" mode).
	ReadOnly bool
}

// IsNamed reports whether Source refers to a top-level volume rather
// than a host path.
func (v VolumeMount) IsNamed() bool {
	if v.Source == "" {
		return false
	}
	switch {
	case strings.HasPrefix(v.Source, "/"),
		strings.HasPrefix(v.Source, "./"),
		strings.HasPrefix(v.Source, "../"),
		strings.HasPrefix(v.Source, "~/"):
		return false
	}
	return true
}

// ParseVolumeMount parses the short string shape, e.g. "/var/lib",
// "./src:/app" or "pgdata:/var/lib/postgresql:ro".
func ParseVolumeMount(s string) (VolumeMount, error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		if parts[0] == "" {
			return VolumeMount{}, fmt.Errorf("invalid volume %q", s)
		}
		return VolumeMount{Target: parts[0]}, nil
	case 2:
		return checkMount(s, VolumeMount{Source: parts[0], Target: parts[1]})
	case 3:
		m := VolumeMount{Source: parts[0], Target: parts[1]}
		switch parts[2] {
		case "ro":
			m.ReadOnly = true
		case "rw":
		default:
			return VolumeMount{}, fmt.Errorf("invalid volume mode %q in %q", parts[2], s)
		}
		return checkMount(s, m)
	default:
		return VolumeMount{}, fmt.Errorf("invalid volume %q", s)
	}
}

func checkMount(s string, m VolumeMount) (VolumeMount, error) {
	if m.Source == "" || m.Target == "" {
		return VolumeMount{}, fmt.Errorf("invalid volume %q", s)
	}
	return m, nil
}

// String renders the canonical short shape.
func (v VolumeMount) String() string {
	var b strings.Builder
	if v.Source != "" {
		b.WriteString(v.Source)
		b.WriteByte(':')
	}
	b.WriteString(v.Target)
	if v.ReadOnly {
		b.WriteString(":ro")
	}
	return b.String()
}
