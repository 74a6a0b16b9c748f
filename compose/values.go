package compose

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cameronsjo/stevedore/compose/interp"
)

// CommandLine is a command or entrypoint, either unparsed shell code or a
// pre-split argument vector. Both on-disk shapes are preserved as decoded,
// since converting between them would require shell quoting rules.
type CommandLine struct {
	// Shell is the unparsed shell form; nil when Argv is set.
	Shell *interp.String

	// Argv is the pre-split form. May legitimately be empty for fields
	// like command.
	Argv []*interp.String
}

// IsShell reports whether the command was given as shell code.
func (c *CommandLine) IsShell() bool { return c.Shell != nil }

// Equal compares two command lines by shape and source text.
func (c *CommandLine) Equal(other *CommandLine) bool {
	if c == nil || other == nil {
		return c == other
	}
	if !c.Shell.Equal(other.Shell) || len(c.Argv) != len(other.Argv) {
		return false
	}
	for i := range c.Argv {
		if !c.Argv[i].Equal(other.Argv[i]) {
			return false
		}
	}
	return true
}

// MemorySize is a byte count parsed from docker-style size text.
type MemorySize int64

// ParseMemorySize parses "104857600", "100m", "1g", "512k" or "64b"
// (suffixes case-insensitive, optional trailing "b").
func ParseMemorySize(s string) (MemorySize, error) {
	text := strings.ToLower(strings.TrimSpace(s))
	if text == "" {
		return 0, fmt.Errorf("invalid memory size %q", s)
	}
	mult := int64(1)
	suffixes := []struct {
		text string
		mult int64
	}{
		{"kb", 1 << 10}, {"mb", 1 << 20}, {"gb", 1 << 30},
		{"k", 1 << 10}, {"m", 1 << 20}, {"g", 1 << 30}, {"b", 1},
	}
	for _, suf := range suffixes {
		if strings.HasSuffix(text, suf.text) {
			mult = suf.mult
			text = strings.TrimSuffix(text, suf.text)
			break
		}
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid memory size %q", s)
	}
	if n > math.MaxInt64/mult {
		return 0, fmt.Errorf("invalid memory size %q: overflows", s)
	}
	return MemorySize(n * mult), nil
}

// String renders the size with the largest suffix that divides it evenly,
// so ParseMemorySize(s.String()) == s.
func (m MemorySize) String() string {
	n := int64(m)
	switch {
	case n >= 1<<30 && n%(1<<30) == 0:
		return strconv.FormatInt(n>>30, 10) + "g"
	case n >= 1<<20 && n%(1<<20) == 0:
		return strconv.FormatInt(n>>20, 10) + "m"
	case n >= 1<<10 && n%(1<<10) == 0:
		return strconv.FormatInt(n>>10, 10) + "k"
	default:
		return strconv.FormatInt(n, 10)
	}
}

// HostMapping is one extra_hosts entry mapping a hostname to an address.
type HostMapping struct {
	Host string
	IP   string
}

// ParseHostMapping parses "somehost:162.242.195.82".
func ParseHostMapping(s string) (HostMapping, error) {
	host, ip, found := strings.Cut(s, ":")
	if !found || host == "" || ip == "" {
		return HostMapping{}, fmt.Errorf("invalid host mapping %q", s)
	}
	return HostMapping{Host: host, IP: ip}, nil
}

// String renders "host:ip".
func (h HostMapping) String() string { return h.Host + ":" + h.IP }

// AliasedName is a reference to another service or container with an
// optional local alias, as used by links and external_links.
type AliasedName struct {
	Name  string
	Alias string
}

// ParseAliasedName parses "name" or "name:alias".
func ParseAliasedName(s string) (AliasedName, error) {
	name, alias, found := strings.Cut(s, ":")
	if name == "" || (found && alias == "") {
		return AliasedName{}, fmt.Errorf("invalid aliased name %q", s)
	}
	return AliasedName{Name: name, Alias: alias}, nil
}

// String renders "name" or "name:alias".
func (a AliasedName) String() string {
	if a.Alias == "" {
		return a.Name
	}
	return a.Name + ":" + a.Alias
}

// RestartMode is a service restart policy.
type RestartMode struct {
	// Mode is "no", "always", "unless-stopped" or "on-failure".
	Mode string

	// MaxRetries bounds on-failure restarts; zero means unlimited.
	MaxRetries int
}

// ParseRestartMode parses "always", "on-failure", "on-failure:3", etc.
func ParseRestartMode(s string) (RestartMode, error) {
	mode, arg, found := strings.Cut(s, ":")
	switch mode {
	case "no", "always", "unless-stopped":
		if found {
			return RestartMode{}, fmt.Errorf("invalid restart mode %q", s)
		}
		return RestartMode{Mode: mode}, nil
	case "on-failure":
		if !found {
			return RestartMode{Mode: mode}, nil
		}
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 {
			return RestartMode{}, fmt.Errorf("invalid restart mode %q", s)
		}
		return RestartMode{Mode: mode, MaxRetries: n}, nil
	default:
		return RestartMode{}, fmt.Errorf("invalid restart mode %q", s)
	}
}

// String renders the canonical text form.
func (r RestartMode) String() string {
	if r.Mode == "on-failure" && r.MaxRetries > 0 {
		return fmt.Sprintf("on-failure:%d", r.MaxRetries)
	}
	return r.Mode
}
