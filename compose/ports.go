package compose

import (
	"fmt"
	"strconv"
	"strings"
)

// PortRange is a single port or an inclusive range. Last is zero for a
// single port.
type PortRange struct {
	First uint16
	Last  uint16
}

// ParsePortRange parses "80" or "8080-8089".
func ParsePortRange(s string) (PortRange, error) {
	first, rest, found := strings.Cut(s, "-")
	lo, err := parsePort(first)
	if err != nil {
		return PortRange{}, fmt.Errorf("invalid port %q", s)
	}
	if !found {
		return PortRange{First: lo}, nil
	}
	hi, err := parsePort(rest)
	if err != nil || hi < lo {
		return PortRange{}, fmt.Errorf("invalid port range %q", s)
	}
	return PortRange{First: lo, Last: hi}, nil
}

func parsePort(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil || s == "" {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return uint16(n), nil
}

// Size returns the number of ports covered by the range.
func (r PortRange) Size() int {
	if r.Last == 0 {
		return 1
	}
	return int(r.Last-r.First) + 1
}

// String renders "80" or "8080-8089".
func (r PortRange) String() string {
	if r.Last == 0 {
		return strconv.Itoa(int(r.First))
	}
	return fmt.Sprintf("%d-%d", r.First, r.Last)
}

// PortMapping is the canonical form of one ports entry. It is reachable
// from the short "[[HOST_IP:]HOST:]CONTAINER[/PROTO]" string shape and
// from the long mapping shape with target/published/host_ip/protocol
// keys; encoding always emits the short shape.
type PortMapping struct {
	// HostIP is the host address to bind, empty for all addresses. Only
	// valid together with Host.
	HostIP string

	// Host is the published host port range, nil for an auto-assigned
	// port. Must cover the same number of ports as Container when set.
	Host *PortRange

	// Container is the container port range being exposed.
	Container PortRange

	// Protocol is "tcp" or "udp"; empty means tcp.
	Protocol string
}

// ParsePortMapping parses the short string shape, e.g. "8080:80",
// "127.0.0.1:80:80", "6060:6060/udp" or "8080-8089:3000-3009".
func ParsePortMapping(s string) (PortMapping, error) {
	var m PortMapping

	body, proto, hasProto := strings.Cut(s, "/")
	if hasProto {
		switch proto {
		case "tcp", "udp":
			m.Protocol = proto
		default:
			return PortMapping{}, fmt.Errorf("invalid port protocol %q", proto)
		}
	}

	// Split from the right so a host IPv6 address with embedded colons
	// stays in one piece.
	fields := rsplitN(body, ':', 3)
	var err error
	switch len(fields) {
	case 1:
		m.Container, err = ParsePortRange(fields[0])
	case 2:
		var host PortRange
		if host, err = ParsePortRange(fields[0]); err == nil {
			m.Host = &host
			m.Container, err = ParsePortRange(fields[1])
		}
	case 3:
		addr := fields[0]
		if strings.HasPrefix(addr, "[") && strings.HasSuffix(addr, "]") {
			addr = addr[1 : len(addr)-1]
		} else if strings.Contains(addr, ":") {
			// An IPv6 address must be bracketed or its colons would be
			// indistinguishable from field separators.
			return PortMapping{}, fmt.Errorf("invalid port mapping %q", s)
		}
		if addr == "" {
			return PortMapping{}, fmt.Errorf("invalid port mapping %q", s)
		}
		m.HostIP = addr
		var host PortRange
		if host, err = ParsePortRange(fields[1]); err == nil {
			m.Host = &host
			m.Container, err = ParsePortRange(fields[2])
		}
	}
	if err != nil {
		return PortMapping{}, fmt.Errorf("invalid port mapping %q: %w", s, err)
	}
	if m.Host != nil && m.Host.Size() != m.Container.Size() {
		return PortMapping{}, fmt.Errorf("invalid port mapping %q: host and container ranges differ in size", s)
	}
	return m, nil
}

// String renders the canonical short shape.
func (m PortMapping) String() string {
	var b strings.Builder
	if m.HostIP != "" {
		if strings.Contains(m.HostIP, ":") {
			fmt.Fprintf(&b, "[%s]:", m.HostIP)
		} else {
			b.WriteString(m.HostIP)
			b.WriteByte(':')
		}
	}
	if m.Host != nil {
		b.WriteString(m.Host.String())
		b.WriteByte(':')
	}
	b.WriteString(m.Container.String())
	if m.Protocol != "" && m.Protocol != "tcp" {
		b.WriteByte('/')
		b.WriteString(m.Protocol)
	}
	return b.String()
}

// rsplitN splits s on sep from the right into at most n fields, returned
// in left-to-right order.
func rsplitN(s string, sep byte, n int) []string {
	var fields []string
	for len(fields) < n-1 {
		idx := strings.LastIndexByte(s, sep)
		if idx < 0 {
			break
		}
		fields = append([]string{s[idx+1:]}, fields...)
		s = s[:idx]
	}
	return append([]string{s}, fields...)
}
