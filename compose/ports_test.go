package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePortRange(t *testing.T) {
	t.Parallel()

	t.Run("single port", func(t *testing.T) {
		t.Parallel()

		r, err := ParsePortRange("80")
		require.NoError(t, err)
		assert.Equal(t, PortRange{First: 80}, r)
		assert.Equal(t, 1, r.Size())
		assert.Equal(t, "80", r.String())
	})

	t.Run("range", func(t *testing.T) {
		t.Parallel()

		r, err := ParsePortRange("8080-8089")
		require.NoError(t, err)
		assert.Equal(t, PortRange{First: 8080, Last: 8089}, r)
		assert.Equal(t, 10, r.Size())
		assert.Equal(t, "8080-8089", r.String())
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		for _, s := range []string{"", "abc", "70000", "90-80", "80-", "-80"} {
			_, err := ParsePortRange(s)
			assert.Error(t, err, "input %q", s)
		}
	})
}

func TestParsePortMapping(t *testing.T) {
	t.Parallel()

	port := func(n uint16) *PortRange { return &PortRange{First: n} }

	tests := []struct {
		input string
		want  PortMapping
	}{
		{"80", PortMapping{Container: PortRange{First: 80}}},
		{"8080:80", PortMapping{Host: port(8080), Container: PortRange{First: 80}}},
		{"6060:6060/udp", PortMapping{Host: port(6060), Container: PortRange{First: 6060}, Protocol: "udp"}},
		{"127.0.0.1:8001:8001", PortMapping{HostIP: "127.0.0.1", Host: port(8001), Container: PortRange{First: 8001}}},
		{"[::1]:8080:80", PortMapping{HostIP: "::1", Host: port(8080), Container: PortRange{First: 80}}},
		{
			"8080-8089:3000-3009",
			PortMapping{
				Host:      &PortRange{First: 8080, Last: 8089},
				Container: PortRange{First: 3000, Last: 3009},
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParsePortMapping(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePortMapping_DefaultsToTCP(t *testing.T) {
	t.Parallel()

	m, err := ParsePortMapping("8080:80")
	require.NoError(t, err)
	assert.Equal(t, uint16(8080), m.Host.First)
	assert.Equal(t, uint16(80), m.Container.First)
	assert.Empty(t, m.Protocol)

	// Canonical text keeps the short form without an explicit protocol.
	assert.Equal(t, "8080:80", m.String())
}

func TestParsePortMapping_Invalid(t *testing.T) {
	t.Parallel()

	invalid := []string{
		"",
		"abc",
		"80:80/sctp",
		"80:80:80:80",
		":80",
		"8080-8089:3000",
		"[]:80:80",
	}
	for _, s := range invalid {
		s := s
		t.Run(s, func(t *testing.T) {
			t.Parallel()

			_, err := ParsePortMapping(s)
			assert.Error(t, err)
		})
	}
}

func TestPortMapping_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		m    PortMapping
		want string
	}{
		{"container only", PortMapping{Container: PortRange{First: 80}}, "80"},
		{"explicit tcp omitted", PortMapping{Container: PortRange{First: 80}, Protocol: "tcp"}, "80"},
		{"udp kept", PortMapping{Container: PortRange{First: 53}, Protocol: "udp"}, "53/udp"},
		{
			"ipv6 host bracketed",
			PortMapping{HostIP: "::1", Host: &PortRange{First: 8080}, Container: PortRange{First: 80}},
			"[::1]:8080:80",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.m.String())
		})
	}
}
