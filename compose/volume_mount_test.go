package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVolumeMount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  VolumeMount
	}{
		{"/var/lib/data", VolumeMount{Target: "/var/lib/data"}},
		{"./src:/app", VolumeMount{Source: "./src", Target: "/app"}},
		{"/host:/container", VolumeMount{Source: "/host", Target: "/container"}},
		{"pgdata:/var/lib/postgresql", VolumeMount{Source: "pgdata", Target: "/var/lib/postgresql"}},
		{"pgdata:/var/lib/postgresql:ro", VolumeMount{Source: "pgdata", Target: "/var/lib/postgresql", ReadOnly: true}},
		{"~/code:/app:rw", VolumeMount{Source: "~/code", Target: "/app"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParseVolumeMount(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseVolumeMount_Invalid(t *testing.T) {
	t.Parallel()

	invalid := []string{
		"",
		":/target",
		"src:",
		"src:/target:banana",
		"a:b:c:d",
	}
	for _, s := range invalid {
		s := s
		t.Run(s, func(t *testing.T) {
			t.Parallel()

			_, err := ParseVolumeMount(s)
			assert.Error(t, err)
		})
	}
}

func TestVolumeMount_IsNamed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		source string
		want   bool
	}{
		{"pgdata", true},
		{"/abs/path", false},
		{"./relative", false},
		{"../parent", false},
		{"~/home", false},
		{"", false},
	}
	for _, tt := range tests {
		m := VolumeMount{Source: tt.source, Target: "/data"}
		assert.Equal(t, tt.want, m.IsNamed(), "source %q", tt.source)
	}
}

func TestVolumeMount_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/data", VolumeMount{Target: "/data"}.String())
	assert.Equal(t, "pgdata:/data", VolumeMount{Source: "pgdata", Target: "/data"}.String())
	assert.Equal(t, "pgdata:/data:ro", VolumeMount{Source: "pgdata", Target: "/data", ReadOnly: true}.String())
}
