package tree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromYAML(t *testing.T) {
	t.Parallel()

	t.Run("basic document", func(t *testing.T) {
		t.Parallel()

		root, err := FromYAML([]byte(`
version: "2"
services:
  web:
    image: nginx
    ports:
      - "8080:80"
`))
		require.NoError(t, err)
		require.Equal(t, Mapping, root.Kind)

		version := root.Get("version")
		require.NotNil(t, version)
		assert.Equal(t, Scalar, version.Kind)
		assert.Equal(t, "2", version.Value)
		assert.Equal(t, "!!str", version.Tag)

		ports := root.Get("services").Get("web").Get("ports")
		require.NotNil(t, ports)
		require.Equal(t, Sequence, ports.Kind)
		require.Len(t, ports.Items, 1)
		assert.Equal(t, "8080:80", ports.Items[0].Value)
		assert.Equal(t, Path("services.web.ports[0]"), ports.Items[0].Path)
	})

	t.Run("empty input yields empty mapping", func(t *testing.T) {
		t.Parallel()

		root, err := FromYAML(nil)
		require.NoError(t, err)
		assert.Equal(t, Mapping, root.Kind)
		assert.Empty(t, root.Pairs)
	})

	t.Run("positions recorded", func(t *testing.T) {
		t.Parallel()

		root, err := FromYAML([]byte("a: 1\nb: 2\n"))
		require.NoError(t, err)
		assert.Equal(t, 2, root.Get("b").Line)
	})

	t.Run("non-string scalars keep tags", func(t *testing.T) {
		t.Parallel()

		root, err := FromYAML([]byte("int: 80\nbool: true\nnull_value: ~\nfloat: 1.5\n"))
		require.NoError(t, err)
		assert.Equal(t, "!!int", root.Get("int").Tag)
		assert.Equal(t, "!!bool", root.Get("bool").Tag)
		assert.Equal(t, "!!null", root.Get("null_value").Tag)
		assert.Equal(t, "!!float", root.Get("float").Tag)
		assert.True(t, root.Get("null_value").IsNull())
	})

	t.Run("anchors resolved structurally", func(t *testing.T) {
		t.Parallel()

		root, err := FromYAML([]byte(`
base: &app
  image: nginx
copy: *app
`))
		require.NoError(t, err)
		assert.Equal(t, "nginx", root.Get("copy").Get("image").Value)

		// The alias is a copy, not shared structure.
		assert.True(t, root.Get("base").Equal(root.Get("copy")))
	})

	t.Run("duplicate keys rejected", func(t *testing.T) {
		t.Parallel()

		_, err := FromYAML([]byte("a: 1\na: 2\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate mapping key")
	})

	t.Run("malformed yaml rejected", func(t *testing.T) {
		t.Parallel()

		_, err := FromYAML([]byte("a: [unclosed"))
		assert.Error(t, err)
	})
}

func TestMarshalYAML(t *testing.T) {
	t.Parallel()

	t.Run("key order preserved", func(t *testing.T) {
		t.Parallel()

		m := NewMapping("")
		m.Put("zebra", NewScalar("zebra", "1"))
		m.Put("alpha", NewScalar("alpha", "2"))

		data, err := MarshalYAML(m)
		require.NoError(t, err)
		assert.Less(t, strings.Index(string(data), "zebra"), strings.Index(string(data), "alpha"))
	})

	t.Run("ambiguous strings quoted", func(t *testing.T) {
		t.Parallel()

		for _, value := range []string{"8080:80", "true", "null", "123", "1.5"} {
			m := NewMapping("")
			m.Put("v", NewScalar("v", value))

			data, err := MarshalYAML(m)
			require.NoError(t, err)

			back, err := FromYAML(data)
			require.NoError(t, err)
			got := back.Get("v")
			assert.Equal(t, value, got.Value, "value %q", value)
			assert.Equal(t, "!!str", got.Tag, "value %q", value)
		}
	})

	t.Run("round-trip equality", func(t *testing.T) {
		t.Parallel()

		src := []byte(`
version: "2"
services:
  web:
    image: nginx:latest
    ports:
      - "8080:80"
    environment:
      DEBUG: "1"
      EMPTY: null
    mem_limit: 512
    privileged: true
`)
		root, err := FromYAML(src)
		require.NoError(t, err)

		data, err := MarshalYAML(root)
		require.NoError(t, err)

		back, err := FromYAML(data)
		require.NoError(t, err)
		assert.True(t, root.Equal(back), "re-parsed tree differs:\n%s", data)
	})
}
