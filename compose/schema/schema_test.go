package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/stevedore/tree"
)

func mustParse(t *testing.T, src string) *tree.Node {
	t.Helper()
	root, err := tree.FromYAML([]byte(src))
	require.NoError(t, err)
	return root
}

func TestVersions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"1", "2", "2.1", "2.2", "2.3", "2.4"}, Versions())

	for _, v := range Versions() {
		rs, ok := Lookup(v)
		require.True(t, ok, "version %s", v)
		assert.Equal(t, v, rs.Version())
	}

	_, ok := Lookup("3")
	assert.False(t, ok)
}

func TestDetect(t *testing.T) {
	t.Parallel()

	t.Run("declared version", func(t *testing.T) {
		t.Parallel()

		rs, err := Detect(mustParse(t, "version: \"2.1\"\nservices: {}\n"))
		require.NoError(t, err)
		assert.Equal(t, "2.1", rs.Version())
	})

	t.Run("missing version selects legacy format", func(t *testing.T) {
		t.Parallel()

		rs, err := Detect(mustParse(t, "web:\n  image: nginx\n"))
		require.NoError(t, err)
		assert.Equal(t, "1", rs.Version())
	})

	t.Run("unsupported version lists known versions", func(t *testing.T) {
		t.Parallel()

		_, err := Detect(mustParse(t, "version: \"9.9\"\n"))
		var unsupported *UnsupportedVersionError
		require.ErrorAs(t, err, &unsupported)
		assert.Equal(t, "9.9", unsupported.Version)
		assert.Equal(t, Versions(), unsupported.Known)
		assert.Contains(t, err.Error(), "2.4")
	})

	t.Run("non-mapping root", func(t *testing.T) {
		t.Parallel()

		_, err := Detect(mustParse(t, "- a\n- b\n"))
		var vs Violations
		require.ErrorAs(t, err, &vs)
		assert.Equal(t, RuleInvalidType, vs[0].Rule)
	})

	t.Run("non-scalar version", func(t *testing.T) {
		t.Parallel()

		_, err := Detect(mustParse(t, "version: [2]\n"))
		var vs Violations
		require.ErrorAs(t, err, &vs)
		assert.Equal(t, tree.Path("version"), vs[0].Path)
	})
}

func TestValidate_Accepts(t *testing.T) {
	t.Parallel()

	src := `
version: "2"
services:
  web:
    image: nginx:latest
    command: echo hello
    environment:
      DEBUG: "1"
    ports:
      - "8080:80"
    depends_on:
      - db
  db:
    image: postgres
    labels:
      - "com.example=1"
volumes:
  pgdata:
networks:
  backend:
    driver: bridge
`
	rs, err := Detect(mustParse(t, src))
	require.NoError(t, err)
	assert.Empty(t, rs.Validate(mustParse(t, src)))
}

func TestValidate_UnknownKeysPass(t *testing.T) {
	t.Parallel()

	src := `
version: "2"
services:
  web:
    image: nginx
    x-custom: anything
    some_future_key:
      nested: true
`
	rs, err := Detect(mustParse(t, src))
	require.NoError(t, err)
	assert.Empty(t, rs.Validate(mustParse(t, src)))
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	t.Parallel()

	// Four independent problems in one document.
	src := `
version: "2"
services:
  "bad name!":
    image: [not, scalar]
    ports: not-a-sequence
    pid: banana
`
	rs, err := Detect(mustParse(t, src))
	require.NoError(t, err)

	vs := rs.Validate(mustParse(t, src))
	require.Len(t, vs, 4)

	rules := map[string]int{}
	for _, v := range vs {
		rules[v.Rule]++
	}
	assert.Equal(t, 1, rules[RuleInvalidName])
	assert.Equal(t, 2, rules[RuleInvalidType])
	assert.Equal(t, 1, rules[RuleInvalidEnum])
}

func TestValidate_PathsPointAtOffendingNode(t *testing.T) {
	t.Parallel()

	src := `
version: "2"
services:
  web:
    image: nginx
    depends_on:
      - db
      - [not, scalar]
`
	rs, err := Detect(mustParse(t, src))
	require.NoError(t, err)

	vs := rs.Validate(mustParse(t, src))
	require.Len(t, vs, 1)
	assert.Equal(t, tree.Path("services.web.depends_on[1]"), vs[0].Path)
}

func TestValidate_RequiredServices(t *testing.T) {
	t.Parallel()

	rs, err := Detect(mustParse(t, "version: \"2\"\n"))
	require.NoError(t, err)

	vs := rs.Validate(mustParse(t, "version: \"2\"\n"))
	require.Len(t, vs, 1)
	assert.Equal(t, RuleRequired, vs[0].Rule)
	assert.Equal(t, tree.Path("services"), vs[0].Path)
}

func TestValidate_MutuallyExclusive(t *testing.T) {
	t.Parallel()

	src := `
version: "2"
services:
  web:
    image: nginx
    network_mode: host
    networks:
      - backend
`
	rs, err := Detect(mustParse(t, src))
	require.NoError(t, err)

	vs := rs.Validate(mustParse(t, src))
	require.Len(t, vs, 1)
	assert.Equal(t, RuleMutuallyExclusive, vs[0].Rule)
}

func TestValidate_V21Healthcheck(t *testing.T) {
	t.Parallel()

	src := `
version: "2.1"
services:
  web:
    image: nginx
    healthcheck:
      test: curl -f http://localhost/
    init: true
`
	rs, err := Detect(mustParse(t, src))
	require.NoError(t, err)
	assert.Empty(t, rs.Validate(mustParse(t, src)))

	bad := `
version: "2.1"
services:
  web:
    image: nginx
    healthcheck: not-a-mapping
`
	vs := rs.Validate(mustParse(t, bad))
	require.Len(t, vs, 1)
	assert.Equal(t, RuleInvalidType, vs[0].Rule)
}

func TestValidate_LegacyFormat(t *testing.T) {
	t.Parallel()

	src := `
web:
  image: nginx
  ports:
    - "8080:80"
db:
  image: postgres
`
	rs, err := Detect(mustParse(t, src))
	require.NoError(t, err)
	require.Equal(t, "1", rs.Version())
	assert.Empty(t, rs.Validate(mustParse(t, src)))
}

func TestViolations_Error(t *testing.T) {
	t.Parallel()

	vs := Violations{
		{Path: "a", Rule: RuleRequired, Message: "m1"},
		{Path: "b", Rule: RuleRequired, Message: "m2"},
		{Path: "c", Rule: RuleRequired, Message: "m3"},
		{Path: "d", Rule: RuleRequired, Message: "m4"},
	}
	msg := vs.Error()
	assert.Contains(t, msg, "m1")
	assert.Contains(t, msg, "m3")
	assert.NotContains(t, msg, "m4")
	assert.Contains(t, msg, "(4 total)")
}
