package interp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Valid(t *testing.T) {
	t.Parallel()

	valid := []string{
		"",
		"plain text",
		"${TAG}",
		"$TAG",
		"app:${TAG}",
		"${TAG:-latest}",
		"${TAG:?tag is required}",
		"$$not_a_ref",
		"price: $$5",
		"${A}-${B}",
		"${_UNDERSCORE}",
		"${NAME:-}",
		"${NAME:?}",
		"${NAME:-with spaces and $ signs}",
	}
	for _, input := range valid {
		input := input
		t.Run(input, func(t *testing.T) {
			t.Parallel()

			s, err := Parse(input)
			require.NoError(t, err)
			assert.Equal(t, input, s.Raw())
		})
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	t.Parallel()

	invalid := []string{
		"$",
		"lonely $",
		"${",
		"${}",
		"${TAG",
		"${ TAG}",
		"${TAG!}",
		"${9TAG}",
		"$9",
		"$-",
	}
	for _, input := range invalid {
		input := input
		t.Run(input, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(input)
			require.Error(t, err)

			var syntaxErr *SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.Equal(t, input, syntaxErr.Input)
		})
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		vars  Mapping
		mode  Mode
		want  string
	}{
		{"plain text untouched", "hello", nil, Lenient, "hello"},
		{"braced reference", "${TAG}", Mapping{"TAG": "1.4"}, Lenient, "1.4"},
		{"bare reference", "$TAG", Mapping{"TAG": "1.4"}, Lenient, "1.4"},
		{"embedded reference", "app:${TAG}", Mapping{"TAG": "1.4"}, Lenient, "app:1.4"},
		{"bare reference ends at punctuation", "$HOST:8080", Mapping{"HOST": "db"}, Lenient, "db:8080"},
		{"unset is empty in lenient mode", "${MISSING}", Mapping{}, Lenient, ""},
		{"escaped dollar", "$$TAG", Mapping{"TAG": "1.4"}, Lenient, "$TAG"},
		{"default used when unset", "${FOO:-bar}", Mapping{}, Lenient, "bar"},
		{"default used when empty", "${FOO:-bar}", Mapping{"FOO": ""}, Lenient, "bar"},
		{"default skipped when set", "${FOO:-bar}", Mapping{"FOO": "x"}, Lenient, "x"},
		{"default skipped in strict mode too", "${FOO:-bar}", Mapping{}, Strict, "bar"},
		{"required passes when set", "${FOO:?no foo}", Mapping{"FOO": "x"}, Lenient, "x"},
		{"required passes when empty", "${FOO:?no foo}", Mapping{"FOO": ""}, Lenient, ""},
		{"not recursive", "${A}", Mapping{"A": "${B}", "B": "x"}, Lenient, "${B}"},
		{"multiple references", "${A}-${B}", Mapping{"A": "1", "B": "2"}, Lenient, "1-2"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, err := Parse(tt.input)
			require.NoError(t, err)

			got, err := s.Resolve(tt.vars, tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_Undefined(t *testing.T) {
	t.Parallel()

	t.Run("strict mode fails on unset", func(t *testing.T) {
		t.Parallel()

		s, err := Parse("${MISSING}")
		require.NoError(t, err)

		_, err = s.Resolve(Mapping{}, Strict)
		var undef *UndefinedVariableError
		require.ErrorAs(t, err, &undef)
		assert.Equal(t, "MISSING", undef.Name)
	})

	t.Run("strict mode accepts empty values", func(t *testing.T) {
		t.Parallel()

		s, err := Parse("${SET}")
		require.NoError(t, err)

		got, err := s.Resolve(Mapping{"SET": ""}, Strict)
		require.NoError(t, err)
		assert.Equal(t, "", got)
	})

	t.Run("required form fails with message when unset", func(t *testing.T) {
		t.Parallel()

		s, err := Parse("${FOO:?foo is mandatory}")
		require.NoError(t, err)

		_, err = s.Resolve(Mapping{}, Lenient)
		var undef *UndefinedVariableError
		require.ErrorAs(t, err, &undef)
		assert.Equal(t, "FOO", undef.Name)
		assert.Equal(t, "foo is mandatory", undef.Message)
		assert.Contains(t, err.Error(), "foo is mandatory")
	})
}

func TestResolve_Repeatable(t *testing.T) {
	t.Parallel()

	s, err := Parse("${TAG}")
	require.NoError(t, err)

	got1, err := s.Resolve(Mapping{"TAG": "a"}, Lenient)
	require.NoError(t, err)
	got2, err := s.Resolve(Mapping{"TAG": "b"}, Lenient)
	require.NoError(t, err)

	assert.Equal(t, "a", got1)
	assert.Equal(t, "b", got2)
	assert.Equal(t, "${TAG}", s.Raw())
}

func TestLiteral(t *testing.T) {
	t.Parallel()

	t.Run("escapes dollar signs", func(t *testing.T) {
		t.Parallel()

		s := Literal("costs $5")
		assert.Equal(t, "costs $$5", s.Raw())
		assert.False(t, s.HasReferences())

		got, err := s.Resolve(Mapping{}, Strict)
		require.NoError(t, err)
		assert.Equal(t, "costs $5", got)
	})

	t.Run("round-trips through Literal accessor", func(t *testing.T) {
		t.Parallel()

		s := Literal("plain")
		text, ok := s.Literal()
		require.True(t, ok)
		assert.Equal(t, "plain", text)
	})
}

func TestString_Literal(t *testing.T) {
	t.Parallel()

	t.Run("unescapes literal text", func(t *testing.T) {
		t.Parallel()

		s, err := Parse("a$$b")
		require.NoError(t, err)

		text, ok := s.Literal()
		require.True(t, ok)
		assert.Equal(t, "a$b", text)
	})

	t.Run("not literal when references present", func(t *testing.T) {
		t.Parallel()

		s, err := Parse("${TAG}")
		require.NoError(t, err)

		_, ok := s.Literal()
		assert.False(t, ok)
	})
}

func TestString_Variables(t *testing.T) {
	t.Parallel()

	s, err := Parse("${B} and $A and ${B:-x}")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, s.Variables())

	plain, err := Parse("nothing here")
	require.NoError(t, err)
	assert.Empty(t, plain.Variables())
}

func TestString_Equal(t *testing.T) {
	t.Parallel()

	a, err := Parse("${TAG}")
	require.NoError(t, err)
	b, err := Parse("${TAG}")
	require.NoError(t, err)
	c, err := Parse("${OTHER}")
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
}

func TestEscape(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "$$", Escape("$"))
	assert.Equal(t, "no dollars", Escape("no dollars"))
	assert.Equal(t, "$$$$", Escape("$$"))
}

func TestResolve_LenientNeverFailsWithCompleteMapping(t *testing.T) {
	t.Parallel()

	// With every referenced name present, resolution is total.
	s, err := Parse("${A}:$B:${C:-d}:${E:?msg}")
	require.NoError(t, err)

	vars := Mapping{"A": "1", "B": "2", "C": "3", "E": "4"}
	for _, mode := range []Mode{Lenient, Strict} {
		got, err := s.Resolve(vars, mode)
		require.NoError(t, err)
		assert.Equal(t, "1:2:3:4", got)
	}

	_, err = s.Resolve(Mapping{"A": "1", "B": "2", "C": "3"}, Lenient)
	assert.True(t, errors.As(err, new(*UndefinedVariableError)))
}
