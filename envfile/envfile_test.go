package envfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/stevedore/compose/interp"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  interp.Mapping
	}{
		{
			name:  "simple assignments",
			input: "FOO=bar\nBAZ=qux\n",
			want:  interp.Mapping{"FOO": "bar", "BAZ": "qux"},
		},
		{
			name:  "comments and blank lines",
			input: "# leading comment\n\nFOO=bar\n\n# trailing\n",
			want:  interp.Mapping{"FOO": "bar"},
		},
		{
			name:  "empty value",
			input: "EMPTY=\n",
			want:  interp.Mapping{"EMPTY": ""},
		},
		{
			name:  "value kept verbatim",
			input: `URL=http://example.com/?a=1&b=2` + "\n" + `QUOTED="still quoted"` + "\n",
			want: interp.Mapping{
				"URL":    "http://example.com/?a=1&b=2",
				"QUOTED": `"still quoted"`,
			},
		},
		{
			name:  "equals inside value",
			input: "OPTS=-Da=1 -Db=2\n",
			want:  interp.Mapping{"OPTS": "-Da=1 -Db=2"},
		},
		{
			name:  "later assignment wins",
			input: "FOO=first\nFOO=second\n",
			want:  interp.Mapping{"FOO": "second"},
		},
		{
			name:  "no trailing newline",
			input: "FOO=bar",
			want:  interp.Mapping{"FOO": "bar"},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		line  int
	}{
		{name: "no equals sign", input: "FOO=bar\nnot an assignment\n", line: 2},
		{name: "empty name", input: "=value\n", line: 1},
		{name: "invalid name", input: "9FOO=bar\n", line: 1},
		{name: "name with dash", input: "FOO-BAR=x\n", line: 1},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.line, perr.Line)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TAG=1.2\nPORT=8080\n"), 0644))

	vars, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, interp.Mapping{"TAG": "1.2", "PORT": "8080"}, vars)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.Error(t, err)
}

func TestLoad_ErrorNamesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.env")
	require.NoError(t, os.WriteFile(path, []byte("oops\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.env")
}
