package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	// Important: Set args BEFORE setting output buffers
	rootCmd.SetArgs(args)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Help(t *testing.T) {
	output, err := executeCmd(t, "--help")
	assert.NoError(t, err)
	assert.Contains(t, output, "validate")
	assert.Contains(t, output, "render")
	assert.Contains(t, output, "merge")
	assert.Contains(t, output, "interpolate")
}

func TestValidateCmd_Help(t *testing.T) {
	output, err := executeCmd(t, "validate", "--help")
	assert.NoError(t, err)
	assert.Contains(t, output, "--refs")
	assert.Contains(t, output, "schema")
}

func TestRenderCmd_Help(t *testing.T) {
	output, err := executeCmd(t, "render", "--help")
	assert.NoError(t, err)
	assert.Contains(t, output, "--output")
	assert.Contains(t, output, "canonical")
}

func TestMergeCmd_Help(t *testing.T) {
	output, err := executeCmd(t, "merge", "--help")
	assert.NoError(t, err)
	assert.Contains(t, output, "override")
	assert.Contains(t, output, "--output")
}

func TestInterpolateCmd_Help(t *testing.T) {
	output, err := executeCmd(t, "interpolate", "--help")
	assert.NoError(t, err)
	assert.Contains(t, output, "--env-file")
	assert.Contains(t, output, "--var")
	assert.Contains(t, output, "--strict")
}

func TestMergeCmd_RejectsUnknownFlag(t *testing.T) {
	_, err := executeCmd(t, "merge", "--bogus")
	assert.Error(t, err)
}
