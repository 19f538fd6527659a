// File: cmd/root_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with the given args and returns its combined
// output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestResolveCommandPrintsCanonicalPath(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(statePath, []byte(`{"cookies": []}`), 0o600))

	out, err := execute(t, "resolve", statePath)
	require.NoError(t, err)
	assert.Contains(t, out, statePath)
}

func TestResolveCommandFailsOnMissingFile(t *testing.T) {
	_, err := execute(t, "resolve", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestExecuteContextMapsErrorsToExitCodeOne(t *testing.T) {
	var gotCode int
	osExit = func(code int) { gotCode = code }
	defer func() { osExit = os.Exit }()

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"resolve", "/definitely/not/there.json"})
	ExecuteContext(context.Background())

	assert.Equal(t, 1, gotCode)
}

// The exit codes are a scripting contract; pin them.
func TestCaptureOutcomeExitCodes(t *testing.T) {
	assert.Equal(t, 2, exitCodeTimeout)
	assert.Equal(t, 130, exitCodeAbort)
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}
