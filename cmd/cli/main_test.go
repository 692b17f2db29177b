package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/assetgrid/internal/cli"
	"github.com/stretchr/testify/require"
)

func TestRun_ConfigErrorExitsWithUsage(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	invalidHCL := `
		task "styles" {
			src = paths.src
		// Missing closing brace here
	`
	filePath := filepath.Join(t.TempDir(), "assetgrid.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(invalidHCL), 0600), "failed to set up test file")
	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(out, []string{"build", "--config", filePath})

	// --- Assert ---
	require.Error(t, runErr)
	var exitErr *cli.ExitError
	require.True(t, errors.As(runErr, &exitErr))
	require.Equal(t, cli.ExitUsage, exitErr.Code)
	require.Contains(t, exitErr.Message, "failed to parse")
}

func TestRun_Help(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}

	err := run(out, []string{"--help"})

	require.NoError(t, err, "run() should return a nil error when printing help")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}

	err := run(out, []string{"build", "--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
}
