// Package testutil provides utilities for running the action in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Env describes the isolated runner environment created by SetupTestEnv.
type Env struct {
	// Dir is the root of all test files.
	Dir string
	// OutputFile is the path $GITHUB_OUTPUT points at.
	OutputFile string
	// RunnerTemp is the directory $RUNNER_TEMP points at.
	RunnerTemp string
	// WorkDir is an empty directory for downloaded assets.
	WorkDir string
}

// runnerVars are cleared so the host's GitHub Actions state never leaks into tests.
var runnerVars = []string{
	"GITHUB_ACTIONS",
	"GITHUB_API_URL",
	"GITHUB_ACCESS_TOKEN",
	"DSO_GITHUB_SCANNER_CONFIG",
	"RUNNER_DEBUG",
}

// SetupTestEnv creates an isolated GitHub Actions runner environment.
// Every INPUT_* variable of the host is cleared, $GITHUB_OUTPUT and
// $RUNNER_TEMP point into a temp directory, and the cleanup is handled by
// t.TempDir and t.Setenv.
//
// Tests calling it must not run in parallel.
func SetupTestEnv(t *testing.T) *Env {
	t.Helper()

	tmpDir := t.TempDir()
	env := &Env{
		Dir:        tmpDir,
		OutputFile: filepath.Join(tmpDir, "github_output"),
		RunnerTemp: filepath.Join(tmpDir, "runner_temp"),
		WorkDir:    filepath.Join(tmpDir, "work"),
	}

	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "INPUT_") {
			t.Setenv(name, "")
		}
	}
	for _, name := range runnerVars {
		t.Setenv(name, "")
	}

	t.Setenv("GITHUB_OUTPUT", env.OutputFile)
	t.Setenv("RUNNER_TEMP", env.RunnerTemp)

	for _, dir := range []string{env.RunnerTemp, env.WorkDir} {
		require.NoError(t, os.MkdirAll(dir, 0o750), "create test directory %s", dir)
	}

	return env
}

// SetInputs sets action inputs the way the runner does, as INPUT_<NAME>.
func SetInputs(t *testing.T, inputs map[string]string) {
	t.Helper()

	for name, value := range inputs {
		t.Setenv("INPUT_"+strings.ToUpper(strings.ReplaceAll(name, " ", "_")), value)
	}
}
