// Package runner starts the downloaded scan-github binary through the platform
// shell and captures its result.
//
// The process is started without a context-driven kill, so the child's own
// exit status always decides the outcome. The child inherits the parent's
// full environment plus the variables named in Command.Env.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/logger"
	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/platform"
)

// Environment variables injected into the child process.
const (
	EnvAccessToken   = "GITHUB_ACCESS_TOKEN"
	EnvScannerConfig = "DSO_GITHUB_SCANNER_CONFIG"
)

// ErrSpawnFailed is matched by errors returned when the process could not be started.
var ErrSpawnFailed = errors.New("subprocess spawn failed")

// Command describes one invocation of the downloaded binary.
type Command struct {
	// Executable is the file name of the binary inside Dir.
	Executable string
	// Args is appended verbatim to the command line.
	Args string
	// Env holds KEY=VALUE pairs added on top of the parent environment.
	Env []string
	// Dir is the working directory; empty means the current directory.
	Dir string
	// OSFamily selects the command line form; "Windows_NT" drops the "./" prefix.
	OSFamily string
}

// Line returns the shell command line for c.
func (c Command) Line() string {
	line := c.Executable
	if c.OSFamily != platform.OSFamilyWindows {
		line = "./" + line
	}
	if c.Args != "" {
		line += " " + c.Args
	}
	return line
}

// Result is the outcome of a finished process.
type Result struct {
	// Status is the exit code, or nil when the process produced none (killed by a signal).
	Status   *int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// ExitCode returns the exit status, or 1 when the process produced none.
func (r *Result) ExitCode() int {
	if r == nil || r.Status == nil {
		return 1
	}
	return *r.Status
}

// SpawnError reports a process that could not be started.
type SpawnError struct {
	Line string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("start %q: %v", e.Line, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrSpawnFailed) succeed.
func (e *SpawnError) Is(target error) bool {
	return target == ErrSpawnFailed
}

// ShellHost runs commands through the host shell.
type ShellHost struct {
	// environ returns the parent environment; replaced in tests.
	environ func() []string
}

// NewShellHost creates a ShellHost that passes the process environment to children.
func NewShellHost() *ShellHost {
	return &ShellHost{environ: os.Environ}
}

// Spawn runs cmd to completion and returns its status and captured output.
// A non-zero exit is reported through Result, not as an error.
func (h *ShellHost) Spawn(ctx context.Context, cmd Command) (*Result, error) {
	line := cmd.Line()

	if err := ctx.Err(); err != nil {
		return nil, &SpawnError{Line: line, Err: err}
	}

	proc := shellCommand(line)
	proc.Dir = cmd.Dir
	proc.Env = append(h.environ(), cmd.Env...)

	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	logger.DebugKV(ctx, "spawning process", "dir", cmd.Dir, "executable", cmd.Executable)

	start := time.Now()
	err := proc.Run()
	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, &SpawnError{Line: line, Err: err}
		}
	}

	// ExitCode is -1 when the process was terminated by a signal
	if code := proc.ProcessState.ExitCode(); code >= 0 {
		result.Status = &code
	}

	return result, nil
}
