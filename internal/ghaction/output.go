package ghaction

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Output names reported by the action.
const (
	OutputExitCode    = "exit-code"
	OutputStdout      = "output"
	OutputErrorOutput = "error-output"
)

// EnvOutputFile names the variable holding the step output file path.
const EnvOutputFile = "GITHUB_OUTPUT"

// OutputWriter sets step outputs.
//
// With a file path it appends "name<<delimiter" blocks to the file. Without
// one it prints the legacy ::set-output workflow command to stdout.
type OutputWriter struct {
	path      string
	stdout    io.Writer
	delimiter func() string
}

// NewOutputWriter creates a writer for the output file at path.
// An empty path selects the workflow command form written to stdout.
func NewOutputWriter(path string, stdout io.Writer) *OutputWriter {
	return &OutputWriter{
		path:   path,
		stdout: stdout,
		delimiter: func() string {
			return "ghadelimiter_" + uuid.NewString()
		},
	}
}

// NewOutputWriterFromEnv creates a writer for the file named by $GITHUB_OUTPUT.
func NewOutputWriterFromEnv(getenv Getenv, stdout io.Writer) *OutputWriter {
	path := ""
	if getenv != nil {
		path = getenv(EnvOutputFile)
	}
	return NewOutputWriter(path, stdout)
}

// Set reports output name with value.
func (w *OutputWriter) Set(name, value string) error {
	if w.path == "" {
		return w.setCommand(name, value)
	}

	delimiter := w.delimiter()
	if strings.Contains(name, delimiter) {
		return fmt.Errorf("output name %q contains the delimiter", name)
	}
	if strings.Contains(value, delimiter) {
		return fmt.Errorf("output %q value contains the delimiter", name)
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}

	_, err = fmt.Fprintf(f, "%s<<%s\n%s\n%s\n", name, delimiter, value, delimiter)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write output %q: %w", name, err)
	}

	return nil
}

// SetAll reports outputs in order, stopping at the first failure.
func (w *OutputWriter) SetAll(outputs ...Output) error {
	for _, o := range outputs {
		if err := w.Set(o.Name, o.Value); err != nil {
			return err
		}
	}
	return nil
}

// Output is one named step output.
type Output struct {
	Name  string
	Value string
}

func (w *OutputWriter) setCommand(name, value string) error {
	if w.stdout == nil {
		return nil
	}
	_, err := fmt.Fprintf(w.stdout, "\n::set-output name=%s::%s\n", escapeProperty(name), escapeData(value))
	return err
}

func escapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	return strings.ReplaceAll(s, "\n", "%0A")
}

func escapeProperty(s string) string {
	s = escapeData(s)
	s = strings.ReplaceAll(s, ":", "%3A")
	return strings.ReplaceAll(s, ",", "%2C")
}
