// Command scan-github-action downloads the scan-github release matching a
// version constraint, runs it and reports its output as GitHub Actions step
// outputs. It exits with the scanner's status.
package main

import (
	"io"
	"os"

	"github.com/Enterprise-CMCS/mac-fc-scan-github-action/internal/logger"
)

func main() {
	runMain(os.Args, os.Stdout, os.Stderr, os.Exit)
}

// runMain executes the CLI with the provided args and writers and exits with
// the resulting status.
func runMain(args []string, stdout io.Writer, stderr io.Writer, exit func(int)) {
	code := execute(args, stdout, stderr, os.Getenv)
	logger.Sync()
	exit(code)
}
