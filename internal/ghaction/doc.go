// Package ghaction implements the parts of the GitHub Actions runner protocol
// the wrapper uses: reading step inputs from INPUT_* variables and writing step
// outputs to the $GITHUB_OUTPUT file.
package ghaction
