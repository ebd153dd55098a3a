//go:build !windows

package runner

import "os/exec"

// shellCommand runs line through /bin/sh.
func shellCommand(line string) *exec.Cmd {
	return exec.Command("/bin/sh", "-c", line)
}
