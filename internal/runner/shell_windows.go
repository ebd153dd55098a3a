//go:build windows

package runner

import (
	"os"
	"os/exec"
	"syscall"
)

// shellCommand runs line through cmd.exe. The command line is passed
// unescaped so cmd.exe sees the argument string exactly as written.
func shellCommand(line string) *exec.Cmd {
	comspec := os.Getenv("ComSpec")
	if comspec == "" {
		comspec = "cmd.exe"
	}
	cmd := exec.Command(comspec)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CmdLine: syscall.EscapeArg(comspec) + ` /d /s /c "` + line + `"`,
	}
	return cmd
}
