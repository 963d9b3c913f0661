//go:build unix

package supervisor

import (
	"errors"
	"os/exec"
	"syscall"
)

// detach puts the child in its own process group so signals sent to the
// gateway's terminal group do not reach it.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func terminate(cmd *exec.Cmd) error {
	err := syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	if errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}
