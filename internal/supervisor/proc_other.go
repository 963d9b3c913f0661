//go:build !unix

package supervisor

import "os/exec"

func detach(cmd *exec.Cmd) {}

func terminate(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}
