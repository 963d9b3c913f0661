package supervisor

import (
	"fmt"
	"os/exec"
)

// Process is a spawned backend.
type Process interface {
	Pid() int
	// Terminate stops the process and, where supported, its process group.
	Terminate() error
}

// Launcher spawns backend binaries. Tests substitute a fake.
type Launcher interface {
	Launch(binary string, args []string) (Process, error)
}

// ExecLauncher starts binaries with os/exec, detached from the gateway's
// standard streams and, on unix, in their own process group.
type ExecLauncher struct{}

// Launch starts binary and returns without waiting for it.
func (ExecLauncher) Launch(binary string, args []string) (Process, error) {
	cmd := exec.Command(binary, args...)
	// nil streams are connected to the null device
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", binary, err)
	}

	p := &execProcess{cmd: cmd}
	// reap the child when it exits so it does not linger as a zombie
	go func() { _ = cmd.Wait() }()

	return p, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Pid() int { return p.cmd.Process.Pid }

func (p *execProcess) Terminate() error { return terminate(p.cmd) }
