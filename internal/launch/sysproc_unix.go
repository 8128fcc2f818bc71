//go:build unix

package launch

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// configure puts the child into its own process group so cancellation can
// take down everything it spawned.
func configure(cmd *exec.Cmd, _ Descriptor) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func kill(p *os.Process) error {
	gerr := unix.Kill(-p.Pid, unix.SIGKILL)
	if errors.Is(gerr, unix.ESRCH) {
		gerr = nil
	}
	perr := p.Kill()
	if errors.Is(perr, os.ErrProcessDone) {
		perr = nil
	}
	return errors.Join(gerr, perr)
}
