//go:build windows

package launch

import (
	"os"
	"os/exec"
	"syscall"
)

func configure(cmd *exec.Cmd, d Descriptor) {
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: !d.CreateWindow}
}

func kill(p *os.Process) error {
	return p.Kill()
}
