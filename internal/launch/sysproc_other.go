//go:build !unix && !windows

package launch

import (
	"os"
	"os/exec"
)

func configure(_ *exec.Cmd, _ Descriptor) {}

func kill(p *os.Process) error {
	return p.Kill()
}
