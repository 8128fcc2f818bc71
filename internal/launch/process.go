package launch

import (
	"errors"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
)

// Process is a read-only view of a running child, handed to the started
// callback. It must not be assumed valid once the run has resolved.
type Process struct {
	id   string
	desc Descriptor
	cmd  *exec.Cmd

	mu       sync.Mutex // serializes kill against exit bookkeeping
	exited   atomic.Bool
	exitCode atomic.Int64
	exitedCh chan struct{}

	releaseOnce sync.Once
	released    atomic.Bool
	streams     []*os.File
}

func newProcess(id string, d Descriptor, cmd *exec.Cmd, streams ...*os.File) *Process {
	p := &Process{
		id:       id,
		desc:     d,
		cmd:      cmd,
		exitedCh: make(chan struct{}),
		streams:  streams,
	}
	p.exitCode.Store(-1)
	return p
}

// ID returns the run identifier, also attached to log records of the run.
func (p *Process) ID() string {
	return p.id
}

// PID returns the OS process id.
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// Descriptor returns the normalized descriptor the process was started with.
func (p *Process) Descriptor() Descriptor {
	return p.desc.Normalize()
}

// HasExited reports whether the process has terminated and was reaped.
func (p *Process) HasExited() bool {
	return p.exited.Load()
}

// ExitCode returns the exit code, or -1 while the process is running.
func (p *Process) ExitCode() int {
	return int(p.exitCode.Load())
}

// Exited is closed when the process terminates.
func (p *Process) Exited() <-chan struct{} {
	return p.exitedCh
}

// Kill forcefully terminates the process. Killing a process which is already
// gone is not an error.
func (p *Process) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exited.Load() {
		return nil
	}
	return p.kill()
}

// interrupt runs fn and kills the process, both under the same lock as the
// exit bookkeeping. It does nothing and returns false once the process has
// exited.
func (p *Process) interrupt(fn func()) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exited.Load() {
		return false, nil
	}
	fn()
	return true, p.kill()
}

func (p *Process) kill() error {
	err := kill(p.cmd.Process)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

func (p *Process) markExited(code int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exitCode.Store(int64(code))
	p.exited.Store(true)
	close(p.exitedCh)
}

// release stops stream delivery and closes the read ends of the pipes. Safe to
// call from both the exit and the cancellation path.
func (p *Process) release() {
	p.releaseOnce.Do(func() {
		p.released.Store(true)
		for _, f := range p.streams {
			_ = f.Close()
		}
	})
}

func (p *Process) isReleased() bool {
	return p.released.Load()
}
