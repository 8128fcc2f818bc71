package launch

import (
	"fmt"
	"time"

	"github.com/google/shlex"
)

// Descriptor describes the external command to run. It is a plain value, the
// controller only ever works on a normalized copy of it.
type Descriptor struct {
	// Executable is a path or a name resolved via PATH.
	Executable string
	// Arguments is the argument string, split into words without a shell.
	Arguments string
	// ArgumentList, when non-nil, is used verbatim instead of Arguments.
	ArgumentList []string
	// WorkingDir is the working directory, empty means the current one.
	WorkingDir string
	// Env is the environment in KEY=value form, nil inherits the parent's.
	Env []string

	RedirectOutput bool
	RedirectError  bool
	UseShell       bool
	CreateWindow   bool

	// Timeout cancels the run when positive.
	Timeout time.Duration
}

// Normalize returns a copy with both streams redirected and with shell
// execution and visible windows disabled.
func (d Descriptor) Normalize() Descriptor {
	d.RedirectOutput = true
	d.RedirectError = true
	d.UseShell = false
	d.CreateWindow = false
	if d.ArgumentList != nil {
		d.ArgumentList = append([]string(nil), d.ArgumentList...)
	}
	if d.Env != nil {
		d.Env = append([]string(nil), d.Env...)
	}
	return d
}

// Argv returns the arguments passed to the executable.
func (d Descriptor) Argv() ([]string, error) {
	if d.ArgumentList != nil {
		return append([]string(nil), d.ArgumentList...), nil
	}
	if d.Arguments == "" {
		return nil, nil
	}
	args, err := shlex.Split(d.Arguments)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArguments, err)
	}
	return args, nil
}

// Validate checks the descriptor can be turned into a command.
func (d Descriptor) Validate() error {
	if d.Executable == "" {
		return ErrNoExecutable
	}
	_, err := d.Argv()
	return err
}

// String returns the command line for diagnostics.
func (d Descriptor) String() string {
	if d.ArgumentList != nil {
		return fmt.Sprintf("%s %q", d.Executable, d.ArgumentList)
	}
	if d.Arguments == "" {
		return d.Executable
	}
	return d.Executable + " " + d.Arguments
}
