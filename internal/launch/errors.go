package launch

import (
	"errors"
	"fmt"
)

var (
	ErrCancelled    = errors.New("process cancelled")
	ErrStart        = errors.New("process could not be started")
	ErrNoExecutable = errors.New("executable path is empty")
	ErrArguments    = errors.New("invalid argument string")
	ErrLineTooLong  = errors.New("output line too long")
)

// StartError is returned when the OS refuses to create the process.
type StartError struct {
	Executable string
	Arguments  string
	Err        error
}

func (e *StartError) Error() string {
	if e.Arguments == "" {
		return fmt.Sprintf("starting %q: %v", e.Executable, e.Err)
	}
	return fmt.Sprintf("starting %q with arguments %q: %v", e.Executable, e.Arguments, e.Err)
}

func (e *StartError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrStart) true for every StartError.
func (e *StartError) Is(target error) bool {
	return target == ErrStart
}

func newStartError(d Descriptor, err error) *StartError {
	args := d.Arguments
	if d.ArgumentList != nil {
		args = fmt.Sprintf("%q", d.ArgumentList)
	}
	return &StartError{
		Executable: d.Executable,
		Arguments:  args,
		Err:        err,
	}
}

func cancelledError(cause error) error {
	if cause == nil {
		return ErrCancelled
	}
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}
