package launch

import (
	"fmt"
	"sync/atomic"
)

// Kind tags the variant held by an Outcome.
type Kind int

const (
	KindPending Kind = iota
	KindExited
	KindCancelled
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindPending:
		return "pending"
	case KindExited:
		return "exited"
	case KindCancelled:
		return "cancelled"
	case KindFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Outcome is the final result of a run. Code is meaningful for KindExited
// only, Err is set for KindCancelled and KindFailed.
type Outcome struct {
	Kind Kind
	Code int
	Err  error
}

func Exited(code int) Outcome {
	return Outcome{Kind: KindExited, Code: code}
}

func Cancelled(cause error) Outcome {
	return Outcome{Kind: KindCancelled, Code: -1, Err: cancelledError(cause)}
}

func Failed(err error) Outcome {
	return Outcome{Kind: KindFailed, Code: -1, Err: err}
}

// Result converts the outcome into the (exit code, error) pair returned by Run.
func (o Outcome) Result() (int, error) {
	if o.Kind == KindExited {
		return o.Code, nil
	}
	return -1, o.Err
}

// Signal is a single-assignment cell holding an Outcome. Set stores the
// first outcome and ignores every later one, which is what settles the race
// between the exit handler and the cancellation bridge.
type Signal struct {
	outcome atomic.Pointer[Outcome]
	done    chan struct{}
}

func NewSignal() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Set stores o if nothing was stored yet and reports whether it did.
func (s *Signal) Set(o Outcome) bool {
	if !s.outcome.CompareAndSwap(nil, &o) {
		return false
	}
	close(s.done)
	return true
}

// IsSet reports whether an outcome has been stored.
func (s *Signal) IsSet() bool {
	return s.outcome.Load() != nil
}

// Done is closed once the outcome is stored.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

// Outcome returns the stored outcome, or a KindPending one.
func (s *Signal) Outcome() Outcome {
	if o := s.outcome.Load(); o != nil {
		return *o
	}
	return Outcome{Kind: KindPending, Code: -1}
}
