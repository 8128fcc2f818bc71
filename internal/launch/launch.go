package launch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/CZERTAINLY/procawait/internal/log"
)

// DefaultDrainTimeout bounds how long the exit handler waits for the output
// pipes to reach EOF after the process has exited. Grandchildren keeping the
// pipes open past this point lose their output.
const DefaultDrainTimeout = 250 * time.Millisecond

// StartedFunc receives the running process right after it has been created.
type StartedFunc func(ctx context.Context, p *Process)

type options struct {
	stdout  LineFunc
	stderr  LineFunc
	started StartedFunc
	drain   time.Duration
	logger  *slog.Logger
}

type Option func(*options)

// WithOutput sets the callback for standard output lines.
func WithOutput(fn LineFunc) Option {
	return func(o *options) { o.stdout = fn }
}

// WithError sets the callback for standard error lines.
func WithError(fn LineFunc) Option {
	return func(o *options) { o.stderr = fn }
}

// WithStarted sets the callback invoked once the process runs.
func WithStarted(fn StartedFunc) Option {
	return func(o *options) { o.started = fn }
}

func WithDrainTimeout(d time.Duration) Option {
	return func(o *options) { o.drain = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Future is the eventual outcome of a run.
type Future struct {
	sig *Signal
}

// Done is closed when the run has resolved.
func (f *Future) Done() <-chan struct{} {
	return f.sig.Done()
}

// Outcome returns the outcome, KindPending while unresolved.
func (f *Future) Outcome() Outcome {
	return f.sig.Outcome()
}

// Wait blocks until the run resolves. See Run for the returned values.
func (f *Future) Wait() (int, error) {
	<-f.sig.Done()
	return f.sig.Outcome().Result()
}

// WaitContext is like Wait, but gives up when ctx is done. Giving up does not
// cancel the run.
func (f *Future) WaitContext(ctx context.Context) (int, error) {
	select {
	case <-f.sig.Done():
		return f.sig.Outcome().Result()
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

// Run starts the process described by d and waits for it.
//
// It returns the exit code of the process and a nil error for every exit,
// zero or not. A cancelled ctx (or an expired d.Timeout) yields an error
// matching ErrCancelled and the context cause; a process which could not be
// created yields a *StartError matching ErrStart.
func Run(ctx context.Context, d Descriptor, opts ...Option) (int, error) {
	return Start(ctx, d, opts...).Wait()
}

// Start launches the process described by d and returns immediately.
//
// A ctx which is already cancelled resolves the future as cancelled without
// creating any process. Line callbacks run on per-stream goroutines; lines of
// one stream arrive in order, there is no ordering across streams. The
// started callback runs on the calling goroutine before Start returns and
// before the future can be observed as resolved.
func Start(ctx context.Context, d Descriptor, opts ...Option) *Future {
	o := options{drain: DefaultDrainTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	sig := NewSignal()
	f := &Future{sig: sig}

	if err := ctx.Err(); err != nil {
		sig.Set(Cancelled(context.Cause(ctx)))
		return f
	}

	d = d.Normalize()
	c := &controller{
		desc:   d,
		opts:   o,
		logger: o.logger,
		sig:    sig,
		cancel: func() {},
		ready:  make(chan struct{}),
	}
	c.start(ctx)
	return f
}

type controller struct {
	desc   Descriptor
	opts   options
	logger *slog.Logger
	sig    *Signal
	cancel context.CancelFunc
	ready  chan struct{} // closed once the started callback returned
}

func (c *controller) start(ctx context.Context) {
	if err := c.desc.Validate(); err != nil {
		c.sig.Set(Failed(newStartError(c.desc, err)))
		return
	}
	argv, _ := c.desc.Argv()

	id := uuid.NewString()
	ctx = log.ContextAttrs(ctx, slog.Group("run",
		slog.String("id", id),
		slog.String("executable", c.desc.Executable),
	))
	if c.desc.Timeout > 0 {
		ctx, c.cancel = context.WithTimeout(ctx, c.desc.Timeout)
	}

	cmd := exec.Command(c.desc.Executable, argv...)
	cmd.Dir = c.desc.WorkingDir
	cmd.Env = c.desc.Env
	configure(cmd, c.desc)

	outR, outW, err := os.Pipe()
	if err != nil {
		c.fail(fmt.Errorf("creating stdout pipe: %w", err))
		return
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		closeAll(outR, outW)
		c.fail(fmt.Errorf("creating stderr pipe: %w", err))
		return
	}
	cmd.Stdout = outW
	cmd.Stderr = errW

	if err := cmd.Start(); err != nil {
		closeAll(outR, outW, errR, errW)
		c.fail(err)
		return
	}
	// the child holds its own copies of the write ends
	closeAll(outW, errW)

	p := newProcess(id, c.desc, cmd, outR, errR)
	c.logger.DebugContext(ctx, "process started", "pid", p.PID(), "args", argv)

	b := newBridge(ctx, c.logger, c.sig, p)

	var readers errgroup.Group
	readers.Go(func() error {
		return scanLines(ctx, p, "stdout", outR, c.opts.stdout)
	})
	readers.Go(func() error {
		return scanLines(ctx, p, "stderr", errR, c.opts.stderr)
	})
	drained := make(chan struct{})
	go func() {
		if err := readers.Wait(); err != nil {
			c.logger.WarnContext(ctx, "output lost", "pid", p.PID(), "error", err)
		}
		close(drained)
	}()

	go c.wait(ctx, p, b, drained)

	// the exit handler resolves the run only after the started callback returned
	defer close(c.ready)
	if c.opts.started != nil {
		c.opts.started(ctx, p)
	}
}

// wait is the exit handler.
func (c *controller) wait(ctx context.Context, p *Process, b *bridge, drained <-chan struct{}) {
	defer c.cancel()

	err := p.cmd.Wait()
	var exitErr *exec.ExitError
	code := -1
	if p.cmd.ProcessState != nil {
		code = p.cmd.ProcessState.ExitCode()
	}
	p.markExited(code)

	if c.opts.drain > 0 {
		timer := time.NewTimer(c.opts.drain)
		select {
		case <-drained:
		case <-timer.C:
			c.logger.DebugContext(ctx, "output not drained: pipes still open", "pid", p.PID(), "timeout", c.opts.drain)
		}
		timer.Stop()
	}
	p.release()
	<-c.ready

	if err != nil && !errors.As(err, &exitErr) {
		c.sig.Set(Failed(fmt.Errorf("waiting for %s: %w", c.desc, err)))
	} else if c.sig.Set(Exited(code)) {
		c.logger.DebugContext(ctx, "process exited", "pid", p.PID(), "exit_code", code)
	}
	b.unregister()
}

func (c *controller) fail(err error) {
	c.cancel()
	c.sig.Set(Failed(newStartError(c.desc, err)))
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
