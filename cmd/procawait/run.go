package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/CZERTAINLY/procawait/internal/launch"
	"github.com/spf13/cobra"
)

// exit codes used when the child did not report one
const (
	exitCancelled   = 130
	exitStartFailed = 127
)

type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("exit code %d: %v", e.code, e.err)
	}
	return fmt.Sprintf("exit code %d", e.code)
}

func (e *exitCodeError) Unwrap() error {
	return e.err
}

type runFlags struct {
	dir     string
	env     []string
	args    string
	timeout time.Duration
	drain   time.Duration
}

func newRunCmd(a *app) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run [flags] -- executable [args...]",
		Short: "run executes a command, streams its output and exits with its exit code",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, flags, args)
		},
	}
	cmd.Flags().StringVar(&flags.dir, "dir", "", "working directory of the command")
	cmd.Flags().StringArrayVar(&flags.env, "env", nil, "extra environment variable KEY=value, can be repeated")
	cmd.Flags().StringVar(&flags.args, "args", "", "argument string, split into words without a shell")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "cancel the command after the timeout")
	cmd.Flags().DurationVar(&flags.drain, "drain", 0, "how long to wait for output after the command exited, 0 disables the wait")
	return cmd
}

func (a *app) run(cmd *cobra.Command, flags runFlags, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := a.config.Descriptor(args[0], args[1:])
	if flags.args != "" {
		if len(args) > 1 {
			return errors.New("--args can't be combined with positional arguments")
		}
		d.ArgumentList = nil
		d.Arguments = flags.args
	}
	if flags.dir != "" {
		d.WorkingDir = flags.dir
	}
	if len(flags.env) > 0 {
		if d.Env == nil {
			d.Env = os.Environ()
		}
		d.Env = append(d.Env, flags.env...)
	}
	if flags.timeout > 0 {
		d.Timeout = flags.timeout
	}
	// --drain 0 turns the wait for late output off
	drain := time.Duration(a.config.DrainTimeout)
	if cmd.Flags().Changed("drain") {
		drain = flags.drain
	}

	var mx sync.Mutex
	stdout := lineWriter{mx: &mx, w: cmd.OutOrStdout()}
	stderr := lineWriter{mx: &mx, w: cmd.ErrOrStderr()}
	code, err := launch.Run(ctx, d,
		launch.WithOutput(stdout.line),
		launch.WithError(stderr.line),
		launch.WithStarted(func(ctx context.Context, p *launch.Process) {
			slog.DebugContext(ctx, "started", "pid", p.PID(), "run_id", p.ID())
		}),
		launch.WithDrainTimeout(drain),
	)

	switch {
	case errors.Is(err, launch.ErrCancelled):
		slog.InfoContext(ctx, "command cancelled", "command", d.String(), "error", err)
		return &exitCodeError{code: exitCancelled}
	case errors.Is(err, launch.ErrStart):
		return &exitCodeError{code: exitStartFailed, err: err}
	case err != nil:
		return err
	}

	slog.DebugContext(ctx, "command finished", "command", d.String(), "exit_code", code)
	if code == 0 {
		return nil
	}
	if code < 0 {
		code = 1
	}
	return &exitCodeError{code: code}
}

// lineWriter prints the lines of one stream. stdout and stderr callbacks run
// concurrently, mx is shared as both may end up in the same writer.
type lineWriter struct {
	mx *sync.Mutex
	w  io.Writer
}

func (l lineWriter) line(_ context.Context, line string) {
	l.mx.Lock()
	defer l.mx.Unlock()
	_, _ = fmt.Fprintln(l.w, line)
}
