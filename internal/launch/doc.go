// Package launch runs an external process and exposes its lifecycle as a
// cancellable future.
//
// A run is started from a Descriptor. Start returns a Future which resolves
// exactly once to one of:
//   - an exit code, for any process that ran to completion (non-zero included)
//   - a cancellation, when the context was cancelled before the process exited
//   - a start failure, when the OS refused to create the process
//
// Three goroutines race for the outcome:
//
//	ctx.Done() --> bridge ---------> Signal.Set(Cancelled) + kill + release
//	cmd.Wait() --> exit handler ---> mark exited, drain + release + Signal.Set(Exited)
//	stdout/stderr pipes --> readers --> LineFunc callbacks
//
// The Signal keeps the first outcome and ignores the rest. The bridge checks
// for the exit under the same lock the exit handler marks it with, and stands
// down once the process has exited, so a cancellation arriving after the exit
// never turns a finished run into a cancelled one, even while output is still
// being drained.
// Releasing the process (closing the pipes, stopping callbacks) is idempotent
// and may be done by either racer.
//
// Output is best-effort: lines written right before exit are drained for a
// bounded time (see DefaultDrainTimeout), anything later is dropped.
package launch
