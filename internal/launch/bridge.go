package launch

import (
	"context"
	"log/slog"
)

// bridge turns a cancelled context into a Cancelled outcome and a killed
// process.
type bridge struct {
	stop func() bool
}

func newBridge(ctx context.Context, logger *slog.Logger, sig *Signal, p *Process) *bridge {
	stop := context.AfterFunc(ctx, func() {
		interrupted, err := p.interrupt(func() {
			if sig.Set(Cancelled(context.Cause(ctx))) {
				logger.DebugContext(ctx, "run cancelled", "pid", p.PID(), "cause", context.Cause(ctx))
			}
		})
		if !interrupted {
			// exited first, the exit handler resolves the run
			return
		}
		if err != nil {
			logger.DebugContext(ctx, "killing cancelled process", "pid", p.PID(), "error", err)
		}
		p.release()
	})
	return &bridge{stop: stop}
}

// unregister detaches the bridge from the context. A bridge which already
// fired keeps running to completion.
func (b *bridge) unregister() {
	b.stop()
}
