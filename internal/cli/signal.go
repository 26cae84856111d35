package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
)

// ShutdownError is the cancellation cause recorded when SIGINT or SIGTERM
// arrives.
type ShutdownError struct {
	Signal os.Signal
}

func (e *ShutdownError) Error() string {
	return "received " + e.Signal.String()
}

// ShutdownContext is cancelled on SIGINT or SIGTERM, or when stop is called.
// The signal is available afterwards through ShutdownSignal.
func ShutdownContext(parent context.Context) (ctx context.Context, stop context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			cancel(&ShutdownError{Signal: sig})
		case <-ctx.Done():
		}
	}()
	return ctx, func() { cancel(context.Canceled) }
}

// ShutdownSignal reports the signal that cancelled ctx, or nil.
func ShutdownSignal(ctx context.Context) os.Signal {
	var se *ShutdownError
	if errors.As(context.Cause(ctx), &se) {
		return se.Signal
	}
	return nil
}
