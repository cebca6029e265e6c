package taskloop

import (
	"context"
	"time"
)

// Clock supplies the loop's notion of time and its blocking sleep primitive.
// It exists so schedulers can be driven deterministically in tests, and so
// hosts with virtualized time can substitute their own source.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep blocks for the given duration, returning early with ctx.Err()
	// if the context is canceled first. Non-positive durations return
	// immediately.
	Sleep(ctx context.Context, d time.Duration) error
}

// systemClock is the default Clock, backed by the time package.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
