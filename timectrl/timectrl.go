// Package timectrl paces the simulation loop: either as fast as the
// engine can step, or locked to wall-clock tick intervals for live
// observation.
package timectrl

import (
	"context"
	"time"
)

// Mode describes how the controller advances ticks.
type Mode int

const (
	// Accelerated steps as quickly as the loop can run.
	Accelerated Mode = iota
	// RealTime waits out the tick interval between steps.
	RealTime
)

// Controller runs a fixed number of ticks, invoking the step callback
// for each, honoring the pacing mode and context cancellation.
type Controller struct {
	Interval time.Duration
	Mode     Mode
}

// NewController constructs a controller. A non-positive interval in
// RealTime mode falls back to one second.
func NewController(interval time.Duration, mode Mode) *Controller {
	if interval <= 0 {
		interval = time.Second
	}
	return &Controller{Interval: interval, Mode: mode}
}

// Run executes ticks steps of fn sequentially. In RealTime mode each
// step waits for the tick interval first; in Accelerated mode steps run
// back to back. Run returns early with the context error when ctx is
// cancelled between steps.
func (c *Controller) Run(ctx context.Context, ticks int, fn func(tick int)) error {
	if c.Mode == Accelerated {
		for i := 0; i < ticks; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(i)
		}
		return nil
	}

	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()
	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fn(i)
		}
	}
	return nil
}
