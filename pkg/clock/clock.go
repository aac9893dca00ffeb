// Package clock wraps k8s.io/utils/clock with the scheduling and conversion
// helpers the stopwatch needs.
package clock

import (
	"context"
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"
)

// Clock is the time source injected into instruments. clock.RealClock{} and
// the fake clock from k8s.io/utils/clock/testing both satisfy it.
type Clock = clock.WithDelayedExecution

func Real() Clock {
	return clock.RealClock{}
}

// Handle is a pending one-shot callback created by Schedule.
type Handle struct {
	timer clock.Timer
	done  atomic.Bool
}

// Schedule runs f once after d has elapsed on c. A negative d is treated as 0.
// f always runs on its own goroutine: the fake clock invokes AfterFunc
// callbacks while holding its lock, and f is expected to read the clock.
func Schedule(c Clock, d time.Duration, f func()) *Handle {
	if d < 0 {
		d = 0
	}
	h := &Handle{}
	h.timer = c.AfterFunc(d, func() {
		go func() {
			if h.done.CompareAndSwap(false, true) {
				f()
			}
		}()
	})
	return h
}

// Cancel prevents the callback from running. It reports false when the
// callback already ran or the handle was already cancelled.
func (h *Handle) Cancel() bool {
	if h == nil || !h.done.CompareAndSwap(false, true) {
		return false
	}
	h.timer.Stop()
	return true
}

// Fired reports whether the handle is spent, either by running or by Cancel.
func (h *Handle) Fired() bool {
	return h != nil && h.done.Load()
}

// Block sleeps the calling goroutine for d.
func Block(c Clock, d time.Duration) {
	c.Sleep(d)
}

// AsyncBlock returns a channel closed once d has elapsed on c or ctx is done.
func AsyncBlock(ctx context.Context, c Clock, d time.Duration) <-chan struct{} {
	done := make(chan struct{})
	t := c.NewTimer(d)
	go func() {
		defer close(done)
		defer t.Stop()
		select {
		case <-t.C():
		case <-ctx.Done():
		}
	}()
	return done
}
