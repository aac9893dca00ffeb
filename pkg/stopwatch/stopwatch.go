// Package stopwatch measures elapsed time inside a running process: total
// elapsed time, splits, pausable sessions and a countdown that publishes a
// timeout event once its target has been spent.
//
// Every query returns milliseconds floored to two decimal places.
//
//	sw := stopwatch.New().On(events.Stop, func(p events.Payload) {
//		log.Infof("took %.2fms", p.MS)
//	}).Start()
//	doWork()
//	sw.Stop()
package stopwatch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"stopwatch/pkg/clock"
	"stopwatch/pkg/events"
)

// Stopwatch is a single instrument owning an elapsed timer, a countdown and
// the notifier both publish to. It is safe to call from several goroutines,
// but calls are serialized and interleaving them gives no useful timing.
type Stopwatch struct {
	label    string
	clock    clock.Clock
	log      logrus.FieldLogger
	notifier events.Notifier
	epsilon  time.Duration

	mu        sync.Mutex
	elapsed   elapsedState
	countdown countdownState
	// gen identifies the currently scheduled countdown callback. It is bumped
	// on every schedule and cancel so a callback that lost the race is dropped.
	gen uint64
}

type elapsedState struct {
	start  *time.Time
	split  *time.Time
	paused time.Duration
	pause  *time.Time
}

// total is start-to-now minus the pauses closed by Continue. A pause still
// in progress is not subtracted.
func (e *elapsedState) total(now time.Time) time.Duration {
	return now.Sub(*e.start) - e.paused
}

func New(opts ...Option) *Stopwatch {
	s := &Stopwatch{
		label:    uuid.NewString(),
		clock:    clock.Real(),
		notifier: events.NewBus(),
		epsilon:  DefaultEpsilon,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	s.log = s.log.WithField("stopwatch", s.label)
	return s
}

func (s *Stopwatch) Label() string {
	return s.label
}

// On subscribes h to the named event. See the events package for names.
func (s *Stopwatch) On(name string, h events.Handler) *Stopwatch {
	s.notifier.Subscribe(name, h)
	return s
}

// Reset returns both timers to their never-started state and cancels a
// pending countdown. Subscriptions are kept and no event is published.
func (s *Stopwatch) Reset() *Stopwatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	return s
}

func (s *Stopwatch) resetLocked() {
	s.cancelCountdownLocked()
	s.elapsed = elapsedState{}
	s.countdown = countdownState{}
}

// Start starts the elapsed timer and publishes events.Start. Starting a
// running stopwatch restarts it.
func (s *Stopwatch) Start() *Stopwatch {
	s.mu.Lock()
	if s.elapsed.start != nil {
		s.log.Debug("already started, restarting")
		s.resetLocked()
	}
	s.startLocked(s.clock.Now())
	s.mu.Unlock()

	s.notifier.Publish(events.Start, events.Payload{})
	return s
}

func (s *Stopwatch) startLocked(now time.Time) {
	s.elapsed.start = lo.ToPtr(now)
	s.log.Debug("started")
}

// Restart is Reset followed by Start. Arguments are accepted for call
// chaining and ignored.
func (s *Stopwatch) Restart(_ ...any) *Stopwatch {
	return s.Reset().Start()
}

// Elapsed returns the total elapsed time without moving the split origin.
func (s *Stopwatch) Elapsed() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.elapsed.start == nil {
		return 0, ErrNotStarted
	}
	return clock.Millis(s.elapsed.total(s.clock.Now())), nil
}

// Split returns the time since the previous Split or Slice, or since Start
// for the first call. Pauses are not subtracted from splits.
func (s *Stopwatch) Split() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.elapsed.start == nil {
		return 0, ErrNotStarted
	}

	now := s.clock.Now()
	origin := lo.FromPtrOr(s.elapsed.split, *s.elapsed.start)
	s.elapsed.split = lo.ToPtr(now)
	return clock.Millis(now.Sub(origin)), nil
}

// Slice is an alias of Split.
func (s *Stopwatch) Slice() (float64, error) {
	return s.Split()
}

// Pause marks the start of a pause and returns the total elapsed so far. The
// pause is subtracted once Continue closes it. Pausing a paused stopwatch
// moves the pause start to now.
func (s *Stopwatch) Pause() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.elapsed.start == nil {
		return 0, ErrNotStarted
	}

	now := s.clock.Now()
	s.elapsed.pause = lo.ToPtr(now)
	s.log.Debug("paused")
	return clock.Millis(s.elapsed.total(now)), nil
}

// Continue resumes a paused stopwatch and returns the total elapsed. It is a
// no-op when not paused.
func (s *Stopwatch) Continue() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.elapsed.start == nil {
		return 0, ErrNotStarted
	}

	now := s.clock.Now()
	if s.elapsed.pause != nil {
		s.elapsed.paused += now.Sub(*s.elapsed.pause)
		s.elapsed.pause = nil
		s.log.WithField("paused_ms", clock.Millis(s.elapsed.paused)).Debug("continued")
	}
	return clock.Millis(s.elapsed.total(now)), nil
}

// Stop cancels the countdown, publishes events.Stop with the total elapsed,
// drops every subscription and resets the stopwatch.
func (s *Stopwatch) Stop() (float64, error) {
	s.mu.Lock()
	if s.elapsed.start == nil {
		s.mu.Unlock()
		return 0, ErrNotStarted
	}
	total := clock.Millis(s.elapsed.total(s.clock.Now()))
	s.resetLocked()
	s.mu.Unlock()

	s.log.WithField("elapsed_ms", total).Debug("stopped")
	s.notifier.Publish(events.Stop, events.Payload{MS: total})
	s.notifier.Clear()
	return total, nil
}

func (s *Stopwatch) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed.start != nil
}

func (s *Stopwatch) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed.pause != nil
}

// Block sleeps the caller for d on the stopwatch clock.
func (s *Stopwatch) Block(d time.Duration) {
	clock.Block(s.clock, d)
}

// AsyncBlock returns a channel closed after d on the stopwatch clock, or
// when ctx is done.
func (s *Stopwatch) AsyncBlock(ctx context.Context, d time.Duration) <-chan struct{} {
	return clock.AsyncBlock(ctx, s.clock, d)
}
