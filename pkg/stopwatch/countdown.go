package stopwatch

import (
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"stopwatch/pkg/clock"
	"stopwatch/pkg/events"
)

// countdownState is unset while target is nil. It is running while handle is
// set and paused while pause is set; never both.
type countdownState struct {
	target *time.Duration
	start  *time.Time
	paused time.Duration
	pause  *time.Time
	// remain is authoritative only while paused.
	remain time.Duration
	handle *clock.Handle
}

// remaining is target minus the time charged since the countdown origin.
func (c *countdownState) remaining(now time.Time) time.Duration {
	return *c.target - (now.Sub(*c.start) - c.paused)
}

// Countdown arms a countdown of d and publishes events.CountdownTimeout once
// it is spent. The elapsed timer is started first when it is not running.
// The origin and target of a countdown are fixed by the first call; later
// calls only reschedule the callback for d.
func (s *Stopwatch) Countdown(d time.Duration) *Stopwatch {
	s.mu.Lock()
	now := s.clock.Now()
	started := s.elapsed.start == nil
	if started {
		s.startLocked(now)
	}
	s.countdownLocked(now, d)
	s.mu.Unlock()

	if started {
		s.notifier.Publish(events.Start, events.Payload{})
	}
	return s
}

func (s *Stopwatch) countdownLocked(now time.Time, d time.Duration) {
	cd := &s.countdown
	if cd.pause != nil {
		cd.paused += now.Sub(*cd.pause)
		cd.pause = nil
	}
	if cd.start == nil {
		cd.start = lo.ToPtr(now)
	}
	if cd.target == nil {
		cd.target = lo.ToPtr(d)
	}

	s.cancelCountdownLocked()
	gen := s.gen
	cd.handle = clock.Schedule(s.clock, d+s.epsilon, func() {
		s.fire(gen)
	})

	s.log.WithFields(logrus.Fields{
		"countdown_ms": clock.Millis(d),
		"target_ms":    clock.Millis(*cd.target),
	}).Debug("countdown scheduled")
}

func (s *Stopwatch) cancelCountdownLocked() {
	s.countdown.handle.Cancel()
	s.countdown.handle = nil
	s.gen++
}

// CountdownRemain returns the milliseconds left on the countdown. The value
// is negative when the countdown is overdue but has not fired yet.
func (s *Stopwatch) CountdownRemain() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countdown.target == nil {
		return 0, ErrCountdownNotSet
	}
	if s.countdown.pause != nil {
		return clock.Millis(s.countdown.remain), nil
	}
	return clock.Millis(s.countdown.remaining(s.clock.Now())), nil
}

// CountdownPause holds the countdown and returns the remaining milliseconds.
// Pausing a paused countdown returns the same value again.
func (s *Stopwatch) CountdownPause() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cd := &s.countdown
	if cd.target == nil {
		return 0, ErrCountdownNotSet
	}
	if cd.pause != nil {
		return clock.Millis(cd.remain), nil
	}

	now := s.clock.Now()
	s.cancelCountdownLocked()
	cd.remain = cd.remaining(now)
	cd.pause = lo.ToPtr(now)

	s.log.WithField("remain_ms", clock.Millis(cd.remain)).Debug("countdown paused")
	return clock.Millis(cd.remain), nil
}

// CountdownContinue resumes a paused countdown for the remaining time it had
// when paused, and returns that value. It is a no-op when not paused.
func (s *Stopwatch) CountdownContinue() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cd := &s.countdown
	if cd.target == nil {
		return 0, ErrCountdownNotSet
	}

	now := s.clock.Now()
	if cd.pause == nil {
		return clock.Millis(cd.remaining(now)), nil
	}

	remain := cd.remain
	s.countdownLocked(now, remain)
	return clock.Millis(remain), nil
}

// CountdownRestart resets the stopwatch and arms a fresh countdown of d. A
// zero d reuses the target of the previous countdown.
func (s *Stopwatch) CountdownRestart(d time.Duration) *Stopwatch {
	s.mu.Lock()
	if d == 0 && s.countdown.target != nil {
		d = *s.countdown.target
	}
	s.resetLocked()
	now := s.clock.Now()
	s.startLocked(now)
	s.countdownLocked(now, d)
	s.mu.Unlock()

	s.notifier.Publish(events.Start, events.Payload{})
	return s
}

// CountdownPaused reports whether the countdown is held by CountdownPause.
func (s *Stopwatch) CountdownPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countdown.pause != nil
}

// fire runs on the scheduled callback goroutine. The charged time is the real
// time since the origin minus countdown pauses, never less than the target.
func (s *Stopwatch) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.countdown.handle == nil {
		s.mu.Unlock()
		s.log.Debug("dropping stale countdown callback")
		return
	}

	wall := s.clock.Since(*s.countdown.start)
	charged := max(wall-s.countdown.paused, *s.countdown.target)
	s.resetLocked()
	s.mu.Unlock()

	p := events.Payload{MS: clock.Millis(charged), RealMS: clock.Millis(wall)}
	s.log.WithFields(logrus.Fields{
		"charged_ms": p.MS,
		"real_ms":    p.RealMS,
	}).Debug("countdown timeout")
	s.notifier.Publish(events.CountdownTimeout, p)
}
