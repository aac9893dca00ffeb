package stopwatch

import (
	"time"

	"github.com/sirupsen/logrus"

	"stopwatch/pkg/clock"
	"stopwatch/pkg/events"
)

// DefaultEpsilon is added to every countdown so the callback never fires
// before the target has been reached.
const DefaultEpsilon = 500 * time.Microsecond

type Option func(*Stopwatch)

// WithLabel sets the diagnostic label. Empty labels are ignored.
func WithLabel(label string) Option {
	return func(s *Stopwatch) {
		if label != "" {
			s.label = label
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(s *Stopwatch) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Stopwatch) {
		if log != nil {
			s.log = log
		}
	}
}

// WithNotifier replaces the per-instrument events.Bus.
func WithNotifier(n events.Notifier) Option {
	return func(s *Stopwatch) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithEpsilon overrides DefaultEpsilon. Negative values are ignored.
func WithEpsilon(d time.Duration) Option {
	return func(s *Stopwatch) {
		if d >= 0 {
			s.epsilon = d
		}
	}
}
