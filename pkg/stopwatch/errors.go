package stopwatch

import (
	"errors"
	"fmt"
)

var (
	ErrNotStarted = errors.New("stopwatch is not started, use Start()")
	// ErrCountdownNotSet also matches ErrNotStarted with errors.Is.
	ErrCountdownNotSet = fmt.Errorf("%w: countdown is not configured, use Countdown(d)", ErrNotStarted)
)
