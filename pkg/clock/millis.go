package clock

import "time"

const centiMillisecond = 10 * time.Microsecond

// Millis converts d to milliseconds floored to two decimal places.
func Millis(d time.Duration) float64 {
	q := d / centiMillisecond
	if d%centiMillisecond < 0 {
		q--
	}
	return float64(q) / 100
}
