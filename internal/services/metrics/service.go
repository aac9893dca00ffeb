package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"stopwatch/pkg/events"
	"stopwatch/pkg/stopwatch"
)

const (
	namespace       = "stopwatch"
	labelInstrument = "instrument"
)

var (
	Registry      = prometheus.NewRegistry()
	SessionsTotal = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_started_total",
		Help:      "Number of started stopwatch sessions.",
	}, []string{labelInstrument})

	SessionDuration = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "session_milliseconds",
		Help:      "Elapsed milliseconds reported when a stopwatch is stopped, pauses excluded.",
		Buckets:   prometheus.ExponentialBucketsRange(1, 3_600_000, 30),
	}, []string{labelInstrument})

	CountdownTimeouts = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "countdown",
		Name:      "timeouts_total",
		Help:      "Number of countdowns that ran out.",
	}, []string{labelInstrument})

	CountdownCharged = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "countdown",
		Name:      "charged_milliseconds",
		Help:      "Milliseconds charged against a countdown when it ran out.",
		Buckets:   prometheus.ExponentialBucketsRange(1, 3_600_000, 30),
	}, []string{labelInstrument})

	CountdownOverrun = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "countdown",
		Name:      "overrun_milliseconds",
		Help:      "Real milliseconds spent on a countdown beyond the charged time, mostly pauses.",
		Buckets:   prometheus.ExponentialBucketsRange(0.1, 3_600_000, 30),
	}, []string{labelInstrument})
)

// Observe subscribes the collectors to sw under the given instrument name.
// Stop drops every subscription, so observe again for each new session.
func Observe(sw *stopwatch.Stopwatch, instrument string) {
	sw.On(events.Start, func(events.Payload) {
		SessionsTotal.WithLabelValues(instrument).Inc()
	})
	sw.On(events.Stop, func(p events.Payload) {
		SessionDuration.WithLabelValues(instrument).Observe(p.MS)
	})
	sw.On(events.CountdownTimeout, func(p events.Payload) {
		CountdownTimeouts.WithLabelValues(instrument).Inc()
		CountdownCharged.WithLabelValues(instrument).Observe(p.MS)
		CountdownOverrun.WithLabelValues(instrument).Observe(max(p.RealMS-p.MS, 0))
	})
}

// WriteTextfile writes the registry to path in the node exporter textfile format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
