package utils

import (
	"github.com/sirupsen/logrus"

	"stopwatch/internal/config"
	"stopwatch/pkg/stopwatch"
)

func NewLogger(cfg config.Config) *logrus.Entry {
	textFormatter := logrus.TextFormatter{FullTimestamp: true}
	logger := logrus.New()
	logger.SetLevel(logrus.Level(cfg.Log.Level))
	logger.SetFormatter(&textFormatter)
	return logger.WithField("version", config.VersionInfo.Version)
}

// NewStopwatch builds a stopwatch from cfg. opts are applied last.
func NewStopwatch(cfg config.Config, log logrus.FieldLogger, opts ...stopwatch.Option) *stopwatch.Stopwatch {
	return stopwatch.New(append([]stopwatch.Option{
		stopwatch.WithLabel(cfg.Label),
		stopwatch.WithLogger(log),
		stopwatch.WithEpsilon(cfg.Countdown.Epsilon),
	}, opts...)...)
}
