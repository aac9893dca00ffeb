package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"stopwatch/pkg/stopwatch"
)

const envPrefix = "STOPWATCH"

type Config struct {
	Log       Log       `mapstructure:"log"`
	Label     string    `mapstructure:"label"`
	Countdown Countdown `mapstructure:"countdown"`
	Metrics   Metrics   `mapstructure:"metrics"`
}

type Log struct {
	Level int `mapstructure:"level"`
}

type Countdown struct {
	Epsilon       time.Duration `mapstructure:"epsilon"`
	PrintInterval time.Duration `mapstructure:"print_interval"`
}

type Metrics struct {
	// Textfile is written in the node exporter textfile format when set.
	Textfile string `mapstructure:"textfile"`
}

var cfg *Config

// Get configuration bound to environment variables, flags and the optional
// config file. Every key is read from STOPWATCH_<SECTION>_<KEY>, for example
// STOPWATCH_COUNTDOWN_EPSILON.
func Get() (Config, error) {
	if cfg != nil {
		return *cfg, nil
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvs(Config{})

	// Explicit zero values, such as an epsilon of 0, override these.
	viper.SetDefault("log.level", int(logrus.InfoLevel))
	viper.SetDefault("countdown.epsilon", stopwatch.DefaultEpsilon)
	viper.SetDefault("countdown.print_interval", time.Second)

	c := &Config{}
	if err := viper.Unmarshal(c); err != nil {
		return Config{}, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := c.validate(); err != nil {
		return Config{}, err
	}

	cfg = c
	return *cfg, nil
}

func (c *Config) validate() error {
	if c.Log.Level < int(logrus.PanicLevel) || c.Log.Level > int(logrus.TraceLevel) {
		return fmt.Errorf("log level %d is out of range 0-6", c.Log.Level)
	}
	if c.Countdown.Epsilon < 0 {
		return fmt.Errorf("countdown epsilon must not be negative, got %s", c.Countdown.Epsilon)
	}
	if c.Countdown.PrintInterval < 0 {
		return fmt.Errorf("countdown print interval must not be negative, got %s", c.Countdown.PrintInterval)
	}
	return nil
}

// Reset is used only for unit testing to reset configuration and rebind variables.
func Reset() {
	cfg = nil
	viper.Reset()
}
