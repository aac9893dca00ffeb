package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"stopwatch/cmd/countdown"
	"stopwatch/cmd/exec"
	"stopwatch/cmd/version"
)

var rootCmd = &cobra.Command{
	Use:               "stopwatch",
	Short:             "Measure elapsed time and run pausable countdowns",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: preRun,
}

var cfgFile string

func preRun(_ *cobra.Command, _ []string) error {
	if cfgFile == "" {
		if e := os.Getenv("CONFIG_PATH"); e != "" {
			cfgFile = e
		}
	}

	if cfgFile != "" {
		viper.SetConfigType("yaml")
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
	}

	return nil
}

func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fatal(err)
	}
}

func init() {
	rootCmd.PersistentFlags().Int("log-level", 4, "Log level (0-6)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().String("label", "", "Stopwatch label used in logs and metrics, random when empty")
	_ = viper.BindPFlag("label", rootCmd.PersistentFlags().Lookup("label"))

	rootCmd.PersistentFlags().String("metrics-textfile", "", "Write metrics to this file in the node exporter textfile format")
	_ = viper.BindPFlag("metrics.textfile", rootCmd.PersistentFlags().Lookup("metrics-textfile"))

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to a YAML config file")

	rootCmd.AddCommand(exec.NewCmd())
	rootCmd.AddCommand(countdown.NewCmd())
	rootCmd.AddCommand(version.NewCmd())
}

func fatal(err error) {
	_, _ = fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
