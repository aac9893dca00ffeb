package utils

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var countdownFlags = map[string]string{
	"epsilon": "countdown.epsilon",
}

// WithCountdownFlags adds the countdown flags to cmd. They are bound to viper
// only when cmd runs, so sibling commands can declare the same flags.
func WithCountdownFlags(cmd *cobra.Command) {
	fs := pflag.NewFlagSet("countdown", pflag.ContinueOnError)
	fs.Duration("epsilon", 0, "Extra time added to every countdown so it never fires early")
	cmd.Flags().AddFlagSet(fs)

	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		for flag, key := range countdownFlags {
			if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
				return err
			}
		}
		return nil
	}
}
