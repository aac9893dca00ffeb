package countdown

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"stopwatch/cmd/utils"
	"stopwatch/internal/config"
)

const Use = "countdown"

func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   Use + " <duration>",
		Short: "Run an interactive countdown",
		Long: `Counts down the given duration and prints the time charged once it runs out.
Commands are read from stdin, one per line:
` + helpText,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := time.ParseDuration(args[0])
			if err != nil {
				return fmt.Errorf("parsing duration: %w", err)
			}
			if target <= 0 {
				return fmt.Errorf("duration must be positive, got %s", target)
			}

			cfg, err := config.Get()
			if err != nil {
				return err
			}
			log := utils.NewLogger(cfg)
			sw := utils.NewStopwatch(cfg, log)
			s := &session{
				sw:       sw,
				log:      log,
				out:      &syncWriter{w: cmd.OutOrStdout()},
				interval: cfg.Countdown.PrintInterval,
				textfile: cfg.Metrics.Textfile,
			}
			return s.run(cmd.Context(), cmd.InOrStdin(), target)
		},
	}

	utils.WithCountdownFlags(cmd)
	cmd.Flags().Duration("interval", 0, "Print the remaining time this often, 0 disables, defaults to countdown.print_interval")
	bindCountdown := cmd.PreRunE
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if err := bindCountdown(cmd, args); err != nil {
			return err
		}
		return viper.BindPFlag("countdown.print_interval", cmd.Flags().Lookup("interval"))
	}

	return cmd
}
