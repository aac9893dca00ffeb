package exec

import (
	"time"

	"github.com/spf13/cobra"

	"stopwatch/cmd/utils"
	"stopwatch/internal/config"
)

const Use = "exec"

type options struct {
	timeout time.Duration
	slices  bool
}

func NewCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   Use + " [flags] -- command [args...]",
		Short: "Time a command",
		Long: `Runs a command and prints how long it took once it exits.
With --timeout the command is killed once the countdown runs out. With --slices every line the
command writes to stdout is prefixed with the milliseconds since the previous line.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Get()
			if err != nil {
				return err
			}
			log := utils.NewLogger(cfg)
			sw := utils.NewStopwatch(cfg, log)
			return run(cmd.Context(), log, sw, cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.Metrics.Textfile, opts, args)
		},
	}

	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Kill the command once this much time has been spent, 0 disables")
	cmd.Flags().BoolVar(&opts.slices, "slices", false, "Prefix every stdout line with the time since the previous line")
	utils.WithCountdownFlags(cmd)

	return cmd
}
