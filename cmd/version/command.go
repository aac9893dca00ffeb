package version

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/version"

	"stopwatch/internal/config"
)

const Use = "version"

func NewCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   Use,
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := Info(config.VersionInfo)
			if !asJSON {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "stopwatch %s (%s, %s, %s)\n", info.GitVersion, info.GitCommit, info.GoVersion, info.Platform)
				return nil
			}
			b, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling version: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")

	return cmd
}

// Info converts build values into the version shape used across kubernetes tooling.
func Info(b *config.BuildVersion) version.Info {
	return version.Info{
		GitVersion:   b.Version,
		GitCommit:    b.GitCommit,
		GitTreeState: b.GitRef,
		GoVersion:    runtime.Version(),
		Compiler:     runtime.Compiler,
		Platform:     fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
