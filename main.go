package main

import (
	"sigs.k8s.io/controller-runtime/pkg/manager/signals"

	"stopwatch/cmd"
	"stopwatch/internal/config"
)

// These should be set via `go build` during a release
var (
	GitCommit = "undefined"
	GitRef    = "no-ref"
	Version   = "local"
)

func main() {
	config.VersionInfo = &config.BuildVersion{
		GitCommit: GitCommit,
		GitRef:    GitRef,
		Version:   Version,
	}

	cmd.Execute(signals.SetupSignalHandler())
}
