package config

import "fmt"

// VersionInfo is set by main from values injected with -ldflags.
var VersionInfo = &BuildVersion{
	GitCommit: "undefined",
	GitRef:    "no-ref",
	Version:   "local",
}

type BuildVersion struct {
	GitCommit, GitRef, Version string
}

func (b *BuildVersion) String() string {
	return fmt.Sprintf("GitCommit=%q GitRef=%q Version=%q", b.GitCommit, b.GitRef, b.Version)
}
