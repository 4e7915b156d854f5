// Package version reports the build identity of the pnp binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time with -ldflags "-X github.com/example/pnp/internal/version.Version=...".
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = "unknown"
)

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// String formats the version, commit and build time for `pnp --version`.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, revision(), BuildTime)
}

// revision prefers the ldflags commit and falls back to the VCS stamp Go embeds in module builds.
func revision() string {
	commit := Commit
	if commit == "" {
		if info, ok := readBuildInfo(); ok {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" {
					commit = s.Value
				}
			}
		}
	}
	switch {
	case commit == "":
		return "unknown"
	case len(commit) > 7:
		return commit[:7]
	}
	return commit
}
