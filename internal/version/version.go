package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const shortRevision = 7

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	Version = "0.1.0"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns a human-readable version string with commit, build time and Go version.
func Full() string {
	return fmt.Sprintf("irrigation %s, commit: %s, built at: %s, %s", Version, revision(), BuildTime, runtime.Version())
}

// revision prefers the ldflags commit and falls back to the VCS stamp of the binary.
func revision() string {
	if Commit != "none" {
		return Commit
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Commit
	}

	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && setting.Value != "" {
			if len(setting.Value) > shortRevision {
				return setting.Value[:shortRevision]
			}

			return setting.Value
		}
	}

	return Commit
}
