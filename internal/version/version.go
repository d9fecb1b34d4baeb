// Package version reports the doxidize release.
//
// Release builds stamp the variables with
//
//	-ldflags "-X git.home.luguber.info/inful/doxidize/internal/version.Version=v0.3.0"
//
// Otherwise the module version and VCS revision recorded by the Go
// toolchain are used when available.
package version

import (
	"fmt"
	"runtime/debug"
)

const unknown = "unknown"

var (
	Version   = unknown
	GitCommit = unknown
	BuildTime = unknown
)

var readBuildInfo = debug.ReadBuildInfo

// String renders the one-line form printed by `doxidize version`.
func String() string {
	v, commit, built := Version, GitCommit, BuildTime
	if info, ok := readBuildInfo(); ok {
		if v == unknown && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && commit == unknown:
				commit = short(s.Value)
			case s.Key == "vcs.time" && built == unknown:
				built = s.Value
			}
		}
	}
	return fmt.Sprintf("doxidize %s (commit %s, built %s)", v, commit, built)
}

func short(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
