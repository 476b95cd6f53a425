// Package version reports the quarry build.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/pthm/quarry/internal/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		fromBuildInfo(info)
	}
}

// fromBuildInfo fills unset variables from module and VCS metadata, which
// is all a "go install github.com/pthm/quarry/cmd/quarry@v..." build has.
func fromBuildInfo(info *debug.BuildInfo) {
	if Version != "dev" {
		return
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		Version = v
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			Commit = s.Value[:min(len(s.Value), 7)]
		case "vcs.time":
			Date = s.Value
		}
	}
}

// Info is the one-line banner printed by "quarry version".
func Info() string {
	return fmt.Sprintf("quarry %s (%s, %s, %s)", Version, Commit, Date, runtime.Version())
}

// Short returns the bare version.
func Short() string { return Version }
