// Package internal holds build information about the running binary.
package internal

import (
	"runtime/debug"
	"time"
)

// Build information as recorded by the Go toolchain. The values remain
// at their defaults for binaries built outside of a VCS checkout.
var (
	BuildRevision      = "unknown"
	BuildRevisionTime  = time.Time{}
	BuildLocalModified = "unknown"
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	readSettings(info.Settings)
}

func readSettings(settings []debug.BuildSetting) {
	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			BuildRevision = setting.Value
		case "vcs.time":
			t, err := time.Parse(time.RFC3339, setting.Value)
			if err != nil {
				continue
			}
			BuildRevisionTime = t
		case "vcs.modified":
			BuildLocalModified = setting.Value
		}
	}
}

// Version describes the build in a single string, for example in
// migration metadata. Builds with local modifications get a "+dirty" suffix.
func Version() string {
	if BuildLocalModified == "true" {
		return BuildRevision + "+dirty"
	}
	return BuildRevision
}
