// Package buildinfo reports the toolstrap build version.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

// Override is set through -ldflags "-X" by release builds. When empty the
// version is derived from the module build metadata.
var Override string

// Version returns the version string for the current build.
//
// Release builds return the tag ("v0.3.1"). Source builds return
// "dev-<hash>", "dev-<hash>-dirty" or plain "dev" when no VCS data exists.
func Version() string {
	if Override != "" {
		return Override
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return fromVCS(info.Settings)
}

// UserAgent is sent on every outbound HTTP request.
func UserAgent() string {
	return "toolstrap/" + Version()
}

func fromVCS(settings []debug.BuildSetting) string {
	var revision string
	var dirty bool
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return "dev"
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	v := fmt.Sprintf("dev-%s", revision)
	if dirty {
		v += "-dirty"
	}
	return v
}
