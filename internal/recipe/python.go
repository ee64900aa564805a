package recipe

import (
	"fmt"
	"strings"

	"github.com/tsukumogami/toolstrap/internal/archive"
	"github.com/tsukumogami/toolstrap/internal/artifact"
	"github.com/tsukumogami/toolstrap/internal/config"
	"github.com/tsukumogami/toolstrap/internal/platform"
	"github.com/tsukumogami/toolstrap/internal/version"
)

// Python build publisher on GitHub.
const (
	PythonOwner         = "astral-sh"
	PythonRepo          = "python-build-standalone"
	DefaultPythonMirror = "https://github.com/" + PythonOwner + "/" + PythonRepo + "/releases/download"
)

// Python is CPython from python-build-standalone. Archives are keyed by
// a release build tag as well as the version.
var Python = register(&Recipe{
	Name:            "python",
	DisplayName:     "Python",
	LibDir:          "python",
	LinkName:        "python",
	Fallback:        version.Info{Version: "3.12.8", Build: "20241219"},
	StripComponents: 1,
	ManifestKind:    artifact.SumsFile,
	Formats:         []archive.Format{archive.TarGz},
	targets: map[platform.Tag]map[string]string{
		platform.AMD64: {
			platform.LibcGlibc: "x86_64-unknown-linux-gnu",
			platform.LibcMusl:  "x86_64-unknown-linux-musl",
		},
		platform.ARM64: {
			platform.LibcGlibc: "aarch64-unknown-linux-gnu",
			platform.LibcMusl:  "aarch64-unknown-linux-musl",
		},
		platform.I386:    {platform.LibcGlibc: "i686-unknown-linux-gnu"},
		platform.ARMv7:   {platform.LibcGlibc: "armv7-unknown-linux-gnueabihf"},
		platform.PPC64LE: {platform.LibcGlibc: "ppc64le-unknown-linux-gnu"},
		platform.S390X:   {platform.LibcGlibc: "s390x-unknown-linux-gnu"},
		platform.RISCV64: {platform.LibcGlibc: "riscv64-unknown-linux-gnu"},
	},
	baseURL: func(s config.Settings, v version.Resolved) string {
		return mirror(s.PythonMirror, DefaultPythonMirror) + "/" + v.Build
	},
	filename: func(v version.Resolved, target string, f archive.Format) string {
		return fmt.Sprintf("cpython-%s+%s-%s-install_only%s", v.Version, v.Build, target, f.Ext())
	},
	manifestURL: func(s config.Settings, v version.Resolved) string {
		return mirror(s.PythonMirror, DefaultPythonMirror) + "/" + v.Build + "/SHA256SUMS"
	},
	binaries: func(v version.Resolved) []string {
		bins := []string{"bin/python3", "bin/pip3", "bin/pydoc3", "bin/idle3", "bin/2to3"}
		if mm := majorMinor(v.Version); mm != "" {
			bins = append(bins, "bin/python"+mm, "bin/pip"+mm)
		}
		return bins
	},
	shellLines: func(prefix string) []string {
		return []string{fmt.Sprintf(`export PATH="%s/python/bin:$PATH"`, prefix)}
	},
	latest: func(env Env) version.LatestSource {
		return &version.PythonStandalone{
			Client: env.GitHub,
			Owner:  PythonOwner,
			Repo:   PythonRepo,
			Triple: env.Target,
			Build:  env.Settings.PythonBuild,
		}
	},
})

// majorMinor returns "3.12" for "3.12.8".
func majorMinor(v string) string {
	parts := strings.SplitN(v, ".", 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[0] + "." + parts[1]
}
