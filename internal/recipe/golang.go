package recipe

import (
	"fmt"

	"github.com/tsukumogami/toolstrap/internal/archive"
	"github.com/tsukumogami/toolstrap/internal/artifact"
	"github.com/tsukumogami/toolstrap/internal/config"
	"github.com/tsukumogami/toolstrap/internal/platform"
	"github.com/tsukumogami/toolstrap/internal/version"
)

// DefaultGoMirror serves Go archives and the release index.
const DefaultGoMirror = "https://go.dev/dl"

// Go is the Go toolchain. The Go archives are statically linked so the
// same archive serves glibc and musl hosts.
var Go = register(&Recipe{
	Name:            "go",
	DisplayName:     "Go",
	LibDir:          "go",
	LinkName:        "go",
	Fallback:        version.Info{Version: "1.23.4"},
	StripComponents: 1,
	ManifestKind:    artifact.GoReleaseIndex,
	Formats:         []archive.Format{archive.TarGz},
	targets: glibcOnly(map[platform.Tag]string{
		platform.AMD64:   "amd64",
		platform.ARM64:   "arm64",
		platform.I386:    "386",
		platform.ARMv6:   "armv6l",
		platform.ARMv7:   "armv6l",
		platform.PPC64LE: "ppc64le",
		platform.S390X:   "s390x",
		platform.RISCV64: "riscv64",
	}),
	baseURL: func(s config.Settings, _ version.Resolved) string {
		return mirror(s.GoMirror, DefaultGoMirror)
	},
	filename: func(v version.Resolved, target string, f archive.Format) string {
		return fmt.Sprintf("go%s.linux-%s%s", v.Version, target, f.Ext())
	},
	manifestURL: func(s config.Settings, _ version.Resolved) string {
		return (&version.GoDev{BaseURL: mirror(s.GoMirror, DefaultGoMirror)}).IndexURL(true)
	},
	binaries: func(version.Resolved) []string {
		return []string{"bin/go", "bin/gofmt"}
	},
	shellLines: func(prefix string) []string {
		return []string{
			fmt.Sprintf(`export PATH="$PATH:%s/go/bin"`, prefix),
			`export GOPATH="$HOME/go"`,
			`export PATH="$PATH:$GOPATH/bin"`,
		}
	},
	latest: func(env Env) version.LatestSource {
		return &version.GoDev{BaseURL: mirror(env.Settings.GoMirror, DefaultGoMirror), Client: env.Client}
	},
})
