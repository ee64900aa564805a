package recipe

import (
	"fmt"

	"github.com/tsukumogami/toolstrap/internal/archive"
	"github.com/tsukumogami/toolstrap/internal/artifact"
	"github.com/tsukumogami/toolstrap/internal/config"
	"github.com/tsukumogami/toolstrap/internal/platform"
	"github.com/tsukumogami/toolstrap/internal/version"
)

// DefaultNodeMirror is the Node.js distribution tree.
const DefaultNodeMirror = "https://nodejs.org/dist"

// Node is Node.js with npm, npx and corepack. Official builds link
// against glibc; musl hosts get the same names from unofficial mirrors
// set through TOOLSTRAP_NODE_MIRROR.
var Node = register(&Recipe{
	Name:            "node",
	DisplayName:     "Node.js",
	LibDir:          "nodejs",
	LinkName:        "node",
	Fallback:        version.Info{Version: "22.12.0"},
	StripComponents: 1,
	ManifestKind:    artifact.SumsFile,
	Formats:         []archive.Format{archive.TarXz, archive.TarGz},
	targets: glibcOnly(map[platform.Tag]string{
		platform.AMD64:   "x64",
		platform.ARM64:   "arm64",
		platform.ARMv7:   "armv7l",
		platform.PPC64LE: "ppc64le",
		platform.S390X:   "s390x",
	}),
	baseURL: func(s config.Settings, v version.Resolved) string {
		return nodeDir(s, v)
	},
	filename: func(v version.Resolved, target string, f archive.Format) string {
		return fmt.Sprintf("node-v%s-linux-%s%s", v.Version, target, f.Ext())
	},
	manifestURL: func(s config.Settings, v version.Resolved) string {
		return nodeDir(s, v) + "/SHASUMS256.txt"
	},
	signatureURL: func(s config.Settings, v version.Resolved) string {
		return nodeDir(s, v) + "/SHASUMS256.txt.sig"
	},
	binaries: func(version.Resolved) []string {
		return []string{"bin/node", "bin/npm", "bin/npx", "bin/corepack"}
	},
	shellLines: func(prefix string) []string {
		return []string{fmt.Sprintf(`export PATH="%s/node/bin:$PATH"`, prefix)}
	},
	latest: func(env Env) version.LatestSource {
		return &version.NodeDist{
			BaseURL: mirror(env.Settings.NodeMirror, DefaultNodeMirror),
			Channel: env.Settings.NodeChannel,
			Client:  env.Client,
		}
	},
})

func nodeDir(s config.Settings, v version.Resolved) string {
	return mirror(s.NodeMirror, DefaultNodeMirror) + "/v" + v.Version
}
