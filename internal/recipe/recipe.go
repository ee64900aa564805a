// Package recipe describes the prebuilt-archive tools: how each vendor
// names its architectures and archives, where the checksum manifest
// lives, and how the tree is laid out once installed.
package recipe

import (
	"fmt"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/go-github/v57/github"

	"github.com/tsukumogami/toolstrap/internal/archive"
	"github.com/tsukumogami/toolstrap/internal/artifact"
	"github.com/tsukumogami/toolstrap/internal/config"
	"github.com/tsukumogami/toolstrap/internal/install"
	"github.com/tsukumogami/toolstrap/internal/platform"
	"github.com/tsukumogami/toolstrap/internal/version"
)

// Env carries what recipes need to build version sources.
type Env struct {
	Settings config.Settings
	Client   *http.Client
	GitHub   *github.Client
	// Target is the vendor platform string from Recipe.Target.
	Target string
}

// Recipe is one prebuilt-archive tool.
type Recipe struct {
	Name        string
	DisplayName string

	// LibDir is the directory under <prefix>/lib holding versions.
	LibDir string
	// LinkName is the stable symlink under the prefix.
	LinkName string

	Fallback        version.Info
	StripComponents int
	ManifestKind    artifact.ManifestKind

	// Formats lists the archive formats in order of preference.
	Formats []archive.Format

	// targets maps a platform tag to the vendor's platform string for
	// each libc. The glibc entry is used when the libc has no entry.
	targets map[platform.Tag]map[string]string

	baseURL      func(s config.Settings, v version.Resolved) string
	filename     func(v version.Resolved, target string, f archive.Format) string
	manifestURL  func(s config.Settings, v version.Resolved) string
	signatureURL func(s config.Settings, v version.Resolved) string
	binaries     func(v version.Resolved) []string
	shellLines   func(prefix string) []string
	latest       func(env Env) version.LatestSource
}

// Target returns the vendor platform string for tag and libc, or an
// UnsupportedError naming the architectures the vendor publishes.
func (r *Recipe) Target(tag platform.Tag, libc string) (string, error) {
	byLibc, ok := r.targets[tag]
	if ok {
		if libc == "" {
			libc = platform.LibcGlibc
		}
		if t, ok := byLibc[libc]; ok {
			return t, nil
		}
		return "", &platform.UnsupportedError{
			Kind:  "architecture",
			Value: fmt.Sprintf("%s with %s", tag, libc),
		}
	}
	return "", &platform.UnsupportedError{Kind: "architecture", Value: string(tag), Supported: r.SupportedTags()}
}

// SupportedTags lists the architectures with a published archive.
func (r *Recipe) SupportedTags() []string {
	out := make([]string, 0, len(r.targets))
	for tag := range r.targets {
		out = append(out, string(tag))
	}
	sort.Strings(out)
	return out
}

// Naming returns the candidate archive names for v on target.
func (r *Recipe) Naming(s config.Settings, v version.Resolved, target string) artifact.Naming {
	return artifact.Naming{
		BaseURL: r.baseURL(s, v),
		Formats: r.Formats,
		Filename: func(f archive.Format) string {
			return r.filename(v, target, f)
		},
	}
}

// ManifestURL returns the checksum manifest location for v.
func (r *Recipe) ManifestURL(s config.Settings, v version.Resolved) string {
	return r.manifestURL(s, v)
}

// SignatureURL returns the detached manifest signature location, or ""
// when the vendor does not sign its manifest.
func (r *Recipe) SignatureURL(s config.Settings, v version.Resolved) string {
	if r.signatureURL == nil {
		return ""
	}
	return r.signatureURL(s, v)
}

// Layout returns where v is installed under prefix.
func (r *Recipe) Layout(prefix string, v version.Resolved) install.Layout {
	return install.Layout{
		Prefix:   prefix,
		LibDir:   r.LibDir,
		LinkName: r.LinkName,
		Binaries: r.binaries(v),
	}
}

// ShellLines returns the startup file lines for an install under prefix.
func (r *Recipe) ShellLines(prefix string) []string {
	return r.shellLines(prefix)
}

// LatestSource returns the vendor lookup for the newest release.
func (r *Recipe) LatestSource(env Env) version.LatestSource {
	return r.latest(env)
}

// Request builds the version request from the run settings.
func (r *Recipe) Request(s config.Settings) version.Request {
	req := version.Request{Tool: r.Name, Explicit: s.Version, Fallback: r.Fallback}
	if r.Name == "python" {
		req.Build = s.PythonBuild
	}
	return req
}

// LinkDir returns the stable link path under prefix, e.g. /usr/local/go.
func (r *Recipe) LinkDir(prefix string) string {
	return filepath.Join(prefix, r.LinkName)
}

var registry = map[string]*Recipe{}

var aliases = map[string]string{
	"golang":  "go",
	"nodejs":  "node",
	"python3": "python",
}

func register(r *Recipe) *Recipe {
	registry[r.Name] = r
	return r
}

// Get returns the recipe for name or one of its aliases.
func Get(name string) (*Recipe, bool) {
	name = strings.ToLower(name)
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	r, ok := registry[name]
	return r, ok
}

// Names returns the recipe names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func mirror(override, def string) string {
	if override != "" {
		return strings.TrimRight(override, "/")
	}
	return def
}

func glibcOnly(m map[platform.Tag]string) map[platform.Tag]map[string]string {
	out := make(map[platform.Tag]map[string]string, len(m))
	for tag, v := range m {
		out[tag] = map[string]string{platform.LibcGlibc: v, platform.LibcMusl: v}
	}
	return out
}
