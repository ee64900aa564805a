package version

import (
	"context"
	"net/http"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// PythonStandalone resolves CPython releases published by the
// python-build-standalone project on GitHub.
type PythonStandalone struct {
	Client *github.Client
	Owner  string
	Repo   string
	// Triple selects assets built for the host, e.g.
	// x86_64-unknown-linux-gnu.
	Triple string
	// Build pins the release tag. Empty means the latest release.
	Build string
}

func (p *PythonStandalone) Name() string { return "github.com/" + p.Owner + "/" + p.Repo }

// NewGitHubClient returns a go-github client whose requests go through
// httpClient. A non-empty token authenticates requests, which raises the
// API rate limit.
func NewGitHubClient(httpClient *http.Client, token string) *github.Client {
	if token == "" {
		return github.NewClient(httpClient)
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return github.NewClient(oauth2.NewClient(ctx, ts))
}

var pythonAsset = regexp.MustCompile(`^cpython-([0-9]+\.[0-9]+\.[0-9]+)\+([0-9A-Za-z.]+)-(.+)-install_only\.tar\.gz$`)

// ParsePythonAsset splits an install_only asset name into version, build
// tag and target triple.
func ParsePythonAsset(name string) (version, build, triple string, ok bool) {
	m := pythonAsset.FindStringSubmatch(name)
	if m == nil {
		return "", "", "", false
	}
	return m[1], m[2], m[3], true
}

// Latest returns the highest stable CPython version built for Triple in
// the pinned or latest release.
func (p *PythonStandalone) Latest(ctx context.Context) (Info, error) {
	var (
		release *github.RepositoryRelease
		err     error
	)
	if p.Build != "" {
		release, _, err = p.Client.Repositories.GetReleaseByTag(ctx, p.Owner, p.Repo, p.Build)
	} else {
		release, _, err = p.Client.Repositories.GetLatestRelease(ctx, p.Owner, p.Repo)
	}
	if err != nil {
		return Info{}, WrapNetworkError(err, p.Name(), "failed to get release")
	}

	var (
		best      *semver.Version
		bestBuild string
	)
	for _, asset := range release.Assets {
		ver, build, triple, ok := ParsePythonAsset(asset.GetName())
		if !ok || triple != p.Triple {
			continue
		}
		v, err := semver.StrictNewVersion(ver)
		if err != nil || v.Prerelease() != "" {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best, bestBuild = v, build
		}
	}
	if best == nil {
		return Info{}, &ResolverError{
			Type:    ErrTypeNotFound,
			Source:  p.Name(),
			Message: "no install_only asset for " + p.Triple + " in release " + release.GetTagName(),
		}
	}
	return Info{Version: best.String(), Build: bestBuild}, nil
}
