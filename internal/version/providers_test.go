package version

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGoDevLatest(t *testing.T) {
	server := serve(t, map[string]string{"/dl/": `[
		{"version": "go1.24rc1", "stable": false},
		{"version": "go1.23.4", "stable": true},
		{"version": "go1.22.10", "stable": true}
	]`})
	p := &GoDev{BaseURL: server.URL + "/dl", Client: server.Client()}

	info, err := p.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.23.4", info.Version)
	assert.Equal(t, server.URL+"/dl/?mode=json&include=all", p.IndexURL(true))
}

func TestGoDevLatestErrors(t *testing.T) {
	server := serve(t, map[string]string{"/dl/": `[{"version": "go1.24rc1", "stable": false}]`})
	p := &GoDev{BaseURL: server.URL + "/dl", Client: server.Client()}
	_, err := p.Latest(context.Background())
	var rerr *ResolverError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, ErrTypeNotFound, rerr.Type)

	p.BaseURL = server.URL + "/missing"
	_, err = p.Latest(context.Background())
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, ErrTypeNotFound, rerr.Type)
}

func TestNodeDistLTS(t *testing.T) {
	server := serve(t, map[string]string{"/dist/index.json": `[
		{"version": "v23.5.0", "lts": false},
		{"version": "v22.12.0", "lts": "Jod"},
		{"version": "v20.18.1", "lts": "Iron"}
	]`})
	p := &NodeDist{BaseURL: server.URL + "/dist/", Channel: "lts", Client: server.Client()}

	info, err := p.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "22.12.0", info.Version)
}

func TestNodeDistLTSNone(t *testing.T) {
	server := serve(t, map[string]string{"/dist/index.json": `[{"version": "v23.5.0", "lts": false}]`})
	p := &NodeDist{BaseURL: server.URL + "/dist", Channel: "lts", Client: server.Client()}
	_, err := p.Latest(context.Background())
	assert.Error(t, err)
}

const latestListing = `<html>
<head><title>Index of /dist/latest/</title></head>
<body>
<h1>Index of /dist/latest/</h1><hr><pre><a href="../">../</a>
<a href="docs/">docs/</a>
<a href="SHASUMS256.txt">SHASUMS256.txt</a>
<a href="node-v23.5.0-darwin-arm64.tar.gz">node-v23.5.0-darwin-arm64.tar.gz</a>
<a href="/dist/latest/node-v23.5.0-linux-x64.tar.xz">node-v23.5.0-linux-x64.tar.xz</a>
<a href="node-v23.5.0.tar.gz">node-v23.5.0.tar.gz</a>
</pre><hr></body>
</html>`

func TestNodeDistCurrent(t *testing.T) {
	server := serve(t, map[string]string{"/dist/latest/": latestListing})
	p := &NodeDist{BaseURL: server.URL + "/dist", Channel: "current", Client: server.Client()}

	info, err := p.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "23.5.0", info.Version)
}

func TestListingLinks(t *testing.T) {
	links := listingLinks([]byte(latestListing))
	assert.Contains(t, links, "node-v23.5.0-linux-x64.tar.xz")
	assert.Contains(t, links, "SHASUMS256.txt")
	assert.Contains(t, links, "docs/")
}

const pythonRelease = `{
  "tag_name": "20241219",
  "assets": [
    {"name": "cpython-3.13.1+20241219-x86_64-unknown-linux-gnu-install_only.tar.gz"},
    {"name": "cpython-3.13.1+20241219-x86_64-unknown-linux-gnu-install_only_stripped.tar.gz"},
    {"name": "cpython-3.12.8+20241219-x86_64-unknown-linux-gnu-install_only.tar.gz"},
    {"name": "cpython-3.12.8+20241219-aarch64-unknown-linux-gnu-install_only.tar.gz"},
    {"name": "cpython-3.14.0a3+20241219-x86_64-unknown-linux-gnu-install_only.tar.gz"},
    {"name": "SHA256SUMS"}
  ]
}`

func pythonServer(t *testing.T) *PythonStandalone {
	t.Helper()
	server := serve(t, map[string]string{
		"/repos/astral-sh/python-build-standalone/releases/latest":          pythonRelease,
		"/repos/astral-sh/python-build-standalone/releases/tags/20241219": pythonRelease,
	})
	client := NewGitHubClient(server.Client(), "")
	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base
	return &PythonStandalone{Client: client, Owner: "astral-sh", Repo: "python-build-standalone", Triple: "x86_64-unknown-linux-gnu"}
}

func TestPythonStandaloneLatest(t *testing.T) {
	p := pythonServer(t)
	info, err := p.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Info{Version: "3.13.1", Build: "20241219"}, info)

	p.Build = "20241219"
	info, err = p.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3.13.1", info.Version)
}

func TestPythonStandaloneTripleFilter(t *testing.T) {
	p := pythonServer(t)
	p.Triple = "aarch64-unknown-linux-gnu"
	info, err := p.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3.12.8", info.Version)

	p.Triple = "riscv64gc-unknown-linux-gnu"
	_, err = p.Latest(context.Background())
	var rerr *ResolverError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, ErrTypeNotFound, rerr.Type)
}

func TestPythonStandaloneMissingRelease(t *testing.T) {
	p := pythonServer(t)
	p.Build = "19990101"
	_, err := p.Latest(context.Background())
	var rerr *ResolverError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, ErrTypeNotFound, rerr.Type)
}

func TestParsePythonAsset(t *testing.T) {
	v, b, triple, ok := ParsePythonAsset("cpython-3.12.8+20241219-armv7-unknown-linux-gnueabihf-install_only.tar.gz")
	require.True(t, ok)
	assert.Equal(t, "3.12.8", v)
	assert.Equal(t, "20241219", b)
	assert.Equal(t, "armv7-unknown-linux-gnueabihf", triple)

	_, _, _, ok = ParsePythonAsset("cpython-3.12.8+20241219-x86_64-unknown-linux-gnu-debug-full.tar.zst")
	assert.False(t, ok)
}

func TestNewGitHubClientWithToken(t *testing.T) {
	var auth string
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(pythonRelease))
	}))
	defer server.Close()

	client := NewGitHubClient(server.Client(), "secret-token")
	base, _ := url.Parse(server.URL + "/")
	client.BaseURL = base
	_, _, err := client.Repositories.GetLatestRelease(context.Background(), "o", "r")
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", auth)
}
