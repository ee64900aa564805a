package artifact

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	digestA = "abc1230000000000000000000000000000000000000000000000000000000001"
	digestB = "ABC1230000000000000000000000000000000000000000000000000000000002"
)

func TestParseSums(t *testing.T) {
	data := strings.Join([]string{
		digestA + "  node-v22.12.0-linux-x64.tar.xz",
		digestB + " *node-v22.12.0-linux-x64.tar.gz",
		"",
		"# comment",
	}, "\n")

	m, err := ParseSums("https://nodejs.org/dist/v22.12.0/SHASUMS256.txt", []byte(data))
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())

	d, ok := m.Lookup("node-v22.12.0-linux-x64.tar.xz")
	assert.True(t, ok)
	assert.Equal(t, digestA, d)

	d, ok = m.Lookup("node-v22.12.0-linux-x64.tar.gz")
	assert.True(t, ok)
	assert.Equal(t, strings.ToLower(digestB), d, "digests are normalised to lowercase")

	_, ok = m.Lookup("node-v22.12.0-linux-x64")
	assert.False(t, ok, "lookup is exact, never by prefix")

	assert.Equal(t, []string{"node-v22.12.0-linux-x64.tar.gz", "node-v22.12.0-linux-x64.tar.xz"}, m.Filenames())
}

func TestParseSumsRejectsGarbage(t *testing.T) {
	tests := map[string]string{
		"html page":    "<html><body>Not Found</body></html>",
		"short digest": "abc123  node.tar.xz",
		"no filename":  digestA + "  ",
		"empty":        "\n\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSums("test", []byte(data))
			assert.Error(t, err)
		})
	}
}

const goIndex = `[
  {"version": "go1.23.4", "stable": true, "files": [
    {"filename": "go1.23.4.src.tar.gz", "os": "", "arch": "", "sha256": "` + digestA + `", "kind": "source"},
    {"filename": "go1.23.4.linux-amd64.tar.gz", "os": "linux", "arch": "amd64", "sha256": "` + digestA + `", "kind": "archive"},
    {"filename": "go1.23.4.windows-amd64.msi", "os": "windows", "arch": "amd64", "sha256": "` + digestA + `", "kind": "installer"}
  ]},
  {"version": "go1.22.10", "stable": true, "files": [
    {"filename": "go1.22.10.linux-arm64.tar.gz", "os": "linux", "arch": "arm64", "sha256": "` + digestB + `", "kind": "archive"}
  ]}
]`

func TestParseGoReleaseIndex(t *testing.T) {
	m, err := ParseGoReleaseIndex("go.dev", []byte(goIndex), "1.23.4")
	require.NoError(t, err)
	assert.Equal(t, []string{"go1.23.4.linux-amd64.tar.gz"}, m.Filenames())

	m, err = Parse(GoReleaseIndex, "go.dev", []byte(goIndex), "go1.22.10")
	require.NoError(t, err)
	_, ok := m.Lookup("go1.22.10.linux-arm64.tar.gz")
	assert.True(t, ok)
}

func TestParseGoReleaseIndexMissingVersion(t *testing.T) {
	_, err := ParseGoReleaseIndex("go.dev", []byte(goIndex), "1.99.0")
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, []string{"go1.99.0"}, nf.Expected)

	_, err = ParseGoReleaseIndex("go.dev", []byte("not json"), "1.23.4")
	assert.Error(t, err)
}

func TestNilManifest(t *testing.T) {
	var m *Manifest
	_, ok := m.Lookup("x")
	assert.False(t, ok)
	assert.Zero(t, m.Len())
	assert.Nil(t, m.Filenames())
}
