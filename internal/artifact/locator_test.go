package artifact

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsukumogami/toolstrap/internal/archive"
)

func nodeNaming() Naming {
	return Naming{
		BaseURL: "https://nodejs.org/dist/v22.12.0",
		Formats: []archive.Format{archive.TarXz, archive.TarGz},
		Filename: func(f archive.Format) string {
			return "node-v22.12.0-linux-x64" + f.Ext()
		},
	}
}

func TestLocatePrimary(t *testing.T) {
	m := NewManifest("SHASUMS256.txt", map[string]string{
		"node-v22.12.0-linux-x64.tar.xz": digestA,
		"node-v22.12.0-linux-x64.tar.gz": digestA,
	})

	d, err := Locate(nodeNaming(), m, false)
	require.NoError(t, err)
	assert.Equal(t, "node-v22.12.0-linux-x64.tar.xz", d.Filename)
	assert.Equal(t, archive.TarXz, d.Format)
	assert.Equal(t, "https://nodejs.org/dist/v22.12.0/node-v22.12.0-linux-x64.tar.xz", d.URL())
	assert.Equal(t, "node-v22.12.0-linux-x64", d.VersionedName())
}

func TestLocateFallsBackToSecondary(t *testing.T) {
	m := NewManifest("SHASUMS256.txt", map[string]string{
		"node-v22.12.0-linux-x64.tar.gz": digestA,
	})

	d, err := Locate(nodeNaming(), m, false)
	require.NoError(t, err)
	assert.Equal(t, "node-v22.12.0-linux-x64.tar.gz", d.Filename)
	assert.Equal(t, archive.TarGz, d.Format)
}

func TestLocatePreferGz(t *testing.T) {
	m := NewManifest("SHASUMS256.txt", map[string]string{
		"node-v22.12.0-linux-x64.tar.xz": digestA,
		"node-v22.12.0-linux-x64.tar.gz": digestA,
	})

	d, err := Locate(nodeNaming(), m, true)
	require.NoError(t, err)
	assert.Equal(t, archive.TarGz, d.Format)

	// preferGz still falls back when only xz is published.
	m = NewManifest("SHASUMS256.txt", map[string]string{"node-v22.12.0-linux-x64.tar.xz": digestA})
	d, err = Locate(nodeNaming(), m, true)
	require.NoError(t, err)
	assert.Equal(t, archive.TarXz, d.Format)
}

func TestLocateNotFound(t *testing.T) {
	m := NewManifest("https://nodejs.org/dist/v22.12.0/SHASUMS256.txt", map[string]string{
		"node-v22.12.0-linux-arm64.tar.xz": digestA,
	})

	_, err := Locate(nodeNaming(), m, false)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, []string{"node-v22.12.0-linux-x64.tar.xz", "node-v22.12.0-linux-x64.tar.gz"}, nf.Expected)
	assert.Contains(t, err.Error(), "node-v22.12.0-linux-x64.tar.xz or node-v22.12.0-linux-x64.tar.gz")
	assert.Contains(t, err.Error(), "https://nodejs.org/dist/v22.12.0/SHASUMS256.txt")
}

func TestLocateWithoutManifest(t *testing.T) {
	d, err := Locate(nodeNaming(), nil, false)
	require.NoError(t, err)
	assert.Equal(t, archive.TarXz, d.Format)

	d, err = Locate(nodeNaming(), nil, true)
	require.NoError(t, err)
	assert.Equal(t, archive.TarGz, d.Format)
}

func TestLocateNoFormats(t *testing.T) {
	_, err := Locate(Naming{BaseURL: "x"}, nil, false)
	assert.Error(t, err)
}

func TestOrderDoesNotMutateNaming(t *testing.T) {
	n := nodeNaming()
	_ = n.order(true)
	assert.Equal(t, []archive.Format{archive.TarXz, archive.TarGz}, n.Formats)
}
