// Package artifact names the release archive to download for a resolved
// version and platform, and reads vendor checksum manifests.
package artifact

import (
	"strings"

	"github.com/tsukumogami/toolstrap/internal/archive"
)

// Descriptor identifies one downloadable archive.
type Descriptor struct {
	BaseURL  string
	Filename string
	Format   archive.Format
}

// URL returns the download URL.
func (d Descriptor) URL() string {
	return strings.TrimRight(d.BaseURL, "/") + "/" + d.Filename
}

// VersionedName is the filename without its compression suffix. The
// installer uses it as the versioned install directory name.
func (d Descriptor) VersionedName() string {
	return archive.TrimExt(d.Filename)
}
