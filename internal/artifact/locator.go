package artifact

import (
	"fmt"
	"strings"

	"github.com/tsukumogami/toolstrap/internal/archive"
)

// Naming describes how a vendor names its archives for one version and
// platform. Formats lists the primary format first and an optional
// secondary second.
type Naming struct {
	BaseURL  string
	Formats  []archive.Format
	Filename func(archive.Format) string
}

// NotFoundError reports that the manifest has no entry for any expected
// filename.
type NotFoundError struct {
	Expected []string
	Source   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no checksum entry for %s in %s", strings.Join(e.Expected, " or "), e.Source)
}

// Primary returns the descriptor for the first format.
func (n Naming) Primary() Descriptor {
	return n.descriptor(n.Formats[0])
}

func (n Naming) descriptor(f archive.Format) Descriptor {
	return Descriptor{BaseURL: n.BaseURL, Filename: n.Filename(f), Format: f}
}

// Locate picks the descriptor whose filename appears in the manifest,
// trying the primary format before the secondary. With preferGz set,
// a tar.gz format is tried first when the vendor offers one.
//
// A nil manifest means verification was skipped by the operator; the
// first candidate is returned without a check.
func Locate(n Naming, m *Manifest, preferGz bool) (Descriptor, error) {
	if len(n.Formats) == 0 {
		return Descriptor{}, fmt.Errorf("no archive formats for %s", n.BaseURL)
	}
	candidates := n.order(preferGz)
	if m == nil {
		return n.descriptor(candidates[0]), nil
	}

	expected := make([]string, 0, len(candidates))
	for _, f := range candidates {
		d := n.descriptor(f)
		if _, ok := m.Lookup(d.Filename); ok {
			return d, nil
		}
		expected = append(expected, d.Filename)
	}
	return Descriptor{}, &NotFoundError{Expected: expected, Source: m.Source}
}

func (n Naming) order(preferGz bool) []archive.Format {
	formats := append([]archive.Format(nil), n.Formats...)
	if !preferGz {
		return formats
	}
	for i, f := range formats {
		if f == archive.TarGz && i > 0 {
			copy(formats[1:i+1], formats[0:i])
			formats[0] = f
			break
		}
	}
	return formats
}
