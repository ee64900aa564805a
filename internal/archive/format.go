// Package archive extracts downloaded release archives into a staging
// directory.
package archive

import (
	"fmt"
	"strings"
)

// Format is a compressed archive format named by its file extension
// without the leading dot.
type Format string

const (
	TarXz  Format = "tar.xz"
	TarGz  Format = "tar.gz"
	TarBz2 Format = "tar.bz2"
	TarZst Format = "tar.zst"
	TarLz  Format = "tar.lz"
	Tar    Format = "tar"
	Zip    Format = "zip"
)

// aliases maps short extensions to their canonical format.
var aliases = map[string]Format{
	"tgz":  TarGz,
	"txz":  TarXz,
	"tbz2": TarBz2,
	"tbz":  TarBz2,
	"tzst": TarZst,
	"tlz":  TarLz,
}

// ordered lists formats longest extension first so ".tar.gz" wins over
// ".gz"-less matches like ".tar".
var ordered = []Format{TarZst, TarBz2, TarXz, TarGz, TarLz, Tar, Zip}

// Ext returns the extension including the leading dot.
func (f Format) Ext() string {
	return "." + string(f)
}

func (f Format) String() string {
	return string(f)
}

// ParseFormat accepts a canonical name or a short alias.
func ParseFormat(s string) (Format, error) {
	s = strings.TrimPrefix(strings.ToLower(s), ".")
	for _, f := range ordered {
		if string(f) == s {
			return f, nil
		}
	}
	if f, ok := aliases[s]; ok {
		return f, nil
	}
	return "", fmt.Errorf("unsupported archive format: %s", s)
}

// DetectFormat infers the format from a filename.
func DetectFormat(filename string) (Format, bool) {
	lower := strings.ToLower(filename)
	for _, f := range ordered {
		if strings.HasSuffix(lower, f.Ext()) {
			return f, true
		}
	}
	for alias, f := range aliases {
		if strings.HasSuffix(lower, "."+alias) {
			return f, true
		}
	}
	return "", false
}

// TrimExt removes the format's extension from filename. It is how an
// artifact name such as node-v22.12.0-linux-x64.tar.xz becomes the
// versioned directory name node-v22.12.0-linux-x64.
func TrimExt(filename string) string {
	f, ok := DetectFormat(filename)
	if !ok {
		return filename
	}
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, f.Ext()) {
		return filename[:len(filename)-len(f.Ext())]
	}
	return filename[:strings.LastIndex(filename, ".")]
}
