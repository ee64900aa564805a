package artifact

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ManifestKind selects the parser for a checksum manifest.
type ManifestKind int

const (
	// SumsFile is the "<hex>  <filename>" format written by sha256sum.
	SumsFile ManifestKind = iota
	// GoReleaseIndex is the go.dev/dl JSON release index.
	GoReleaseIndex
)

var hexDigest = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// Manifest maps artifact filenames to their expected SHA-256 digests
// for a single release.
type Manifest struct {
	// Source is where the manifest came from, for diagnostics.
	Source  string
	entries map[string]string
}

// NewManifest builds a manifest from a filename to digest map.
func NewManifest(source string, entries map[string]string) *Manifest {
	m := &Manifest{Source: source, entries: make(map[string]string, len(entries))}
	for name, digest := range entries {
		m.entries[name] = strings.ToLower(digest)
	}
	return m
}

// Lookup returns the digest for the exact filename.
func (m *Manifest) Lookup(filename string) (string, bool) {
	if m == nil {
		return "", false
	}
	d, ok := m.entries[filename]
	return d, ok
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Filenames returns every filename in the manifest, sorted.
func (m *Manifest) Filenames() []string {
	if m == nil {
		return nil
	}
	names := make([]string, 0, len(m.entries))
	for name := range m.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse reads a manifest of the given kind. version scopes a
// GoReleaseIndex to one release; SumsFile manifests are already scoped by
// their URL.
func Parse(kind ManifestKind, source string, data []byte, version string) (*Manifest, error) {
	switch kind {
	case SumsFile:
		return ParseSums(source, data)
	case GoReleaseIndex:
		return ParseGoReleaseIndex(source, data, version)
	default:
		return nil, fmt.Errorf("unknown manifest kind %d", kind)
	}
}

// ParseSums parses sha256sum output. Both the text ("  ") and binary
// (" *") separators are accepted; blank lines and comments are skipped.
// Lines whose first field is not a 64-character hex digest are rejected
// so a truncated or HTML error page is never mistaken for a manifest.
func ParseSums(source string, data []byte) (*Manifest, error) {
	entries := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		digest, rest, ok := strings.Cut(line, " ")
		if !ok || !hexDigest.MatchString(digest) {
			return nil, fmt.Errorf("%s: line %d is not a checksum entry", source, lineNo)
		}
		name := strings.TrimLeft(rest, " ")
		name = strings.TrimPrefix(name, "*")
		if name == "" {
			return nil, fmt.Errorf("%s: line %d has no filename", source, lineNo)
		}
		entries[name] = digest
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: no checksum entries", source)
	}
	return NewManifest(source, entries), nil
}

// GoRelease is one entry of the go.dev/dl JSON index.
type GoRelease struct {
	Version string   `json:"version"`
	Stable  bool     `json:"stable"`
	Files   []GoFile `json:"files"`
}

// GoFile is one downloadable file of a Go release.
type GoFile struct {
	Filename string `json:"filename"`
	OS       string `json:"os"`
	Arch     string `json:"arch"`
	SHA256   string `json:"sha256"`
	Size     int64  `json:"size"`
	Kind     string `json:"kind"`
}

// ParseGoReleaseIndex extracts the archive digests of one Go release
// from the JSON index. version has no "go" prefix.
func ParseGoReleaseIndex(source string, data []byte, version string) (*Manifest, error) {
	var releases []GoRelease
	if err := json.Unmarshal(data, &releases); err != nil {
		return nil, fmt.Errorf("%s: failed to decode release index: %w", source, err)
	}
	want := "go" + strings.TrimPrefix(version, "go")
	for _, rel := range releases {
		if rel.Version != want {
			continue
		}
		entries := make(map[string]string)
		for _, f := range rel.Files {
			if f.Kind != "archive" || !hexDigest.MatchString(f.SHA256) {
				continue
			}
			entries[f.Filename] = f.SHA256
		}
		if len(entries) == 0 {
			break
		}
		return NewManifest(source, entries), nil
	}
	return nil, &NotFoundError{Expected: []string{want}, Source: source}
}
