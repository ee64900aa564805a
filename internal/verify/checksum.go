// Package verify checks downloaded archives against the digest their
// vendor published, and optionally checks the manifest's own PGP
// signature.
package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsukumogami/toolstrap/internal/artifact"
)

// MismatchError reports an archive whose digest differs from the
// manifest entry for its exact filename.
type MismatchError struct {
	Filename string
	Expected string
	Actual   string
	Source   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: expected sha256 %s, got %s (manifest %s)",
		e.Filename, e.Expected, e.Actual, e.Source)
}

// FileSHA256 returns the lowercase hex SHA-256 of the file at path.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// DigestsEqual compares two hex digests ignoring case.
func DigestsEqual(a, b string) bool {
	return a != "" && strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Archive checks the file at path against the manifest entry whose
// filename is exactly the base name of path. Entries for other
// filenames are never consulted.
func Archive(path string, m *artifact.Manifest) error {
	name := filepath.Base(path)
	expected, ok := m.Lookup(name)
	if !ok {
		source := "<none>"
		if m != nil {
			source = m.Source
		}
		return &artifact.NotFoundError{Expected: []string{name}, Source: source}
	}
	actual, err := FileSHA256(path)
	if err != nil {
		return err
	}
	if !DigestsEqual(expected, actual) {
		return &MismatchError{Filename: name, Expected: expected, Actual: actual, Source: m.Source}
	}
	return nil
}
