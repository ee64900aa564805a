// Package fetch downloads checksum manifests and release archives into a
// run-scoped scratch directory.
package fetch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Scratch is the ephemeral directory that owns everything a run
// downloads or extracts. Callers defer Remove right after NewScratch so
// it is deleted on every exit path, including interrupts that cancel the
// run's context.
type Scratch struct {
	Dir   string
	RunID string
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// NewScratch creates a uniquely named directory under parent, or under
// the system temp directory when parent is empty.
func NewScratch(parent, runID string) (*Scratch, error) {
	if runID == "" {
		runID = NewRunID()
	}
	if parent != "" {
		if err := os.MkdirAll(parent, 0700); err != nil {
			return nil, fmt.Errorf("failed to create scratch parent %s: %w", parent, err)
		}
	}
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	dir, err := os.MkdirTemp(parent, "toolstrap-"+short+"-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return &Scratch{Dir: dir, RunID: runID}, nil
}

// Path returns the location of name inside the scratch directory. Only
// the base name is used so remote filenames cannot escape it.
func (s *Scratch) Path(name string) string {
	return filepath.Join(s.Dir, filepath.Base(name))
}

// Remove deletes the scratch directory and everything in it. It is safe
// to call more than once.
func (s *Scratch) Remove() error {
	if s == nil || s.Dir == "" {
		return nil
	}
	if err := os.RemoveAll(s.Dir); err != nil {
		return fmt.Errorf("failed to remove scratch directory %s: %w", s.Dir, err)
	}
	return nil
}
