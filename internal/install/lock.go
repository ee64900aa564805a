package install

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// ErrLockBusy is returned when another run holds the install lock.
var ErrLockBusy = errors.New("another toolstrap run is in progress")

// LockMetadata identifies the lock holder for diagnostics.
type LockMetadata struct {
	Tool       string    `json:"tool"`
	PID        int       `json:"pid"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// Lock is a held run lock. Installs assume a single writer per prefix;
// the lock turns a second concurrent run into a clear error instead of a
// race on directory removal.
type Lock struct {
	file *os.File
	path string
}

// AcquireLock takes the exclusive lock at path without blocking.
func AcquireLock(path, tool string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}
	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		holder := readHolder(file)
		file.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			if holder != "" {
				return nil, fmt.Errorf("%w (%s)", ErrLockBusy, holder)
			}
			return nil, ErrLockBusy
		}
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}

	meta := LockMetadata{Tool: tool, PID: os.Getpid(), AcquiredAt: time.Now().UTC()}
	if err := file.Truncate(0); err == nil {
		if _, err := file.Seek(0, 0); err == nil {
			_ = json.NewEncoder(file).Encode(meta)
		}
	}
	return &Lock{file: file, path: path}, nil
}

func readHolder(f *os.File) string {
	var meta LockMetadata
	if err := json.NewDecoder(f).Decode(&meta); err != nil || meta.PID == 0 {
		return ""
	}
	return fmt.Sprintf("pid %d installing %s since %s", meta.PID, meta.Tool, meta.AcquiredAt.Format(time.RFC3339))
}

// Release unlocks and closes the lock file. It is safe to call twice.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return closeErr
}
