package install

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateRecordAndList(t *testing.T) {
	sm := NewStateManager(t.TempDir())

	state, err := sm.Load()
	require.NoError(t, err)
	assert.Empty(t, state.List())

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, sm.Record(Record{Tool: "node", Version: "20.18.1", Prefix: "/usr/local", InstalledAt: now}))
	require.NoError(t, sm.Record(Record{Tool: "node", Version: "22.12.0", Prefix: "/usr/local", InstalledAt: now}))
	require.NoError(t, sm.Record(Record{Tool: "go", Version: "1.23.4", Prefix: "/opt", InstalledAt: now}))
	require.NoError(t, sm.Record(Record{Tool: "go", Version: "1.22.10", Prefix: "/home/u/.local", InstalledAt: now}))

	state, err = sm.Load()
	require.NoError(t, err)
	list := state.List()
	require.Len(t, list, 3)
	assert.Equal(t, "go", list[0].Tool)
	assert.Equal(t, "/home/u/.local", list[0].Prefix)
	assert.Equal(t, "/opt", list[1].Prefix)
	assert.Equal(t, "22.12.0", list[2].Version, "same tool and prefix is replaced")
	assert.True(t, list[2].InstalledAt.Equal(now))
}

func TestStateCorruptFile(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, "state.json"), []byte("{"), 0644))
	_, err := NewStateManager(home).Load()
	assert.Error(t, err)
}

func TestLockExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "install.lock")
	first, err := AcquireLock(path, "node")
	require.NoError(t, err)

	_, err = AcquireLock(path, "go")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLockBusy))
	assert.Contains(t, err.Error(), "installing node")

	require.NoError(t, first.Release())
	require.NoError(t, first.Release())

	second, err := AcquireLock(path, "go")
	require.NoError(t, err)
	require.NoError(t, second.Release())
}
