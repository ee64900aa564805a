package fetch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScratchLifecycle(t *testing.T) {
	parent := t.TempDir()
	s, err := NewScratch(parent, "0f8fad5b-d9cb-469f-a165-70867728950e")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(filepath.Base(s.Dir), "toolstrap-0f8fad5b-"))
	assert.Equal(t, parent, filepath.Dir(s.Dir))
	require.NoError(t, os.WriteFile(s.Path("a.tar.xz"), []byte("x"), 0644))

	require.NoError(t, s.Remove())
	assert.NoDirExists(t, s.Dir)
	require.NoError(t, s.Remove(), "second Remove is a no-op")
}

func TestScratchUniqueNames(t *testing.T) {
	parent := t.TempDir()
	a, err := NewScratch(parent, "same-run")
	require.NoError(t, err)
	b, err := NewScratch(parent, "same-run")
	require.NoError(t, err)
	assert.NotEqual(t, a.Dir, b.Dir)
}

func TestScratchGeneratesRunID(t *testing.T) {
	s, err := NewScratch(t.TempDir(), "")
	require.NoError(t, err)
	defer s.Remove()
	assert.Len(t, s.RunID, 36)
}

func TestScratchPathStaysInside(t *testing.T) {
	s := &Scratch{Dir: "/tmp/toolstrap-x"}
	assert.Equal(t, "/tmp/toolstrap-x/passwd", s.Path("../../etc/passwd"))
}

func TestNilScratchRemove(t *testing.T) {
	var s *Scratch
	assert.NoError(t, s.Remove())
}
