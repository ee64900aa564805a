package progress

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func withTTY(t *testing.T, tty bool) {
	t.Helper()
	orig := IsTerminalFunc
	IsTerminalFunc = func(int) bool { return tty }
	t.Cleanup(func() { IsTerminalFunc = orig })
}

func TestSpinnerNonTTYPrintsOnce(t *testing.T) {
	withTTY(t, false)
	var out bytes.Buffer
	s := NewSpinner(&out)

	s.Start("Installing packages")
	s.Stop("   Installing packages done")

	want := "Installing packages\n   Installing packages done\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestSpinnerTTYAnimates(t *testing.T) {
	withTTY(t, true)
	var out syncBuffer
	s := NewSpinner(&out)

	s.Start("Starting service")
	time.Sleep(250 * time.Millisecond)
	s.Stop("")
	s.Stop("") // idempotent

	if !strings.Contains(out.String(), "Starting service") {
		t.Errorf("expected message in output, got %q", out.String())
	}
}

func TestSpinnerRun(t *testing.T) {
	withTTY(t, false)
	var out bytes.Buffer

	err := NewSpinner(&out).Run("Enabling docker", func() error { return nil })
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Enabling docker done") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	boom := errors.New("boom")
	if err := NewSpinner(&out).Run("Failing", func() error { return boom }); !errors.Is(err, boom) {
		t.Errorf("Run() error = %v", err)
	}
	if strings.Contains(out.String(), "done") {
		t.Errorf("failed run must not print done: %q", out.String())
	}
}

// syncBuffer is a bytes.Buffer safe for the animation goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
