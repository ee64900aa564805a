package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

const tick = 120 * time.Millisecond

var frames = [...]string{"|", "/", "-", "\\"}

// Spinner keeps a one-line status alive while a long step such as a
// package manager transaction runs. Output that is not a terminal gets
// the message printed once instead.
type Spinner struct {
	out   io.Writer
	tty   bool
	width int

	mu      sync.Mutex
	label   string
	started time.Time
	quit    chan struct{}
	wg      sync.WaitGroup
}

// NewSpinner returns an idle spinner writing to out.
func NewSpinner(out io.Writer) *Spinner {
	return &Spinner{out: out, tty: ShouldShowProgress(), width: terminalWidth()}
}

// Start shows label. Calling Start on a running spinner only swaps the label.
func (s *Spinner) Start(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.label = label
	if s.quit != nil {
		return
	}
	if !s.tty {
		fmt.Fprintln(s.out, label)
		return
	}
	s.started = time.Now()
	s.quit = make(chan struct{})
	s.wg.Add(1)
	go s.loop(s.quit)
}

// Stop clears the status line and prints final when it is non-empty.
// Stop may be called more than once.
func (s *Spinner) Stop(final string) {
	s.mu.Lock()
	quit := s.quit
	s.quit = nil
	s.mu.Unlock()

	if quit != nil {
		close(quit)
		s.wg.Wait()
		fmt.Fprintf(s.out, "\r%s\r", pad("", s.width))
	}
	if final != "" {
		fmt.Fprintln(s.out, final)
	}
}

// Run shows label while fn runs and reports completion when fn succeeds.
func (s *Spinner) Run(label string, fn func() error) error {
	s.Start(label)
	if err := fn(); err != nil {
		s.Stop("")
		return err
	}
	s.Stop("   " + label + " done")
	return nil
}

func (s *Spinner) loop(quit <-chan struct{}) {
	defer s.wg.Done()
	t := time.NewTicker(tick)
	defer t.Stop()
	for i := 0; ; i++ {
		select {
		case <-quit:
			return
		case <-t.C:
		}
		s.mu.Lock()
		line := fmt.Sprintf("\r%s %s (%s)", frames[i%len(frames)], s.label, time.Since(s.started).Truncate(time.Second))
		s.mu.Unlock()
		fmt.Fprint(s.out, pad(line, s.width))
	}
}
