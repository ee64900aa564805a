// Package progress renders download progress and spinners on stdout.
// Both degrade to single plain lines when stdout is not a terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// IsTerminalFunc reports whether a file descriptor is a terminal.
// Tests override it.
var IsTerminalFunc = term.IsTerminal

// terminalWidth returns the width of stdout, or 80 when unknown.
var terminalWidth = func() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		return w
	}
	return 80
}

// ShouldShowProgress reports whether stdout is an interactive terminal.
func ShouldShowProgress() bool {
	return IsTerminalFunc(int(os.Stdout.Fd()))
}

// Bar counts bytes written through it and redraws a one-line progress
// bar at most ten times per second.
type Bar struct {
	mu       sync.Mutex
	dst      io.Writer
	out      io.Writer
	label    string
	total    int64
	written  int64
	started  time.Time
	lastDraw time.Time
	width    int
	now      func() time.Time
}

// NewBar wraps dst. label names the file; total may be <= 0 when the
// server sent no Content-Length. Output goes to out.
func NewBar(dst io.Writer, label string, total int64, out io.Writer) *Bar {
	return &Bar{
		dst:     dst,
		out:     out,
		label:   label,
		total:   total,
		started: time.Now(),
		width:   terminalWidth(),
		now:     time.Now,
	}
}

// Write implements io.Writer.
func (b *Bar) Write(p []byte) (int, error) {
	n, err := b.dst.Write(p)
	if n > 0 {
		b.mu.Lock()
		b.written += int64(n)
		b.draw()
		b.mu.Unlock()
	}
	return n, err
}

// Written returns the number of bytes seen so far.
func (b *Bar) Written() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.written
}

// Finish replaces the bar with a summary line.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	elapsed := b.now().Sub(b.started).Round(100 * time.Millisecond)
	line := fmt.Sprintf("   %s  %s in %s", b.label, FormatBytes(b.written), elapsed)
	fmt.Fprintf(b.out, "\r%s\n", pad(line, b.width))
}

func (b *Bar) draw() {
	now := b.now()
	if now.Sub(b.lastDraw) < 100*time.Millisecond {
		return
	}
	elapsed := now.Sub(b.started).Seconds()
	if elapsed < 0.1 {
		return
	}
	b.lastDraw = now
	speed := float64(b.written) / elapsed

	var line string
	if b.total > 0 {
		frac := float64(b.written) / float64(b.total)
		if frac > 1 {
			frac = 1
		}
		eta := "--:--"
		if speed > 0 {
			eta = formatETA(float64(b.total-b.written) / speed)
		}
		stats := fmt.Sprintf(" %3.0f%% %s/%s %s/s ETA %s",
			frac*100, FormatBytes(b.written), FormatBytes(b.total), FormatBytes(int64(speed)), eta)
		barWidth := b.width - len(stats) - 6
		if barWidth > 40 {
			barWidth = 40
		}
		if barWidth < 10 {
			barWidth = 10
		}
		filled := int(frac * float64(barWidth))
		bar := strings.Repeat("=", filled)
		if filled < barWidth {
			bar += ">" + strings.Repeat(" ", barWidth-filled-1)
		}
		line = "   [" + bar + "]" + stats
	} else {
		line = fmt.Sprintf("   %s  %s (%s/s)", b.label, FormatBytes(b.written), FormatBytes(int64(speed)))
	}
	fmt.Fprint(b.out, "\r"+pad(line, b.width))
}

// pad right-fills line with spaces so a shorter redraw erases the last.
func pad(line string, width int) string {
	if len(line) >= width-1 {
		return line
	}
	return line + strings.Repeat(" ", width-1-len(line))
}

// FormatBytes formats a byte count for humans (1024-based).
func FormatBytes(n int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case n >= gb:
		return fmt.Sprintf("%.1fGB", float64(n)/gb)
	case n >= mb:
		return fmt.Sprintf("%.1fMB", float64(n)/mb)
	case n >= kb:
		return fmt.Sprintf("%.1fKB", float64(n)/kb)
	}
	return fmt.Sprintf("%dB", n)
}

func formatETA(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	s := int(seconds)
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, (s%3600)/60, s%60)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
