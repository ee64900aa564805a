// Package log is the logging facade used by every toolstrap package.
//
// Packages take a Logger in their options and fall back to Default. The
// CLI installs a TaggedHandler on stderr at a level picked from
// --quiet, --verbose and --debug (ERROR, INFO and DEBUG; WARN otherwise).
// Stdout is reserved for progress and summaries.
package log

import (
	"context"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"
)

// Logger is the subset of *slog.Logger components depend on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

type slogLogger struct{ l *slog.Logger }

// New wraps h.
func New(h slog.Handler) Logger { return slogLogger{slog.New(h)} }

func (s slogLogger) Debug(msg string, args ...any) { s.log(slog.LevelDebug, msg, args) }
func (s slogLogger) Info(msg string, args ...any)  { s.log(slog.LevelInfo, msg, args) }
func (s slogLogger) Warn(msg string, args ...any)  { s.log(slog.LevelWarn, msg, args) }
func (s slogLogger) Error(msg string, args ...any) { s.log(slog.LevelError, msg, args) }

func (s slogLogger) With(args ...any) Logger { return slogLogger{s.l.With(args...)} }

// log records the caller of Debug/Info/Warn/Error as the source.
func (s slogLogger) log(level slog.Level, msg string, args []any) {
	ctx := context.Background()
	if !s.l.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = s.l.Handler().Handle(ctx, r)
}

// NewNoop returns a Logger that drops everything.
func NewNoop() Logger { return slogLogger{slog.New(slog.DiscardHandler)} }

type holder struct{ Logger }

var current atomic.Pointer[holder]

// Default returns the process logger, a no-op until SetDefault is called.
func Default() Logger {
	if h := current.Load(); h != nil {
		return h.Logger
	}
	return NewNoop()
}

// SetDefault replaces the process logger.
func SetDefault(l Logger) { current.Store(&holder{l}) }

// OrDefault returns l unless it is nil.
func OrDefault(l Logger) Logger {
	if l == nil {
		return Default()
	}
	return l
}
