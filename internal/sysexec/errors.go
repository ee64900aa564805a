package sysexec

import (
	"fmt"
	"strings"
)

// MissingCommandError reports a required external command that is not on
// PATH. It is raised by preflight checks before anything is modified.
type MissingCommandError struct {
	Name string

	// Hint names the package or action that provides the command.
	Hint string
}

func (e *MissingCommandError) Error() string {
	msg := fmt.Sprintf("required command not found: %s", e.Name)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

// CommandError reports a command that failed under the Fatal policy, or an
// unexpected failure under IgnoreExpected.
type CommandError struct {
	Command  string
	ExitCode int
	Output   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command failed: %s", e.Command)
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if tail := lastLine(e.Output); tail != "" {
		msg += ": " + tail
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
