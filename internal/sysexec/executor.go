package sysexec

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
)

// Executor runs processes. Tests substitute a fake.
type Executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, argv []string, env []string, dir string) (output []byte, exitCode int, err error)
	FileExists(path string) bool
}

// OSExecutor runs real processes.
type OSExecutor struct {
	// Stream, when set, receives command output as it is produced.
	Stream io.Writer
}

// LookPath finds the path to an executable.
func (e *OSExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run executes argv and returns its combined output. exitCode is -1 when
// the process could not be started.
func (e *OSExecutor) Run(ctx context.Context, argv []string, env []string, dir string) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	var buf bytes.Buffer
	var w io.Writer = &buf
	if e.Stream != nil {
		w = io.MultiWriter(&buf, e.Stream)
	}
	cmd.Stdout = w
	cmd.Stderr = w

	err := cmd.Run()
	if err == nil {
		return buf.Bytes(), 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return buf.Bytes(), exitErr.ExitCode(), err
	}
	return buf.Bytes(), -1, err
}

// FileExists reports whether path exists.
func (e *OSExecutor) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
