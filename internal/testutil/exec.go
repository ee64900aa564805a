package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// FakeResponse scripts the result of commands whose joined argv contains
// Match.
type FakeResponse struct {
	Match    string
	Output   string
	ExitCode int
}

// FakeExecutor records commands instead of running them.
type FakeExecutor struct {
	mu sync.Mutex

	// Missing lists commands LookPath reports as absent.
	Missing map[string]bool

	// Files lists paths FileExists reports as present.
	Files map[string]bool

	Responses []FakeResponse

	calls [][]string
	envs  [][]string
}

// NewFakeExecutor returns an executor where every command exists and
// succeeds with no output.
func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{Missing: map[string]bool{}, Files: map[string]bool{}}
}

// Respond adds a scripted response and returns f for chaining.
func (f *FakeExecutor) Respond(match, output string, exitCode int) *FakeExecutor {
	f.Responses = append(f.Responses, FakeResponse{Match: match, Output: output, ExitCode: exitCode})
	return f
}

func (f *FakeExecutor) LookPath(file string) (string, error) {
	if f.Missing[file] {
		return "", fmt.Errorf("exec: %q: executable file not found in $PATH", file)
	}
	return "/usr/bin/" + file, nil
}

func (f *FakeExecutor) Run(_ context.Context, argv []string, env []string, _ string) ([]byte, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string(nil), argv...))
	f.envs = append(f.envs, append([]string(nil), env...))

	joined := strings.Join(argv, " ")
	for _, r := range f.Responses {
		if strings.Contains(joined, r.Match) {
			if r.ExitCode != 0 {
				return []byte(r.Output), r.ExitCode, fmt.Errorf("exit status %d", r.ExitCode)
			}
			return []byte(r.Output), 0, nil
		}
	}
	return nil, 0, nil
}

func (f *FakeExecutor) FileExists(path string) bool {
	return f.Files[path]
}

// Commands returns every executed argv joined with spaces.
func (f *FakeExecutor) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = strings.Join(c, " ")
	}
	return out
}

// Env returns the extra environment passed to the i-th command.
func (f *FakeExecutor) Env(i int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.envs[i]
}
