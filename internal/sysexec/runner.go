// Package sysexec runs external commands (package managers, service
// control, psql, chsh) with an explicit failure policy per call site.
//
// Every call returns a Result. Whether a failure aborts the run, is
// reported as a warning, or is expected and skipped is decided by the
// Command's Policy rather than by the caller inspecting exit codes.
package sysexec

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tsukumogami/toolstrap/internal/log"
)

// Policy declares how a failed command is treated.
type Policy int

const (
	// Fatal failures are returned as *CommandError.
	Fatal Policy = iota

	// Warn failures are logged and the run continues.
	Warn

	// IgnoreExpected failures whose output contains one of the Command's
	// Expected markers (for example "already exists") are logged as
	// warnings. Any other failure is fatal.
	IgnoreExpected

	// Probe commands answer a yes/no question through their exit status.
	// Failure is the "no" answer and is only logged at debug level.
	Probe
)

func (p Policy) String() string {
	switch p {
	case Fatal:
		return "fatal"
	case Warn:
		return "warn"
	case IgnoreExpected:
		return "ignore-expected"
	case Probe:
		return "probe"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// AlreadyExists is the usual Expected marker for idempotent creation.
var AlreadyExists = []string{"already exists"}

// Command describes one external command invocation.
type Command struct {
	Name string
	Args []string

	// Env entries ("KEY=value") added to the process environment.
	Env []string

	// Dir is the working directory.
	Dir string

	// Root runs the command with administrative rights.
	Root bool

	// AsUser runs the command as another account (e.g. "postgres").
	AsUser string

	Policy   Policy
	Expected []string

	// Redact lists substrings masked in logs and errors.
	Redact []string
}

// Outcome classifies a finished command.
type Outcome int

const (
	Succeeded Outcome = iota
	Warned
	Ignored
)

// Result is the explicit result of one invocation.
type Result struct {
	Command  string
	ExitCode int
	Output   string
	Outcome  Outcome
}

// OK reports whether the command exited zero.
func (r Result) OK() bool { return r.Outcome == Succeeded }

// Runner executes Commands, adding escalation where needed.
type Runner struct {
	exec      Executor
	logger    log.Logger
	euid      int
	escalator string
}

// Option configures a Runner.
type Option func(*Runner)

// WithExecutor replaces the process executor.
func WithExecutor(e Executor) Option { return func(r *Runner) { r.exec = e } }

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option { return func(r *Runner) { r.logger = l } }

// WithEUID overrides the effective user id used to decide escalation.
func WithEUID(uid int) Option { return func(r *Runner) { r.euid = uid } }

// WithEscalator forces the escalation command ("sudo", "doas").
func WithEscalator(name string) Option { return func(r *Runner) { r.escalator = name } }

// NewRunner creates a Runner. Without WithEscalator it uses sudo, or
// doas on systems that only have doas.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		exec: &OSExecutor{},
		euid: os.Geteuid(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = log.OrDefault(r.logger)
	if r.escalator == "" && r.euid != 0 {
		r.escalator = "sudo"
		if _, err := r.exec.LookPath("doas"); err == nil {
			if _, err := r.exec.LookPath("sudo"); err != nil {
				r.escalator = "doas"
			}
		}
	}
	return r
}

// IsRoot reports whether commands already run with administrative rights.
func (r *Runner) IsRoot() bool { return r.euid == 0 }

// Escalator returns the escalation command, or "" when running as root.
func (r *Runner) Escalator() string {
	if r.IsRoot() {
		return ""
	}
	return r.escalator
}

// Executor returns the underlying executor.
func (r *Runner) Executor() Executor { return r.exec }

// Require verifies every named command is on PATH.
func (r *Runner) Require(names ...string) error {
	for _, name := range names {
		if _, err := r.exec.LookPath(name); err != nil {
			return &MissingCommandError{Name: name}
		}
	}
	return nil
}

// RequireEscalation verifies that administrative commands can run.
func (r *Runner) RequireEscalation() error {
	if r.IsRoot() {
		return nil
	}
	if _, err := r.exec.LookPath(r.escalator); err != nil {
		return &MissingCommandError{Name: r.escalator, Hint: "needed to run as root; re-run as root or install it"}
	}
	return nil
}

// Has reports whether name is on PATH.
func (r *Runner) Has(name string) bool {
	_, err := r.exec.LookPath(name)
	return err == nil
}

// FileExists reports whether path exists on the host.
func (r *Runner) FileExists(path string) bool {
	return r.exec.FileExists(path)
}

// Run executes c and applies its policy. The returned error is non-nil
// only for failures the policy treats as fatal.
func (r *Runner) Run(ctx context.Context, c Command) (Result, error) {
	argv, env, err := r.argv(c)
	if err != nil {
		return Result{Command: c.display(), ExitCode: -1}, err
	}
	display := c.display()
	r.logger.Debug("Running command", "cmd", display, "policy", c.Policy.String())

	out, code, runErr := r.exec.Run(ctx, argv, env, c.Dir)
	res := Result{Command: display, ExitCode: code, Output: c.redact(string(out))}
	if runErr == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}

	switch c.Policy {
	case Probe:
		res.Outcome = Ignored
		r.logger.Debug("Probe returned non-zero", "cmd", display, "exit", code)
		return res, nil
	case Warn:
		res.Outcome = Warned
		r.logger.Warn("Command failed, continuing", "cmd", display, "exit", code, "output", lastLine(res.Output))
		return res, nil
	case IgnoreExpected:
		if c.matchesExpected(res.Output) {
			res.Outcome = Ignored
			r.logger.Warn("Already done, skipping", "cmd", display, "detail", lastLine(res.Output))
			return res, nil
		}
	}
	return res, &CommandError{Command: display, ExitCode: code, Output: res.Output, Err: runErr}
}

// Output runs c under the Fatal policy and returns trimmed output.
func (r *Runner) Output(ctx context.Context, c Command) (string, error) {
	c.Policy = Fatal
	res, err := r.Run(ctx, c)
	return strings.TrimSpace(res.Output), err
}

func (r *Runner) argv(c Command) ([]string, []string, error) {
	base := append([]string{c.Name}, c.Args...)

	switch {
	case c.AsUser != "" && r.IsRoot():
		if r.Has("runuser") {
			return append([]string{"runuser", "-u", c.AsUser, "--"}, withEnv(c.Env, base)...), nil, nil
		}
		return []string{"su", c.AsUser, "-s", "/bin/sh", "-c", shellJoin(withEnv(c.Env, base))}, nil, nil
	case c.AsUser != "":
		if err := r.RequireEscalation(); err != nil {
			return nil, nil, err
		}
		return append([]string{r.escalator, "-u", c.AsUser}, withEnv(c.Env, base)...), nil, nil
	case c.Root && !r.IsRoot():
		if err := r.RequireEscalation(); err != nil {
			return nil, nil, err
		}
		return append([]string{r.escalator}, withEnv(c.Env, base)...), nil, nil
	}
	return base, c.Env, nil
}

// withEnv prefixes argv with env(1) so variables survive escalation.
func withEnv(env, argv []string) []string {
	if len(env) == 0 {
		return argv
	}
	out := append([]string{"env"}, env...)
	return append(out, argv...)
}

func (c Command) display() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	parts = append(parts, c.Args...)
	return c.redact(shellJoin(parts))
}

func (c Command) redact(s string) string {
	for _, secret := range c.Redact {
		if secret != "" {
			s = strings.ReplaceAll(s, secret, "****")
		}
	}
	return s
}

func (c Command) matchesExpected(output string) bool {
	lower := strings.ToLower(output)
	for _, marker := range c.Expected {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// shellJoin quotes arguments that need it for display or sh -c.
func shellJoin(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		if a == "" || strings.ContainsAny(a, " \t\n'\"\\$`;&|<>()*?") {
			quoted[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		} else {
			quoted[i] = a
		}
	}
	return strings.Join(quoted, " ")
}
