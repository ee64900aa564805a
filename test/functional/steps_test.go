package functional

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// scenario is the per-scenario sandbox. root holds home/ (TOOLSTRAP_HOME),
// prefix/ (TOOLSTRAP_PREFIX) and user/ (HOME), so a run never touches the
// real account.
type scenario struct {
	bin  string
	root string
	env  []string

	stdout string
	stderr string
	code   int
}

func (s *scenario) setUp() error {
	root, err := os.MkdirTemp("", "toolstrap-functional-")
	if err != nil {
		return err
	}
	s.root = root
	for _, dir := range []string{"home", "prefix", "user"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return err
		}
	}
	return nil
}

// expand substitutes {root} and unescapes \" in step text.
func (s *scenario) expand(text string) string {
	return strings.ReplaceAll(strings.ReplaceAll(text, `\"`, `"`), "{root}", s.root)
}

func (s *scenario) setEnv(name, value string) {
	s.env = append(s.env, name+"="+s.expand(value))
}

func (s *scenario) run(command string) error {
	args := strings.Fields(s.expand(command))
	if len(args) == 0 {
		return errors.New("empty command")
	}
	if args[0] == "toolstrap" {
		args[0] = s.bin
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = s.root
	cmd.Env = append(os.Environ(),
		"TOOLSTRAP_HOME="+filepath.Join(s.root, "home"),
		"TOOLSTRAP_PREFIX="+filepath.Join(s.root, "prefix"),
		"TOOLSTRAP_SCRATCH_DIR="+s.root,
		"HOME="+filepath.Join(s.root, "user"),
		"SUDO_USER=",
	)
	cmd.Env = append(cmd.Env, s.env...)

	var stdout, stderr strings.Builder
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	err := cmd.Run()
	s.stdout, s.stderr = stdout.String(), stderr.String()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		s.code = 0
	case errors.As(err, &exitErr):
		s.code = exitErr.ExitCode()
	default:
		return fmt.Errorf("running %s: %w", args[0], err)
	}
	return nil
}

func (s *scenario) transcript() string {
	return fmt.Sprintf("stdout:\n%s\nstderr:\n%s", s.stdout, s.stderr)
}

func (s *scenario) exitCodeIs(want int) error {
	if s.code != want {
		return fmt.Errorf("exit code %d, want %d\n%s", s.code, want, s.transcript())
	}
	return nil
}

func (s *scenario) exitCodeIsNot(unwanted int) error {
	if s.code == unwanted {
		return fmt.Errorf("exit code is %d\n%s", s.code, s.transcript())
	}
	return nil
}

func (s *scenario) stdoutHas(want bool) func(string) error {
	return func(text string) error { return s.streamHas("stdout", s.stdout, text, want) }
}

func (s *scenario) stderrHas(want bool) func(string) error {
	return func(text string) error { return s.streamHas("stderr", s.stderr, text, want) }
}

func (s *scenario) streamHas(name, got, text string, want bool) error {
	text = s.expand(text)
	if strings.Contains(got, text) == want {
		return nil
	}
	if want {
		return fmt.Errorf("%s lacks %q:\n%s", name, text, got)
	}
	return fmt.Errorf("%s unexpectedly has %q:\n%s", name, text, got)
}

func (s *scenario) fileExists(want bool) func(string) error {
	return func(rel string) error {
		// Lstat so a dangling symlink counts as present.
		_, err := os.Lstat(filepath.Join(s.root, rel))
		switch {
		case want && err != nil:
			return fmt.Errorf("%s does not exist: %v", rel, err)
		case !want && err == nil:
			return fmt.Errorf("%s exists", rel)
		}
		return nil
	}
}

func (s *scenario) fileContains(rel, text string) error {
	data, err := os.ReadFile(filepath.Join(s.root, rel))
	if err != nil {
		return err
	}
	return s.streamHas(rel, string(data), text, true)
}
