package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/toolstrap/internal/config"
	"github.com/tsukumogami/toolstrap/internal/install"
	"github.com/tsukumogami/toolstrap/internal/log"
	"github.com/tsukumogami/toolstrap/internal/platform"
	"github.com/tsukumogami/toolstrap/internal/profile"
	"github.com/tsukumogami/toolstrap/internal/sysexec"
)

var errDoctorFailed = errors.New("one or more checks failed")

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that this host can run toolstrap installs",
	Long: `Check the host before installing: the platform is supported, the
package manager is present, privilege escalation is available when
needed, <prefix>/bin is in PATH and the state file is readable.

Exits with a non-zero status if any check fails, making it suitable
for use as a gate in scripts and CI:

  toolstrap doctor || exit 1`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings("", "")
		if err != nil {
			return err
		}
		runner := sysexec.NewRunner(sysexec.WithLogger(log.Default()))
		if !runDoctor(os.Stdout, s, runner, os.Getenv("PATH")) {
			return errDoctorFailed
		}
		return nil
	},
}

// runDoctor writes one line per check and reports whether all passed.
func runDoctor(w io.Writer, s config.Settings, runner *sysexec.Runner, path string) bool {
	ok := true
	result := func(name string, err error, hint string) {
		if err == nil {
			fmt.Fprintf(w, "  %-24s ok\n", name)
			return
		}
		ok = false
		fmt.Fprintf(w, "  %-24s FAIL\n", name)
		fmt.Fprintf(w, "    %v\n", err)
		if hint != "" {
			fmt.Fprintf(w, "    %s\n", hint)
		}
	}

	fmt.Fprintln(w, "Checking toolstrap environment...")

	tag, err := platform.DetectHost()
	result("Platform", err, "")
	if err == nil {
		fmt.Fprintf(w, "    %s, %s\n", tag, platform.DetectLibc())
	}

	p, distro, err := profile.Detect(runner, log.NewNoop())
	result("Distribution", err, "zsh, docker and postgres need a supported distribution")
	if err == nil {
		fmt.Fprintf(w, "    %s (%s)\n", distro.Release.Name, distro.Family)
		result("Package manager", runner.Require(p.PackageManager()), "")
	}

	needsEscalation := install.NeedsEscalation(s.Prefix, s.HomeDir, runner.IsRoot())
	switch {
	case runner.IsRoot():
		result("Privileges", nil, "")
		fmt.Fprintln(w, "    running as root")
	default:
		err := runner.RequireEscalation()
		if err != nil && !needsEscalation {
			fmt.Fprintf(w, "  %-24s ok\n", "Privileges")
			fmt.Fprintf(w, "    no sudo or doas; %s is writable so archive installs still work\n", s.Prefix)
		} else {
			result("Privileges", err, "Install sudo or doas, or run as root")
		}
	}

	fmt.Fprintf(w, "  %-24s %s\n", "Prefix", s.Prefix)
	if needsEscalation {
		fmt.Fprintf(w, "    writes under the prefix will use %s\n", escalatorName(runner))
	}

	var pathErr error
	if !pathContains(path, s.BinDir()) {
		pathErr = fmt.Errorf("%s is not in your PATH", s.BinDir())
	}
	result("bin in PATH", pathErr, `Run: eval "$(toolstrap shellenv)"`)

	_, err = install.NewStateManager(s.HomeDir).Load()
	result("State file", err, "Move the file aside; it is rebuilt on the next install")

	for _, m := range []struct{ name, value string }{
		{"Go mirror", s.GoMirror},
		{"Node.js mirror", s.NodeMirror},
		{"Python mirror", s.PythonMirror},
	} {
		if m.value != "" {
			fmt.Fprintf(w, "  %-24s %s\n", m.name, m.value)
		}
	}
	fmt.Fprintf(w, "  %-24s %s\n", "API timeout", s.APITimeout)
	return ok
}

func escalatorName(runner *sysexec.Runner) string {
	if e := runner.Escalator(); e != "" {
		return e
	}
	return "sudo"
}

// pathContains reports whether dir is an entry of the PATH-style list.
func pathContains(list, dir string) bool {
	want := filepath.Clean(dir)
	for _, entry := range filepath.SplitList(list) {
		if entry != "" && filepath.Clean(entry) == want {
			return true
		}
	}
	return false
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
