package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/toolstrap/internal/executor"
	"github.com/tsukumogami/toolstrap/internal/fetch"
	"github.com/tsukumogami/toolstrap/internal/install"
	"github.com/tsukumogami/toolstrap/internal/log"
	"github.com/tsukumogami/toolstrap/internal/platform"
	"github.com/tsukumogami/toolstrap/internal/profile"
	"github.com/tsukumogami/toolstrap/internal/progress"
	"github.com/tsukumogami/toolstrap/internal/recipe"
	"github.com/tsukumogami/toolstrap/internal/shellrc"
	"github.com/tsukumogami/toolstrap/internal/sysexec"
	"github.com/tsukumogami/toolstrap/internal/sysinstall"
	"github.com/tsukumogami/toolstrap/internal/version"
)

// newArtifactCmd returns the install command for an archive-based recipe.
func newArtifactCmd(r *recipe.Recipe, example string) *cobra.Command {
	return &cobra.Command{
		Use:   r.Name + " [version]",
		Short: "Install " + r.DisplayName + " from the official release archive",
		Long: fmt.Sprintf(`Install %s into <prefix>/%s and link it as <prefix>/%s.

Without a version the latest release is resolved from the vendor. If that
lookup fails, a pinned fallback version (%s) is installed with a warning.

Examples:
  toolstrap %s
  toolstrap %s %s`, r.DisplayName, r.LibDir, r.LinkName, r.Fallback.Version, r.Name, r.Name, example),
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArtifactInstall(cmd.Context(), r, firstArg(args))
		},
	}
}

func runArtifactInstall(ctx context.Context, r *recipe.Recipe, requested string) error {
	logger := log.Default()
	s, err := loadSettings(r.Name, requested)
	if err != nil {
		return err
	}
	logger.Debug("Settings loaded", "settings", s.String())

	tag, err := platform.DetectHost()
	if err != nil {
		return err
	}
	libc := platform.DetectLibc()
	logger.Info("Detected platform", "arch", string(tag), "libc", libc)

	runner := sysexec.NewRunner(sysexec.WithLogger(logger))
	client := newHTTPClient(s)

	opts := executor.Options{
		Settings: s,
		Recipe:   r,
		Tag:      tag,
		Libc:     libc,
		Client:   client,
		GitHub:   version.NewGitHubClient(client, s.GitHubToken()),
		Runner:   runner,
		Logger:   logger,
	}
	if !s.SkipShellRC {
		target, err := shellrc.DetectTarget()
		if err != nil {
			return err
		}
		opts.Shell = &shellrc.Mutator{FS: install.ForPath(target.Home, target.Home, runner), Logger: logger, Owner: target.Owner}
		opts.ShellFiles = shellrc.Candidates(target.Shell, target.Home, nil)
	}
	if !quietFlag && progress.ShouldShowProgress() {
		opts.Progress = os.Stderr
	}

	printInfof("Installing %s...\n", r.DisplayName)
	report, err := executor.New(opts).Run(ctx)
	if err != nil {
		return err
	}
	if !quietFlag {
		executor.WriteSummary(os.Stdout, report)
	}
	return nil
}

// newSystemCmd returns the install command for a package-based tool.
func newSystemCmd(name, short, long string, takesVersion bool) *cobra.Command {
	use := name
	args := cobra.NoArgs
	if takesVersion {
		use += " [version]"
		args = cobra.MaximumNArgs(1)
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  usageArgs(args),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSystemInstall(cmd.Context(), name, firstArg(args))
		},
	}
}

func runSystemInstall(ctx context.Context, name, requested string) error {
	s, err := loadSettings(name, requested)
	if err != nil {
		return err
	}
	logger := log.Default().With("tool", name, "run_id", fetch.NewRunID())

	runner := sysexec.NewRunner(sysexec.WithLogger(logger))
	p, distro, err := profile.Detect(runner, logger)
	if err != nil {
		return err
	}
	logger.Info("Detected distribution", "id", distro.Release.ID, "family", distro.Family)

	target, err := shellrc.DetectTarget()
	if err != nil {
		return err
	}
	deps := sysinstall.Deps{
		Settings: s,
		Profile:  p,
		Runner:   runner,
		Logger:   logger,
		Shell:    &shellrc.Mutator{FS: install.ForPath(target.Home, target.Home, runner), Logger: logger, Owner: target.Owner},
		Target:   target,
	}
	inst, ok := sysinstall.Get(name, deps)
	if !ok {
		return fmt.Errorf("unknown tool %q", name)
	}

	lock, err := install.AcquireLock(filepath.Join(s.HomeDir, "install.lock"), name)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("Failed to release install lock", "error", err)
		}
	}()

	var report *sysinstall.Report
	runInstall := func() error {
		var err error
		report, err = inst.Install(ctx)
		return err
	}
	label := "Installing " + inst.DisplayName()
	if quietFlag || determineLogLevel() < slog.LevelWarn || !progress.ShouldShowProgress() {
		printInfof("%s...\n", label)
		err = runInstall()
	} else {
		err = progress.NewSpinner(os.Stderr).Run(label, runInstall)
	}
	if err != nil {
		return err
	}
	if !quietFlag {
		sysinstall.WriteSummary(os.Stdout, report)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(newArtifactCmd(recipe.Go, "1.23.4"))
	rootCmd.AddCommand(newArtifactCmd(recipe.Node, "22.12.0"))
	rootCmd.AddCommand(newArtifactCmd(recipe.Python, "3.12.8"))

	rootCmd.AddCommand(newSystemCmd("zsh", "Install Zsh and make it the login shell",
		`Install zsh with the distribution package manager, clone oh-my-zsh
(unless TOOLSTRAP_ZSH_OHMYZSH=0), change the login shell (unless
TOOLSTRAP_ZSH_SKIP_CHSH=1) and add PATH lines to ~/.zshrc.`, false))
	rootCmd.AddCommand(newSystemCmd("docker", "Install the Docker engine",
		`Install the distribution's Docker engine and compose plugin, enable and
start the docker service, and check that the daemon answers.`, false))
	pg := newSystemCmd("postgres", "Install the PostgreSQL server",
		`Install the PostgreSQL server, initialise the cluster where needed,
create a login role and database for the current user, and allow
password logins from 127.0.0.1.

The role is TOOLSTRAP_PG_USER (default: the invoking user) and its
password comes from TOOLSTRAP_PG_PASSWORD or
'toolstrap config set secrets.pg_password'. Set TOOLSTRAP_SKIP_USER=1
to skip role creation.

Examples:
  toolstrap postgres
  toolstrap postgres 16`, true)
	pg.Aliases = []string{"postgresql"}
	rootCmd.AddCommand(pg)
}
