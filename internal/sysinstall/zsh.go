package sysinstall

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/tsukumogami/toolstrap/internal/log"
	"github.com/tsukumogami/toolstrap/internal/sysexec"
)

// OhMyZshRepo is cloned into ~/.oh-my-zsh.
const OhMyZshRepo = "https://github.com/ohmyzsh/ohmyzsh.git"

// Zsh installs zsh, optionally oh-my-zsh, and makes zsh the login shell.
type Zsh struct {
	d Deps
}

// NewZsh returns the Zsh installer.
func NewZsh(d Deps) *Zsh { return &Zsh{d: d} }

func (z *Zsh) Name() string        { return "zsh" }
func (z *Zsh) DisplayName() string { return "Zsh" }

// Install runs the steps in order. Existing oh-my-zsh checkouts and a
// failing chsh are warnings.
func (z *Zsh) Install(ctx context.Context) (*Report, error) {
	d := z.d
	logger := log.OrDefault(d.Logger)
	r := &Report{Tool: z.Name(), Display: z.DisplayName(), Family: d.Profile.Family()}

	if err := installPackages(ctx, d, r, []string{"zsh"}, []string{"git", "curl"}); err != nil {
		return nil, err
	}

	omz := filepath.Join(d.Target.Home, ".oh-my-zsh")
	if d.Settings.ZshOhMyZsh {
		res, err := d.Runner.Run(ctx, sysexec.Command{
			Name:     "git",
			Args:     []string{"clone", "--depth=1", OhMyZshRepo, omz},
			AsUser:   z.asUser(),
			Policy:   sysexec.IgnoreExpected,
			Expected: sysexec.AlreadyExists,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to clone oh-my-zsh: %w", err)
		}
		if res.OK() {
			r.step("oh-my-zsh cloned into " + omz)
		} else {
			r.step("oh-my-zsh already present in " + omz)
		}
	}

	zshPath, err := d.Runner.Executor().LookPath("zsh")
	if err != nil {
		return nil, &sysexec.MissingCommandError{Name: "zsh", Hint: "package install did not provide it"}
	}
	switch {
	case d.Settings.ZshSkipChsh:
		logger.Info("Skipping login shell change")
	case filepath.Base(d.Target.Shell) == "zsh":
		r.step("login shell already zsh")
	default:
		args := []string{"-s", zshPath}
		if d.Target.Name != "" {
			args = append(args, d.Target.Name)
		}
		res, err := d.Runner.Run(ctx, sysexec.Command{Name: "chsh", Args: args, Root: true, Policy: sysexec.Warn})
		if err != nil {
			return nil, err
		}
		if res.OK() {
			r.step("login shell changed to " + zshPath)
		} else {
			r.warn("could not change the login shell; run: chsh -s " + zshPath)
		}
	}

	if d.Shell != nil && !d.Settings.SkipShellRC {
		res, err := d.Shell.Ensure(ctx, filepath.Join(d.Target.Home, ".zshrc"), z.rcLines(omz))
		if err != nil {
			return nil, err
		}
		r.step(fmt.Sprintf("%s updated (+%d lines)", res.Path, len(res.Added)))
	}
	return r, nil
}

func (z *Zsh) rcLines(omz string) []string {
	lines := []string{fmt.Sprintf(`export PATH="%s:$PATH"`, z.d.Settings.BinDir())}
	if z.d.Settings.ZshOhMyZsh {
		lines = append(lines,
			fmt.Sprintf(`export ZSH="%s"`, omz),
			`[ -f "$ZSH/oh-my-zsh.sh" ] && source "$ZSH/oh-my-zsh.sh"`,
		)
	}
	return lines
}

// asUser runs user-owned steps as the sudo user when running as root on
// their behalf.
func (z *Zsh) asUser() string {
	if z.d.Target.Owner != nil && z.d.Runner.IsRoot() {
		return z.d.Target.Name
	}
	return ""
}
