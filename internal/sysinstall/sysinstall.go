// Package sysinstall installs the package-managed tools: Zsh, Docker and
// PostgreSQL. Each installer drives the selected platform profile and
// runs every external command with a declared failure policy.
package sysinstall

import (
	"context"
	"sort"

	"github.com/tsukumogami/toolstrap/internal/config"
	"github.com/tsukumogami/toolstrap/internal/log"
	"github.com/tsukumogami/toolstrap/internal/profile"
	"github.com/tsukumogami/toolstrap/internal/shellrc"
	"github.com/tsukumogami/toolstrap/internal/sysexec"
)

// Deps are the collaborators every installer uses.
type Deps struct {
	Settings config.Settings
	Profile  profile.Profile
	Runner   *sysexec.Runner
	Logger   log.Logger

	// Shell updates the target user's startup files.
	Shell  *shellrc.Mutator
	Target shellrc.Target
}

// Installer installs one package-managed tool.
type Installer interface {
	Name() string
	DisplayName() string
	Install(ctx context.Context) (*Report, error)
}

// Report describes what an installer did.
type Report struct {
	Tool     string
	Display  string
	Family   string
	Packages []string
	// Steps lists completed actions in order.
	Steps []string
	// Warnings lists non-fatal problems, such as a failed post-install
	// connectivity check.
	Warnings []string
}

func (r *Report) step(s string) { r.Steps = append(r.Steps, s) }
func (r *Report) warn(s string) { r.Warnings = append(r.Warnings, s) }

var constructors = map[string]func(Deps) Installer{
	"zsh":      func(d Deps) Installer { return NewZsh(d) },
	"docker":   func(d Deps) Installer { return NewDocker(d) },
	"postgres": func(d Deps) Installer { return NewPostgres(d) },
}

// Get returns the installer for name.
func Get(name string, d Deps) (Installer, bool) {
	if name == "postgresql" {
		name = "postgres"
	}
	c, ok := constructors[name]
	if !ok {
		return nil, false
	}
	return c(d), true
}

// Names returns the installer names, sorted.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for n := range constructors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// installPackages runs the profile preflight and installs pkgs plus, unless
// SkipDeps is set, deps.
func installPackages(ctx context.Context, d Deps, r *Report, pkgs, deps []string) error {
	if err := d.Profile.Preflight(); err != nil {
		return err
	}
	all := append([]string(nil), pkgs...)
	if !d.Settings.SkipDeps {
		all = append(all, deps...)
	} else if len(deps) > 0 {
		log.OrDefault(d.Logger).Info("Skipping optional packages", "packages", deps)
	}
	if err := d.Profile.InstallPackages(ctx, all...); err != nil {
		return err
	}
	r.Packages = all
	r.step("packages installed with " + d.Profile.PackageManager())
	return nil
}

// enableAndStart enables svc at boot and starts it now.
func enableAndStart(ctx context.Context, d Deps, r *Report, svc string) error {
	if err := d.Profile.EnableService(ctx, svc); err != nil {
		return err
	}
	if err := d.Profile.StartService(ctx, svc); err != nil {
		return err
	}
	r.step("service " + svc + " enabled and started (" + d.Profile.ServiceManager() + ")")
	return nil
}
