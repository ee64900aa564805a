// Package profile provides one platform profile per distribution family.
// A profile is selected once from /etc/os-release and then used for every
// package install and service operation in the run.
package profile

import (
	"context"
	"fmt"

	"github.com/tsukumogami/toolstrap/internal/log"
	"github.com/tsukumogami/toolstrap/internal/platform"
	"github.com/tsukumogami/toolstrap/internal/sysexec"
)

// Profile is the capability set every distribution variant implements.
type Profile interface {
	// Family returns the distribution family ("debian", "rhel", ...).
	Family() string

	// PackageManager returns the package manager command name.
	PackageManager() string

	// ServiceManager returns "systemd" or "openrc".
	ServiceManager() string

	// Preflight checks the external commands the profile needs.
	Preflight() error

	// IsInstalled reports whether a distro package is installed.
	IsInstalled(ctx context.Context, pkg string) bool

	// InstallPackages installs the packages that are not yet installed.
	InstallPackages(ctx context.Context, pkgs ...string) error

	// EnableService makes a service start at boot.
	EnableService(ctx context.Context, name string) error

	// StartService starts a service now.
	StartService(ctx context.Context, name string) error

	// ReloadService asks a running service to reload configuration.
	ReloadService(ctx context.Context, name string) error
}

// New selects the profile for distro.
func New(distro platform.Distro, run *sysexec.Runner, logger log.Logger) (Profile, error) {
	logger = log.OrDefault(logger)
	b := base{run: run, logger: logger.With("family", distro.Family)}

	switch distro.Family {
	case platform.FamilyDebian:
		b.services = &systemd{run: run, logger: b.logger}
		return &debian{base: b}, nil
	case platform.FamilyRHEL:
		b.services = &systemd{run: run, logger: b.logger}
		pm := "dnf"
		if !run.Has("dnf") && run.Has("yum") {
			pm = "yum"
		}
		return &rhel{base: b, pm: pm}, nil
	case platform.FamilyArch:
		b.services = &systemd{run: run, logger: b.logger}
		return &arch{base: b}, nil
	case platform.FamilyAlpine:
		b.services = &openrc{run: run}
		return &alpine{base: b}, nil
	case platform.FamilySUSE:
		b.services = &systemd{run: run, logger: b.logger}
		return &suse{base: b}, nil
	}
	return nil, &platform.UnsupportedError{Kind: "distribution", Value: distro.Release.ID, Supported: platform.Families}
}

// Detect reads os-release and selects the matching profile.
func Detect(run *sysexec.Runner, logger log.Logger) (Profile, platform.Distro, error) {
	distro, err := platform.DetectDistro(platform.OSReleasePath)
	if err != nil {
		return nil, distro, err
	}
	p, err := New(distro, run, logger)
	return p, distro, err
}

// serviceManager is the init-system half of a profile.
type serviceManager interface {
	name() string
	binary() string
	enable(ctx context.Context, svc string) error
	start(ctx context.Context, svc string) error
	reload(ctx context.Context, svc string) error
}

// base holds what every variant shares. Variants supply package queries
// and the install command.
type base struct {
	run      *sysexec.Runner
	logger   log.Logger
	services serviceManager
}

func (b *base) ServiceManager() string { return b.services.name() }

func (b *base) EnableService(ctx context.Context, svc string) error {
	return b.services.enable(ctx, svc)
}

func (b *base) StartService(ctx context.Context, svc string) error {
	return b.services.start(ctx, svc)
}

func (b *base) ReloadService(ctx context.Context, svc string) error {
	return b.services.reload(ctx, svc)
}

func (b *base) preflight(pm string) error {
	if err := b.run.Require(pm, b.services.binary()); err != nil {
		return err
	}
	return b.run.RequireEscalation()
}

// probe runs a read-only query and reports whether it exited zero.
func (b *base) probe(ctx context.Context, name string, args ...string) (string, bool) {
	res, err := b.run.Run(ctx, sysexec.Command{Name: name, Args: args, Policy: sysexec.Probe})
	return res.Output, err == nil && res.OK()
}

// missing filters pkgs down to the ones isInstalled rejects.
func (b *base) missing(ctx context.Context, pkgs []string, isInstalled func(context.Context, string) bool) []string {
	var out []string
	for _, p := range pkgs {
		if isInstalled(ctx, p) {
			b.logger.Info("Package already installed", "package", p)
			continue
		}
		out = append(out, p)
	}
	return out
}

func (b *base) install(ctx context.Context, c sysexec.Command, pkgs []string) error {
	c.Args = append(c.Args, pkgs...)
	c.Root = true
	c.Policy = sysexec.Fatal
	b.logger.Info("Installing packages", "packages", fmt.Sprint(pkgs))
	if _, err := b.run.Run(ctx, c); err != nil {
		return fmt.Errorf("failed to install %v: %w", pkgs, err)
	}
	return nil
}
