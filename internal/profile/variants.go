package profile

import (
	"context"
	"strings"

	"github.com/tsukumogami/toolstrap/internal/platform"
	"github.com/tsukumogami/toolstrap/internal/sysexec"
)

type debian struct {
	base
	updated bool
}

func (p *debian) Family() string         { return platform.FamilyDebian }
func (p *debian) PackageManager() string { return "apt-get" }
func (p *debian) Preflight() error       { return p.preflight("apt-get") }

func (p *debian) IsInstalled(ctx context.Context, pkg string) bool {
	out, ok := p.probe(ctx, "dpkg-query", "-W", "-f=${Status}", pkg)
	return ok && strings.Contains(out, "install ok installed")
}

func (p *debian) InstallPackages(ctx context.Context, pkgs ...string) error {
	pkgs = p.missing(ctx, pkgs, p.IsInstalled)
	if len(pkgs) == 0 {
		return nil
	}
	env := []string{"DEBIAN_FRONTEND=noninteractive"}
	if !p.updated {
		if _, err := p.run.Run(ctx, sysexec.Command{Name: "apt-get", Args: []string{"update"}, Env: env, Root: true, Policy: sysexec.Warn}); err != nil {
			return err
		}
		p.updated = true
	}
	return p.install(ctx, sysexec.Command{Name: "apt-get", Args: []string{"install", "-y"}, Env: env}, pkgs)
}

type rhel struct {
	base
	pm string
}

func (p *rhel) Family() string         { return platform.FamilyRHEL }
func (p *rhel) PackageManager() string { return p.pm }
func (p *rhel) Preflight() error       { return p.preflight(p.pm) }

func (p *rhel) IsInstalled(ctx context.Context, pkg string) bool {
	_, ok := p.probe(ctx, "rpm", "-q", pkg)
	return ok
}

func (p *rhel) InstallPackages(ctx context.Context, pkgs ...string) error {
	pkgs = p.missing(ctx, pkgs, p.IsInstalled)
	if len(pkgs) == 0 {
		return nil
	}
	return p.install(ctx, sysexec.Command{Name: p.pm, Args: []string{"install", "-y"}}, pkgs)
}

type arch struct {
	base
}

func (p *arch) Family() string         { return platform.FamilyArch }
func (p *arch) PackageManager() string { return "pacman" }
func (p *arch) Preflight() error       { return p.preflight("pacman") }

func (p *arch) IsInstalled(ctx context.Context, pkg string) bool {
	_, ok := p.probe(ctx, "pacman", "-Q", pkg)
	return ok
}

func (p *arch) InstallPackages(ctx context.Context, pkgs ...string) error {
	pkgs = p.missing(ctx, pkgs, p.IsInstalled)
	if len(pkgs) == 0 {
		return nil
	}
	return p.install(ctx, sysexec.Command{Name: "pacman", Args: []string{"-S", "--needed", "--noconfirm"}}, pkgs)
}

type alpine struct {
	base
}

func (p *alpine) Family() string         { return platform.FamilyAlpine }
func (p *alpine) PackageManager() string { return "apk" }
func (p *alpine) Preflight() error       { return p.preflight("apk") }

func (p *alpine) IsInstalled(ctx context.Context, pkg string) bool {
	_, ok := p.probe(ctx, "apk", "info", "-e", pkg)
	return ok
}

func (p *alpine) InstallPackages(ctx context.Context, pkgs ...string) error {
	pkgs = p.missing(ctx, pkgs, p.IsInstalled)
	if len(pkgs) == 0 {
		return nil
	}
	return p.install(ctx, sysexec.Command{Name: "apk", Args: []string{"add", "--no-cache"}}, pkgs)
}

type suse struct {
	base
}

func (p *suse) Family() string         { return platform.FamilySUSE }
func (p *suse) PackageManager() string { return "zypper" }
func (p *suse) Preflight() error       { return p.preflight("zypper") }

func (p *suse) IsInstalled(ctx context.Context, pkg string) bool {
	_, ok := p.probe(ctx, "rpm", "-q", pkg)
	return ok
}

func (p *suse) InstallPackages(ctx context.Context, pkgs ...string) error {
	pkgs = p.missing(ctx, pkgs, p.IsInstalled)
	if len(pkgs) == 0 {
		return nil
	}
	return p.install(ctx, sysexec.Command{Name: "zypper", Args: []string{"--non-interactive", "install"}}, pkgs)
}
