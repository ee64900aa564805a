package profile

import (
	"context"

	"github.com/tsukumogami/toolstrap/internal/log"
	"github.com/tsukumogami/toolstrap/internal/sysexec"
)

// systemdRuntimeDir exists only while systemd is PID 1.
const systemdRuntimeDir = "/run/systemd/system"

type systemd struct {
	run    *sysexec.Runner
	logger log.Logger
}

func (s *systemd) name() string   { return "systemd" }
func (s *systemd) binary() string { return "systemctl" }

// active reports whether systemd manages this host. Containers usually
// run without it, in which case service steps are skipped.
func (s *systemd) active(action, svc string) bool {
	if s.run.FileExists(systemdRuntimeDir) {
		return true
	}
	s.logger.Warn("systemd is not running, skipping service step", "action", action, "service", svc)
	return false
}

func (s *systemd) enable(ctx context.Context, svc string) error {
	if !s.active("enable", svc) {
		return nil
	}
	_, err := s.run.Run(ctx, sysexec.Command{Name: "systemctl", Args: []string{"enable", svc}, Root: true, Policy: sysexec.Fatal})
	return err
}

func (s *systemd) start(ctx context.Context, svc string) error {
	if !s.active("start", svc) {
		return nil
	}
	_, err := s.run.Run(ctx, sysexec.Command{Name: "systemctl", Args: []string{"start", svc}, Root: true, Policy: sysexec.Fatal})
	return err
}

func (s *systemd) reload(ctx context.Context, svc string) error {
	if !s.active("reload", svc) {
		return nil
	}
	_, err := s.run.Run(ctx, sysexec.Command{Name: "systemctl", Args: []string{"reload", svc}, Root: true, Policy: sysexec.Warn})
	return err
}

type openrc struct {
	run *sysexec.Runner
}

func (o *openrc) name() string   { return "openrc" }
func (o *openrc) binary() string { return "rc-service" }

func (o *openrc) enable(ctx context.Context, svc string) error {
	_, err := o.run.Run(ctx, sysexec.Command{
		Name:     "rc-update",
		Args:     []string{"add", svc, "default"},
		Root:     true,
		Policy:   sysexec.IgnoreExpected,
		Expected: []string{"already installed"},
	})
	return err
}

func (o *openrc) start(ctx context.Context, svc string) error {
	_, err := o.run.Run(ctx, sysexec.Command{
		Name:     "rc-service",
		Args:     []string{svc, "start"},
		Root:     true,
		Policy:   sysexec.IgnoreExpected,
		Expected: []string{"already been started"},
	})
	return err
}

func (o *openrc) reload(ctx context.Context, svc string) error {
	_, err := o.run.Run(ctx, sysexec.Command{Name: "rc-service", Args: []string{svc, "reload"}, Root: true, Policy: sysexec.Warn})
	return err
}
