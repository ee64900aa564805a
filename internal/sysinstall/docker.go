package sysinstall

import (
	"context"
	"os"
	"time"

	"github.com/docker/docker/client"

	"github.com/tsukumogami/toolstrap/internal/log"
	"github.com/tsukumogami/toolstrap/internal/platform"
)

// Docker installs the distribution's Docker engine.
type Docker struct {
	d Deps
	// Ping checks the daemon after install and returns its API version.
	Ping func(ctx context.Context) (string, error)
}

// NewDocker returns the Docker installer using the Docker SDK for the
// post-install check.
func NewDocker(d Deps) *Docker { return &Docker{d: d, Ping: PingDaemon} }

func (k *Docker) Name() string        { return "docker" }
func (k *Docker) DisplayName() string { return "Docker" }

var dockerPackages = map[string][]string{
	platform.FamilyDebian: {"docker.io"},
	platform.FamilyRHEL:   {"moby-engine"},
	platform.FamilyArch:   {"docker"},
	platform.FamilyAlpine: {"docker"},
	platform.FamilySUSE:   {"docker"},
}

var composePackages = map[string][]string{
	platform.FamilyDebian: {"docker-compose"},
	platform.FamilyArch:   {"docker-compose"},
	platform.FamilyAlpine: {"docker-cli-compose"},
	platform.FamilySUSE:   {"docker-compose"},
}

// Install installs the engine, starts the service and pings the daemon.
// A failed ping is a warning: the daemon may need a re-login to join the
// docker group.
func (k *Docker) Install(ctx context.Context) (*Report, error) {
	d := k.d
	family := d.Profile.Family()
	r := &Report{Tool: k.Name(), Display: k.DisplayName(), Family: family}

	if err := installPackages(ctx, d, r, dockerPackages[family], composePackages[family]); err != nil {
		return nil, err
	}
	if err := enableAndStart(ctx, d, r, "docker"); err != nil {
		return nil, err
	}

	if k.Ping != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		apiVersion, err := k.Ping(pingCtx)
		if err != nil {
			log.OrDefault(d.Logger).Warn("Docker daemon did not answer", "error", err)
			r.warn("docker daemon did not answer: " + err.Error())
		} else {
			r.step("daemon answered (API " + apiVersion + ")")
		}
	}
	return r, nil
}

// PingDaemon connects with the environment's Docker settings, falling
// back to the default socket, and returns the daemon API version.
func PingDaemon(ctx context.Context) (string, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if os.Getenv("DOCKER_HOST") == "" {
		opts = append(opts, client.WithHost("unix:///var/run/docker.sock"))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return "", err
	}
	defer cli.Close()

	ping, err := cli.Ping(ctx)
	if err != nil {
		return "", err
	}
	return ping.APIVersion, nil
}
