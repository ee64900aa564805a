// Package config builds the immutable run configuration for toolstrap.
//
// Values are layered once at startup: command-line flags, then
// tool-specific environment variables, then generic environment
// variables, then the user config file, then documented defaults. The
// resulting Settings value is passed explicitly to every component.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// EnvHome overrides the toolstrap home directory (config file location).
	EnvHome = "TOOLSTRAP_HOME"

	// EnvVersion is the generic version override for whichever tool runs.
	EnvVersion = "TOOLSTRAP_VERSION"

	// EnvPrefix is the installation prefix.
	EnvPrefix = "TOOLSTRAP_PREFIX"

	EnvQuiet   = "TOOLSTRAP_QUIET"
	EnvVerbose = "TOOLSTRAP_VERBOSE"
	EnvDebug   = "TOOLSTRAP_DEBUG"

	// EnvSkipDeps skips distro package installation of prerequisites.
	EnvSkipDeps = "TOOLSTRAP_SKIP_DEPS"

	// EnvForceGz forces the secondary compression format.
	EnvForceGz = "TOOLSTRAP_FORCE_GZ"

	// EnvSkipUser skips database role creation.
	EnvSkipUser = "TOOLSTRAP_SKIP_USER"

	// EnvSkipChecksum is the operator override for integrity verification.
	EnvSkipChecksum = "TOOLSTRAP_SKIP_CHECKSUM"

	// EnvSkipShellRC leaves shell startup files untouched.
	EnvSkipShellRC = "TOOLSTRAP_SKIP_SHELL_RC"

	// EnvAPITimeout bounds every HTTP request.
	EnvAPITimeout = "TOOLSTRAP_API_TIMEOUT"

	EnvNodeMirror   = "TOOLSTRAP_NODE_MIRROR"
	EnvGoMirror     = "TOOLSTRAP_GO_MIRROR"
	EnvPythonMirror = "TOOLSTRAP_PYTHON_MIRROR"

	// EnvNodeChannel selects "lts" or "current" when resolving latest Node.js.
	EnvNodeChannel = "TOOLSTRAP_NODE_CHANNEL"

	// EnvPythonBuild pins the python-build-standalone release tag.
	EnvPythonBuild = "TOOLSTRAP_PYTHON_BUILD"

	// EnvManifestKey points at an armored PGP public key used to verify
	// signed checksum manifests.
	EnvManifestKey = "TOOLSTRAP_MANIFEST_KEY"

	EnvPGUser     = "TOOLSTRAP_PG_USER"
	EnvPGDatabase = "TOOLSTRAP_PG_DB"

	EnvZshSkipChsh = "TOOLSTRAP_ZSH_SKIP_CHSH"
	EnvZshOhMyZsh  = "TOOLSTRAP_ZSH_OHMYZSH"

	// EnvScratchDir is the parent directory for per-run scratch areas.
	EnvScratchDir = "TOOLSTRAP_SCRATCH_DIR"

	// DefaultPrefix is the installation prefix used when nothing else is set.
	DefaultPrefix = "/usr/local"

	// DefaultAPITimeout is the default timeout for HTTP requests.
	DefaultAPITimeout = 30 * time.Second

	// DefaultNodeChannel resolves "latest" Node.js to the newest LTS line.
	DefaultNodeChannel = "lts"
)

// Node.js release channels.
const (
	ChannelLTS     = "lts"
	ChannelCurrent = "current"
)

// GetAPITimeout returns the configured API timeout from TOOLSTRAP_API_TIMEOUT.
// If not set or invalid, returns DefaultAPITimeout. Values are clamped to
// the range 1s..10m.
func GetAPITimeout() time.Duration {
	envValue := os.Getenv(EnvAPITimeout)
	if envValue == "" {
		return DefaultAPITimeout
	}

	duration, err := time.ParseDuration(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] invalid %s value %q, using default %v\n",
			EnvAPITimeout, envValue, DefaultAPITimeout)
		return DefaultAPITimeout
	}

	if duration < 1*time.Second {
		fmt.Fprintf(os.Stderr, "[WARN] %s too low (%v), using minimum 1s\n",
			EnvAPITimeout, duration)
		return 1 * time.Second
	}
	if duration > 10*time.Minute {
		fmt.Fprintf(os.Stderr, "[WARN] %s too high (%v), using maximum 10m\n",
			EnvAPITimeout, duration)
		return 10 * time.Minute
	}

	return duration
}

// IsTruthy reports whether an environment value means "enabled".
func IsTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// envBool returns the boolean value of name and whether it was set to a
// recognised value. Unrecognised values warn and count as unset.
func envBool(name string) (bool, bool) {
	v := os.Getenv(name)
	if v == "" {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	fmt.Fprintf(os.Stderr, "[WARN] invalid %s value %q, ignoring\n", name, v)
	return false, false
}

// HomeDir returns the toolstrap home directory: $TOOLSTRAP_HOME or
// ~/.toolstrap.
func HomeDir() (string, error) {
	if h := os.Getenv(EnvHome); h != "" {
		return h, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".toolstrap"), nil
}

// ConfigFile returns the path of the user config file.
func ConfigFile() (string, error) {
	home, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "config.toml"), nil
}
