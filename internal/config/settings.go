package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Flags carries values given on the command line. Zero values mean the
// flag was not given.
type Flags struct {
	Version      string
	Prefix       string
	SkipChecksum bool
	ForceGz      bool
	SkipShellRC  bool
	SkipDeps     bool
}

// FileDefaults carries values read from the user config file. Nil pointers
// and empty strings mean the key is absent.
type FileDefaults struct {
	Prefix      string
	NodeChannel string
	PythonBuild string
	PGUser      string
	ForceGz     *bool
	SkipShellRC *bool
	SkipDeps    *bool
}

// Secrets carries sensitive values resolved outside the config layering.
type Secrets struct {
	GitHubToken string
	PGPassword  string
}

// Settings is the immutable configuration for one run. Build it with Load
// and pass it by value.
type Settings struct {
	// Tool is the tool being installed ("go", "node", ...).
	Tool string

	// Version is the explicitly requested version, empty for "latest".
	Version string

	Prefix     string
	HomeDir    string
	ConfigFile string
	ScratchDir string

	SkipDeps     bool
	ForceGz      bool
	SkipUser     bool
	SkipChecksum bool
	SkipShellRC  bool

	APITimeout time.Duration

	NodeMirror   string
	GoMirror     string
	PythonMirror string
	NodeChannel  string
	PythonBuild  string
	ManifestKey  string

	PGUser     string
	PGDatabase string

	ZshSkipChsh bool
	ZshOhMyZsh  bool

	secrets Secrets
}

// GitHubToken returns the GitHub token, if any.
func (s Settings) GitHubToken() string { return s.secrets.GitHubToken }

// PGPassword returns the database role password, if any.
func (s Settings) PGPassword() string { return s.secrets.PGPassword }

// WithSecrets returns a copy of s carrying sec.
func (s Settings) WithSecrets(sec Secrets) Settings {
	s.secrets = sec
	return s
}

// BinDir is the shared directory receiving per-binary symlinks.
func (s Settings) BinDir() string { return filepath.Join(s.Prefix, "bin") }

// String renders the settings for debug logs without secrets.
func (s Settings) String() string {
	return fmt.Sprintf("tool=%s version=%q prefix=%s skip_checksum=%t force_gz=%t skip_shell_rc=%t skip_deps=%t",
		s.Tool, s.Version, s.Prefix, s.SkipChecksum, s.ForceGz, s.SkipShellRC, s.SkipDeps)
}

// Load layers flags, environment, file values and defaults into Settings.
func Load(tool string, flags Flags, file FileDefaults, secrets Secrets) (Settings, error) {
	s := Settings{
		Tool:        tool,
		APITimeout:  GetAPITimeout(),
		NodeChannel: DefaultNodeChannel,
		ZshOhMyZsh:  true,
		secrets:     secrets,
	}

	s.Version = firstNonEmpty(flags.Version, os.Getenv(toolVersionEnv(tool)), os.Getenv(EnvVersion))
	s.Version = strings.TrimPrefix(strings.TrimSpace(s.Version), "v")

	s.Prefix = firstNonEmpty(flags.Prefix, os.Getenv(EnvPrefix), file.Prefix, DefaultPrefix)
	if !filepath.IsAbs(s.Prefix) {
		return Settings{}, fmt.Errorf("install prefix must be an absolute path, got %q", s.Prefix)
	}
	s.Prefix = filepath.Clean(s.Prefix)

	home, err := HomeDir()
	if err != nil {
		return Settings{}, err
	}
	s.HomeDir = home
	s.ConfigFile = filepath.Join(home, "config.toml")
	s.ScratchDir = firstNonEmpty(os.Getenv(EnvScratchDir), os.TempDir())

	s.SkipDeps = layerBool(flags.SkipDeps, EnvSkipDeps, file.SkipDeps)
	s.ForceGz = layerBool(flags.ForceGz, EnvForceGz, file.ForceGz)
	s.SkipShellRC = layerBool(flags.SkipShellRC, EnvSkipShellRC, file.SkipShellRC)
	s.SkipChecksum = layerBool(flags.SkipChecksum, EnvSkipChecksum, nil)
	s.SkipUser = layerBool(false, EnvSkipUser, nil)
	s.ZshSkipChsh = layerBool(false, EnvZshSkipChsh, nil)
	if v, ok := envBool(EnvZshOhMyZsh); ok {
		s.ZshOhMyZsh = v
	}

	s.NodeMirror = strings.TrimRight(os.Getenv(EnvNodeMirror), "/")
	s.GoMirror = strings.TrimRight(os.Getenv(EnvGoMirror), "/")
	s.PythonMirror = strings.TrimRight(os.Getenv(EnvPythonMirror), "/")

	s.NodeChannel = strings.ToLower(firstNonEmpty(os.Getenv(EnvNodeChannel), file.NodeChannel, DefaultNodeChannel))
	if s.NodeChannel != ChannelLTS && s.NodeChannel != ChannelCurrent {
		return Settings{}, fmt.Errorf("invalid Node.js channel %q: must be %q or %q", s.NodeChannel, ChannelLTS, ChannelCurrent)
	}
	s.PythonBuild = firstNonEmpty(os.Getenv(EnvPythonBuild), file.PythonBuild)
	s.ManifestKey = os.Getenv(EnvManifestKey)

	s.PGUser = firstNonEmpty(os.Getenv(EnvPGUser), file.PGUser, os.Getenv("SUDO_USER"), os.Getenv("USER"), "postgres")
	s.PGDatabase = firstNonEmpty(os.Getenv(EnvPGDatabase), s.PGUser)

	return s, nil
}

// toolVersionEnv returns TOOLSTRAP_<TOOL>_VERSION for tool.
func toolVersionEnv(tool string) string {
	if tool == "" {
		return ""
	}
	return "TOOLSTRAP_" + strings.ToUpper(tool) + "_VERSION"
}

func layerBool(flag bool, env string, file *bool) bool {
	if flag {
		return true
	}
	if v, ok := envBool(env); ok {
		return v
	}
	if file != nil {
		return *file
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
