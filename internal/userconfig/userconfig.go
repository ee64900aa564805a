// Package userconfig manages the toolstrap config file.
// The file lives at $TOOLSTRAP_HOME/config.toml and is edited with
// `toolstrap config set`.
package userconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tsukumogami/toolstrap/internal/config"
)

// Config represents user-configurable settings.
type Config struct {
	Prefix      string `toml:"prefix,omitempty"`
	NodeChannel string `toml:"node_channel,omitempty"`
	PythonBuild string `toml:"python_build,omitempty"`
	PGUser      string `toml:"pg_user,omitempty"`
	ForceGz     *bool  `toml:"force_gz,omitempty"`
	SkipShellRC *bool  `toml:"skip_shell_rc,omitempty"`
	SkipDeps    *bool  `toml:"skip_deps,omitempty"`

	// Secrets holds tokens and passwords. The file is written 0600 when
	// this table is non-empty.
	Secrets map[string]string `toml:"secrets,omitempty"`
}

// DefaultConfig returns an empty Config; every key falls through to the
// environment or built-in defaults.
func DefaultConfig() *Config {
	return &Config{}
}

// Load reads the config file. A missing file yields defaults; only parse
// errors are returned.
func Load() (*Config, error) {
	path, err := config.ConfigFile()
	if err != nil {
		return DefaultConfig(), nil
	}
	return loadFromPath(path)
}

func loadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to the config file.
func (c *Config) Save() error {
	path, err := config.ConfigFile()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return c.saveToPath(path)
}

func (c *Config) saveToPath(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	perm := os.FileMode(0644)
	if len(c.Secrets) > 0 {
		perm = 0600
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Chmod(tmp, perm); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}
	return os.Rename(tmp, path)
}

// Defaults converts the file values into the config layering input.
func (c *Config) Defaults() config.FileDefaults {
	return config.FileDefaults{
		Prefix:      c.Prefix,
		NodeChannel: c.NodeChannel,
		PythonBuild: c.PythonBuild,
		PGUser:      c.PGUser,
		ForceGz:     c.ForceGz,
		SkipShellRC: c.SkipShellRC,
		SkipDeps:    c.SkipDeps,
	}
}

// Get returns the value of a config key as a string. Secrets are reported
// as "(set)" rather than revealed.
func (c *Config) Get(key string) (string, bool) {
	key = strings.ToLower(key)
	if name, ok := strings.CutPrefix(key, "secrets."); ok {
		if c.Secrets[name] != "" {
			return "(set)", true
		}
		return "", true
	}
	switch key {
	case "prefix":
		return c.Prefix, true
	case "node_channel":
		return c.NodeChannel, true
	case "python_build":
		return c.PythonBuild, true
	case "pg_user":
		return c.PGUser, true
	case "force_gz":
		return formatBool(c.ForceGz), true
	case "skip_shell_rc":
		return formatBool(c.SkipShellRC), true
	case "skip_deps":
		return formatBool(c.SkipDeps), true
	}
	return "", false
}

// Set updates a config value from a string. Keys under "secrets." store a
// secret by name.
func (c *Config) Set(key, value string) error {
	key = strings.ToLower(key)
	if name, ok := strings.CutPrefix(key, "secrets."); ok {
		if name == "" {
			return fmt.Errorf("secret name required after %q", "secrets.")
		}
		if c.Secrets == nil {
			c.Secrets = make(map[string]string)
		}
		if value == "" {
			delete(c.Secrets, name)
		} else {
			c.Secrets[name] = value
		}
		return nil
	}

	switch key {
	case "prefix":
		if value != "" && !filepath.IsAbs(value) {
			return fmt.Errorf("invalid value for prefix: must be an absolute path")
		}
		c.Prefix = value
	case "node_channel":
		v := strings.ToLower(value)
		if v != "" && v != config.ChannelLTS && v != config.ChannelCurrent {
			return fmt.Errorf("invalid value for node_channel: must be %s or %s", config.ChannelLTS, config.ChannelCurrent)
		}
		c.NodeChannel = v
	case "python_build":
		c.PythonBuild = value
	case "pg_user":
		c.PGUser = value
	case "force_gz":
		return parseBoolInto(&c.ForceGz, key, value)
	case "skip_shell_rc":
		return parseBoolInto(&c.SkipShellRC, key, value)
	case "skip_deps":
		return parseBoolInto(&c.SkipDeps, key, value)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// AvailableKeys returns all configurable keys with descriptions.
func AvailableKeys() map[string]string {
	return map[string]string{
		"prefix":        "Installation prefix (absolute path, default /usr/local)",
		"node_channel":  "Node.js release line used for latest (lts/current)",
		"python_build":  "python-build-standalone release tag",
		"pg_user":       "PostgreSQL role created by the postgres installer",
		"force_gz":      "Always download the .tar.gz artifact (true/false)",
		"skip_shell_rc": "Never modify shell startup files (true/false)",
		"skip_deps":     "Skip distro prerequisite packages (true/false)",
		"secrets.<key>": "Store a secret (github_token, pg_password)",
	}
}

// SortedKeys returns AvailableKeys' names in order.
func SortedKeys() []string {
	keys := make([]string, 0)
	for k := range AvailableKeys() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

func parseBoolInto(dst **bool, key, value string) error {
	if value == "" {
		*dst = nil
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: must be true or false", key)
	}
	*dst = &b
	return nil
}
