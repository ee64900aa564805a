// Package secrets resolves tokens and passwords from the environment and
// the [secrets] table of $TOOLSTRAP_HOME/config.toml, in that order.
// Only names registered in knownKeys can be requested.
package secrets

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/tsukumogami/toolstrap/internal/userconfig"
)

// KeyInfo describes a registered secret.
type KeyInfo struct {
	Name    string
	EnvVars []string
	Desc    string
}

// Resolver looks secrets up. The config file is read at most once.
type Resolver struct {
	env  func(string) string
	load func() (*userconfig.Config, error)

	mu     sync.Mutex
	loaded bool
	stored map[string]string
}

// NewResolver returns a Resolver reading env and then the table returned
// by load. A load error is treated as an empty table.
func NewResolver(env func(string) string, load func() (*userconfig.Config, error)) *Resolver {
	return &Resolver{env: env, load: load}
}

var std = NewResolver(os.Getenv, userconfig.Load)

// ResetConfig drops the cached config file so the next lookup rereads it.
func ResetConfig() {
	std.mu.Lock()
	std.loaded = false
	std.stored = nil
	std.mu.Unlock()
}

func (r *Resolver) fromFile(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		r.loaded = true
		if cfg, err := r.load(); err == nil && cfg != nil {
			r.stored = cfg.Secrets
		}
	}
	return r.stored[name]
}

func (r *Resolver) find(spec KeySpec, name string) string {
	for _, v := range spec.EnvVars {
		if val := r.env(v); val != "" {
			return val
		}
	}
	return r.fromFile(name)
}

// Get returns the value of name or an error telling the operator where to
// set it.
func (r *Resolver) Get(name string) (string, error) {
	spec, ok := knownKeys[name]
	if !ok {
		return "", fmt.Errorf("unknown secret key: %q", name)
	}
	if val := r.find(spec, name); val != "" {
		return val, nil
	}
	return "", fmt.Errorf("%s not configured. Set the %s environment variable, or add %s to [secrets] in $TOOLSTRAP_HOME/config.toml",
		name, strings.Join(spec.EnvVars, " or "), name)
}

// Lookup returns the value of name, or "" when it is unset or unknown.
func (r *Resolver) Lookup(name string) string {
	spec, ok := knownKeys[name]
	if !ok {
		return ""
	}
	return r.find(spec, name)
}

// Get resolves name with the process environment and config file.
func Get(name string) (string, error) { return std.Get(name) }

// Lookup is Get without the error.
func Lookup(name string) string { return std.Lookup(name) }

// IsSet reports whether name has a value anywhere.
func IsSet(name string) bool { return std.Lookup(name) != "" }

// KnownKeys lists the registered secrets by name.
func KnownKeys() []KeyInfo {
	keys := make([]KeyInfo, 0, len(knownKeys))
	for name, spec := range knownKeys {
		keys = append(keys, KeyInfo{Name: name, EnvVars: spec.EnvVars, Desc: spec.Desc})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Name < keys[j].Name })
	return keys
}
