// Package version decides which release of a tool to install: the
// operator's explicit choice, the vendor's latest release, or a built-in
// fallback when the latest lookup fails.
package version

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tsukumogami/toolstrap/internal/log"
)

// Source records how a version was chosen.
type Source string

const (
	SourceExplicit Source = "explicit"
	SourceLatest   Source = "latest"
	SourceFallback Source = "fallback"
)

// Info is a version as reported by a vendor. Build is only set for
// vendors that key archives by a build tag as well as a version.
type Info struct {
	Version string
	Build   string
}

// Resolved is the version used for the rest of a run. It is a value and
// is never modified once Resolve returns it.
type Resolved struct {
	Tool    string
	Version string
	Build   string
	Source  Source
}

func (r Resolved) String() string {
	if r.Build != "" {
		return r.Version + "+" + r.Build
	}
	return r.Version
}

// LatestSource looks up the newest release of one tool.
type LatestSource interface {
	// Name identifies the vendor endpoint in diagnostics.
	Name() string
	Latest(ctx context.Context) (Info, error)
}

// Request describes one resolution.
type Request struct {
	Tool string
	// Explicit is the operator-supplied version; empty means latest.
	Explicit string
	// Build pins the build tag for build-keyed vendors.
	Build    string
	Fallback Info
}

var validVersion = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*([-.+]?[0-9A-Za-z]+)*$`)

// NormalizeVersion strips a leading "v" and surrounding whitespace.
func NormalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if len(v) > 1 && (v[0] == 'v' || v[0] == 'V') && v[1] >= '0' && v[1] <= '9' {
		return v[1:]
	}
	return v
}

// ValidateVersion rejects strings that cannot be a version number. It
// keeps path separators and shell metacharacters out of URLs and paths.
func ValidateVersion(v string) error {
	if !validVersion.MatchString(v) {
		return fmt.Errorf("invalid version %q", v)
	}
	return nil
}

// Resolve returns the explicit version unchanged without any network
// access. Otherwise it asks src for the latest release and, when that
// fails or comes back empty, falls back to req.Fallback with a warning.
// Interrupts are returned as errors rather than masked by the fallback.
func Resolve(ctx context.Context, src LatestSource, req Request, logger log.Logger) (Resolved, error) {
	logger = log.OrDefault(logger)

	if req.Explicit != "" {
		v := NormalizeVersion(req.Explicit)
		if err := ValidateVersion(v); err != nil {
			return Resolved{}, &ResolverError{Type: ErrTypeValidation, Source: req.Tool, Message: "bad version argument", Err: err}
		}
		build := req.Build
		if build == "" {
			build = req.Fallback.Build
		}
		return Resolved{Tool: req.Tool, Version: v, Build: build, Source: SourceExplicit}, nil
	}

	info, err := src.Latest(ctx)
	if err == nil {
		info.Version = NormalizeVersion(info.Version)
		if info.Version != "" && ValidateVersion(info.Version) == nil {
			logger.Debug("resolved latest version", "tool", req.Tool, "version", info.Version, "source", src.Name())
			return Resolved{Tool: req.Tool, Version: info.Version, Build: info.Build, Source: SourceLatest}, nil
		}
		err = fmt.Errorf("unusable version %q", info.Version)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Resolved{}, ctxErr
	}
	if errors.Is(err, context.Canceled) {
		return Resolved{}, err
	}

	logger.Warn("latest version lookup failed, using fallback",
		"tool", req.Tool, "source", src.Name(), "fallback", req.Fallback.Version, "error", err)
	return Resolved{Tool: req.Tool, Version: req.Fallback.Version, Build: req.Fallback.Build, Source: SourceFallback}, nil
}
