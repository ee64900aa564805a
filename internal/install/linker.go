package install

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"

	"github.com/tsukumogami/toolstrap/internal/archive"
	"github.com/tsukumogami/toolstrap/internal/log"
)

// Layout is where one tool lives under the prefix.
type Layout struct {
	Prefix string
	// LibDir is the directory under <prefix>/lib holding versioned trees.
	LibDir string
	// LinkName is the stable symlink <prefix>/<LinkName>.
	LinkName string
	// Binaries are paths relative to the tree root, e.g. "bin/node".
	Binaries []string
}

// InstallRoot returns <prefix>/lib/<LibDir>.
func (l Layout) InstallRoot() string {
	return filepath.Join(l.Prefix, "lib", l.LibDir)
}

// LinkPath returns the stable symlink path.
func (l Layout) LinkPath() string {
	return filepath.Join(l.Prefix, l.LinkName)
}

// BinDir returns the shared bin directory.
func (l Layout) BinDir() string {
	return filepath.Join(l.Prefix, "bin")
}

// Request is one install.
type Request struct {
	Layout      Layout
	ArchivePath string
	Format      archive.Format
	// VersionedName names the directory under InstallRoot.
	VersionedName string
	// StagingDir is an empty directory in the scratch area.
	StagingDir      string
	StripComponents int
}

// Result describes what Install changed.
type Result struct {
	InstallDir string
	Link       string
	Linked     []string
	Skipped    []string
	// MovedAside is set when a real directory stood where the stable
	// link goes and was renamed out of the way.
	MovedAside string
}

// Linker extracts and links tool trees.
type Linker struct {
	FS     FS
	Logger log.Logger
}

// Install extracts the archive into staging, replaces any same-named
// versioned directory, then swaps the stable link and finally refreshes
// the bin links. The stable link only changes after the tree is complete.
func (l *Linker) Install(ctx context.Context, req Request) (Result, error) {
	logger := log.OrDefault(l.Logger)
	if req.VersionedName == "" || req.VersionedName != filepath.Base(req.VersionedName) {
		return Result{}, fmt.Errorf("invalid install directory name %q", req.VersionedName)
	}
	layout := req.Layout
	installDir := filepath.Join(layout.InstallRoot(), req.VersionedName)
	res := Result{InstallDir: installDir, Link: layout.LinkPath()}

	staged := filepath.Join(req.StagingDir, req.VersionedName)
	logger.Info("Extracting", "archive", filepath.Base(req.ArchivePath), "format", req.Format.String())
	if err := archive.Extract(ctx, req.ArchivePath, staged, req.Format, archive.Options{StripComponents: req.StripComponents}); err != nil {
		return res, fmt.Errorf("failed to extract %s: %w", filepath.Base(req.ArchivePath), err)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if err := l.FS.MkdirAll(ctx, layout.InstallRoot()); err != nil {
		return res, fmt.Errorf("failed to create %s: %w", layout.InstallRoot(), err)
	}
	if _, err := os.Lstat(installDir); err == nil {
		logger.Info("Removing previous install of the same version", "dir", installDir)
		if err := l.FS.RemoveAll(ctx, installDir); err != nil {
			return res, fmt.Errorf("failed to remove stale %s: %w", installDir, err)
		}
	}
	if err := l.FS.Move(ctx, staged, installDir); err != nil {
		return res, fmt.Errorf("failed to move tree into %s: %w", installDir, err)
	}

	moved, err := l.clearLinkPath(ctx, layout.LinkPath())
	if err != nil {
		return res, err
	}
	if moved != "" {
		res.MovedAside = moved
		logger.Warn("Moved existing directory out of the way", "from", layout.LinkPath(), "to", moved)
	}
	if err := l.FS.Symlink(ctx, installDir, layout.LinkPath()); err != nil {
		return res, fmt.Errorf("failed to link %s: %w", layout.LinkPath(), err)
	}

	if len(layout.Binaries) > 0 {
		if err := l.FS.MkdirAll(ctx, layout.BinDir()); err != nil {
			return res, fmt.Errorf("failed to create %s: %w", layout.BinDir(), err)
		}
	}
	for _, rel := range layout.Binaries {
		if _, err := os.Lstat(filepath.Join(installDir, rel)); err != nil {
			logger.Debug("Binary not shipped in this version, skipping", "binary", rel)
			res.Skipped = append(res.Skipped, filepath.Base(rel))
			continue
		}
		link := filepath.Join(layout.BinDir(), filepath.Base(rel))
		if err := l.FS.Symlink(ctx, filepath.Join(layout.LinkPath(), rel), link); err != nil {
			return res, fmt.Errorf("failed to link %s: %w", link, err)
		}
		res.Linked = append(res.Linked, filepath.Base(rel))
	}
	return res, nil
}

// clearLinkPath makes link replaceable by a symlink. An existing symlink
// is left for the atomic rename; a real directory is renamed to
// <link>.toolstrap.bak.
func (l *Linker) clearLinkPath(ctx context.Context, link string) (string, error) {
	info, err := os.Lstat(link)
	if errors.Is(err, iofs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to inspect %s: %w", link, err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return "", nil
	}
	backup := link + ".toolstrap.bak"
	if err := l.FS.RemoveAll(ctx, backup); err != nil {
		return "", fmt.Errorf("failed to remove old backup %s: %w", backup, err)
	}
	if err := l.FS.Move(ctx, link, backup); err != nil {
		return "", fmt.Errorf("failed to move %s aside: %w", link, err)
	}
	return backup, nil
}
