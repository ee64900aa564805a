// Package install places verified archives under the install prefix:
// versioned directory, stable symlink and per-binary links. Mutations go
// through an FS so system prefixes are written with sudo while paths the
// user owns are written directly.
package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/tsukumogami/toolstrap/internal/archive"
	"github.com/tsukumogami/toolstrap/internal/sysexec"
)

// FS is the set of filesystem mutations the installer and the shell rc
// mutator need.
type FS interface {
	MkdirAll(ctx context.Context, path string) error
	RemoveAll(ctx context.Context, path string) error
	// Move renames src to dst, copying when they are on different devices.
	Move(ctx context.Context, src, dst string) error
	// Symlink points link at target, replacing any existing link atomically.
	Symlink(ctx context.Context, target, link string) error
	// ReadFile returns an error satisfying errors.Is(err, fs.ErrNotExist)
	// for missing files.
	ReadFile(ctx context.Context, path string) ([]byte, error)
	AppendFile(ctx context.Context, path string, data []byte) error
	// WriteFile replaces the content of path, keeping the owner and mode
	// of an existing file.
	WriteFile(ctx context.Context, path string, data []byte) error
	// CopyFile copies src to dst preserving the mode.
	CopyFile(ctx context.Context, src, dst string) error
	Escalated() bool
}

// DirectFS mutates the filesystem with the current user's rights.
type DirectFS struct{}

func (DirectFS) Escalated() bool { return false }

func (DirectFS) MkdirAll(_ context.Context, path string) error {
	return os.MkdirAll(path, 0755)
}

func (DirectFS) RemoveAll(_ context.Context, path string) error {
	return os.RemoveAll(path)
}

func (DirectFS) Move(_ context.Context, src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}
	if err := copyTree(src, dst); err != nil {
		_ = os.RemoveAll(dst)
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return os.RemoveAll(src)
}

func (DirectFS) Symlink(_ context.Context, target, link string) error {
	return archive.ReplaceSymlink(target, link)
}

func (DirectFS) ReadFile(_ context.Context, path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (DirectFS) AppendFile(_ context.Context, path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (DirectFS) WriteFile(_ context.Context, path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (DirectFS) CopyFile(_ context.Context, src, dst string) error {
	return copyFile(src, dst)
}

// EscalatedFS performs every mutation through the runner with Root set,
// so it is prefixed with sudo or doas when not already root.
type EscalatedFS struct {
	Runner *sysexec.Runner
}

func (e EscalatedFS) Escalated() bool { return true }

func (e EscalatedFS) run(ctx context.Context, name string, args ...string) error {
	_, err := e.Runner.Run(ctx, sysexec.Command{Name: name, Args: args, Root: true, Policy: sysexec.Fatal})
	return err
}

func (e EscalatedFS) MkdirAll(ctx context.Context, path string) error {
	return e.run(ctx, "mkdir", "-p", "--", path)
}

func (e EscalatedFS) RemoveAll(ctx context.Context, path string) error {
	return e.run(ctx, "rm", "-rf", "--", path)
}

// Move uses mv, which copies across devices, and then hands the tree to
// root so the install is not writable by the invoking user.
func (e EscalatedFS) Move(ctx context.Context, src, dst string) error {
	if err := e.run(ctx, "mv", "-T", "--", src, dst); err != nil {
		return err
	}
	return e.run(ctx, "chown", "-R", "0:0", "--", dst)
}

func (e EscalatedFS) Symlink(ctx context.Context, target, link string) error {
	tmp := link + ".toolstrap-tmp"
	if err := e.run(ctx, "ln", "-sfn", "--", target, tmp); err != nil {
		return err
	}
	return e.run(ctx, "mv", "-Tf", "--", tmp, link)
}

func (e EscalatedFS) ReadFile(ctx context.Context, path string) ([]byte, error) {
	res, err := e.Runner.Run(ctx, sysexec.Command{Name: "test", Args: []string{"-e", path}, Root: true, Policy: sysexec.Probe})
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, &iofs.PathError{Op: "read", Path: path, Err: iofs.ErrNotExist}
	}
	out, err := e.Runner.Run(ctx, sysexec.Command{Name: "cat", Args: []string{"--", path}, Root: true, Policy: sysexec.Fatal})
	if err != nil {
		return nil, err
	}
	return []byte(out.Output), nil
}

// AppendFile passes the data as a positional parameter so it never
// passes through shell parsing.
func (e EscalatedFS) AppendFile(ctx context.Context, path string, data []byte) error {
	return e.run(ctx, "sh", "-c", `printf '%s' "$1" >> "$2"`, "toolstrap", string(data), path)
}

// WriteFile truncates through a shell redirect so the file keeps its
// inode, owner and mode.
func (e EscalatedFS) WriteFile(ctx context.Context, path string, data []byte) error {
	return e.run(ctx, "sh", "-c", `printf '%s' "$1" > "$2"`, "toolstrap", string(data), path)
}

func (e EscalatedFS) CopyFile(ctx context.Context, src, dst string) error {
	return e.run(ctx, "cp", "-p", "--", src, dst)
}

// NeedsEscalation reports whether writing at path requires
// administrative rights: the process is not root, path is outside home,
// and its nearest existing ancestor is not writable.
func NeedsEscalation(path, home string, isRoot bool) bool {
	if isRoot {
		return false
	}
	if home != "" && isWithin(path, home) {
		return false
	}
	dir := filepath.Clean(path)
	for {
		if _, err := os.Lstat(dir); err == nil {
			return unix.Access(dir, unix.W_OK) != nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return true
		}
		dir = parent
	}
}

// ForPath returns DirectFS or EscalatedFS for mutations under path.
func ForPath(path, home string, runner *sysexec.Runner) FS {
	if NeedsEscalation(path, home, runner.IsRoot()) {
		return EscalatedFS{Runner: runner}
	}
	return DirectFS{}
}

func isWithin(path, dir string) bool {
	path = filepath.Clean(path)
	dir = filepath.Clean(dir)
	return path == dir || strings.HasPrefix(path, dir+string(os.PathSeparator))
}

// copyTree copies a directory tree, preserving symlinks and modes.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		info, err := d.Info()
		if err != nil {
			return err
		}
		switch {
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			_ = os.Remove(target)
			return os.Symlink(link, target)
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm()|0700)
		default:
			return copyFile(path, target)
		}
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
