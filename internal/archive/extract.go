package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	lzip "github.com/sorairolake/lzip-go"
	"github.com/ulikunitz/xz"
)

// Options controls an extraction.
type Options struct {
	// StripComponents drops this many leading path elements from every
	// entry, like tar --strip-components.
	StripComponents int
}

// ErrUnsafePath is returned for entries or symlinks that would land
// outside the destination directory.
var ErrUnsafePath = errors.New("archive entry escapes destination directory")

type decompressor func(io.Reader) (io.Reader, func(), error)

var decompressors = map[Format]decompressor{
	TarGz: func(r io.Reader) (io.Reader, func(), error) {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return zr, func() { zr.Close() }, nil
	},
	TarXz: func(r io.Reader) (io.Reader, func(), error) {
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xr, func() {}, nil
	},
	TarBz2: func(r io.Reader) (io.Reader, func(), error) {
		return bzip2.NewReader(r), func() {}, nil
	},
	TarZst: func(r io.Reader) (io.Reader, func(), error) {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return zr, zr.Close, nil
	},
	TarLz: func(r io.Reader) (io.Reader, func(), error) {
		lr, err := lzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create lzip reader: %w", err)
		}
		return lr, func() {}, nil
	},
	Tar: func(r io.Reader) (io.Reader, func(), error) {
		return r, func() {}, nil
	},
}

// Extract unpacks archivePath into dest, which is created if needed.
// The context is checked between entries so an interrupt stops a long
// extraction promptly.
func Extract(ctx context.Context, archivePath, dest string, format Format, opts Options) error {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if format == Zip {
		return extractZip(ctx, archivePath, dest, opts)
	}

	open, ok := decompressors[format]
	if !ok {
		return fmt.Errorf("unsupported archive format: %s", format)
	}
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	r, closeFn, err := open(file)
	if err != nil {
		return err
	}
	defer closeFn()

	return extractTar(ctx, tar.NewReader(r), dest, opts)
}

func extractTar(ctx context.Context, tr *tar.Reader, dest string, opts Options) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar header: %w", err)
		}

		rel, ok := stripPath(header.Name, opts.StripComponents)
		if !ok {
			continue
		}
		target := filepath.Join(dest, rel)
		if !isWithin(target, dest) {
			return fmt.Errorf("%w: %s", ErrUnsafePath, header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, os.FileMode(header.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := checkLinkTarget(header.Linkname, target, dest); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("failed to create parent directory: %w", err)
			}
			if err := ReplaceSymlink(header.Linkname, target); err != nil {
				return fmt.Errorf("failed to create symlink: %w", err)
			}
		case tar.TypeLink:
			linkRel, ok := stripPath(header.Linkname, opts.StripComponents)
			if !ok {
				return fmt.Errorf("%w: hard link %s -> %s", ErrUnsafePath, header.Name, header.Linkname)
			}
			source := filepath.Join(dest, linkRel)
			if !isWithin(source, dest) {
				return fmt.Errorf("%w: hard link %s -> %s", ErrUnsafePath, header.Name, header.Linkname)
			}
			_ = os.Remove(target)
			if err := os.Link(source, target); err != nil {
				return fmt.Errorf("failed to create hard link: %w", err)
			}
		}
	}
}

func extractZip(ctx context.Context, archivePath, dest string, opts Options) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, ok := stripPath(f.Name, opts.StripComponents)
		if !ok {
			continue
		}
		target := filepath.Join(dest, rel)
		if !isWithin(target, dest) {
			return fmt.Errorf("%w: %s", ErrUnsafePath, f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("failed to open %s in zip: %w", f.Name, err)
		}
		err = writeFile(target, rc, f.Mode().Perm())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	if mode == 0 {
		mode = 0644
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return f.Close()
}

// stripPath removes "./" and the first n path elements. ok is false for
// entries that disappear entirely, such as the top-level directory.
func stripPath(name string, n int) (string, bool) {
	clean := strings.TrimPrefix(name, "./")
	clean = strings.Trim(clean, "/")
	if clean == "" || clean == "." {
		return "", false
	}
	parts := strings.Split(clean, "/")
	if len(parts) <= n {
		return "", false
	}
	return filepath.Join(parts[n:]...), true
}

// isWithin reports whether target is base or lies beneath it.
func isWithin(target, base string) bool {
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return false
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return false
	}
	return absTarget == absBase || strings.HasPrefix(absTarget, absBase+string(os.PathSeparator))
}

func checkLinkTarget(linkname, location, dest string) error {
	if filepath.IsAbs(linkname) {
		return fmt.Errorf("%w: absolute symlink %s -> %s", ErrUnsafePath, location, linkname)
	}
	resolved := filepath.Join(filepath.Dir(location), linkname)
	if !isWithin(resolved, dest) {
		return fmt.Errorf("%w: symlink %s -> %s", ErrUnsafePath, location, linkname)
	}
	return nil
}

// ReplaceSymlink points linkPath at target by creating a temporary link
// and renaming it over linkPath, so readers see either the old or the
// new target and never a missing link.
func ReplaceSymlink(target, linkPath string) error {
	tmp := linkPath + ".toolstrap-tmp"
	_ = os.Remove(tmp)
	if err := os.Symlink(target, tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, linkPath); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
