package testutil

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Entry is one member of a test archive. Directories end in "/".
// Entries with Link set become symlinks.
type Entry struct {
	Name string
	Body string
	Mode int64
	Link string
}

// BuildArchive returns an archive of entries in format, one of
// "tar", "tar.gz", "tar.xz", "tar.zst" or "zip".
func BuildArchive(t *testing.T, format string, entries []Entry) []byte {
	t.Helper()
	var buf bytes.Buffer

	if format == "zip" {
		zw := zip.NewWriter(&buf)
		for _, e := range entries {
			hdr := &zip.FileHeader{Name: e.Name, Method: zip.Deflate}
			hdr.SetMode(os.FileMode(modeOr(e.Mode, 0644)))
			w, err := zw.CreateHeader(hdr)
			if err != nil {
				t.Fatalf("zip header %s: %v", e.Name, err)
			}
			if _, err := io.WriteString(w, e.Body); err != nil {
				t.Fatalf("zip body %s: %v", e.Name, err)
			}
		}
		if err := zw.Close(); err != nil {
			t.Fatalf("zip close: %v", err)
		}
		return buf.Bytes()
	}

	var w io.WriteCloser
	switch format {
	case "tar":
		w = nopCloser{&buf}
	case "tar.gz":
		w = gzip.NewWriter(&buf)
	case "tar.xz":
		xw, err := xz.NewWriter(&buf)
		if err != nil {
			t.Fatalf("xz writer: %v", err)
		}
		w = xw
	case "tar.zst":
		zw, err := zstd.NewWriter(&buf)
		if err != nil {
			t.Fatalf("zstd writer: %v", err)
		}
		w = zw
	default:
		t.Fatalf("unsupported test archive format %q", format)
	}

	tw := tar.NewWriter(w)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.Name, Mode: modeOr(e.Mode, 0644)}
		switch {
		case e.Link != "":
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.Link
			hdr.Mode = 0777
		case len(e.Name) > 0 && e.Name[len(e.Name)-1] == '/':
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = modeOr(e.Mode, 0755)
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.Body))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("tar header %s: %v", e.Name, err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := io.WriteString(tw, e.Body); err != nil {
				t.Fatalf("tar body %s: %v", e.Name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("compressor close: %v", err)
	}
	return buf.Bytes()
}

// WriteArchive builds an archive and writes it to path.
func WriteArchive(t *testing.T, path, format string, entries []Entry) {
	t.Helper()
	if err := os.WriteFile(path, BuildArchive(t, format, entries), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// SHA256Hex returns the lowercase hex SHA-256 of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func modeOr(mode, def int64) int64 {
	if mode == 0 {
		return def
	}
	return mode
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
