package platform

import (
	"debug/elf"
	"io"
	"path/filepath"
	"strings"
)

// C libraries that Python standalone builds are published for.
const (
	LibcGlibc = "glibc"
	LibcMusl  = "musl"
)

// shellBinary is read to find the dynamic loader the system uses.
var shellBinary = "/bin/sh"

// DetectLibc reports which C library the host links against. The ELF
// interpreter of /bin/sh is authoritative; a static or unreadable shell
// falls back to looking for the musl loader on disk.
func DetectLibc() string {
	if libc := interpreterLibc(shellBinary); libc != "" {
		return libc
	}
	return DetectLibcWithRoot("")
}

func interpreterLibc(path string) string {
	f, err := elf.Open(path)
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()

	for _, p := range f.Progs {
		if p.Type != elf.PT_INTERP {
			continue
		}
		interp, err := io.ReadAll(p.Open())
		if err != nil {
			return ""
		}
		if strings.Contains(string(interp), "ld-musl") {
			return LibcMusl
		}
		return LibcGlibc
	}
	return ""
}

// DetectLibcWithRoot checks root ("" for /) for a musl loader in lib or
// usr/lib.
func DetectLibcWithRoot(root string) string {
	if root == "" {
		root = "/"
	}
	for _, dir := range []string{"lib", filepath.Join("usr", "lib")} {
		if m, _ := filepath.Glob(filepath.Join(root, dir, "ld-musl-*.so.1")); len(m) > 0 {
			return LibcMusl
		}
	}
	return LibcGlibc
}
