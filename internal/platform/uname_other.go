//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package platform

import "runtime"

// Uname reports the Go runtime's view of the host, which Detect rejects.
func Uname() (kernel, machine string, err error) {
	return runtime.GOOS, runtime.GOARCH, nil
}
