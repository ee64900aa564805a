//go:build linux || darwin || freebsd || netbsd || openbsd

package platform

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Uname returns the kernel name and machine hardware name.
func Uname() (kernel, machine string, err error) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return "", "", fmt.Errorf("uname: %w", err)
	}
	return unix.ByteSliceToString(u.Sysname[:]), unix.ByteSliceToString(u.Machine[:]), nil
}
