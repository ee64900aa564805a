package platform

import (
	"fmt"
	"strings"
)

// UnsupportedError reports a host the installers cannot serve: an unknown
// CPU architecture, a non-Linux kernel or an unrecognised distribution.
type UnsupportedError struct {
	// Kind is "architecture", "kernel" or "distribution".
	Kind string

	// Value is what the host reported.
	Value string

	// Supported lists accepted values, when the set is closed.
	Supported []string
}

func (e *UnsupportedError) Error() string {
	msg := fmt.Sprintf("unsupported %s: %q", e.Kind, e.Value)
	if len(e.Supported) > 0 {
		msg += fmt.Sprintf(" (supported: %s)", strings.Join(e.Supported, ", "))
	}
	return msg
}
