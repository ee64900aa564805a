// Package platform identifies the host: the normalized CPU architecture
// (Tag), the distribution family from /etc/os-release and the C library.
//
// Detection never guesses. An architecture or kernel outside the closed
// set is an UnsupportedError, returned before anything touches the network.
package platform

import (
	"sort"
	"strings"
)

// Tag is the normalized architecture identifier used to pick artifacts.
type Tag string

// Supported tags.
const (
	AMD64   Tag = "amd64"
	ARM64   Tag = "arm64"
	I386    Tag = "386"
	ARMv6   Tag = "armv6l"
	ARMv7   Tag = "armv7l"
	PPC64LE Tag = "ppc64le"
	S390X   Tag = "s390x"
	RISCV64 Tag = "riscv64"
)

// machineToTag maps uname machine strings to tags.
var machineToTag = map[string]Tag{
	"x86_64":  AMD64,
	"amd64":   AMD64,
	"aarch64": ARM64,
	"arm64":   ARM64,
	"i386":    I386,
	"i486":    I386,
	"i586":    I386,
	"i686":    I386,
	"x86":     I386,
	"386":     I386,
	"armv6l":  ARMv6,
	"armv7l":  ARMv7,
	"armv8l":  ARMv7,
	"ppc64le": PPC64LE,
	"s390x":   S390X,
	"riscv64": RISCV64,
}

// Tags returns every supported tag, sorted.
func Tags() []Tag {
	seen := make(map[Tag]bool)
	var tags []Tag
	for _, t := range machineToTag {
		if !seen[t] {
			seen[t] = true
			tags = append(tags, t)
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Detect maps a raw kernel name and machine string (as reported by
// uname) to a Tag. Only Linux kernels are accepted.
func Detect(kernel, machine string) (Tag, error) {
	if !strings.EqualFold(strings.TrimSpace(kernel), "linux") {
		return "", &UnsupportedError{Kind: "kernel", Value: kernel, Supported: []string{"Linux"}}
	}
	tag, ok := machineToTag[strings.ToLower(strings.TrimSpace(machine))]
	if !ok {
		supported := make([]string, 0, len(machineToTag))
		for _, t := range Tags() {
			supported = append(supported, string(t))
		}
		return "", &UnsupportedError{Kind: "architecture", Value: machine, Supported: supported}
	}
	return tag, nil
}

// DetectHost runs Detect against the running kernel.
func DetectHost() (Tag, error) {
	kernel, machine, err := Uname()
	if err != nil {
		return "", err
	}
	return Detect(kernel, machine)
}
