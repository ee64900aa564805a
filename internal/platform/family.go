package platform

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"strings"
)

// OSReleasePath is the standard location of the os-release file.
const OSReleasePath = "/etc/os-release"

// Distribution families. Each corresponds to a package manager ecosystem.
const (
	FamilyDebian = "debian" // apt
	FamilyRHEL   = "rhel"   // dnf or yum
	FamilyArch   = "arch"   // pacman
	FamilyAlpine = "alpine" // apk
	FamilySUSE   = "suse"   // zypper
)

// Families lists the recognized families.
var Families = []string{FamilyDebian, FamilyRHEL, FamilyArch, FamilyAlpine, FamilySUSE}

// OSRelease contains parsed values from /etc/os-release.
type OSRelease struct {
	ID              string   // e.g. "ubuntu", "fedora"
	IDLike          []string // e.g. ["debian"] for Ubuntu
	Name            string   // PRETTY_NAME, or NAME
	VersionID       string   // e.g. "22.04"
	VersionCodename string   // e.g. "jammy"
}

// Distro is a parsed os-release together with its family.
type Distro struct {
	Release OSRelease
	Family  string
}

var distroToFamily = map[string]string{
	"debian": FamilyDebian, "ubuntu": FamilyDebian, "linuxmint": FamilyDebian,
	"pop": FamilyDebian, "elementary": FamilyDebian, "zorin": FamilyDebian,
	"kali": FamilyDebian, "raspbian": FamilyDebian,

	"fedora": FamilyRHEL, "rhel": FamilyRHEL, "centos": FamilyRHEL,
	"rocky": FamilyRHEL, "almalinux": FamilyRHEL, "ol": FamilyRHEL,
	"amzn": FamilyRHEL,

	"arch": FamilyArch, "manjaro": FamilyArch, "endeavouros": FamilyArch,

	"alpine": FamilyAlpine,

	"opensuse":            FamilySUSE,
	"opensuse-leap":       FamilySUSE,
	"opensuse-tumbleweed": FamilySUSE,
	"sles":                FamilySUSE,
	"suse":                FamilySUSE,
}

// ParseOSRelease parses the /etc/os-release file format.
func ParseOSRelease(path string) (*OSRelease, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	release := &OSRelease{}
	var name, pretty string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		value = strings.Trim(value, `"'`)

		switch key {
		case "ID":
			release.ID = strings.ToLower(value)
		case "ID_LIKE":
			release.IDLike = strings.Fields(strings.ToLower(value))
		case "NAME":
			name = value
		case "PRETTY_NAME":
			pretty = value
		case "VERSION_ID":
			release.VersionID = value
		case "VERSION_CODENAME":
			release.VersionCodename = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	release.Name = pretty
	if release.Name == "" {
		release.Name = name
	}
	return release, nil
}

// MapDistroToFamily maps a distro ID to its family, falling back to the
// ID_LIKE chain.
func MapDistroToFamily(id string, idLike []string) (string, error) {
	if family, ok := distroToFamily[id]; ok {
		return family, nil
	}
	for _, like := range idLike {
		if family, ok := distroToFamily[like]; ok {
			return family, nil
		}
	}
	return "", &UnsupportedError{Kind: "distribution", Value: id, Supported: Families}
}

// DetectDistro reads the os-release file at path and maps it to a family.
// A missing file is reported as an unsupported distribution.
func DetectDistro(path string) (Distro, error) {
	release, err := ParseOSRelease(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Distro{}, &UnsupportedError{Kind: "distribution", Value: "unknown (no " + path + ")", Supported: Families}
		}
		return Distro{}, err
	}
	family, err := MapDistroToFamily(release.ID, release.IDLike)
	if err != nil {
		return Distro{Release: *release}, err
	}
	return Distro{Release: *release, Family: family}, nil
}
