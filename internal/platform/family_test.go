package platform

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseOSRelease(t *testing.T) {
	tests := []struct {
		fixture     string
		wantID      string
		wantIDLike  []string
		wantVersion string
		wantName    string
	}{
		{"ubuntu", "ubuntu", []string{"debian"}, "22.04", "Ubuntu 22.04.4 LTS"},
		{"debian", "debian", nil, "12", "Debian GNU/Linux 12 (bookworm)"},
		{"fedora", "fedora", nil, "39", "Fedora Linux 39 (Container Image)"},
		{"arch", "arch", nil, "", "Arch Linux"},
		{"alpine", "alpine", nil, "3.19.0", "Alpine Linux v3.19"},
		{"rocky", "rocky", []string{"rhel", "centos", "fedora"}, "9.3", "Rocky Linux 9.3 (Blue Onyx)"},
	}

	for _, tt := range tests {
		t.Run(tt.fixture, func(t *testing.T) {
			release, err := ParseOSRelease(filepath.Join("testdata", "os-release", tt.fixture))
			if err != nil {
				t.Fatalf("ParseOSRelease() error = %v", err)
			}
			if release.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", release.ID, tt.wantID)
			}
			if !reflect.DeepEqual(release.IDLike, tt.wantIDLike) {
				t.Errorf("IDLike = %v, want %v", release.IDLike, tt.wantIDLike)
			}
			if release.VersionID != tt.wantVersion {
				t.Errorf("VersionID = %q, want %q", release.VersionID, tt.wantVersion)
			}
			if release.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", release.Name, tt.wantName)
			}
		})
	}
}

func TestParseOSRelease_MissingFile(t *testing.T) {
	_, err := ParseOSRelease(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestParseOSRelease_CommentsAndQuotes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "os-release")
	content := "# comment\nID=\"quoted-id\"\n  # indented comment\nID_LIKE='Single Quoted'\nNAME=Thing\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	release, err := ParseOSRelease(path)
	if err != nil {
		t.Fatal(err)
	}
	if release.ID != "quoted-id" {
		t.Errorf("ID = %q", release.ID)
	}
	if !reflect.DeepEqual(release.IDLike, []string{"single", "quoted"}) {
		t.Errorf("IDLike = %v", release.IDLike)
	}
	if release.Name != "Thing" {
		t.Errorf("Name = %q, want NAME fallback", release.Name)
	}
}

func TestDetectDistro(t *testing.T) {
	fixtures := []struct {
		name       string
		wantFamily string
	}{
		{"ubuntu", FamilyDebian},
		{"debian", FamilyDebian},
		{"fedora", FamilyRHEL},
		{"rocky", FamilyRHEL},
		{"arch", FamilyArch},
		{"alpine", FamilyAlpine},
		{"opensuse-tumbleweed", FamilySUSE},
	}

	for _, tt := range fixtures {
		t.Run(tt.name, func(t *testing.T) {
			d, err := DetectDistro(filepath.Join("testdata", "os-release", tt.name))
			if err != nil {
				t.Fatalf("DetectDistro() error = %v", err)
			}
			if d.Family != tt.wantFamily {
				t.Errorf("Family = %q, want %q", d.Family, tt.wantFamily)
			}
		})
	}
}

func TestDetectDistroUnsupported(t *testing.T) {
	d, err := DetectDistro(filepath.Join("testdata", "os-release", "nixos"))
	var ue *UnsupportedError
	if !errors.As(err, &ue) || ue.Kind != "distribution" {
		t.Fatalf("expected distribution UnsupportedError, got %v", err)
	}
	if d.Release.ID != "nixos" {
		t.Errorf("release should still be returned, got %+v", d.Release)
	}

	_, err = DetectDistro(filepath.Join(t.TempDir(), "missing"))
	if !errors.As(err, &ue) {
		t.Fatalf("missing os-release should be UnsupportedError, got %v", err)
	}
}

func TestMapDistroToFamilyIDLikeFallback(t *testing.T) {
	family, err := MapDistroToFamily("somederivative", []string{"unknown", "ubuntu"})
	if err != nil {
		t.Fatal(err)
	}
	if family != FamilyDebian {
		t.Errorf("family = %q, want debian", family)
	}
}
