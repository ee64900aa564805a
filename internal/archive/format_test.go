package archive

import "testing"

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		want Format
		ok   bool
	}{
		{"node-v22.12.0-linux-x64.tar.xz", TarXz, true},
		{"go1.23.4.linux-amd64.tar.gz", TarGz, true},
		{"cpython-3.12.8+20241219-x86_64-unknown-linux-gnu-install_only.tar.gz", TarGz, true},
		{"tool.TGZ", TarGz, true},
		{"tool.tar.zst", TarZst, true},
		{"tool.tar.lz", TarLz, true},
		{"tool.tbz2", TarBz2, true},
		{"tool.tar", Tar, true},
		{"tool.zip", Zip, true},
		{"SHASUMS256.txt", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DetectFormat(tt.name)
			if got != tt.want || ok != tt.ok {
				t.Errorf("DetectFormat(%q) = %q, %v; want %q, %v", tt.name, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"tar.xz": TarXz, ".tar.gz": TarGz, "TXZ": TarXz, "tzst": TarZst} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("rar"); err == nil {
		t.Error("ParseFormat(rar) should fail")
	}
}

func TestTrimExt(t *testing.T) {
	tests := map[string]string{
		"node-v22.12.0-linux-x64.tar.xz": "node-v22.12.0-linux-x64",
		"go1.23.4.linux-amd64.tar.gz":    "go1.23.4.linux-amd64",
		"tool.tgz":                       "tool",
		"README":                         "README",
	}
	for in, want := range tests {
		if got := TrimExt(in); got != want {
			t.Errorf("TrimExt(%q) = %q, want %q", in, got, want)
		}
	}
}
