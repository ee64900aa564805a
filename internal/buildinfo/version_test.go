package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFromVCS(t *testing.T) {
	tests := []struct {
		name     string
		settings []debug.BuildSetting
		want     string
	}{
		{"no vcs data", nil, "dev"},
		{
			"clean revision is truncated",
			[]debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef0123"}},
			"dev-0123456789ab",
		},
		{
			"dirty tree",
			[]debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc123"},
				{Key: "vcs.modified", Value: "true"},
			},
			"dev-abc123-dirty",
		},
		{
			"modified without revision",
			[]debug.BuildSetting{{Key: "vcs.modified", Value: "true"}},
			"dev",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fromVCS(tt.settings); got != tt.want {
				t.Errorf("fromVCS() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOverrideWins(t *testing.T) {
	old := Override
	Override = "v9.9.9"
	defer func() { Override = old }()

	if got := Version(); got != "v9.9.9" {
		t.Errorf("Version() = %q, want v9.9.9", got)
	}
	if got := UserAgent(); got != "toolstrap/v9.9.9" {
		t.Errorf("UserAgent() = %q", got)
	}
}

func TestVersionNeverEmpty(t *testing.T) {
	if strings.TrimSpace(Version()) == "" {
		t.Error("Version() returned empty string")
	}
}
