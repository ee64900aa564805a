package errmsg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/tsukumogami/toolstrap/internal/artifact"
	"github.com/tsukumogami/toolstrap/internal/httputil"
	"github.com/tsukumogami/toolstrap/internal/install"
	"github.com/tsukumogami/toolstrap/internal/platform"
	"github.com/tsukumogami/toolstrap/internal/sysexec"
	"github.com/tsukumogami/toolstrap/internal/verify"
	"github.com/tsukumogami/toolstrap/internal/version"
)

func TestFormat_NilError(t *testing.T) {
	if result := Format(nil, nil); result != "" {
		t.Errorf("expected empty string for nil error, got %q", result)
	}
}

func TestFormat_GenericError(t *testing.T) {
	result := Format(errors.New("something went wrong"), nil)
	if result != "something went wrong" {
		t.Errorf("expected original error message, got %q", result)
	}
}

func TestFormat_SingleLine(t *testing.T) {
	msg := Explain(errors.New("first\nsecond\r\n  third"), nil)
	if msg.Text != "first second third" {
		t.Errorf("Text = %q", msg.Text)
	}
}

func TestExplain_Suggestions(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"architecture", &platform.UnsupportedError{Kind: "architecture", Value: "mips"}, "supported architectures"},
		{"kernel", &platform.UnsupportedError{Kind: "kernel", Value: "Darwin"}, "only supports Linux"},
		{"distribution", &platform.UnsupportedError{Kind: "distribution", Value: "gentoo"}, "debian, rhel"},
		{"missing sudo", &sysexec.MissingCommandError{Name: "sudo"}, "Re-run as root"},
		{"missing tool", &sysexec.MissingCommandError{Name: "tar"}, "Install tar"},
		{"mismatch", fmt.Errorf("verify: %w", &verify.MismatchError{Filename: "a.tar.xz"}), "Do not use this file"},
		{"no manifest entry", &artifact.NotFoundError{Expected: []string{"a.tar.xz"}, Source: "SHASUMS256.txt"}, "toolstrap node <version>"},
		{"lock", fmt.Errorf("%w (pid 1)", install.ErrLockBusy), "other toolstrap run"},
		{"resolver", &version.ResolverError{Type: version.ErrTypeRateLimit, Source: "github"}, "TOOLSTRAP_GITHUB_TOKEN"},
		{"http 404", &httputil.StatusError{StatusCode: 404, Status: "404 Not Found"}, "MIRROR"},
		{"http 503", &httputil.StatusError{StatusCode: 503, Status: "503"}, "temporarily unavailable"},
		{"command", &sysexec.CommandError{Command: "apt-get install x", ExitCode: 100}, "--debug"},
		{"timeout", fmt.Errorf("fetch: %w", context.DeadlineExceeded), "TOOLSTRAP_API_TIMEOUT"},
		{"permission", fmt.Errorf("create: %w", os.ErrPermission), "--prefix"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := Explain(tt.err, &ErrorContext{ToolName: "node"})
			if !strings.Contains(msg.Suggestion, tt.want) {
				t.Errorf("Suggestion = %q, want it to contain %q", msg.Suggestion, tt.want)
			}
			if !strings.Contains(msg.String(), "Suggestion: ") {
				t.Errorf("String() = %q, missing suggestion", msg.String())
			}
		})
	}
}

func TestExplain_Canceled(t *testing.T) {
	msg := Explain(fmt.Errorf("download: %w", context.Canceled), nil)
	if msg.Suggestion != "" {
		t.Errorf("expected no suggestion for cancellation, got %q", msg.Suggestion)
	}
}

type customErr struct{}

func (customErr) Error() string      { return "custom" }
func (customErr) Suggestion() string { return "do the thing" }

func TestExplain_Suggester(t *testing.T) {
	msg := Explain(fmt.Errorf("wrapped: %w", customErr{}), nil)
	if msg.Suggestion != "do the thing" {
		t.Errorf("Suggestion = %q", msg.Suggestion)
	}
}
