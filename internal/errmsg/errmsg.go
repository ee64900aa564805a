// Package errmsg turns fatal errors into the single diagnostic line shown
// to the operator, plus a suggestion when one is known.
package errmsg

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/tsukumogami/toolstrap/internal/artifact"
	"github.com/tsukumogami/toolstrap/internal/httputil"
	"github.com/tsukumogami/toolstrap/internal/install"
	"github.com/tsukumogami/toolstrap/internal/platform"
	"github.com/tsukumogami/toolstrap/internal/sysexec"
	"github.com/tsukumogami/toolstrap/internal/verify"
	"github.com/tsukumogami/toolstrap/internal/version"
)

// ErrorContext provides additional context for error formatting
type ErrorContext struct {
	ToolName string // The tool being installed (for suggestions)
}

// Message is a formatted error: one line of text and an optional
// suggestion.
type Message struct {
	Text       string
	Suggestion string
}

// String joins the text and suggestion for display.
func (m Message) String() string {
	if m.Suggestion == "" {
		return m.Text
	}
	return m.Text + "\n  Suggestion: " + m.Suggestion
}

type suggester interface {
	Suggestion() string
}

// Explain returns the diagnostic for err. The context parameter is
// optional - pass nil for generic suggestions.
func Explain(err error, ctx *ErrorContext) Message {
	if err == nil {
		return Message{}
	}
	msg := Message{Text: singleLine(err.Error())}
	msg.Suggestion = suggest(err, toolName(ctx))
	return msg
}

// Format returns Explain(err, ctx) as a string.
func Format(err error, ctx *ErrorContext) string {
	return Explain(err, ctx).String()
}

func suggest(err error, tool string) string {
	if errors.Is(err, context.Canceled) {
		return ""
	}

	var unsupported *platform.UnsupportedError
	if errors.As(err, &unsupported) {
		switch unsupported.Kind {
		case "kernel":
			return "toolstrap only supports Linux hosts"
		case "distribution":
			return "Supported distribution families: " + strings.Join(platform.Families, ", ")
		}
		return "Prebuilt artifacts are only published for the supported architectures"
	}

	var missing *sysexec.MissingCommandError
	if errors.As(err, &missing) {
		if missing.Name == "sudo" || missing.Name == "doas" {
			return "Re-run as root, install sudo, or pick a prefix you own with --prefix"
		}
		return fmt.Sprintf("Install %s with your package manager and re-run", missing.Name)
	}

	var mismatch *verify.MismatchError
	if errors.As(err, &mismatch) {
		return "Do not use this file. Re-run to download it again; if the mismatch persists, check the mirror"
	}

	var notFound *artifact.NotFoundError
	if errors.As(err, &notFound) {
		if tool != "" {
			return fmt.Sprintf("This version may not be published for this architecture. Try 'toolstrap %s <version>'", tool)
		}
		return "This version may not be published for this architecture"
	}

	if errors.Is(err, install.ErrLockBusy) {
		return "Wait for the other toolstrap run to finish"
	}

	var resolverErr *version.ResolverError
	if errors.As(err, &resolverErr) {
		return resolverErr.Suggestion()
	}

	var status *httputil.StatusError
	if errors.As(err, &status) {
		switch status.StatusCode {
		case http.StatusNotFound:
			return "Check the version number and any TOOLSTRAP_*_MIRROR override"
		case http.StatusForbidden, http.StatusTooManyRequests:
			return "The server is rate limiting requests. Wait a few minutes and try again"
		}
		return "The server may be temporarily unavailable. Try again in a few minutes"
	}

	var cmdErr *sysexec.CommandError
	if errors.As(err, &cmdErr) {
		return "Re-run with --debug to see the full command output"
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "Check your internet connection, or raise TOOLSTRAP_API_TIMEOUT"
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "Check your internet connection, or raise TOOLSTRAP_API_TIMEOUT"
		}
		return "Check your internet connection and proxy settings"
	}

	if errors.Is(err, os.ErrPermission) {
		return "Re-run with sudo, or pick a prefix you own with --prefix"
	}

	var s suggester
	if errors.As(err, &s) {
		return s.Suggestion()
	}
	return ""
}

func toolName(ctx *ErrorContext) string {
	if ctx == nil {
		return ""
	}
	return ctx.ToolName
}

// singleLine collapses multi-line error text so the diagnostic stays on
// one line.
func singleLine(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '\r' })
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return strings.Join(fields, " ")
}
