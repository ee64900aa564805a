package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"

	"github.com/tsukumogami/toolstrap/internal/artifact"
	"github.com/tsukumogami/toolstrap/internal/httputil"
	"github.com/tsukumogami/toolstrap/internal/platform"
	"github.com/tsukumogami/toolstrap/internal/sysexec"
	"github.com/tsukumogami/toolstrap/internal/verify"
	"github.com/tsukumogami/toolstrap/internal/version"
)

// Exit codes for different error types.
// These enable scripts to distinguish between failure modes.
const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0

	// ExitGeneral indicates a general error
	ExitGeneral = 1

	// ExitUsage indicates invalid arguments or usage error
	ExitUsage = 2

	// ExitUnsupported indicates an unsupported platform or a missing
	// required command
	ExitUnsupported = 3

	// ExitVersionNotFound indicates the version or its artifact was not found
	ExitVersionNotFound = 4

	// ExitNetwork indicates a network error
	ExitNetwork = 5

	// ExitInstallFailed indicates an external command failed
	ExitInstallFailed = 6

	// ExitVerifyFailed indicates checksum verification failed
	ExitVerifyFailed = 7

	// ExitInterrupted indicates the run was interrupted by a signal
	ExitInterrupted = 130
)

// exitCodeFor maps an error returned by a command to its exit code.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		usage       *usageError
		unsupported *platform.UnsupportedError
		missing     *sysexec.MissingCommandError
		mismatch    *verify.MismatchError
		badSig      *verify.SignatureError
		notFound    *artifact.NotFoundError
		resolver    *version.ResolverError
		status      *httputil.StatusError
		cmdErr      *sysexec.CommandError
		netErr      net.Error
	)
	switch {
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.As(err, &usage):
		return ExitUsage
	case errors.As(err, &unsupported), errors.As(err, &missing):
		return ExitUnsupported
	case errors.As(err, &mismatch), errors.As(err, &badSig):
		return ExitVerifyFailed
	case errors.As(err, &notFound):
		return ExitVersionNotFound
	case errors.As(err, &resolver):
		if resolver.Type == version.ErrTypeNotFound || resolver.Type == version.ErrTypeValidation {
			return ExitVersionNotFound
		}
		return ExitNetwork
	case errors.As(err, &status):
		if status.StatusCode == http.StatusNotFound {
			return ExitVersionNotFound
		}
		return ExitNetwork
	case errors.As(err, &netErr), errors.Is(err, context.DeadlineExceeded):
		return ExitNetwork
	case errors.As(err, &cmdErr):
		return ExitInstallFailed
	}
	return ExitGeneral
}

// exitWithCode exits with the specified exit code
func exitWithCode(code int) {
	os.Exit(code)
}
