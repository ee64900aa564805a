package version

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"

	"github.com/tsukumogami/toolstrap/internal/httputil"
)

// ErrorType says why a version lookup failed. The CLI maps NotFound and
// Validation to the version-not-found exit code and the rest to network.
type ErrorType int

const (
	ErrTypeNetwork ErrorType = iota
	ErrTypeNotFound
	ErrTypeParsing
	ErrTypeValidation
	ErrTypeRateLimit
	ErrTypeTimeout
	ErrTypeDNS
	ErrTypeConnection
	ErrTypeTLS
)

var errorTypeNames = map[ErrorType]string{
	ErrTypeNetwork:    "network",
	ErrTypeNotFound:   "not_found",
	ErrTypeParsing:    "parsing",
	ErrTypeValidation: "validation",
	ErrTypeRateLimit:  "rate_limit",
	ErrTypeTimeout:    "timeout",
	ErrTypeDNS:        "dns",
	ErrTypeConnection: "connection",
	ErrTypeTLS:        "tls",
}

func (t ErrorType) String() string {
	if name, ok := errorTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ErrorType(%d)", int(t))
}

var suggestions = map[ErrorType]string{
	ErrTypeNetwork:    "Check your internet connection and try again",
	ErrTypeNotFound:   "Check the version exists upstream, or pass an explicit version",
	ErrTypeValidation: "Pass a plain version number such as 22.12.0",
	ErrTypeRateLimit:  "Wait a few minutes, or set TOOLSTRAP_GITHUB_TOKEN for a higher GitHub API limit",
	ErrTypeTimeout:    "Check your internet connection, or raise TOOLSTRAP_API_TIMEOUT",
	ErrTypeDNS:        "Check your DNS settings and internet connection",
	ErrTypeConnection: "The service may be down or blocked. Check if you can access it in a browser",
	ErrTypeTLS:        "There may be a certificate issue. Check your system time is correct",
}

// ResolverError is returned by every Source and by Resolve.
type ResolverError struct {
	Type    ErrorType
	Source  string // e.g. "nodejs.org"
	Message string
	Err     error
}

func (e *ResolverError) Error() string {
	msg := e.Source + " resolver: " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolverError) Unwrap() error { return e.Err }

// Suggestion is the hint printed under the error line, or "".
func (e *ResolverError) Suggestion() string { return suggestions[e.Type] }

// ClassifyError picks the most specific ErrorType for a lookup failure.
// Unrecognized errors, and nil, are ErrTypeNetwork.
func ClassifyError(err error) ErrorType {
	switch {
	case err == nil:
		return ErrTypeNetwork
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTypeTimeout
	}
	if t, ok := classifyHTTP(err); ok {
		return t
	}
	return classifyTransport(err)
}

func classifyHTTP(err error) (ErrorType, bool) {
	var status *httputil.StatusError
	if errors.As(err, &status) {
		return typeForStatus(status.StatusCode), true
	}

	var rate *github.RateLimitError
	var abuse *github.AbuseRateLimitError
	if errors.As(err, &rate) || errors.As(err, &abuse) {
		return ErrTypeRateLimit, true
	}
	var gh *github.ErrorResponse
	if errors.As(err, &gh) && gh.Response != nil {
		return typeForStatus(gh.Response.StatusCode), true
	}
	return 0, false
}

func typeForStatus(code int) ErrorType {
	switch code {
	case http.StatusNotFound:
		return ErrTypeNotFound
	case http.StatusTooManyRequests:
		return ErrTypeRateLimit
	}
	return ErrTypeNetwork
}

func classifyTransport(err error) ErrorType {
	var dns *net.DNSError
	if errors.As(err, &dns) {
		if dns.IsTimeout {
			return ErrTypeTimeout
		}
		return ErrTypeDNS
	}

	var cert *tls.CertificateVerificationError
	if errors.As(err, &cert) {
		return ErrTypeTLS
	}

	var op *net.OpError
	if errors.As(err, &op) {
		if op.Timeout() {
			return ErrTypeTimeout
		}
		return ErrTypeConnection
	}

	var ue *url.Error
	if errors.As(err, &ue) {
		if ue.Timeout() {
			return ErrTypeTimeout
		}
		msg := ue.Err.Error()
		for _, s := range []string{"certificate", "x509", "tls"} {
			if strings.Contains(msg, s) {
				return ErrTypeTLS
			}
		}
		return classifyTransport(ue.Err)
	}
	return ErrTypeNetwork
}

// WrapNetworkError wraps a failed request to source.
func WrapNetworkError(err error, source, message string) *ResolverError {
	return &ResolverError{Type: ClassifyError(err), Source: source, Message: message, Err: err}
}
