package version

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"testing"

	"github.com/google/go-github/v57/github"

	"github.com/tsukumogami/toolstrap/internal/httputil"
)

func TestResolverError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ResolverError
		expected string
	}{
		{
			name: "with underlying error",
			err: &ResolverError{
				Type:    ErrTypeNetwork,
				Source:  "nodejs.org",
				Message: "failed to fetch index.json",
				Err:     errors.New("timeout"),
			},
			expected: "nodejs.org resolver: failed to fetch index.json: timeout",
		},
		{
			name: "without underlying error",
			err: &ResolverError{
				Type:    ErrTypeNotFound,
				Source:  "go.dev",
				Message: "no stable release in index",
			},
			expected: "go.dev resolver: no stable release in index",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestResolverError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := &ResolverError{Type: ErrTypeNetwork, Source: "test", Message: "m", Err: underlying}
	if !errors.Is(err, underlying) {
		t.Error("errors.Is should find the wrapped error")
	}
}

func TestResolverError_Suggestion(t *testing.T) {
	for _, typ := range []ErrorType{
		ErrTypeNetwork, ErrTypeNotFound, ErrTypeValidation, ErrTypeRateLimit,
		ErrTypeTimeout, ErrTypeDNS, ErrTypeConnection, ErrTypeTLS,
	} {
		err := &ResolverError{Type: typ}
		if err.Suggestion() == "" {
			t.Errorf("type %d has no suggestion", typ)
		}
	}
	if got := (&ResolverError{Type: ErrTypeParsing}).Suggestion(); got != "" {
		t.Errorf("parsing errors have no suggestion, got %q", got)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrTypeNetwork},
		{"deadline", context.DeadlineExceeded, ErrTypeTimeout},
		{"wrapped deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), ErrTypeTimeout},
		{"http 404", &httputil.StatusError{StatusCode: http.StatusNotFound}, ErrTypeNotFound},
		{"http 429", &httputil.StatusError{StatusCode: http.StatusTooManyRequests}, ErrTypeRateLimit},
		{"http 500", &httputil.StatusError{StatusCode: http.StatusInternalServerError}, ErrTypeNetwork},
		{"github rate limit", &github.RateLimitError{Message: "limit"}, ErrTypeRateLimit},
		{"github 404", &github.ErrorResponse{Response: &http.Response{StatusCode: http.StatusNotFound}}, ErrTypeNotFound},
		{"dns", &net.DNSError{Err: "no such host", Name: "nodejs.org"}, ErrTypeDNS},
		{"dns timeout", &net.DNSError{Err: "timeout", Name: "nodejs.org", IsTimeout: true}, ErrTypeTimeout},
		{"connection refused", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, ErrTypeConnection},
		{"url tls", &url.Error{Op: "Get", URL: "https://x", Err: errors.New("x509: certificate signed by unknown authority")}, ErrTypeTLS},
		{"url wrapping dns", &url.Error{Op: "Get", URL: "https://x", Err: &net.DNSError{Err: "no such host"}}, ErrTypeDNS},
		{"generic", errors.New("boom"), ErrTypeNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWrapNetworkError(t *testing.T) {
	underlying := &httputil.StatusError{URL: "https://go.dev/dl/?mode=json", StatusCode: 404, Status: "404 Not Found"}
	err := WrapNetworkError(underlying, "go.dev", "failed to fetch release index")
	if err.Type != ErrTypeNotFound {
		t.Errorf("Type = %d, want ErrTypeNotFound", err.Type)
	}
	if err.Source != "go.dev" || !errors.Is(err, underlying) {
		t.Errorf("unexpected error %+v", err)
	}
}

func TestErrorTypeString(t *testing.T) {
	if got := ErrTypeRateLimit.String(); got != "rate_limit" {
		t.Errorf("String() = %q", got)
	}
	if got := ErrorType(99).String(); got != "ErrorType(99)" {
		t.Errorf("String() = %q", got)
	}
}
