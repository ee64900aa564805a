package version

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tsukumogami/toolstrap/internal/httputil"
)

// GoDev finds the latest stable Go toolchain from the go.dev/dl JSON
// index.
type GoDev struct {
	BaseURL string
	Client  *http.Client
}

func (p *GoDev) Name() string { return "go.dev" }

// IndexURL returns the JSON index URL. includeAll lists every release
// rather than only the supported ones.
func (p *GoDev) IndexURL(includeAll bool) string {
	u := strings.TrimRight(p.BaseURL, "/") + "/?mode=json"
	if includeAll {
		u += "&include=all"
	}
	return u
}

// Latest returns the first stable release in the index.
func (p *GoDev) Latest(ctx context.Context) (Info, error) {
	data, err := httputil.GetBytes(ctx, p.Client, p.IndexURL(false), 4<<20)
	if err != nil {
		return Info{}, WrapNetworkError(err, p.Name(), "failed to fetch release index")
	}

	var releases []struct {
		Version string `json:"version"`
		Stable  bool   `json:"stable"`
	}
	if err := json.Unmarshal(data, &releases); err != nil {
		return Info{}, &ResolverError{Type: ErrTypeParsing, Source: p.Name(), Message: "failed to decode release index", Err: err}
	}
	for _, r := range releases {
		if r.Stable && strings.HasPrefix(r.Version, "go") {
			return Info{Version: strings.TrimPrefix(r.Version, "go")}, nil
		}
	}
	return Info{}, &ResolverError{Type: ErrTypeNotFound, Source: p.Name(), Message: "no stable release in index"}
}
