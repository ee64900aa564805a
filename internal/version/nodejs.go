package version

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/net/html"

	"github.com/tsukumogami/toolstrap/internal/config"
	"github.com/tsukumogami/toolstrap/internal/httputil"
)

// NodeDist resolves Node.js releases from the nodejs.org dist tree.
// The lts channel reads index.json; the current channel reads the
// latest/ directory listing.
type NodeDist struct {
	BaseURL string
	Channel string
	Client  *http.Client
}

func (p *NodeDist) Name() string { return "nodejs.org" }

// Latest returns the newest release on the configured channel.
func (p *NodeDist) Latest(ctx context.Context) (Info, error) {
	if p.Channel == config.ChannelCurrent {
		return p.latestListing(ctx)
	}
	return p.latestLTS(ctx)
}

func (p *NodeDist) base() string {
	return strings.TrimRight(p.BaseURL, "/")
}

func (p *NodeDist) latestLTS(ctx context.Context) (Info, error) {
	data, err := httputil.GetBytes(ctx, p.Client, p.base()+"/index.json", 8<<20)
	if err != nil {
		return Info{}, WrapNetworkError(err, p.Name(), "failed to fetch index.json")
	}

	// lts is false or the codename of the LTS line.
	var releases []struct {
		Version string          `json:"version"`
		LTS     json.RawMessage `json:"lts"`
	}
	if err := json.Unmarshal(data, &releases); err != nil {
		return Info{}, &ResolverError{Type: ErrTypeParsing, Source: p.Name(), Message: "failed to decode index.json", Err: err}
	}

	var best *semver.Version
	for _, r := range releases {
		if len(r.LTS) == 0 || bytes.Equal(r.LTS, []byte("false")) || bytes.Equal(r.LTS, []byte("null")) {
			continue
		}
		v, err := semver.StrictNewVersion(NormalizeVersion(r.Version))
		if err != nil {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
		}
	}
	if best == nil {
		return Info{}, &ResolverError{Type: ErrTypeNotFound, Source: p.Name(), Message: "no LTS release in index.json"}
	}
	return Info{Version: best.String()}, nil
}

var nodeArchiveName = regexp.MustCompile(`^node-v([0-9]+\.[0-9]+\.[0-9]+)[-.]`)

func (p *NodeDist) latestListing(ctx context.Context) (Info, error) {
	data, err := httputil.GetBytes(ctx, p.Client, p.base()+"/latest/", 2<<20)
	if err != nil {
		return Info{}, WrapNetworkError(err, p.Name(), "failed to fetch latest/ listing")
	}

	var best *semver.Version
	for _, href := range listingLinks(data) {
		m := nodeArchiveName.FindStringSubmatch(href)
		if m == nil {
			continue
		}
		v, err := semver.StrictNewVersion(m[1])
		if err != nil {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
		}
	}
	if best == nil {
		return Info{}, &ResolverError{Type: ErrTypeParsing, Source: p.Name(), Message: "no release archives in latest/ listing"}
	}
	return Info{Version: best.String()}, nil
}

// listingLinks returns the href of every anchor in an HTML directory
// listing, with any leading path removed.
func listingLinks(page []byte) []string {
	var links []string
	z := html.NewTokenizer(bytes.NewReader(page))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return links
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "href" {
					href := string(val)
					if i := strings.LastIndex(strings.TrimSuffix(href, "/"), "/"); i >= 0 {
						href = href[i+1:]
					}
					links = append(links, href)
				}
				if !more {
					break
				}
			}
		}
	}
}
