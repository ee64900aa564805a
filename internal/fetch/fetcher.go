package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsukumogami/toolstrap/internal/httputil"
	"github.com/tsukumogami/toolstrap/internal/log"
	"github.com/tsukumogami/toolstrap/internal/progress"
)

// Size caps for small downloads. MaxIndexSize is for vendor release
// indexes that list every release ever made and keep growing.
const (
	MaxManifestSize = 4 << 20
	MaxIndexSize    = 64 << 20
)

// Fetcher performs plain sequential GETs. There is no resume: a failed
// download is deleted and the run aborts.
type Fetcher struct {
	Client *http.Client
	// Progress receives a progress bar for archive downloads. Nil
	// disables it.
	Progress io.Writer
	Logger   log.Logger
}

// New returns a Fetcher using client.
func New(client *http.Client, progressOut io.Writer, logger log.Logger) *Fetcher {
	return &Fetcher{Client: client, Progress: progressOut, Logger: log.OrDefault(logger)}
}

// Download streams url to dest and returns the number of bytes written.
// The body is written to dest.part and renamed on success, so dest
// exists only when complete.
func (f *Fetcher) Download(ctx context.Context, url, dest string) (int64, error) {
	if !strings.HasPrefix(url, "https://") {
		return 0, fmt.Errorf("download URL must use HTTPS, got: %s", url)
	}
	logger := log.OrDefault(f.Logger)
	logger.Debug("downloading", "url", url, "dest", dest)

	resp, err := httputil.Get(ctx, f.Client, url)
	if err != nil {
		return 0, fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	// A transport that negotiated gzip itself decodes the body and drops
	// the header, leaving only resp.Uncompressed set.
	if resp.Uncompressed {
		return 0, fmt.Errorf("refusing compressed response from %s (decoded by the HTTP client)", url)
	}
	if enc := resp.Header.Get("Content-Encoding"); enc != "" && enc != "identity" {
		return 0, fmt.Errorf("refusing compressed response from %s (Content-Encoding %s)", url, enc)
	}

	part := dest + ".part"
	out, err := os.OpenFile(part, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", part, err)
	}

	var w io.Writer = out
	var bar *progress.Bar
	if f.Progress != nil {
		bar = progress.NewBar(out, filepath.Base(dest), resp.ContentLength, f.Progress)
		w = bar
	}

	n, err := io.Copy(w, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && resp.ContentLength > 0 && n != resp.ContentLength {
		err = fmt.Errorf("short body: got %d of %d bytes", n, resp.ContentLength)
	}
	if err != nil {
		_ = os.Remove(part)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return n, ctxErr
		}
		return n, fmt.Errorf("failed to download %s: %w", url, err)
	}
	if bar != nil {
		bar.Finish()
	}

	if err := os.Rename(part, dest); err != nil {
		_ = os.Remove(part)
		return n, fmt.Errorf("failed to move %s into place: %w", dest, err)
	}
	logger.Debug("downloaded", "url", url, "bytes", n)
	return n, nil
}

// DownloadSmall downloads a manifest or signature to dest and returns its
// content. Files over MaxManifestSize are rejected.
func (f *Fetcher) DownloadSmall(ctx context.Context, url, dest string) ([]byte, error) {
	return f.DownloadLimited(ctx, url, dest, MaxManifestSize)
}

// DownloadLimited is DownloadSmall with a caller-chosen cap.
func (f *Fetcher) DownloadLimited(ctx context.Context, url, dest string, limit int64) ([]byte, error) {
	if !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("download URL must use HTTPS, got: %s", url)
	}
	data, err := httputil.GetBytes(ctx, f.Client, url, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", url, err)
	}
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return data, nil
}
