// Package executor runs the artifact install pipeline for one recipe:
// detect, resolve, locate, fetch, verify, install and link, then update
// shell startup files. Stages run strictly in order and the first fatal
// error aborts the run. The scratch area is removed on every exit path.
package executor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"time"

	"github.com/google/go-github/v57/github"

	"github.com/tsukumogami/toolstrap/internal/artifact"
	"github.com/tsukumogami/toolstrap/internal/config"
	"github.com/tsukumogami/toolstrap/internal/fetch"
	"github.com/tsukumogami/toolstrap/internal/install"
	"github.com/tsukumogami/toolstrap/internal/log"
	"github.com/tsukumogami/toolstrap/internal/platform"
	"github.com/tsukumogami/toolstrap/internal/recipe"
	"github.com/tsukumogami/toolstrap/internal/shellrc"
	"github.com/tsukumogami/toolstrap/internal/sysexec"
	"github.com/tsukumogami/toolstrap/internal/verify"
	"github.com/tsukumogami/toolstrap/internal/version"
)

// Options configures one run.
type Options struct {
	Settings config.Settings
	Recipe   *recipe.Recipe

	// Tag and Libc describe the host.
	Tag  platform.Tag
	Libc string

	Client *http.Client
	GitHub *github.Client
	Runner *sysexec.Runner

	// FS performs install mutations. Nil selects direct or escalated
	// access from the prefix.
	FS install.FS

	// Shell updates ShellFiles. Nil or Settings.SkipShellRC skips the
	// shell step.
	Shell      *shellrc.Mutator
	ShellFiles []string

	// Progress receives the download progress bar. Nil disables it.
	Progress io.Writer
	Logger   log.Logger
	RunID    string

	// Now is used for install records. Defaults to time.Now.
	Now func() time.Time
}

// Report describes a completed run.
type Report struct {
	Recipe    *recipe.Recipe
	Version   version.Resolved
	Artifact  artifact.Descriptor
	Bytes     int64
	SHA256    string
	Verified  bool
	Signed    bool
	Install   install.Result
	Shell     []shellrc.Result
	Escalated bool
	Elapsed   time.Duration
}

// Executor runs the pipeline.
type Executor struct {
	opts   Options
	logger log.Logger
}

// New returns an Executor for opts.
func New(opts Options) *Executor {
	if opts.RunID == "" {
		opts.RunID = fetch.NewRunID()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Runner == nil {
		opts.Runner = sysexec.NewRunner(sysexec.WithLogger(opts.Logger))
	}
	logger := log.OrDefault(opts.Logger).With("tool", opts.Recipe.Name, "run_id", opts.RunID)
	return &Executor{opts: opts, logger: logger}
}

// Run installs the tool.
func (e *Executor) Run(ctx context.Context) (*Report, error) {
	start := e.opts.Now()
	s := e.opts.Settings
	r := e.opts.Recipe

	target, err := r.Target(e.opts.Tag, e.opts.Libc)
	if err != nil {
		return nil, err
	}

	fs := e.opts.FS
	if fs == nil {
		fs = install.ForPath(s.Prefix, s.HomeDir, e.opts.Runner)
	}
	if fs.Escalated() {
		if err := e.opts.Runner.RequireEscalation(); err != nil {
			return nil, err
		}
	}

	lock, err := install.AcquireLock(filepath.Join(s.HomeDir, "install.lock"), r.Name)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			e.logger.Warn("Failed to release install lock", "error", err)
		}
	}()

	env := recipe.Env{Settings: s, Client: e.opts.Client, GitHub: e.opts.GitHub, Target: target}
	resolved, err := version.Resolve(ctx, r.LatestSource(env), r.Request(s), e.logger)
	if err != nil {
		return nil, err
	}
	e.logger.Info("Resolved version", "version", resolved.String(), "source", string(resolved.Source))

	scratch, err := fetch.NewScratch(s.ScratchDir, e.opts.RunID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := scratch.Remove(); err != nil {
			e.logger.Warn("Failed to clean up scratch area", "error", err)
		}
	}()

	fetcher := fetch.New(e.opts.Client, e.opts.Progress, e.logger)
	report := &Report{Recipe: r, Version: resolved, Escalated: fs.Escalated()}

	manifest, err := e.loadManifest(ctx, fetcher, scratch, resolved, report)
	if err != nil {
		return nil, err
	}

	desc, err := artifact.Locate(r.Naming(s, resolved, target), manifest, s.ForceGz)
	if err != nil {
		return nil, err
	}
	report.Artifact = desc
	e.logger.Info("Downloading", "url", desc.URL())

	archivePath := scratch.Path(desc.Filename)
	n, err := fetcher.Download(ctx, desc.URL(), archivePath)
	if err != nil {
		return nil, err
	}
	report.Bytes = n

	if manifest != nil {
		if err := verify.Archive(archivePath, manifest); err != nil {
			return nil, err
		}
		report.Verified = true
		report.SHA256, _ = manifest.Lookup(desc.Filename)
		e.logger.Info("Checksum verified", "file", desc.Filename)
	} else {
		sum, err := verify.FileSHA256(archivePath)
		if err != nil {
			return nil, err
		}
		report.SHA256 = sum
	}

	linker := &install.Linker{FS: fs, Logger: e.logger}
	res, err := linker.Install(ctx, install.Request{
		Layout:          r.Layout(s.Prefix, resolved),
		ArchivePath:     archivePath,
		Format:          desc.Format,
		VersionedName:   desc.VersionedName(),
		StagingDir:      scratch.Path("stage"),
		StripComponents: r.StripComponents,
	})
	if err != nil {
		return nil, err
	}
	report.Install = res

	if e.opts.Shell != nil && !s.SkipShellRC {
		results, err := e.opts.Shell.EnsureAll(ctx, e.opts.ShellFiles, r.ShellLines(s.Prefix))
		report.Shell = results
		if err != nil {
			return nil, err
		}
	}

	e.record(report)
	report.Elapsed = e.opts.Now().Sub(start)
	return report, nil
}

// loadManifest fetches and parses the checksum manifest, checking its
// signature when a key is configured. Without the operator override any
// failure is fatal. With it, an unavailable manifest is skipped with a
// warning and nil is returned; a manifest that does load is still used.
func (e *Executor) loadManifest(ctx context.Context, f *fetch.Fetcher, scratch *fetch.Scratch, v version.Resolved, report *Report) (*artifact.Manifest, error) {
	s := e.opts.Settings
	manifestURL := e.opts.Recipe.ManifestURL(s, v)

	m, err := e.fetchManifest(ctx, f, scratch, v, manifestURL, report)
	if err == nil {
		return m, nil
	}
	if !s.SkipChecksum || ctx.Err() != nil {
		return nil, err
	}
	e.logger.Warn("Checksum verification skipped by operator override", "manifest", manifestURL, "error", err)
	return nil, nil
}

func (e *Executor) fetchManifest(ctx context.Context, f *fetch.Fetcher, scratch *fetch.Scratch, v version.Resolved, manifestURL string, report *Report) (*artifact.Manifest, error) {
	s := e.opts.Settings
	r := e.opts.Recipe

	e.logger.Info("Fetching checksum manifest", "url", manifestURL)
	data, err := f.DownloadLimited(ctx, manifestURL, scratch.Path(manifestFilename(r, manifestURL)), manifestLimit(r.ManifestKind))
	if err != nil {
		return nil, err
	}

	if sigURL := r.SignatureURL(s, v); sigURL != "" && s.ManifestKey != "" {
		key, err := verify.LoadPublicKey(s.ManifestKey)
		if err != nil {
			return nil, err
		}
		sig, err := f.DownloadSmall(ctx, sigURL, scratch.Path(path.Base(sigURL)))
		if err != nil {
			return nil, err
		}
		if err := verify.DetachedSignature(data, sig, key); err != nil {
			return nil, err
		}
		report.Signed = true
		e.logger.Info("Manifest signature verified", "key", verify.FormatFingerprint(key.GetFingerprint()))
	}

	m, err := artifact.Parse(r.ManifestKind, manifestURL, data, v.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to read checksum manifest: %w", err)
	}
	return m, nil
}

func manifestLimit(kind artifact.ManifestKind) int64 {
	if kind == artifact.GoReleaseIndex {
		return fetch.MaxIndexSize
	}
	return fetch.MaxManifestSize
}

// manifestFilename names the local copy of a manifest. Query-string
// index URLs get a fixed name.
func manifestFilename(r *recipe.Recipe, manifestURL string) string {
	if r.ManifestKind == artifact.GoReleaseIndex {
		return "release-index.json"
	}
	if u, err := url.Parse(manifestURL); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return "manifest"
}

func (e *Executor) record(report *Report) {
	s := e.opts.Settings
	rec := install.Record{
		Tool:        report.Recipe.Name,
		Version:     report.Version.Version,
		Build:       report.Version.Build,
		Source:      string(report.Version.Source),
		Prefix:      s.Prefix,
		InstallDir:  report.Install.InstallDir,
		Link:        report.Install.Link,
		Binaries:    report.Install.Linked,
		Artifact:    report.Artifact.URL(),
		SHA256:      report.SHA256,
		Verified:    report.Verified,
		InstalledAt: e.opts.Now().UTC(),
	}
	if err := install.NewStateManager(s.HomeDir).Record(rec); err != nil {
		e.logger.Warn("Failed to write install record", "error", err)
	}
}
