// Package downloader fetches an npm package's tarball (through the
// on-disk cache, at most once per name@version) and extracts it to a
// target directory, grounded on jam's downloader.rs.
package downloader

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jm-dev/jm/internal/archiver"
	"github.com/jm-dev/jm/internal/cache"
	"github.com/jm-dev/jm/internal/integrity"
	"github.com/jm-dev/jm/internal/jmerrors"
	"github.com/jm-dev/jm/internal/metrics"
	"github.com/jm-dev/jm/internal/pkg"
)

const (
	downloadBackoffBase   = 100 * time.Millisecond
	downloadMaxRetries    = 3
	downloadBackoffJitter = 0.5
	tarballsCacheSegment  = "tarballs"
)

// Downloader places an NpmPackage's extracted contents at path.
type Downloader interface {
	DownloadTo(ctx context.Context, p *pkg.NpmPackage, path string) error
}

// TarDownloader downloads (or reuses a cached copy of) a package's
// tarball and delegates extraction to an Archiver.
type TarDownloader struct {
	log      *slog.Logger
	client   *http.Client
	cache    *cache.Cache
	archiver archiver.Archiver
	metrics  metrics.Metrics
}

// New constructs a TarDownloader. cacheFactory provides the "tarballs"
// cache segment.
func New(log *slog.Logger, cacheFactory *cache.Factory, arc archiver.Archiver, m metrics.Metrics) *TarDownloader {
	return &TarDownloader{
		log:      log,
		client:   http.DefaultClient,
		cache:    cacheFactory.Create(tarballsCacheSegment),
		archiver: arc,
		metrics:  m,
	}
}

// countingReader tracks the number of bytes read through it, so the
// downloader can report total tarball bytes regardless of whether the
// upstream response declares a Content-Length.
type countingReader struct {
	r     io.Reader
	count int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.count += int64(n)
	return n, err
}

// DownloadTo downloads p's tarball (served from cache when available) and
// extracts it into path.
func (d *TarDownloader) DownloadTo(ctx context.Context, p *pkg.NpmPackage, path string) error {
	tarballName := p.Name() + "@" + p.Version()

	r, exists, err := d.cache.Open(ctx, tarballName)
	if err != nil {
		return jmerrors.Wrap(err, "failed to read tarball cache")
	}

	if !exists {
		d.log.Debug("downloading tarball", slog.String("package", p.Name()))
		start := time.Now()

		if err := d.downloadTar(ctx, p, tarballName); err != nil {
			return err
		}

		d.log.Debug("downloaded tarball",
			slog.String("package", p.Name()),
			slog.Duration("elapsed", time.Since(start)),
		)

		r, exists, err = d.cache.Open(ctx, tarballName)
		if err != nil {
			return jmerrors.Wrap(err, "failed to read tarball cache after download")
		}
		if !exists {
			return jmerrors.Newf("tarball for %s disappeared from cache after download", p.Name())
		}
	} else {
		d.log.Debug("tarball found in cache", slog.String("package", p.Name()))
	}
	defer r.Close()

	d.log.Info("extracting package", slog.String("package", p.Name()), slog.String("target", path))
	if err := d.archiver.ExtractTo(r, path); err != nil {
		return jmerrors.Wrap(err, "failed to extract package")
	}

	return nil
}

func (d *TarDownloader) downloadTar(ctx context.Context, p *pkg.NpmPackage, tarballName string) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = downloadBackoffBase
	policy.RandomizationFactor = downloadBackoffJitter

	return backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.TarballURL, nil)
		if err != nil {
			return backoff.Permanent(jmerrors.Wrap(err, "failed to build tarball request"))
		}

		resp, err := d.client.Do(req)
		if err != nil {
			return jmerrors.Wrap(err, "failed to download tarball")
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return jmerrors.Newf("tarball download for %s failed with status %d", p.Name(), resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(jmerrors.Newf("tarball download for %s failed with status %d", p.Name(), resp.StatusCode))
		}

		verifier := integrity.New()
		counted := &countingReader{r: io.TeeReader(resp.Body, verifier)}
		if _, err := d.cache.Store(ctx, tarballName, counted); err != nil {
			return backoff.Permanent(jmerrors.Wrap(err, "failed to write tarball to cache"))
		}

		if err := verifier.Check(p.Shasum); err != nil {
			if delErr := d.cache.Delete(ctx, tarballName); delErr != nil {
				d.log.Warn("failed to evict tarball that failed integrity check",
					slog.String("package", p.Name()), slog.String("error", delErr.Error()))
			}
			return backoff.Permanent(jmerrors.Wrap(err, "tarball for "+p.Name()+" failed integrity check"))
		}

		d.metrics.AddTarballBytes(ctx, counted.count)

		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(policy, downloadMaxRetries), ctx))
}
