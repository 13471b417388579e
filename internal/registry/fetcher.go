// Package registry fetches and caches npm registry abbreviated metadata
// documents. Grounded on jam-core's npm.rs Fetcher: an on-disk cache tier
// backed by internal/cache, and an in-memory tier (here: singleflight +
// cache.MemoryStore, the idiomatic Go equivalent of a second cache layer) that
// guarantees at most one in-flight network round-trip per package name.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/singleflight"

	"github.com/jm-dev/jm/internal/cache"
	"github.com/jm-dev/jm/internal/jmerrors"
	"github.com/jm-dev/jm/internal/metrics"
	"github.com/jm-dev/jm/internal/npmmetadata"
	"github.com/jm-dev/jm/internal/pkg"
)

// npmAbbreviatedMetadataAcceptHeaderValue requests the lightweight
// "install-v1" document instead of the full registry document with every
// published version's complete package.json.
const npmAbbreviatedMetadataAcceptHeaderValue = "application/vnd.npm.install-v1+json; q=1.0, application/json; q=0.8, */*"

const (
	fetchMetadataBackoffBase   = 100 * time.Millisecond
	fetchMetadataMaxRetries    = 2
	fetchMetadataJitterFactor  = 0.5
)

// Fetcher retrieves and caches package metadata from an npm-compatible
// registry.
type Fetcher struct {
	log      *slog.Logger
	cache    *cache.Cache
	registry string
	client   *http.Client
	metrics  metrics.Metrics

	group singleflight.Group
	fresh cache.MemoryStore[PackageMetadata]
}

// New constructs a Fetcher backed by the given on-disk cache and pointed at
// registry (e.g. "https://registry.npmjs.org").
func New(log *slog.Logger, c *cache.Cache, registry string, m metrics.Metrics) *Fetcher {
	return &Fetcher{
		log:      log,
		cache:    c,
		registry: registry,
		client:   &http.Client{Timeout: 30 * time.Second},
		metrics:  m,
		fresh:    cache.NewMemoryStore[PackageMetadata](),
	}
}

// GetPackageMetadata returns the metadata document for packageName, serving
// it from the in-memory tier, then the on-disk tier, then the network, in
// that order, and populating each tier it misses on the way down.
func (f *Fetcher) GetPackageMetadata(ctx context.Context, packageName string) (PackageMetadata, error) {
	if metadata, ok := f.fresh.Get(packageName); ok {
		return metadata, nil
	}

	result, err, _ := f.group.Do(packageName, func() (any, error) {
		if metadata, ok := f.fresh.Get(packageName); ok {
			return metadata, nil
		}

		if data, ok, err := f.cache.Get(packageName); err != nil {
			return PackageMetadata{}, err
		} else if ok {
			f.log.Debug("got metadata from cache", slog.String("package", packageName))
			var cached PackageMetadata
			if err := json.Unmarshal(data, &cached); err != nil {
				return PackageMetadata{}, jmerrors.New("Failed to read package metadata from cache")
			}
			f.fresh.Set(packageName, cached)
			return cached, nil
		}

		metadata, err := f.getPackageMetadataFromRegistry(ctx, packageName)
		if err != nil {
			return PackageMetadata{}, err
		}

		encoded, err := json.Marshal(metadata)
		if err != nil {
			return PackageMetadata{}, jmerrors.Wrap(err, "Failed to encode package metadata")
		}
		if _, err := f.cache.Set(packageName, encoded); err != nil {
			return PackageMetadata{}, err
		}

		f.fresh.Set(packageName, metadata)
		return metadata, nil
	})
	if err != nil {
		return PackageMetadata{}, err
	}

	return result.(PackageMetadata), nil
}

func (f *Fetcher) getPackageMetadataFromRegistry(ctx context.Context, packageName string) (PackageMetadata, error) {
	start := time.Now()
	reqURL := fmt.Sprintf("%s/%s", f.registry, url.PathEscape(packageName))

	f.log.Debug("getting package metadata", slog.String("package", packageName))

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = fetchMetadataBackoffBase
	policy.RandomizationFactor = fetchMetadataJitterFactor
	bo := backoff.WithMaxRetries(policy, fetchMetadataMaxRetries)
	bo = backoff.WithContext(bo, ctx)

	var raw npmmetadata.Package
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", npmAbbreviatedMetadataAcceptHeaderValue)

		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("%s: unexpected status %d", packageName, resp.StatusCode)
		}

		return json.NewDecoder(resp.Body).Decode(&raw)
	}

	if err := backoff.Retry(op, bo); err != nil {
		return PackageMetadata{}, jmerrors.Newf("%s: Failed to fetch package metadata with %d retries", packageName, fetchMetadataMaxRetries)
	}

	f.log.Info("got package metadata", slog.String("package", packageName), slog.Duration("elapsed", time.Since(start)))
	f.metrics.IncrementRegistryFetch(ctx)

	return toDomainMetadata(packageName, raw), nil
}

func toDomainMetadata(packageName string, raw npmmetadata.Package) PackageMetadata {
	versions := make(map[string]VersionMetadata, len(raw.Versions))
	for version, v := range raw.Versions {
		versions[version] = VersionMetadata{
			Shasum:       v.Dist.Shasum,
			Tarball:      v.Dist.Tarball,
			Dependencies: v.Dependencies,
			Binaries:     pkg.ExtractBinaries(packageName, v.Bin),
		}
	}

	return PackageMetadata{
		PackageName: packageName,
		DistTags:    raw.DistTags,
		Versions:    versions,
	}
}
