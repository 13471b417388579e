// Package metrics exposes jm's install pipeline counters via an
// OpenTelemetry meter backed by a Prometheus exporter, adapted from
// a-h-depot's metrics package.
package metrics

import (
	"context"
	"net/http"

	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/jm-dev/jm/internal/jmerrors"
)

// Metrics holds every counter jm's install pipeline reports.
type Metrics struct {
	PackagesResolvedTotal metric.Int64Counter
	RegistryFetchesTotal  metric.Int64Counter
	TarballBytesTotal     metric.Int64Counter
	CacheHitsTotal        metric.Int64Counter
	CacheMissesTotal      metric.Int64Counter
	LinksCreatedTotal     metric.Int64Counter
}

// New wires a Prometheus exporter into an OpenTelemetry meter provider and
// builds every counter jm's install pipeline reports.
func New() (m Metrics, err error) {
	exporter, err := prometheus.New()
	if err != nil {
		return Metrics{}, jmerrors.Wrap(err, "failed to create prometheus exporter")
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter("github.com/jm-dev/jm")

	if m.PackagesResolvedTotal, err = meter.Int64Counter("packages_resolved_total", metric.WithDescription("Total number of packages resolved from the registry or workspace")); err != nil {
		return Metrics{}, jmerrors.Wrap(err, "failed to create packages_resolved_total counter")
	}
	if m.RegistryFetchesTotal, err = meter.Int64Counter("registry_fetches_total", metric.WithDescription("Total number of package metadata documents fetched from the registry over the network")); err != nil {
		return Metrics{}, jmerrors.Wrap(err, "failed to create registry_fetches_total counter")
	}
	if m.TarballBytesTotal, err = meter.Int64Counter("tarball_bytes_total", metric.WithDescription("Total bytes downloaded across all tarballs")); err != nil {
		return Metrics{}, jmerrors.Wrap(err, "failed to create tarball_bytes_total counter")
	}
	if m.CacheHitsTotal, err = meter.Int64Counter("cache_hits_total", metric.WithDescription("Total cache hits across metadata and tarball caches")); err != nil {
		return Metrics{}, jmerrors.Wrap(err, "failed to create cache_hits_total counter")
	}
	if m.CacheMissesTotal, err = meter.Int64Counter("cache_misses_total", metric.WithDescription("Total cache misses across metadata and tarball caches")); err != nil {
		return Metrics{}, jmerrors.Wrap(err, "failed to create cache_misses_total counter")
	}
	if m.LinksCreatedTotal, err = meter.Int64Counter("links_created_total", metric.WithDescription("Total node_modules symlinks created")); err != nil {
		return Metrics{}, jmerrors.Wrap(err, "failed to create links_created_total counter")
	}

	return m, nil
}

// ListenAndServe serves the Prometheus /metrics endpoint at addr.
func ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}

func (m Metrics) IncrementPackagesResolved(ctx context.Context, source string) {
	if m.PackagesResolvedTotal == nil {
		return
	}
	m.PackagesResolvedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

func (m Metrics) IncrementRegistryFetch(ctx context.Context) {
	if m.RegistryFetchesTotal == nil {
		return
	}
	m.RegistryFetchesTotal.Add(ctx, 1)
}

func (m Metrics) AddTarballBytes(ctx context.Context, bytes int64) {
	if m.TarballBytesTotal == nil {
		return
	}
	m.TarballBytesTotal.Add(ctx, bytes)
}

func (m Metrics) IncrementCacheTier(ctx context.Context, tier string, hit bool) {
	counter := m.CacheMissesTotal
	if hit {
		counter = m.CacheHitsTotal
	}
	if counter == nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", tier)))
}

func (m Metrics) IncrementLinksCreated(ctx context.Context, n int64) {
	if m.LinksCreatedTotal == nil {
		return
	}
	m.LinksCreatedTotal.Add(ctx, n)
}
