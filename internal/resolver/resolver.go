// Package resolver wraps the registry Fetcher and cache to answer
// "(requester, dependency) -> (concrete package, dependency)", preferring
// workspace members and reusing already-resolved packages whose version
// still satisfies a new request. Grounded on jam/resolver.rs.
package resolver

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jm-dev/jm/internal/dependency"
	"github.com/jm-dev/jm/internal/jmerrors"
	"github.com/jm-dev/jm/internal/metrics"
	"github.com/jm-dev/jm/internal/pkg"
	"github.com/jm-dev/jm/internal/registry"
	"github.com/jm-dev/jm/internal/resolvehelpers"
)

// Fetcher is the subset of registry.Fetcher the resolver depends on.
type Fetcher interface {
	GetPackageMetadata(ctx context.Context, packageName string) (registry.PackageMetadata, error)
}

// Resolver implements the graph builder's PackageResolver collaborator.
type Resolver struct {
	log               *slog.Logger
	fetcher           Fetcher
	workspacePackages []*pkg.WorkspacePackage
	metrics           metrics.Metrics

	mu    sync.Mutex
	cache map[string][]pkg.Package // real package name -> previously resolved packages
}

// New constructs a Resolver. workspacePackages are consulted before any
// network fetch: a dependency whose real name matches a workspace member
// always resolves to that member, regardless of version compatibility
// (spec.md's documented "workspace always wins" invariant).
func New(log *slog.Logger, fetcher Fetcher, workspacePackages []*pkg.WorkspacePackage, m metrics.Metrics) *Resolver {
	return &Resolver{
		log:               log,
		fetcher:           fetcher,
		workspacePackages: workspacePackages,
		metrics:           m,
		cache:             make(map[string][]pkg.Package),
	}
}

// Get resolves dependency as requested by requester (used only for error
// messages), returning the concrete package and the same dependency value
// passed in.
func (r *Resolver) Get(ctx context.Context, requester string, dep dependency.Dependency) (pkg.Package, dependency.Dependency, error) {
	packageName := dep.RealName

	for _, wp := range r.workspacePackages {
		if wp.Name() == packageName {
			r.metrics.IncrementPackagesResolved(ctx, "workspace")
			return wp, dep, nil
		}
	}

	r.mu.Lock()
	cached, ok := r.cache[packageName]
	r.mu.Unlock()

	if ok {
		for _, candidate := range cached {
			matches, err := r.versionMatches(ctx, candidate, dep)
			if err != nil {
				return nil, dep, err
			}
			if matches {
				r.log.Debug("got package from cache", slog.String("package", packageName))
				r.metrics.IncrementPackagesResolved(ctx, "cache")
				return candidate, dep, nil
			}
		}
	}

	resolved, err := r.getDependency(ctx, requester, dep)
	if err != nil {
		return nil, dep, err
	}
	r.log.Debug("got package from remote", slog.String("package", packageName))
	r.metrics.IncrementPackagesResolved(ctx, "registry")

	r.mu.Lock()
	r.cache[packageName] = append(r.cache[packageName], resolved)
	r.mu.Unlock()

	return resolved, dep, nil
}

func (r *Resolver) getDependency(ctx context.Context, requester string, dep dependency.Dependency) (pkg.Package, error) {
	r.log.Info("fetching dependency", slog.String("name", dep.RealName), slog.String("version", dep.VersionOrDistTag))

	metadata, err := r.fetcher.GetPackageMetadata(ctx, dep.RealName)
	if err != nil {
		return nil, err
	}

	requestedVersion, err := resolvehelpers.ExtractDependencyVersionReq(dep, metadata)
	if err != nil {
		return nil, err
	}

	version, err := resolvehelpers.ResolveVersion(requester, requestedVersion, metadata)
	if err != nil {
		return nil, err
	}

	versionMetadata, ok := metadata.Versions[version.String()]
	if !ok {
		return nil, jmerrors.Newf("%s: resolved version %s not present in metadata", dep.RealName, version.String())
	}

	return pkg.NewNpmPackage(
		dep.Name,
		version.String(),
		versionMetadata.Dependencies,
		versionMetadata.Shasum,
		versionMetadata.Tarball,
		versionMetadata.Binaries,
	), nil
}

func (r *Resolver) versionMatches(ctx context.Context, candidate pkg.Package, dep dependency.Dependency) (bool, error) {
	metadata, err := r.fetcher.GetPackageMetadata(ctx, dep.RealName)
	if err != nil {
		return false, err
	}

	requestedVersion, err := resolvehelpers.ExtractDependencyVersionReq(dep, metadata)
	if err != nil {
		return false, err
	}

	return resolvehelpers.VersionMatches(requestedVersion, candidate.Version()), nil
}
