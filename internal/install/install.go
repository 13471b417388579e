// Package install wires every stage of jm's pipeline together — workspace
// discovery, graph resolution, and writing — grounded on jam's lib.rs
// run() and commands/install.rs.
package install

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jm-dev/jm/internal/archiver"
	"github.com/jm-dev/jm/internal/cache"
	"github.com/jm-dev/jm/internal/downloader"
	"github.com/jm-dev/jm/internal/graph"
	"github.com/jm-dev/jm/internal/jmerrors"
	"github.com/jm-dev/jm/internal/loggedstorage"
	"github.com/jm-dev/jm/internal/manifest"
	"github.com/jm-dev/jm/internal/metrics"
	"github.com/jm-dev/jm/internal/pkglock"
	"github.com/jm-dev/jm/internal/registry"
	"github.com/jm-dev/jm/internal/resolver"
	"github.com/jm-dev/jm/internal/rootlocator"
	"github.com/jm-dev/jm/internal/storage"
	"github.com/jm-dev/jm/internal/store"
	"github.com/jm-dev/jm/internal/workspace"
	"github.com/jm-dev/jm/internal/writer"
)

// storageShutdownTimeout bounds how long Run waits for buffered access-log
// events to drain once the pipeline finishes.
const storageShutdownTimeout = 10 * time.Second

// Options configures one install run.
type Options struct {
	Cwd         string
	Registry    string
	CacheDir    string
	DataDir     string
	ExplainLock string // optional path to a package-lock.json to diagnose against

	// StorageType selects the cache backend: "fs" (default) or "s3".
	StorageType string
	S3          storage.S3Config

	Metrics metrics.Metrics
}

// Run performs the full install: locate the monorepo root, discover
// workspace members, resolve the dependency graph, and write it to disk.
func Run(ctx context.Context, log *slog.Logger, opts Options) error {
	rootPath, err := rootlocator.FindRoot(opts.Cwd)
	if err != nil {
		return err
	}
	log.Debug("found root path", slog.String("path", rootPath))

	manifestPath := filepath.Join(rootPath, rootlocator.ManifestFileName)
	manifestContent, err := os.ReadFile(manifestPath)
	if err != nil {
		return jmerrors.Wrap(err, "failed to read root manifest")
	}

	config, err := manifest.New(rootPath, manifestContent, opts.Registry)
	if err != nil {
		return err
	}
	log.Debug("loaded config", slog.Any("patterns", config.Patterns), slog.String("registry", config.Registry))

	ws, err := workspace.FromConfig(config)
	if err != nil {
		return err
	}

	backing, err := newBackingStorage(ctx, opts)
	if err != nil {
		return err
	}
	loggedBacking, shutdownStorage := loggedstorage.New(log, backing, opts.Metrics, "cache")
	defer func() {
		if err := shutdownStorage(storageShutdownTimeout); err != nil {
			log.Warn("storage access log did not drain cleanly", slog.String("error", err.Error()))
		}
	}()

	cacheFactory := cache.NewFactory(loggedBacking)
	fetcher := registry.New(log, cacheFactory.Create("metadata"), config.Registry, opts.Metrics)
	res := resolver.New(log, fetcher, ws.Packages, opts.Metrics)

	roots := ws.AsPackages()
	g, err := graph.Build(ctx, roots, res)
	if err != nil {
		return err
	}

	if opts.ExplainLock != "" {
		if err := explainLock(log, opts.ExplainLock, g); err != nil {
			return err
		}
	}

	s, err := store.New(opts.DataDir)
	if err != nil {
		return err
	}
	arc := archiver.New()
	dl := downloader.New(log, cacheFactory, arc, opts.Metrics)
	w := writer.New(log, s, dl, opts.Metrics)

	return w.Write(ctx, g, roots)
}

// newBackingStorage builds the Storage backend the cache factory sits on
// top of, selected by opts.StorageType so a team can point jm's caches at a
// shared S3 bucket instead of local disk.
func newBackingStorage(ctx context.Context, opts Options) (storage.Storage, error) {
	switch opts.StorageType {
	case "", "fs":
		return storage.NewFileSystem(opts.CacheDir), nil
	case "s3":
		s3Storage, err := storage.NewS3(ctx, opts.S3)
		if err != nil {
			return nil, jmerrors.Wrap(err, "failed to create s3 storage")
		}
		return s3Storage, nil
	default:
		return nil, jmerrors.Newf("unknown storage type %q, expected 'fs' or 's3'", opts.StorageType)
	}
}

// explainLock prints (via log) which locked "name@version" entries are no
// longer reachable by fresh resolution. Read-only: it never influences
// the install graph.
func explainLock(log *slog.Logger, lockPath string, g *graph.Graph) error {
	f, err := os.Open(lockPath)
	if err != nil {
		return jmerrors.Wrap(err, "failed to open lock file")
	}
	defer f.Close()

	locked, err := pkglock.Parse(f)
	if err != nil {
		return err
	}

	resolved := make(map[string]struct{}, len(g.Nodes))
	for _, node := range g.Nodes {
		resolved[node.Name()+"@"+node.Version()] = struct{}{}
	}

	stale := pkglock.Diff(locked, resolved)
	if len(stale) == 0 {
		log.Info("every locked package is still reachable by fresh resolution")
		return nil
	}

	for _, entry := range stale {
		log.Info("locked package no longer resolved", slog.String("package", entry))
	}

	return nil
}
