// Package writer materializes a resolved dependency graph onto disk:
// downloading each npm package into the content-addressed store and
// symlinking every package's dependencies into its own node_modules,
// grounded on jam's writer.rs.
package writer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jm-dev/jm/internal/graph"
	"github.com/jm-dev/jm/internal/jmerrors"
	"github.com/jm-dev/jm/internal/metrics"
	"github.com/jm-dev/jm/internal/pkg"
	"github.com/jm-dev/jm/internal/store"
)

// concurrency bounds in-flight package writes, matching the original's
// CONCURRENCY constant.
const concurrency = 20

// Downloader places an NpmPackage's extracted contents at a path.
type Downloader interface {
	DownloadTo(ctx context.Context, p *pkg.NpmPackage, path string) error
}

// Writer walks a resolved Graph from its workspace roots and writes every
// reachable package to disk.
type Writer struct {
	log        *slog.Logger
	store      *store.Store
	downloader Downloader
	metrics    metrics.Metrics
}

// New constructs a Writer.
func New(log *slog.Logger, s *store.Store, downloader Downloader, m metrics.Metrics) *Writer {
	return &Writer{log: log, store: s, downloader: downloader, metrics: m}
}

// writeTask is one node's write-to-disk unit of work, pre-computed by the
// DFS walk so the concurrent phase has no shared traversal state.
type writeTask struct {
	pkg          pkg.Package
	dependencies []pkg.Package
}

// Write downloads and links every package reachable from startingNodes
// (the resolved workspace packages), bounded to concurrency in-flight
// writes.
func (w *Writer) Write(ctx context.Context, g *graph.Graph, startingNodes []pkg.Package) error {
	tasks := w.collectTasks(g, startingNodes)

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	for _, task := range tasks {
		task := task
		group.Go(func() error {
			return w.writePackage(ctx, task.pkg, task.dependencies)
		})
	}

	return group.Wait()
}

// collectTasks performs a DFS from each starting node over g, producing
// one task per visited node (a node reachable from multiple roots is
// visited, and thus written, once per root — matching the original's
// per-root Dfs and relying on writePackage's own idempotency check).
func (w *Writer) collectTasks(g *graph.Graph, startingNodes []pkg.Package) []writeTask {
	var tasks []writeTask

	for _, root := range startingNodes {
		visited := make(map[string]bool)
		stack := []string{root.Key()}

		for len(stack) > 0 {
			key := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if visited[key] {
				continue
			}
			visited[key] = true

			node, ok := g.Nodes[key]
			if !ok {
				continue
			}

			depKeys := g.Edges[key]
			deps := make([]pkg.Package, 0, len(depKeys))
			for _, depKey := range depKeys {
				if dep, ok := g.Nodes[depKey]; ok {
					deps = append(deps, dep)
				}
			}

			tasks = append(tasks, writeTask{pkg: node, dependencies: deps})

			for _, depKey := range depKeys {
				if !visited[depKey] {
					stack = append(stack, depKey)
				}
			}
		}
	}

	return tasks
}

func (w *Writer) writePackage(ctx context.Context, p pkg.Package, dependencies []pkg.Package) error {
	switch concrete := p.(type) {
	case *pkg.NpmPackage:
		return w.writeNpmPackage(ctx, concrete, dependencies)
	case *pkg.WorkspacePackage:
		return w.writeWorkspacePackage(ctx, concrete, dependencies)
	default:
		return jmerrors.Newf("unknown package type for %s", p.Name())
	}
}

func (w *Writer) writeNpmPackage(ctx context.Context, p *pkg.NpmPackage, dependencies []pkg.Package) error {
	rootPath := w.store.RootPath(p)
	codePath := w.store.CodePath(p)

	if _, err := os.Stat(codePath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return jmerrors.Wrap(err, "failed to stat package code path")
	}

	w.log.Debug("downloading package", slog.String("package", p.Name()), slog.String("path", rootPath))

	if err := os.MkdirAll(codePath, 0o755); err != nil {
		return jmerrors.Wrap(err, "failed to create package code directory")
	}

	if err := w.downloader.DownloadTo(ctx, p, codePath); err != nil {
		return err
	}

	for _, dep := range dependencies {
		if err := w.createLink(ctx, rootPath, dep); err != nil {
			return err
		}
	}

	return nil
}

func (w *Writer) writeWorkspacePackage(ctx context.Context, p *pkg.WorkspacePackage, dependencies []pkg.Package) error {
	if err := os.MkdirAll(filepath.Join(p.BasePath, "node_modules"), 0o755); err != nil {
		return jmerrors.Wrap(err, "failed to create node_modules directory")
	}

	for _, dep := range dependencies {
		if err := w.createLink(ctx, p.BasePath, dep); err != nil {
			return err
		}
		if err := w.linkBinaries(ctx, p.BasePath, dep); err != nil {
			return err
		}
	}

	return nil
}

// createLink symlinks toPackage into packageRootPath's node_modules, under
// a path matching toPackage's (possibly scoped) name.
func (w *Writer) createLink(ctx context.Context, packageRootPath string, toPackage pkg.Package) error {
	original := codePathOf(w.store, toPackage)
	link := filepath.Join(append([]string{packageRootPath, "node_modules"}, strings.Split(toPackage.Name(), "/")...)...)

	if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		return jmerrors.Wrap(err, "failed to create node_modules directory")
	}

	err := os.Symlink(original, link)
	if err != nil && !os.IsExist(err) {
		return jmerrors.Newf("Failed to link package %s->%s: %v", link, original, err)
	}

	if err == nil {
		w.metrics.IncrementLinksCreated(ctx, 1)
	}

	return nil
}

// linkBinaries symlinks each of dependency's declared binaries into
// basePath/node_modules/.bin. Only called for a workspace package's direct
// dependencies: npm-to-npm dependencies never get .bin entries, matching
// the deliberate scope limitation spec.md documents.
func (w *Writer) linkBinaries(ctx context.Context, basePath string, dependency pkg.Package) error {
	binaries := dependency.Binaries()
	if len(binaries) == 0 {
		return nil
	}

	binDir := filepath.Join(basePath, "node_modules", ".bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return jmerrors.Wrap(err, "failed to create .bin directory")
	}

	codePath := codePathOf(w.store, dependency)

	for _, bin := range binaries {
		link := filepath.Join(binDir, bin.Name)
		target, err := filepath.Abs(filepath.Join(codePath, bin.RelativePath))
		if err != nil {
			return jmerrors.Wrap(err, "failed to resolve absolute .bin target")
		}

		err = os.Symlink(target, link)
		if err != nil && !os.IsExist(err) {
			return jmerrors.Newf("Failed to link binary %s->%s: %v", link, target, err)
		}

		if err == nil {
			w.metrics.IncrementLinksCreated(ctx, 1)
		}
	}

	return nil
}

// codePathOf returns the filesystem path a dependency's require()-able
// code lives at: the store's code path for an NpmPackage, or the
// workspace member's own base path.
func codePathOf(s *store.Store, p pkg.Package) string {
	switch concrete := p.(type) {
	case *pkg.NpmPackage:
		return s.CodePath(concrete)
	case *pkg.WorkspacePackage:
		return concrete.BasePath
	default:
		return ""
	}
}
