// Package graph builds the full dependency graph by repeatedly resolving
// the frontier of newly-discovered packages, grounded on jm-core's
// build_graph (lib.rs). Cycles are closed: an edge is recorded even when
// the target package was already seen.
package graph

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jm-dev/jm/internal/collector"
	"github.com/jm-dev/jm/internal/dependency"
	"github.com/jm-dev/jm/internal/pkg"
)

// concurrency bounds in-flight dependency resolutions per frontier pass,
// matching the original's CONCURRENCY constant.
const concurrency = 50

// Resolver answers "what concrete package satisfies this dependency of
// requester". internal/resolver.Resolver implements this.
type Resolver interface {
	Get(ctx context.Context, requester string, dep dependency.Dependency) (pkg.Package, dependency.Dependency, error)
}

// Graph is the resolved dependency graph: every distinct package keyed by
// pkg.Package.Key(), plus the edges from each package to the keys of the
// packages it depends on.
type Graph struct {
	Nodes map[string]pkg.Package
	Edges map[string][]string
}

func newGraph() *Graph {
	return &Graph{
		Nodes: make(map[string]pkg.Package),
		Edges: make(map[string][]string),
	}
}

// edge pairs a resolved dependency with the key of the package that
// requested it, for sequential application to the graph after a
// concurrent frontier pass.
type edge struct {
	fromKey string
	to      pkg.Package
}

// Build resolves roots and the transitive closure of their dependencies,
// concurrency-bounded per pass.
func Build(ctx context.Context, roots []pkg.Package, resolver Resolver) (*Graph, error) {
	g := newGraph()
	seen := make(map[string]bool, len(roots))

	frontier := make([]pkg.Package, 0, len(roots))
	for _, root := range roots {
		if seen[root.Key()] {
			continue
		}
		seen[root.Key()] = true
		g.Nodes[root.Key()] = root
		frontier = append(frontier, root)
	}

	for len(frontier) > 0 {
		edges, newPackages, err := resolveFrontier(ctx, frontier, resolver)
		if err != nil {
			return nil, err
		}

		for _, e := range edges {
			g.Edges[e.fromKey] = append(g.Edges[e.fromKey], e.to.Key())
		}

		next := make([]pkg.Package, 0, len(newPackages))
		for _, p := range newPackages {
			if seen[p.Key()] {
				continue
			}
			seen[p.Key()] = true
			g.Nodes[p.Key()] = p
			next = append(next, p)
		}
		frontier = next
	}

	return g, nil
}

// resolveFrontier resolves every distinct dependency requested across the
// frontier exactly once, bounded to concurrency in-flight resolutions, and
// returns the edges discovered (one per requester of each dependency) plus
// the package resolved for each dependency (the same package may appear
// more than once, and may already be present in the graph; the caller
// filters). Grouping by distinct
// Dependency before resolving, rather than by (requester, dep) pair, is the
// collector step from jam-core's build_graph: packages sharing the exact
// same dependency spec hit the resolver only once per round.
func resolveFrontier(ctx context.Context, frontier []pkg.Package, resolver Resolver) ([]edge, []pkg.Package, error) {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	var mu sync.Mutex
	var edges []edge
	var resolved []pkg.Package

	for dep, requesters := range collector.Collect(frontier) {
		dep, requesters := dep, requesters
		group.Go(func() error {
			target, _, err := resolver.Get(ctx, requesters[0].Name(), dep)
			if err != nil {
				return err
			}

			mu.Lock()
			for _, requester := range requesters {
				edges = append(edges, edge{fromKey: requester.Key(), to: target})
			}
			resolved = append(resolved, target)
			mu.Unlock()

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, nil, err
	}

	return edges, resolved, nil
}
