// Package collector groups a frontier of packages by their outgoing
// dependency, so the graph builder can resolve each distinct dependency
// once regardless of how many packages request it. Grounded on jam-core's
// collector.rs.
package collector

import (
	"github.com/jm-dev/jm/internal/dependency"
	"github.com/jm-dev/jm/internal/pkg"
)

// Collect folds packages into a map from each distinct Dependency to the
// list of packages that requested it, in encounter order.
func Collect(packages []pkg.Package) map[dependency.Dependency][]pkg.Package {
	result := make(map[dependency.Dependency][]pkg.Package)

	for _, p := range packages {
		for _, dep := range p.Dependencies() {
			result[dep] = append(result[dep], p)
		}
	}

	return result
}
