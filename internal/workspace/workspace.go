// Package workspace discovers a monorepo's member packages by walking
// the root manifest's glob patterns, grounded on jam's workspace.rs.
package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/jm-dev/jm/internal/jmerrors"
	"github.com/jm-dev/jm/internal/manifest"
	"github.com/jm-dev/jm/internal/pkg"
)

// ignorePattern excludes anything nested under a node_modules directory
// from workspace discovery, regardless of what the manifest's own
// patterns match.
const ignorePattern = "**/node_modules/**"

type packageJSON struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	Bin             *pkg.RawBin       `json:"bin"`
}

// Workspace holds every discovered monorepo member package.
type Workspace struct {
	Packages []*pkg.WorkspacePackage
}

// FromConfig globs config.Patterns (each suffixed with "/package.json")
// against config.RootPath, parsing every matched manifest into a
// WorkspacePackage.
func FromConfig(config *manifest.Config) (*Workspace, error) {
	fsys := os.DirFS(config.RootPath)

	seen := make(map[string]bool)
	var packages []*pkg.WorkspacePackage

	for _, pattern := range config.Patterns {
		globPattern := filepath.ToSlash(filepath.Join(pattern, "package.json"))

		matches, err := doublestar.Glob(fsys, globPattern)
		if err != nil {
			// an invalid glob pattern (e.g. an unclosed "[") is ignored, matching the
			// original's behavior of silently skipping patterns GlobWalker
			// can't compile.
			continue
		}

		for _, match := range matches {
			ignored, err := doublestar.Match(ignorePattern, match)
			if err != nil || ignored {
				continue
			}

			if seen[match] {
				continue
			}
			seen[match] = true

			manifestPath := filepath.Join(config.RootPath, filepath.FromSlash(match))
			content, err := os.ReadFile(manifestPath)
			if err != nil {
				return nil, jmerrors.Wrap(err, "failed to read manifest file")
			}

			var parsed packageJSON
			if err := json.Unmarshal(content, &parsed); err != nil || parsed.Name == "" || parsed.Version == "" {
				return nil, jmerrors.Newf("Failed to parse %s", manifestPath)
			}

			basePath := filepath.Dir(manifestPath)
			packages = append(packages, pkg.NewWorkspacePackage(
				parsed.Name,
				parsed.Version,
				parsed.Dependencies,
				parsed.DevDependencies,
				pkg.ExtractBinaries(parsed.Name, parsed.Bin),
				basePath,
			))
		}
	}

	if len(packages) == 0 {
		return nil, jmerrors.New("No packages were found in workspace")
	}

	return &Workspace{Packages: packages}, nil
}

// AsPackages upcasts the discovered workspace members to the generic
// Package interface, for seeding the dependency graph's roots.
func (w *Workspace) AsPackages() []pkg.Package {
	result := make([]pkg.Package, len(w.Packages))
	for i, p := range w.Packages {
		result[i] = p
	}
	return result
}
