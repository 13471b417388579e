// Package pkg holds the two Package variants (NpmPackage, WorkspacePackage)
// that make up the dependency graph's node values, grounded on jam-core's
// package.rs.
package pkg

import (
	"log/slog"

	"github.com/jm-dev/jm/internal/dependency"
)

// Package is the sum type over NpmPackage and WorkspacePackage. Both
// concrete types implement it.
type Package interface {
	Name() string
	Version() string
	// Dependencies returns the outgoing edge set: for a WorkspacePackage
	// this folds in dev dependencies (dependencies wins on name clash,
	// with a warning); for an NpmPackage it's just Dependencies.
	Dependencies() []dependency.Dependency
	Binaries() []BinEntry
	// Key uniquely identifies this package for the graph builder's
	// seen-set. Two NpmPackages with the same name+version are treated
	// as identical (spec.md §3's "Package identity" note: in practice
	// they won't diverge because version metadata is canonical).
	Key() string
}

// NpmPackage is a concrete package resolved from the registry.
type NpmPackage struct {
	PkgName      string
	PkgVersion   string
	Deps         []dependency.Dependency
	Shasum       string
	TarballURL   string
	BinaryScripts []BinEntry
}

func NewNpmPackage(name, version string, deps map[string]string, shasum, tarballURL string, binaries []BinEntry) *NpmPackage {
	return &NpmPackage{
		PkgName:       name,
		PkgVersion:    version,
		Deps:          toDependencyList(deps),
		Shasum:        shasum,
		TarballURL:    tarballURL,
		BinaryScripts: binaries,
	}
}

func (p *NpmPackage) Name() string                         { return p.PkgName }
func (p *NpmPackage) Version() string                       { return p.PkgVersion }
func (p *NpmPackage) Dependencies() []dependency.Dependency { return p.Deps }
func (p *NpmPackage) Binaries() []BinEntry                  { return p.BinaryScripts }
func (p *NpmPackage) Key() string                           { return "npm:" + p.PkgName + "@" + p.PkgVersion }

// WorkspacePackage is a package discovered on disk as a workspace member.
type WorkspacePackage struct {
	BasePath      string
	PkgName       string
	PkgVersion    string
	Deps          []dependency.Dependency
	DevDeps       []dependency.Dependency
	BinaryScripts []BinEntry
}

func NewWorkspacePackage(name, version string, deps, devDeps map[string]string, binaries []BinEntry, basePath string) *WorkspacePackage {
	return &WorkspacePackage{
		BasePath:      basePath,
		PkgName:       name,
		PkgVersion:    version,
		Deps:          toDependencyList(deps),
		DevDeps:       toDependencyList(devDeps),
		BinaryScripts: binaries,
	}
}

func (p *WorkspacePackage) Name() string    { return p.PkgName }
func (p *WorkspacePackage) Version() string { return p.PkgVersion }
func (p *WorkspacePackage) Binaries() []BinEntry { return p.BinaryScripts }
func (p *WorkspacePackage) Key() string      { return "workspace:" + p.BasePath }

// Dependencies folds Deps and DevDeps, keeping the first occurrence of a
// name and preferring Deps over DevDeps on a clash, warning on duplicates.
func (p *WorkspacePackage) Dependencies() []dependency.Dependency {
	result := make([]dependency.Dependency, 0, len(p.Deps)+len(p.DevDeps))
	seen := make(map[string]bool, len(p.Deps)+len(p.DevDeps))

	for _, d := range append(append([]dependency.Dependency{}, p.Deps...), p.DevDeps...) {
		if seen[d.Name] {
			slog.Warn("duplicate dependency", slog.String("name", d.Name), slog.String("package", p.PkgName))
			continue
		}
		seen[d.Name] = true
		result = append(result, d)
	}

	return result
}

func toDependencyList(deps map[string]string) []dependency.Dependency {
	if len(deps) == 0 {
		return nil
	}
	result := make([]dependency.Dependency, 0, len(deps))
	for key, value := range deps {
		result = append(result, dependency.FromEntry(key, value))
	}
	return result
}
