// Package resolvehelpers implements the pure version-matching logic shared
// by the resolver, grounded on jm-core's resolver_helpers.rs.
package resolvehelpers

import (
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/jm-dev/jm/internal/dependency"
	"github.com/jm-dev/jm/internal/jmerrors"
	"github.com/jm-dev/jm/internal/registry"
)

// ExtractDependencyVersionReq turns a Dependency's VersionOrDistTag into a
// semver constraint, resolving a dist-tag (e.g. "latest") against the
// package metadata's dist-tags map first.
func ExtractDependencyVersionReq(dep dependency.Dependency, metadata registry.PackageMetadata) (*semver.Constraints, error) {
	if constraint, err := semver.NewConstraint(dep.VersionOrDistTag); err == nil {
		return constraint, nil
	}

	version, ok := metadata.DistTags[dep.VersionOrDistTag]
	if !ok {
		return nil, jmerrors.Newf("Failed to resolve dist tag %s of package %s", dep.VersionOrDistTag, dep.RealName)
	}

	if _, ok := metadata.Versions[version]; !ok {
		return nil, jmerrors.Newf("%s@%s points to version %s, which does not exist", dep.RealName, dep.VersionOrDistTag, version)
	}

	return semver.NewConstraint(version)
}

// VersionMatches reports whether version satisfies requestedVersion.
func VersionMatches(requestedVersion *semver.Constraints, version string) bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return requestedVersion.Check(v)
}

// ResolveVersion picks the greatest version in metadata.Versions that
// satisfies requestedVersion. parent names the requesting package, used
// only for the error message.
func ResolveVersion(parent string, requestedVersion *semver.Constraints, metadata registry.PackageMetadata) (*semver.Version, error) {
	var matching []*semver.Version

	for v := range metadata.Versions {
		if VersionMatches(requestedVersion, v) {
			version, err := semver.NewVersion(v)
			if err != nil {
				continue
			}
			matching = append(matching, version)
		}
	}

	if len(matching) == 0 {
		return nil, jmerrors.Newf("No matching versions for %s->%s (requested %s)", parent, metadata.PackageName, requestedVersion.String())
	}

	sort.Sort(semver.Collection(matching))

	return matching[len(matching)-1], nil
}
