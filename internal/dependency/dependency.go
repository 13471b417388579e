// Package dependency parses a manifest (name, spec) entry into a structured
// Dependency, grounded on the original jam-core dependency.rs. It is
// alias-aware: "npm:<real-name>@<spec>" lets a manifest key diverge from the
// package actually looked up in the registry.
package dependency

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Dependency is a single parsed manifest dependency entry.
type Dependency struct {
	// Name is the key as written in the parent manifest.
	Name string
	// RealName is the package to look up in the registry; differs from
	// Name only for npm: aliases.
	RealName string
	// VersionOrDistTag is either a semver range, an exact version, or a
	// dist-tag such as "latest".
	VersionOrDistTag string
}

const aliasPrefix = "npm:"

// FromEntry parses a manifest (key, value) pair into a Dependency following
// these rules, in order:
//   - If value parses as an npm-compatible semver range, RealName = key.
//   - Else if value starts with "npm:", the remainder is <real-name>@<spec>;
//     a leading "@" on real-name (scoped package) is part of the name, not
//     a separator.
//   - Otherwise (e.g. a dist-tag like "latest"), VersionOrDistTag = value
//     verbatim and RealName = key.
func FromEntry(key, value string) Dependency {
	if _, err := semver.NewConstraint(value); err == nil {
		return Dependency{Name: key, RealName: key, VersionOrDistTag: value}
	}

	if strings.HasPrefix(value, aliasPrefix) {
		return fromAlias(key, strings.TrimPrefix(value, aliasPrefix))
	}

	return Dependency{Name: key, RealName: key, VersionOrDistTag: value}
}

// fromAlias parses the remainder of an "npm:" alias value, i.e. everything
// after the "npm:" prefix. A scoped real name ("@scope/name@spec") has its
// own leading "@" that must not be confused with the "@" separating the
// name from the version spec.
func fromAlias(key, rest string) Dependency {
	if strings.HasPrefix(rest, "@") {
		// "@scope/name@spec": split on the LAST "@".
		idx := strings.LastIndex(rest, "@")
		return Dependency{
			Name:             key,
			RealName:         rest[:idx],
			VersionOrDistTag: rest[idx+1:],
		}
	}

	segments := strings.SplitN(rest, "@", 2)
	if len(segments) != 2 {
		return Dependency{Name: key, RealName: rest, VersionOrDistTag: ""}
	}

	return Dependency{Name: key, RealName: segments[0], VersionOrDistTag: segments[1]}
}
