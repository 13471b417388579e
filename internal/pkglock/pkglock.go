// Package pkglock parses an existing npm package-lock.json (v2/v3) into a
// sorted, deduplicated "name@version" list, adapted from a-h-depot's
// npm/pkglock package. jm never uses this to skip resolution; it only
// backs the read-only "jm install --explain-lock" diagnostic.
package pkglock

import (
	"encoding/json"
	"io"
	"sort"
	"strings"

	"github.com/jm-dev/jm/internal/jmerrors"
)

type npmLock struct {
	Name     string             `json:"name"`
	Version  string             `json:"version"`
	Packages map[string]lockPkg `json:"packages"`
}

type lockPkg struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Resolved string `json:"resolved"`
}

// Parse reads an npm package-lock.json and returns a sorted, deduplicated
// list of "name@version" strings for registry-sourced packages.
func Parse(r io.Reader) ([]string, error) {
	var lockFile npmLock
	if err := json.NewDecoder(r).Decode(&lockFile); err != nil {
		return nil, jmerrors.Wrap(err, "failed to parse lock file")
	}

	unique := make(map[string]struct{})

	for installPath, p := range lockFile.Packages {
		if installPath == "" {
			continue
		}

		if p.Resolved == "" || strings.HasPrefix(p.Resolved, "file:") || strings.HasPrefix(p.Resolved, "git+") {
			continue
		}

		name := p.Name
		if name == "" {
			name = stripNodeModulesPath(installPath)
		}

		if name == "" || p.Version == "" {
			continue
		}

		unique[name+"@"+p.Version] = struct{}{}
	}

	result := make([]string, 0, len(unique))
	for key := range unique {
		result = append(result, key)
	}
	sort.Strings(result)

	return result, nil
}

func stripNodeModulesPath(p string) string {
	const marker = "node_modules/"
	idx := strings.LastIndex(p, marker)
	if idx == -1 {
		return p
	}
	return p[idx+len(marker):]
}

// Diff reports which "name@version" entries from a parsed lockfile are no
// longer present among resolvedKeys (fresh resolution's package set, using
// the same "name@version" shape). Every locked entry missing from
// resolvedKeys is reported; the lockfile's own root entry is already
// dropped by Parse.
func Diff(lockedPackages []string, resolvedKeys map[string]struct{}) (stale []string) {
	for _, locked := range lockedPackages {
		if _, ok := resolvedKeys[locked]; !ok {
			stale = append(stale, locked)
		}
	}
	sort.Strings(stale)
	return stale
}
