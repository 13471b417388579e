// Package rootlocator walks up from a starting directory to find the
// monorepo root, identified by a jm.json manifest file, grounded on
// jm's root_locator.rs.
package rootlocator

import (
	"os"
	"path/filepath"

	"github.com/jm-dev/jm/internal/jmerrors"
)

// ManifestFileName is the root manifest's expected filename.
const ManifestFileName = "jm.json"

// FindRoot walks up from cwd, returning the first ancestor directory (cwd
// included) containing a jm.json file.
func FindRoot(cwd string) (string, error) {
	for {
		candidate := filepath.Join(cwd, ManifestFileName)
		if _, err := os.Stat(candidate); err == nil {
			return cwd, nil
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			return "", jmerrors.Newf("Couldn't find root directory. Make sure %s exists", ManifestFileName)
		}
		cwd = parent
	}
}
