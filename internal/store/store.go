// Package store locates where a resolved NpmPackage lives on disk, grounded
// on jam's store.rs (extended with the root/code path split writer.rs's
// test fixtures require but store.rs itself never defines).
package store

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jm-dev/jm/internal/cache"
	"github.com/jm-dev/jm/internal/jmerrors"
	"github.com/jm-dev/jm/internal/pkg"
)

// Store is the on-disk content-addressed directory tree holding every
// resolved NpmPackage, independent of which workspace package(s) depend
// on it.
type Store struct {
	storePath string
}

// New creates (or reuses) a "store" directory under dataDir.
func New(dataDir string) (*Store, error) {
	storePath := filepath.Join(dataDir, "store")

	if err := os.MkdirAll(storePath, 0o755); err != nil {
		return nil, jmerrors.Wrap(err, "failed to create store directory")
	}

	return &Store{storePath: storePath}, nil
}

// RootPath returns the package's own directory in the store, named
// "<sanitized-name>@<version>".
func (s *Store) RootPath(p *pkg.NpmPackage) string {
	dirName := cache.SanitizeName(p.Name()) + "@" + p.Version()
	return filepath.Join(s.storePath, dirName)
}

// CodePath returns where the package's unpacked files live: inside its own
// node_modules, under a path matching its (possibly scoped) name. Placing
// a package's code one level below its root this way lets Node's upward
// node_modules resolution find sibling dependency symlinks installed
// alongside it under root/node_modules.
func (s *Store) CodePath(p *pkg.NpmPackage) string {
	nameSegments := strings.Split(p.Name(), "/")
	parts := append([]string{s.RootPath(p), "node_modules"}, nameSegments...)
	return filepath.Join(parts...)
}
