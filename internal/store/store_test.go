package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jm-dev/jm/internal/pkg"
)

func TestNewCreatesStoreDirectory(t *testing.T) {
	dir := t.TempDir()

	if _, err := New(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "store")); err != nil {
		t.Errorf("expected store directory to exist: %v", err)
	}
}

func TestRootPathForPlainPackage(t *testing.T) {
	dir := t.TempDir()
	s, _ := New(dir)

	p := pkg.NewNpmPackage("package_name", "1.0.0", nil, "shasum", "tarball", nil)

	got := s.RootPath(p)
	want := filepath.Join(dir, "store", "package_name@1.0.0")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRootPathForScopedPackage(t *testing.T) {
	dir := t.TempDir()
	s, _ := New(dir)

	p := pkg.NewNpmPackage("@scope/package_name", "1.0.0", nil, "shasum", "tarball", nil)

	got := s.RootPath(p)
	want := filepath.Join(dir, "store", "@scope_package_name@1.0.0")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCodePathNestsScopedPackagesUnderNodeModules(t *testing.T) {
	dir := t.TempDir()
	s, _ := New(dir)

	p := pkg.NewNpmPackage("@scope/p1", "2.0.0", nil, "shasum", "tarball", nil)

	got := s.CodePath(p)
	want := filepath.Join(dir, "store", "@scope_p1@2.0.0", "node_modules", "@scope", "p1")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
