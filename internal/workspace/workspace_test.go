package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jm-dev/jm/internal/manifest"
)

func writePackageJSON(t *testing.T, dir, name, version string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create %s: %v", dir, err)
	}
	content := `{"name":"` + name + `","version":"` + version + `"}`
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write package.json: %v", err)
	}
}

func TestFromConfigFailsOnInvalidPackageJSON(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "packages", "p1")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create %s: %v", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("failed to write package.json: %v", err)
	}

	cfg := &manifest.Config{RootPath: root, Patterns: []string{"**/*"}}

	_, err := FromConfig(cfg)
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestFromConfigFailsWhenNoPackageMatchesGivenGlob(t *testing.T) {
	root := t.TempDir()
	writePackageJSON(t, filepath.Join(root, "packages", "p1"), "p1", "1.0.0")

	cfg := &manifest.Config{RootPath: root, Patterns: []string{"packages/p2"}}

	_, err := FromConfig(cfg)
	want := "No packages were found in workspace"
	if err == nil || err.Error() != want {
		t.Errorf("got %v, want %q", err, want)
	}
}

func TestFromConfigIgnoresInvalidGlobPattern(t *testing.T) {
	root := t.TempDir()
	writePackageJSON(t, filepath.Join(root, "packages", "p1"), "p1", "1.0.0")

	cfg := &manifest.Config{RootPath: root, Patterns: []string{"[", "packages/p1"}}

	ws, err := FromConfig(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ws.Packages) != 1 || ws.Packages[0].Name() != "p1" {
		t.Errorf("got %+v", ws.Packages)
	}
}

func TestFromConfigCollectsMatchingManifestFilesParents(t *testing.T) {
	root := t.TempDir()
	writePackageJSON(t, filepath.Join(root, "packages", "p1"), "p1", "1.0.0")
	writePackageJSON(t, filepath.Join(root, "packages", "p2"), "p2", "1.1.0")

	cfg := &manifest.Config{RootPath: root, Patterns: []string{"**/*"}}

	ws, err := FromConfig(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ws.Packages) != 2 {
		t.Fatalf("got %d packages, want 2", len(ws.Packages))
	}

	names := map[string]bool{}
	for _, p := range ws.Packages {
		names[p.Name()] = true
	}
	if !names["p1"] || !names["p2"] {
		t.Errorf("got %v, want both p1 and p2", names)
	}
}

func TestFromConfigIgnoresPackagesInsideNodeModules(t *testing.T) {
	root := t.TempDir()
	writePackageJSON(t, filepath.Join(root, "packages", "p1"), "p1", "1.0.0")
	writePackageJSON(t, filepath.Join(root, "packages", "node_modules", "p2"), "p2", "1.1.0")

	cfg := &manifest.Config{RootPath: root, Patterns: []string{"**/*"}}

	ws, err := FromConfig(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ws.Packages) != 1 || ws.Packages[0].Name() != "p1" {
		t.Errorf("got %+v, want only p1", ws.Packages)
	}
}
