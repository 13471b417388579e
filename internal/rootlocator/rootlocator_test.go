package rootlocator

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindRootFailsWhenManifestFileDoesNotExist(t *testing.T) {
	dir := t.TempDir()

	_, err := FindRoot(dir)
	want := "Couldn't find root directory. Make sure jm.json exists"
	if err == nil || err.Error() != want {
		t.Errorf("got %v, want %q", err, want)
	}
}

func TestFindRootFindsManifestFileOnCwd(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ManifestFileName), []byte("{}"), 0o644); err != nil {
		t.Fatalf("failed to write fixture manifest: %v", err)
	}

	got, err := FindRoot(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != dir {
		t.Errorf("got %q, want %q", got, dir)
	}
}

func TestFindRootFindsManifestFileOnParent(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ManifestFileName), []byte("{}"), 0o644); err != nil {
		t.Fatalf("failed to write fixture manifest: %v", err)
	}

	subPath := filepath.Join(dir, "sub1", "sub2", "sub3")
	if err := os.MkdirAll(subPath, 0o755); err != nil {
		t.Fatalf("failed to create sub directories: %v", err)
	}

	got, err := FindRoot(subPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != dir {
		t.Errorf("got %q, want %q", got, dir)
	}
}
