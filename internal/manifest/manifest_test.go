package manifest

import "testing"

func TestNewFailsOnInvalidManifestContent(t *testing.T) {
	_, err := New("", []byte("{}"), "http://some/url")
	want := "Failed to parse manifest file, please make sure it is a valid JSON and 'workspaces' array exists"
	if err == nil || err.Error() != want {
		t.Errorf("got %v, want %q", err, want)
	}
}

func TestNewSucceedsOnValidManifestContent(t *testing.T) {
	content := []byte(`{"workspaces":["packages/**","not-in-packages/foo"]}`)

	cfg, err := New("/repo", content, "http://some/url")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.RootPath != "/repo" {
		t.Errorf("got RootPath %q, want /repo", cfg.RootPath)
	}
	if len(cfg.Patterns) != 2 || cfg.Patterns[0] != "packages/**" || cfg.Patterns[1] != "not-in-packages/foo" {
		t.Errorf("got Patterns %v", cfg.Patterns)
	}
	if cfg.Registry != "http://some/url" {
		t.Errorf("got Registry %q", cfg.Registry)
	}
}
