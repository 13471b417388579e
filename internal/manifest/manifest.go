// Package manifest parses the root jm.json manifest, grounded on jam's
// config.rs.
package manifest

import (
	"encoding/json"

	"github.com/jm-dev/jm/internal/jmerrors"
)

type rawManifest struct {
	Workspaces []string `json:"workspaces"`
}

// Config is the parsed root manifest plus the context it was loaded in.
type Config struct {
	RootPath string
	Patterns []string
	Registry string
}

// New parses manifestFileContent (the root jm.json's raw bytes) into a
// Config rooted at rootPath, talking to registry.
func New(rootPath string, manifestFileContent []byte, registry string) (*Config, error) {
	invalid := jmerrors.New("Failed to parse manifest file, please make sure it is a valid JSON and 'workspaces' array exists")

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(manifestFileContent, &fields); err != nil {
		return nil, invalid
	}
	if _, ok := fields["workspaces"]; !ok {
		return nil, invalid
	}

	var raw rawManifest
	if err := json.Unmarshal(manifestFileContent, &raw); err != nil {
		return nil, invalid
	}

	return &Config{
		RootPath: rootPath,
		Patterns: raw.Workspaces,
		Registry: registry,
	}, nil
}
