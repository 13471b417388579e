// Package npmmetadata models the raw npm registry abbreviated-metadata
// document, grounded on jam-npm-metadata's lib.rs and styled after
// a-h-depot's npm/models package.
package npmmetadata

import "github.com/jm-dev/jm/internal/pkg"

// Dist carries the tarball location and integrity shasum for one version.
type Dist struct {
	Shasum  string `json:"shasum"`
	Tarball string `json:"tarball"`
}

// Version is the abbreviated per-version document returned by the npm
// install-v1 metadata endpoint.
type Version struct {
	Bin          *pkg.RawBin       `json:"bin,omitempty"`
	Dist         Dist              `json:"dist"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Package is the top-level abbreviated package document.
type Package struct {
	DistTags map[string]string  `json:"dist-tags"`
	Versions map[string]Version `json:"versions"`
}
