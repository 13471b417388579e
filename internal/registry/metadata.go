package registry

import "github.com/jm-dev/jm/internal/pkg"

// VersionMetadata is the domain-shaped per-version metadata used by the
// resolver, derived from the raw npmmetadata.Version wire document.
// Grounded on jam-core's npm.rs VersionMetadata. Binaries are already
// extracted from the raw "bin" field (string-or-object) at fetch time,
// keyed by the registry package name, per jam-common::extract_binaries.
type VersionMetadata struct {
	Shasum       string
	Tarball      string
	Dependencies map[string]string
	Binaries     []pkg.BinEntry
}

// PackageMetadata is the domain-shaped registry document for one package
// name, derived from npmmetadata.Package. Grounded on jam-core's npm.rs
// PackageMetadata.
type PackageMetadata struct {
	PackageName string
	DistTags    map[string]string
	Versions    map[string]VersionMetadata
}
