package resolvehelpers

import (
	"testing"

	"github.com/Masterminds/semver/v3"

	"github.com/jm-dev/jm/internal/dependency"
	"github.com/jm-dev/jm/internal/registry"
)

func metadataWithVersions(name string, distTags map[string]string, versions ...string) registry.PackageMetadata {
	vs := make(map[string]registry.VersionMetadata, len(versions))
	for _, v := range versions {
		vs[v] = registry.VersionMetadata{Shasum: "a-shasum", Tarball: "a-tarball"}
	}
	return registry.PackageMetadata{PackageName: name, DistTags: distTags, Versions: vs}
}

func TestExtractDependencyVersionReqDistTagOK(t *testing.T) {
	dep := dependency.Dependency{Name: "dep1", RealName: "dep1", VersionOrDistTag: "beta"}
	metadata := metadataWithVersions("dep1", map[string]string{"beta": "1.0.0"}, "1.0.0")

	constraint, err := ExtractDependencyVersionReq(dep, metadata)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := semver.NewConstraint("1.0.0")
	if constraint.String() != want.String() {
		t.Errorf("got %v, want %v", constraint, want)
	}
}

func TestExtractDependencyVersionReqDistTagNotFound(t *testing.T) {
	dep := dependency.Dependency{Name: "dep1", RealName: "dep1", VersionOrDistTag: "beta"}
	metadata := metadataWithVersions("dep1", map[string]string{"not-beta": "1.0.0"}, "1.0.0")

	_, err := ExtractDependencyVersionReq(dep, metadata)
	want := "Failed to resolve dist tag beta of package dep1"
	if err == nil || err.Error() != want {
		t.Errorf("got %v, want %q", err, want)
	}
}

func TestExtractDependencyVersionReqDistTagPointsToMissingVersion(t *testing.T) {
	dep := dependency.Dependency{Name: "dep1", RealName: "dep1", VersionOrDistTag: "beta"}
	metadata := metadataWithVersions("dep1", map[string]string{"beta": "1.0.0"}, "2.0.0")

	_, err := ExtractDependencyVersionReq(dep, metadata)
	want := "dep1@beta points to version 1.0.0, which does not exist"
	if err == nil || err.Error() != want {
		t.Errorf("got %v, want %q", err, want)
	}
}

func TestVersionMatches(t *testing.T) {
	constraint, _ := semver.NewConstraint("~1.0.0")

	if !VersionMatches(constraint, "1.0.0") {
		t.Error("expected 1.0.0 to match ~1.0.0")
	}
	if VersionMatches(constraint, "2.0.0") {
		t.Error("expected 2.0.0 not to match ~1.0.0")
	}
}

func TestResolveVersionFindsTheBestMatch(t *testing.T) {
	constraint, _ := semver.NewConstraint("~1.0.0")
	metadata := metadataWithVersions("a-package", nil, "1.0.0", "1.0.1", "2.0.0")

	got, err := ResolveVersion("never-mind", constraint, metadata)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.String() != "1.0.1" {
		t.Errorf("got %v, want 1.0.1", got)
	}
}

func TestResolveVersionErrorsWhenNoMatchingVersionsExist(t *testing.T) {
	constraint, _ := semver.NewConstraint("~3.0.0")
	metadata := metadataWithVersions("package", nil, "1.0.0")

	_, err := ResolveVersion("parent-package", constraint, metadata)
	want := "No matching versions for parent-package->package (requested ~3.0.0)"
	if err == nil || err.Error() != want {
		t.Errorf("got %v, want %q", err, want)
	}
}
