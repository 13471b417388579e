package collector

import (
	"testing"

	"github.com/jm-dev/jm/internal/dependency"
	"github.com/jm-dev/jm/internal/pkg"
)

func TestCollectGroupsPackagesByDependency(t *testing.T) {
	dep1 := dependency.Dependency{Name: "dep1", RealName: "dep1", VersionOrDistTag: "latest"}
	dep2 := dependency.Dependency{Name: "dep2", RealName: "dep2", VersionOrDistTag: "latest"}

	p1 := pkg.NewNpmPackage("p1", "1.0.0", map[string]string{"dep1": "latest", "dep2": "latest"}, "shasum", "tarball-url", nil)
	p2 := pkg.NewWorkspacePackage("p2", "1.0.0", map[string]string{"dep2": "latest"}, nil, nil, "")

	result := Collect([]pkg.Package{p1, p2})

	if len(result[dep1]) != 1 || result[dep1][0] != pkg.Package(p1) {
		t.Errorf("dep1 should map only to p1, got %+v", result[dep1])
	}
	if len(result[dep2]) != 2 {
		t.Errorf("dep2 should map to both packages, got %+v", result[dep2])
	}
}
