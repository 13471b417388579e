package dependency

import "testing"

func TestFromEntryWithSemverVersion(t *testing.T) {
	got := FromEntry("lodash", "~1.0.0")
	want := Dependency{Name: "lodash", RealName: "lodash", VersionOrDistTag: "~1.0.0"}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestFromEntryWithDistTagVersion(t *testing.T) {
	got := FromEntry("lodash", "latest")
	want := Dependency{Name: "lodash", RealName: "lodash", VersionOrDistTag: "latest"}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestFromEntryWithAliasVersion(t *testing.T) {
	got := FromEntry("lol", "npm:lodash@latest")
	want := Dependency{Name: "lol", RealName: "lodash", VersionOrDistTag: "latest"}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestFromEntryWithScopedAliasVersion(t *testing.T) {
	got := FromEntry("lol-types", "npm:@types/lodash@latest")
	want := Dependency{Name: "lol-types", RealName: "@types/lodash", VersionOrDistTag: "latest"}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestFromEntryWithScopedAliasSemverVersion(t *testing.T) {
	got := FromEntry("lol-types", "npm:@types/lodash@^4.0.0")
	want := Dependency{Name: "lol-types", RealName: "@types/lodash", VersionOrDistTag: "^4.0.0"}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}
