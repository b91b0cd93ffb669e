package dist

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReadDirectoryAttachesBinariesToSources(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Sources"), "Package: foo\nVersion: 1.0\n\n")
	writeFile(t, filepath.Join(dir, "Packages_amd64"),
		"Package: foo\nVersion: 1.0\nDepends: libc6 (>= 2.0)\n\n"+
			"Package: libc6\nVersion: 2.1\n\n")

	cat, err := ReadDirectory(dir, []string{"amd64"})
	if err != nil {
		t.Fatal(err)
	}
	src, ok := cat.GetSource("foo")
	if !ok {
		t.Fatal("expected source foo")
	}
	if cat.IsFake("foo") {
		t.Fatal("foo has a Sources stanza, should not be fake")
	}
	if len(src.Packages[0]) != 1 || src.Packages[0][0].Name != "foo" {
		t.Fatalf("expected foo's binary attached, got %+v", src.Packages[0])
	}

	u, err := cat.GetForArch("amd64")
	if err != nil {
		t.Fatal(err)
	}
	if !u.IsPresent("foo") || !u.IsPresent("libc6") {
		t.Fatal("expected both binaries present in the amd64 universe")
	}
}

func TestReadDirectorySynthesizesFakeSourceForOrphanBinary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Packages_amd64"), "Package: orphan\nVersion: 1.0\n\n")

	cat, err := ReadDirectory(dir, []string{"amd64"})
	if err != nil {
		t.Fatal(err)
	}
	src, ok := cat.GetSource("orphan")
	if !ok {
		t.Fatal("expected a synthesized source for the orphan binary")
	}
	if !src.Fake {
		t.Fatal("expected the synthesized source to be marked Fake")
	}
	if len(src.Packages[0]) != 1 || src.Packages[0][0].Name != "orphan" {
		t.Fatalf("expected orphan attached to its fake source, got %+v", src.Packages[0])
	}
}

func TestWriteDirectoryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cat := NewSourceCatalogue([]string{"amd64"})
	cat.putSource(&Source{
		Name:    "foo",
		Version: "1.0",
		Packages: [][]*Package{{
			{
				Name:    "foo",
				Version: "1.0",
				Source:  "foo",
				Depends: [numKinds][]Clause{
					Depends: {{Atom{Package: "libc6", Relation: GreaterEqual, Version: "2.0"}}},
				},
				Conflicts: []Atom{{Package: "bar", Relation: Any}},
				Provides:  []string{"virtual-foo"},
			},
		}},
	})

	if err := WriteDirectory(dir, cat); err != nil {
		t.Fatal(err)
	}

	read, err := ReadDirectory(dir, []string{"amd64"})
	if err != nil {
		t.Fatal(err)
	}
	src, ok := read.GetSource("foo")
	if !ok {
		t.Fatal("expected source foo after round trip")
	}
	if len(src.Packages[0]) != 1 {
		t.Fatalf("expected one binary after round trip, got %+v", src.Packages[0])
	}
	pkg := src.Packages[0][0]
	if len(pkg.Depends[Depends]) != 1 || pkg.Depends[Depends][0][0].Package != "libc6" {
		t.Fatalf("expected Depends to survive round trip, got %+v", pkg.Depends[Depends])
	}
	if len(pkg.Conflicts) != 1 || pkg.Conflicts[0].Package != "bar" {
		t.Fatalf("expected Conflicts to survive round trip, got %+v", pkg.Conflicts)
	}
	if len(pkg.Provides) != 1 || pkg.Provides[0] != "virtual-foo" {
		t.Fatalf("expected Provides to survive round trip, got %+v", pkg.Provides)
	}
}

func TestWriteDirectorySkipsFakeSources(t *testing.T) {
	dir := t.TempDir()
	cat := NewSourceCatalogue([]string{"amd64"})
	cat.putSource(&Source{Name: "orphan", Fake: true, Packages: [][]*Package{{{Name: "orphan", Version: "1.0"}}}})

	if err := WriteDirectory(dir, cat); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "Sources"))
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Fatalf("expected no Sources stanza for a fake source, got %q", data)
	}
	data, err = os.ReadFile(filepath.Join(dir, "Packages_amd64"))
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("expected the orphan binary to still be written to Packages_amd64")
	}
}
