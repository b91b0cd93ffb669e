package dist

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseDependencySimple(t *testing.T) {
	a, err := parseDependency("libc6")
	if err != nil {
		t.Fatal(err)
	}
	if a != (Atom{Package: "libc6", Relation: Any}) {
		t.Fatalf("got %+v", a)
	}
}

func TestParseDependencyVersioned(t *testing.T) {
	a, err := parseDependency("libc6 (>= 2.19)")
	if err != nil {
		t.Fatal(err)
	}
	if a.Package != "libc6" || a.Relation != GreaterEqual || a.Version != "2.19" {
		t.Fatalf("got %+v", a)
	}
}

func TestParseDependencyLegacyOperators(t *testing.T) {
	a, err := parseDependency("foo (< 1.0)")
	if err != nil {
		t.Fatal(err)
	}
	if a.Relation != LessEqual {
		t.Fatalf("legacy '<' should map to LessEqual, got %v", a.Relation)
	}

	b, err := parseDependency("foo (> 1.0)")
	if err != nil {
		t.Fatal(err)
	}
	if b.Relation != GreaterEqual {
		t.Fatalf("legacy '>' should map to GreaterEqual, got %v", b.Relation)
	}
}

func TestParseDependencyBareEqualFollowedByComparator(t *testing.T) {
	a, err := parseDependency("foo (=< 1.0)")
	if err != nil {
		t.Fatal(err)
	}
	if a.Relation != LessEqual {
		t.Fatalf("got %v", a.Relation)
	}
}

func TestParseDependencyUnterminated(t *testing.T) {
	_, err := parseDependency("foo (>= 1.0")
	if err == nil {
		t.Fatal("expected a parse error for an unterminated version")
	}
}

func TestParseClauseAlternatives(t *testing.T) {
	c, err := parseClause("a | b | c (>= 1.0)")
	if err != nil {
		t.Fatal(err)
	}
	if len(c) != 3 || c[2].Version != "1.0" {
		t.Fatalf("got %+v", c)
	}
}

func TestParseDeplistlist(t *testing.T) {
	clauses, err := parseDeplistlist("a, b | c, d (= 1.0)")
	if err != nil {
		t.Fatal(err)
	}
	if len(clauses) != 3 {
		t.Fatalf("expected 3 clauses, got %d", len(clauses))
	}
	if len(clauses[1]) != 2 {
		t.Fatalf("expected clause 2 to have 2 alternatives, got %+v", clauses[1])
	}
}

func TestParseConflictsFlat(t *testing.T) {
	atoms, err := parseConflicts("a, b (<< 2.0)")
	if err != nil {
		t.Fatal(err)
	}
	if len(atoms) != 2 || atoms[1].Relation != LessThan {
		t.Fatalf("got %+v", atoms)
	}
}

func TestReadParagraphsContinuation(t *testing.T) {
	text := "Package: foo\nDescription: short\n long continued line\nVersion: 1.0\n\nPackage: bar\nVersion: 2.0\n"
	paras, err := readParagraphs(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	if len(paras) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(paras))
	}
	desc, _ := paras[0].get("Description")
	if desc != "short\nlong continued line" {
		t.Fatalf("got %q", desc)
	}
	name, _ := paras[1].get("Package")
	if name != "bar" {
		t.Fatalf("got %q", name)
	}
}

type noopInterner struct{}

func (noopInterner) Intern(s string) string { return s }

func TestPackageFromParagraph(t *testing.T) {
	text := "Package: foo\nVersion: 1.0\nSource: bar (1.1)\nDepends: a, b | c\nConflicts: z\nProvides: virt-a, virt-b\n\n"
	paras, err := readParagraphs(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	pkg, err := packageFromParagraph(paras[0], noopInterner{})
	if err != nil {
		t.Fatal(err)
	}
	if pkg.Name != "foo" || pkg.Version != "1.0" {
		t.Fatalf("got %+v", pkg)
	}
	if pkg.Source != "bar" || pkg.SourceVersion != "1.1" {
		t.Fatalf("expected source bar/1.1, got %s/%s", pkg.Source, pkg.SourceVersion)
	}
	if len(pkg.Depends[Depends]) != 2 {
		t.Fatalf("expected 2 depends clauses, got %+v", pkg.Depends[Depends])
	}
	if !reflect.DeepEqual(pkg.Provides, []string{"virt-a", "virt-b"}) {
		t.Fatalf("got %+v", pkg.Provides)
	}
}

func TestPackageFromParagraphPriority(t *testing.T) {
	text := "Package: foo\nVersion: 1.0\nPriority: standard\n\n"
	paras, err := readParagraphs(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	pkg, err := packageFromParagraph(paras[0], noopInterner{})
	if err != nil {
		t.Fatal(err)
	}
	if pkg.Priority != 2 {
		t.Fatalf("expected standard to rank 2, got %d", pkg.Priority)
	}
}

func TestPackageFromParagraphUnknownPriority(t *testing.T) {
	text := "Package: foo\nVersion: 1.0\nPriority: urgent\n\n"
	paras, err := readParagraphs(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := packageFromParagraph(paras[0], noopInterner{}); err == nil {
		t.Fatal("expected an unknown-priority parse failure")
	}
}
