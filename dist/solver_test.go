package dist

import (
	"testing"

	"github.com/golang-dep-rework/distcheck/internal/config"
)

func dep(name string) Clause { return Clause{Atom{Package: name, Relation: Any}} }

func newTestUniverse(pkgs ...*Package) *Universe {
	u := NewUniverse("amd64")
	for _, p := range pkgs {
		u.Add(p)
	}
	return u
}

func TestSolverSimpleChain(t *testing.T) {
	a := &Package{Name: "a", Version: "1.0"}
	a.Depends[Depends] = []Clause{dep("b")}
	b := &Package{Name: "b", Version: "1.0"}

	u := newTestUniverse(a, b)
	cfg := config.Default()

	res, err := u.IsInstallable("a", cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res != Yes {
		t.Fatalf("got %v, want Yes", res)
	}

	ca, _ := u.Get("a")
	cb, _ := u.Get("b")
	if ca.Installability != InstallableYes {
		t.Fatal("a should be memoized Yes")
	}
	if ca.Installed != 0 || ca.Conflicted != 0 {
		t.Fatal("counters must be restored to zero")
	}
	if _, ok := cb.MayAffect[ca.id]; !ok {
		t.Fatal("b.mayaffect must contain a")
	}
}

func TestSolverVirtualProvider(t *testing.T) {
	a := &Package{Name: "a", Version: "1.0"}
	a.Depends[Depends] = []Clause{dep("x")}
	b := &Package{Name: "b", Version: "1.0", Provides: []string{"x"}}

	u := newTestUniverse(a, b)
	cfg := config.Default()

	res, err := u.IsInstallable("a", cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res != Yes {
		t.Fatalf("got %v, want Yes", res)
	}

	cb, _ := u.Get("b")
	u.Remove(cb)

	ca, _ := u.Get("a")
	if ca.Installability != Unknown {
		t.Fatal("removing the provider must revert a's memo to Unknown")
	}
}

func TestSolverConflictCycle(t *testing.T) {
	a := &Package{Name: "a", Version: "1.0"}
	a.Depends[Depends] = []Clause{{Atom{Package: "b", Relation: Any}, Atom{Package: "c", Relation: Any}}}
	b := &Package{Name: "b", Version: "1.0", Conflicts: []Atom{{Package: "a", Relation: Any}}}
	c := &Package{Name: "c", Version: "1.0"}
	c.Depends[Depends] = []Clause{dep("a")}

	u := newTestUniverse(a, b, c)
	cfg := config.Default()

	res, err := u.IsInstallable("a", cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res != Yes {
		t.Fatalf("got %v, want Yes (should resolve via c)", res)
	}
}

func TestSolverUnsatisfiable(t *testing.T) {
	a := &Package{Name: "a", Version: "1.0"}
	a.Depends[Depends] = []Clause{dep("z")}

	u := newTestUniverse(a)
	cfg := config.Default()

	res, err := u.IsInstallable("a", cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res != No {
		t.Fatalf("got %v, want No", res)
	}
}

func TestSolverMemoShortCircuits(t *testing.T) {
	a := &Package{Name: "a", Version: "1.0"}
	a.Depends[Depends] = []Clause{dep("b")}
	b := &Package{Name: "b", Version: "1.0"}
	u := newTestUniverse(a, b)
	cfg := config.Default()

	if res, _ := u.IsInstallable("a", cfg, nil); res != Yes {
		t.Fatal("first call should succeed")
	}
	// Second call must short-circuit on the memo without re-searching.
	if res, _ := u.IsInstallable("a", cfg, nil); res != Yes {
		t.Fatal("memoized call should still return Yes")
	}
}

func TestSolverBudgetOverrun(t *testing.T) {
	a := &Package{Name: "a", Version: "1.0"}
	a.Depends[Depends] = []Clause{dep("b")}
	b := &Package{Name: "b", Version: "1.0"}
	u := newTestUniverse(a, b)

	cfg := config.Default()
	cfg.IterationBudget = 1

	res, err := u.IsInstallable("a", cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res != GaveUp {
		t.Fatalf("got %v, want GaveUp", res)
	}

	ca, _ := u.Get("a")
	if ca.Installed != 0 || ca.Conflicted != 0 {
		t.Fatal("budget overrun must still unwind installs")
	}
}

func TestSolverUnknownPackage(t *testing.T) {
	u := newTestUniverse()
	_, err := u.IsInstallable("nope", config.Default(), nil)
	if err == nil {
		t.Fatal("expected an error for an unknown package")
	}
	var de *Error
	if !asError(err, &de) || de.Kind != KindBadArgument {
		t.Fatalf("expected KindBadArgument, got %v", err)
	}
}

func asError(err error, target **Error) bool {
	if e, ok := err.(*Error); ok {
		*target = e
		return true
	}
	return false
}
