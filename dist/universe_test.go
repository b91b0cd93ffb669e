package dist

import "testing"

func TestUniverseAddFirstWriterWins(t *testing.T) {
	u := NewUniverse("amd64")
	p1 := &Package{Name: "a", Version: "1.0"}
	p2 := &Package{Name: "a", Version: "2.0"}

	cp1, added1 := u.Add(p1)
	if !added1 {
		t.Fatal("first add should report added")
	}
	cp2, added2 := u.Add(p2)
	if added2 {
		t.Fatal("second add of the same name must no-op")
	}
	if cp1 != cp2 {
		t.Fatal("second add must return the existing wrapper")
	}
	if cp1.pkg.Version != "1.0" {
		t.Fatal("first-writer-wins: version should still be 1.0")
	}
}

func TestUniverseVirtualIndexConcreteEntry(t *testing.T) {
	u := NewUniverse("amd64")
	p := &Package{Name: "a", Version: "1.0"}
	cp, _ := u.Add(p)

	providers := u.Providers("a")
	if len(providers) != 1 || providers[0].id != cp.id || providers[0].version != "1.0" {
		t.Fatalf("expected concrete self-entry, got %+v", providers)
	}
}

func TestUniverseVirtualIndexProvides(t *testing.T) {
	u := NewUniverse("amd64")
	p := &Package{Name: "b", Version: "1.0", Provides: []string{"x"}}
	cp, _ := u.Add(p)

	providers := u.Providers("x")
	if len(providers) != 1 || providers[0].id != cp.id || providers[0].hasVersion {
		t.Fatalf("expected versionless provides-entry, got %+v", providers)
	}
}

func TestUniverseRemoveInvalidatesMayAffect(t *testing.T) {
	u := NewUniverse("amd64")
	a := &Package{Name: "a", Version: "1.0"}
	b := &Package{Name: "b", Version: "1.0"}
	ca, _ := u.Add(a)
	cb, _ := u.Add(b)

	ca.Installability = InstallableYes
	cb.addMayAffect(ca.id)

	u.Remove(cb)

	if ca.Installability != Unknown {
		t.Fatal("removing b must reset a's memo")
	}
	if _, ok := u.Get("b"); ok {
		t.Fatal("b must be gone from the universe")
	}
	if len(u.Providers("b")) != 0 {
		t.Fatal("b's virtual bucket must be gone")
	}
}

func TestUniverseRemoveFromSharedBucket(t *testing.T) {
	u := NewUniverse("amd64")
	p1 := &Package{Name: "p1", Version: "1.0", Provides: []string{"x"}}
	p2 := &Package{Name: "p2", Version: "1.0", Provides: []string{"x"}}
	cp1, _ := u.Add(p1)
	u.Add(p2)

	u.Remove(cp1)

	providers := u.Providers("x")
	if len(providers) != 1 || providers[0].name != "p2" {
		t.Fatalf("expected only p2 left in bucket x, got %+v", providers)
	}
}

func TestUniverseNamesSorted(t *testing.T) {
	u := NewUniverse("amd64")
	u.Add(&Package{Name: "zeta", Version: "1.0"})
	u.Add(&Package{Name: "alpha", Version: "1.0"})
	names := u.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Fatalf("expected sorted names, got %v", names)
	}
}

func TestUniverseProviderOrderingByPriorityThenName(t *testing.T) {
	u := NewUniverse("amd64")
	u.Add(&Package{Name: "zeta", Version: "1.0", Priority: 1, Provides: []string{"x"}})
	u.Add(&Package{Name: "alpha", Version: "1.0", Priority: 0, Provides: []string{"x"}})
	u.Add(&Package{Name: "beta", Version: "1.0", Priority: 1, Provides: []string{"x"}})

	providers := u.Providers("x")
	if len(providers) != 3 {
		t.Fatalf("expected 3 providers, got %d", len(providers))
	}
	if providers[0].name != "alpha" || providers[1].name != "beta" || providers[2].name != "zeta" {
		t.Fatalf("expected priority-then-name order, got %+v", providers)
	}
}
