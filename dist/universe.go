package dist

import (
	"sort"

	"github.com/golang-dep-rework/distcheck/internal/container"
)

// PackageID is a small per-universe integer identifying a CollectedPackage,
// per design note 9: cyclic dependency/conflict graphs are represented as
// flat indices rather than owning pointers, so mayaffect back-edges and
// dependency targets are ids, never references into another id's storage.
type PackageID int32

// Installability is the solver's monotone memo state for a CollectedPackage
// (spec §3).
type Installability uint8

const (
	Unknown Installability = iota
	InstallableYes
)

// CollectedPackage is a universe-local wrapper over an immutable *Package,
// carrying the solver's transient counters and installability memo
// (spec §3, grounded on original_source/lib/dpkg.c's
// dpkg_collected_package).
type CollectedPackage struct {
	id  PackageID
	pkg *Package

	// Installed and Conflicted are the solver's only transient state
	// (spec §4.3); every public entry point restores both to zero before
	// returning, maintaining invariant I1/I2.
	Installed  int
	Conflicted int

	Installability Installability

	// MayAffect lists the ids of packages whose future removal must
	// invalidate this package's Yes memo (spec §3, I3).
	MayAffect map[PackageID]struct{}
}

// Package returns the immutable fact this wrapper decorates.
func (c *CollectedPackage) Package() *Package { return c.pkg }

// ID returns this package's id within its owning Universe.
func (c *CollectedPackage) ID() PackageID { return c.id }

func (c *CollectedPackage) addMayAffect(id PackageID) {
	if c.MayAffect == nil {
		c.MayAffect = make(map[PackageID]struct{})
	}
	c.MayAffect[id] = struct{}{}
}

// providerEntry is one entry of a VirtualIndex bucket: a concrete provider
// plus the version it contributes (hasVersion false for a provides-only
// contribution, which only matches an Any-relation atom).
type providerEntry struct {
	id         PackageID
	version    string
	hasVersion bool
	priority   int
	name       string
}

// Universe is a per-architecture set of concrete packages plus the
// virtual-name index derived from them (spec §3).
type Universe struct {
	Arch string

	slab  []*CollectedPackage
	names *container.StringTable[PackageID]

	// virtual maps a name to the ordered list of providers registered
	// under it, insertion-ordered by priority then name (spec §3's
	// VirtualIndex). Both the name index and each bucket are built on
	// internal/container, the two intrusive structures the spec names as
	// component B.
	virtual *container.StringTable[*container.List[providerEntry]]
}

// NewUniverse returns an empty universe for the given architecture.
func NewUniverse(arch string) *Universe {
	return &Universe{
		Arch:    arch,
		names:   container.NewStringTable[PackageID](64),
		virtual: container.NewStringTable[*container.List[providerEntry]](64),
	}
}

// Get returns the CollectedPackage named name, if present.
func (u *Universe) Get(name string) (*CollectedPackage, bool) {
	id, ok := u.names.Lookup(name)
	if !ok {
		return nil, false
	}
	return u.slab[id], true
}

// byID returns the CollectedPackage with the given id. Ids are only ever
// handed out by this Universe, so an out-of-range id is a programmer
// error.
func (u *Universe) byID(id PackageID) *CollectedPackage {
	return u.slab[id]
}

// Add wraps pkg in a CollectedPackage and registers it, unless a package
// of the same name already exists (first-writer wins, spec §4.2). Returns
// the live CollectedPackage either way, and whether this call actually
// added it.
func (u *Universe) Add(pkg *Package) (*CollectedPackage, bool) {
	if existing, ok := u.Get(pkg.Name); ok {
		return existing, false
	}

	id := PackageID(len(u.slab))
	cp := &CollectedPackage{id: id, pkg: pkg}
	u.slab = append(u.slab, cp)
	u.names.Add(pkg.Name, id)

	u.insertProvider(pkg.Name, providerEntry{id: id, version: pkg.Version, hasVersion: true, priority: pkg.Priority, name: pkg.Name})
	for _, provided := range pkg.Provides {
		u.insertProvider(provided, providerEntry{id: id, hasVersion: false, priority: pkg.Priority, name: pkg.Name})
	}
	return cp, true
}

func (u *Universe) insertProvider(virtualName string, entry providerEntry) {
	bucket, ok := u.virtual.Lookup(virtualName)
	if !ok {
		bucket = &container.List[providerEntry]{}
		u.virtual.Add(virtualName, bucket)
	}
	entries := bucket.ToSlice()
	entries = append(entries, entry)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority < entries[j].priority
		}
		return entries[i].name < entries[j].name
	})
	*bucket = container.List[providerEntry]{}
	for i := len(entries) - 1; i >= 0; i-- {
		bucket.Push(entries[i])
	}
}

// Remove delists cpkg: every name in its MayAffect set has its memo reset
// to Unknown, then cpkg is removed from the name index and every virtual
// bucket it contributed to (spec §4.2).
func (u *Universe) Remove(cpkg *CollectedPackage) {
	for id := range cpkg.MayAffect {
		u.byID(id).Installability = Unknown
	}

	u.names.Remove(cpkg.pkg.Name)
	u.removeProvider(cpkg.pkg.Name, cpkg.id)
	for _, provided := range cpkg.pkg.Provides {
		u.removeProvider(provided, cpkg.id)
	}
}

func (u *Universe) removeProvider(virtualName string, id PackageID) {
	bucket, ok := u.virtual.Lookup(virtualName)
	if !ok {
		return
	}
	bucket.DeleteMatching(func(e providerEntry) bool { return e.id == id })
	if bucket.Empty() {
		u.virtual.Remove(virtualName)
	}
}

// Providers returns the ordered provider list registered under name,
// empty if none.
func (u *Universe) Providers(name string) []providerEntry {
	bucket, ok := u.virtual.Lookup(name)
	if !ok {
		return nil
	}
	return bucket.ToSlice()
}

// Names returns every package name currently in the universe, sorted
// (Universe API's packages(universe)).
func (u *Universe) Names() []string {
	out := make([]string, 0, u.names.Len())
	u.names.Each(func(k string, _ PackageID) { out = append(out, k) })
	sort.Strings(out)
	return out
}

// Len reports the number of concrete packages currently in the universe.
func (u *Universe) Len() int { return u.names.Len() }
