package dist

// SourceNote holds, per architecture, the binaries currently claimed by
// one source within a SuiteNote (spec §3, grounded on
// original_source/lib/dpkg.c's dpkg_source_note / new_source_note).
type SourceNote struct {
	Source   *Source
	Binaries [][]*Package
}

// snapshot deep-copies the per-arch binary lists but shares the
// underlying Source and Package references, per the spec's snapshot
// invariant (§4.4) — mirrors copy_source_note.
func (sn *SourceNote) snapshot() *SourceNote {
	cp := &SourceNote{Source: sn.Source, Binaries: make([][]*Package, len(sn.Binaries))}
	for i, bins := range sn.Binaries {
		cp.Binaries[i] = append([]*Package(nil), bins...)
	}
	return cp
}

// sourceNoteSnapshot is one journal slot: the pre-operation state of the
// named source, or note == nil if the source had no prior note at all
// (save_empty_source_note's case — "the source simply ceases to exist"
// on undo, per spec §4.4).
type sourceNoteSnapshot struct {
	name string
	note *SourceNote
}

// SuiteNote is a staged, mutable view of N per-architecture universes
// plus a source-note table, with LIFO undo (spec §3/§4.4, grounded on
// dpkg_sources_note and its upgrade_source/upgrade_arch/remove_source/
// undo_change/commit_changes operations).
type SuiteNote struct {
	Arches    []string
	Universes []*Universe

	sources map[string]*SourceNote
	journal [][]sourceNoteSnapshot
}

// NewSuiteNote returns an empty staged note over the given architectures.
func NewSuiteNote(arches []string) *SuiteNote {
	us := make([]*Universe, len(arches))
	for i, a := range arches {
		us[i] = NewUniverse(a)
	}
	return &SuiteNote{
		Arches:    append([]string(nil), arches...),
		Universes: us,
		sources:   make(map[string]*SourceNote),
	}
}

// LoadSuiteNote builds a SuiteNote whose source notes and universes are
// populated directly from cat, with an empty undo journal — the equivalent
// of dpkg.c's read_directory followed by one new_source_note per source,
// used to resume editing a suite that already exists on disk rather than
// building one up from nothing.
func LoadSuiteNote(cat *SourceCatalogue) *SuiteNote {
	sn := NewSuiteNote(cat.Arches)
	for _, name := range cat.Sources() {
		src, _ := cat.GetSource(name)
		note := &SourceNote{Source: src, Binaries: make([][]*Package, len(sn.Arches))}
		for i := range sn.Arches {
			if i < len(src.Packages) {
				note.Binaries[i] = append([]*Package(nil), src.Packages[i]...)
				for _, pkg := range note.Binaries[i] {
					sn.Universes[i].Add(pkg)
				}
			}
		}
		sn.sources[name] = note
	}
	return sn
}

func (sn *SuiteNote) archIndex(arch string) int {
	for i, a := range sn.Arches {
		if a == arch {
			return i
		}
	}
	return -1
}

// GetSourceNote returns the note for the named source, if one exists.
func (sn *SuiteNote) GetSourceNote(name string) (*SourceNote, bool) {
	n, ok := sn.sources[name]
	return n, ok
}

// Packages returns every binary name currently held in arch's universe,
// sorted (mirrors Universe.Names for the SuiteNote-level API).
func (sn *SuiteNote) Packages(arch string) ([]string, error) {
	i := sn.archIndex(arch)
	if i < 0 {
		return nil, badArgument("unknown architecture %q", arch)
	}
	return sn.Universes[i].Names(), nil
}

// removeBinariesByArch delists note's binaries for archIdx from that
// arch's universe. When includeArchAll is false, arch-all binaries are
// left exactly where they are (they remain owned by this note), matching
// upgrade_arch's SKIP_ARCHALL behavior in the original.
func (sn *SuiteNote) removeBinariesByArch(note *SourceNote, archIdx int, includeArchAll bool) {
	var leftover []*Package
	for _, pkg := range note.Binaries[archIdx] {
		if !includeArchAll && pkg.ArchAll {
			leftover = append(leftover, pkg)
			continue
		}
		if cp, ok := sn.Universes[archIdx].Get(pkg.Name); ok {
			sn.Universes[archIdx].Remove(cp)
		}
	}
	note.Binaries[archIdx] = leftover
}

// addBinariesByArch adds src's binaries for archIdx into note, stealing
// any binary currently claimed by a different source (snapshotting the
// loser into entry exactly once per operation) and registering each
// addition in that arch's universe.
func (sn *SuiteNote) addBinariesByArch(note *SourceNote, src *Source, archIdx int, includeArchAll bool, entry *[]sourceNoteSnapshot) {
	if archIdx >= len(src.Packages) {
		return
	}
	for _, pkg := range src.Packages[archIdx] {
		if !includeArchAll && pkg.ArchAll {
			continue
		}
		if existing, ok := sn.Universes[archIdx].Get(pkg.Name); ok {
			loserName := existing.pkg.sourceName()
			if loserName != src.Name {
				if loser, ok := sn.sources[loserName]; ok {
					if !snapshotTaken(*entry, loserName) {
						*entry = append(*entry, sourceNoteSnapshot{name: loserName, note: loser.snapshot()})
					}
					sn.Universes[archIdx].Remove(existing)
					loser.Binaries[archIdx] = removeByName(loser.Binaries[archIdx], pkg.Name)
				}
			}
		}
		sn.Universes[archIdx].Add(pkg)
		note.Binaries[archIdx] = append(note.Binaries[archIdx], pkg)
	}
}

func snapshotTaken(entry []sourceNoteSnapshot, name string) bool {
	for _, s := range entry {
		if s.name == name {
			return true
		}
	}
	return false
}

func removeByName(pkgs []*Package, name string) []*Package {
	out := pkgs[:0]
	for _, p := range pkgs {
		if p.Name != name {
			out = append(out, p)
		}
	}
	return out
}

// UpgradeSource replaces whatever note currently exists for src.Name with
// a fresh one built from src, across every architecture (spec §4.4).
func (sn *SuiteNote) UpgradeSource(cat *SourceCatalogue, name string) error {
	src, ok := cat.GetSource(name)
	if !ok {
		return badArgument("unknown source %q", name)
	}

	var entry []sourceNoteSnapshot
	if existing, had := sn.sources[name]; had {
		entry = append(entry, sourceNoteSnapshot{name: name, note: existing.snapshot()})
		for i := range sn.Arches {
			sn.removeBinariesByArch(existing, i, true)
		}
		delete(sn.sources, name)
	} else {
		entry = append(entry, sourceNoteSnapshot{name: name, note: nil})
	}

	fresh := &SourceNote{Source: src, Binaries: make([][]*Package, len(sn.Arches))}
	sn.sources[name] = fresh
	for i := range sn.Arches {
		sn.addBinariesByArch(fresh, src, i, true, &entry)
	}
	sn.journal = append(sn.journal, entry)
	return nil
}

// UpgradeArch is UpgradeSource confined to one architecture; arch-all
// binaries are left with whatever note currently holds them (spec §4.4).
func (sn *SuiteNote) UpgradeArch(cat *SourceCatalogue, name, arch string) error {
	src, ok := cat.GetSource(name)
	if !ok {
		return badArgument("unknown source %q", name)
	}
	archIdx := sn.archIndex(arch)
	if archIdx < 0 {
		return badArgument("unknown architecture %q", arch)
	}
	existing, ok := sn.sources[name]
	if !ok {
		return badArgument("source %q has no existing note to upgrade", name)
	}

	entry := []sourceNoteSnapshot{{name: name, note: existing.snapshot()}}
	sn.removeBinariesByArch(existing, archIdx, false)
	sn.addBinariesByArch(existing, src, archIdx, false, &entry)
	sn.journal = append(sn.journal, entry)
	return nil
}

// RemoveSource discards the note for name entirely, across every
// architecture (arch-all binaries go with it).
func (sn *SuiteNote) RemoveSource(name string) error {
	existing, ok := sn.sources[name]
	if !ok {
		return badArgument("unknown source %q in suite note", name)
	}
	entry := []sourceNoteSnapshot{{name: name, note: existing.snapshot()}}
	for i := range sn.Arches {
		sn.removeBinariesByArch(existing, i, true)
	}
	delete(sn.sources, name)
	sn.journal = append(sn.journal, entry)
	return nil
}

// CanUndo reports whether the journal holds any entry to undo.
func (sn *SuiteNote) CanUndo() bool { return len(sn.journal) > 0 }

// UndoChange pops the most recent journal entry and restores the
// snapshots it holds, strictly LIFO (spec §4.4/§5).
func (sn *SuiteNote) UndoChange() error {
	if !sn.CanUndo() {
		return badArgument("no changes to undo")
	}
	entry := sn.journal[len(sn.journal)-1]
	sn.journal = sn.journal[:len(sn.journal)-1]

	for _, snap := range entry {
		if current, ok := sn.sources[snap.name]; ok {
			for i := range sn.Arches {
				sn.removeBinariesByArch(current, i, true)
			}
			delete(sn.sources, snap.name)
		}
		if snap.note != nil {
			sn.sources[snap.name] = snap.note
			for i := range sn.Arches {
				for _, pkg := range snap.note.Binaries[i] {
					sn.Universes[i].Add(pkg)
				}
			}
		}
	}
	return nil
}

// CommitChanges discards the undo journal.
func (sn *SuiteNote) CommitChanges() {
	sn.journal = nil
}

// WriteNotes writes every architecture's current universe and the
// sources table back out to dir, reusing the catalogue writer's
// directory layout and locking discipline.
func (sn *SuiteNote) WriteNotes(dir string) error {
	cat := NewSourceCatalogue(sn.Arches)
	for name, note := range sn.sources {
		src := &Source{Name: name, Version: note.Source.Version, Fake: note.Source.Fake, Details: note.Source.Details, Packages: note.Binaries}
		cat.putSource(src)
	}
	return WriteDirectory(dir, cat)
}
