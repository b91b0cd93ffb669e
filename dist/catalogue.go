package dist

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	radix "github.com/armon/go-radix"
	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
	flock "github.com/theckman/go-flock"
	shutil "github.com/termie/go-shutil"

	"github.com/golang-dep-rework/distcheck/internal/intern"
)

// SourceCatalogue is the shared, per-run collection of source packages
// and the binaries they build across every architecture (spec §3's
// SourceCatalogue). It owns every Package and Source it parses; nothing
// downstream ever copies them.
type SourceCatalogue struct {
	Arches []string

	// sources indexes by name over a radix tree so Sources() can return
	// a lexically sorted walk in O(n) without an extra sort pass, the
	// way the catalogue's "packages(universe) -> sorted list of names"
	// external-interface contract wants for Universe too.
	sources *radix.Tree

	in *intern.Interner
}

// NewSourceCatalogue returns an empty catalogue for the given
// architectures.
func NewSourceCatalogue(arches []string) *SourceCatalogue {
	return &SourceCatalogue{
		Arches:  append([]string(nil), arches...),
		sources: radix.New(),
		in:      intern.New(),
	}
}

func (c *SourceCatalogue) archIndex(arch string) int {
	for i, a := range c.Arches {
		if a == arch {
			return i
		}
	}
	return -1
}

// GetSource returns the named source, if present.
func (c *SourceCatalogue) GetSource(name string) (*Source, bool) {
	v, ok := c.sources.Get(name)
	if !ok {
		return nil, false
	}
	return v.(*Source), true
}

// Sources returns every source name, lexically sorted.
func (c *SourceCatalogue) Sources() []string {
	var out []string
	c.sources.Walk(func(k string, _ interface{}) bool {
		out = append(out, k)
		return false
	})
	return out
}

func (c *SourceCatalogue) putSource(s *Source) {
	c.sources.Insert(s.Name, s)
}

// IsFake reports whether the named source was synthesized rather than
// read from a Sources stanza.
func (c *SourceCatalogue) IsFake(name string) bool {
	s, ok := c.GetSource(name)
	return ok && s.Fake
}

// GetForArch builds a fresh Universe from every source's binaries for
// arch (spec §4.2's get_for_arch).
func (c *SourceCatalogue) GetForArch(arch string) (*Universe, error) {
	idx := c.archIndex(arch)
	if idx < 0 {
		return nil, badArgument("unknown architecture %q", arch)
	}
	u := NewUniverse(arch)
	c.sources.Walk(func(_ string, v interface{}) bool {
		src := v.(*Source)
		if idx < len(src.Packages) {
			for _, p := range src.Packages[idx] {
				u.Add(p)
			}
		}
		return false
	})
	return u, nil
}

// ReadDirectory reads dir/Sources and dir/Packages_<arch> for every arch,
// populating a fresh catalogue. It walks dir with karrick/godirwalk to see
// which of those files exist; only dir/Sources and dir/Packages_<arch>
// themselves are read, and files in subdirectories of dir are not.
func ReadDirectory(dir string, arches []string) (*SourceCatalogue, error) {
	cat := NewSourceCatalogue(arches)

	present := make(map[string]bool)
	err := godirwalk.Walk(dir, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			present[filepath.Base(path)] = true
			return nil
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walking %s", dir)
	}

	binariesBySource := make(map[string][][]*Package)

	if present["Sources"] {
		if err := readSourcesFile(cat, filepath.Join(dir, "Sources")); err != nil {
			return nil, err
		}
	}

	for i, arch := range arches {
		name := "Packages_" + arch
		if !present[name] {
			continue
		}
		if err := readPackagesFile(cat, filepath.Join(dir, name), i, binariesBySource); err != nil {
			return nil, err
		}
	}

	for name, perArch := range binariesBySource {
		src, ok := cat.GetSource(name)
		if !ok {
			src = &Source{Name: name, Fake: true, Packages: make([][]*Package, len(arches))}
			cat.putSource(src)
		}
		for i, bins := range perArch {
			src.Packages[i] = append(src.Packages[i], bins...)
		}
	}
	return cat, nil
}

func readSourcesFile(cat *SourceCatalogue, path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	paras, err := readParagraphs(f)
	if err != nil {
		return errors.Wrapf(err, "parsing %s", path)
	}
	for _, p := range paras {
		name, ok := p.get("Package")
		if !ok {
			return parseFailure("%s: source stanza missing Package field", path)
		}
		version, _ := p.get("Version")
		src := &Source{
			Name:     cat.in.Intern(name),
			Version:  cat.in.Intern(version),
			Details:  passthrough(p),
			Packages: make([][]*Package, len(cat.Arches)),
		}
		cat.putSource(src)
	}
	return nil
}

func readPackagesFile(cat *SourceCatalogue, path string, archIdx int, binariesBySource map[string][][]*Package) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	paras, err := readParagraphs(f)
	if err != nil {
		return errors.Wrapf(err, "parsing %s", path)
	}
	for _, p := range paras {
		pkg, err := packageFromParagraph(p, cat.in)
		if err != nil {
			return errors.Wrapf(err, "%s", path)
		}
		srcName := pkg.sourceName()
		if src, ok := cat.GetSource(srcName); ok {
			// Binary's source exists: attach directly.
			src.Packages[archIdx] = append(src.Packages[archIdx], pkg)
			continue
		}
		perArch := binariesBySource[srcName]
		if perArch == nil {
			perArch = make([][]*Package, len(cat.Arches))
			binariesBySource[srcName] = perArch
		}
		perArch[archIdx] = append(perArch[archIdx], pkg)
	}
	return nil
}

// WriteDirectory writes dir/Sources and dir/Packages_<arch> back out,
// preserving the unknown fields of every non-fake paragraph. Each file is
// written to a temporary file first; the old file is then removed and the
// temporary one copied over its name with termie/go-shutil's CopyFile. The
// whole write holds an advisory lock on the directory (theckman/go-flock),
// which keeps a second WriteDirectory out; ReadDirectory does not take the
// lock, and the copy is not atomic, so a concurrent reader can see a file
// missing or partly written.
func WriteDirectory(dir string, cat *SourceCatalogue) error {
	lockPath := filepath.Join(dir, ".distcheck.lock")
	lk := flock.NewFlock(lockPath)
	locked, err := lk.TryLock()
	if err != nil {
		return errors.Wrapf(err, "locking %s", dir)
	}
	if !locked {
		return errors.Errorf("catalogue directory %s is locked by another writer", dir)
	}
	defer lk.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}

	if err := writeSourcesFile(dir, cat); err != nil {
		return err
	}
	for i, arch := range cat.Arches {
		if err := writePackagesFile(dir, cat, i, arch); err != nil {
			return err
		}
	}
	return nil
}

func writeAtomic(dir, name string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "creating temp file for %s", name)
	}
	tmpPath := tmp.Name()
	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "closing %s", tmpPath)
	}
	final := filepath.Join(dir, name)
	os.Remove(final)
	if err := shutil.CopyFile(tmpPath, final, false); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "installing %s", final)
	}
	return os.Remove(tmpPath)
}

func writeSourcesFile(dir string, cat *SourceCatalogue) error {
	return writeAtomic(dir, "Sources", func(f *os.File) error {
		names := cat.Sources()
		sort.Strings(names)
		for _, name := range names {
			src, _ := cat.GetSource(name)
			if src.Fake {
				continue
			}
			p := sourceToParagraph(src)
			if err := writeParagraph(f, p); err != nil {
				return err
			}
		}
		return nil
	})
}

func writePackagesFile(dir string, cat *SourceCatalogue, archIdx int, arch string) error {
	return writeAtomic(dir, "Packages_"+arch, func(f *os.File) error {
		names := cat.Sources()
		sort.Strings(names)
		for _, name := range names {
			src, _ := cat.GetSource(name)
			if archIdx >= len(src.Packages) {
				continue
			}
			bins := append([]*Package(nil), src.Packages[archIdx]...)
			sort.Slice(bins, func(i, j int) bool { return bins[i].Name < bins[j].Name })
			for _, pkg := range bins {
				p := packageToParagraph(pkg)
				if err := writeParagraph(f, p); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func sourceToParagraph(s *Source) *paragraph {
	p := &paragraph{fields: make(map[string]string)}
	p.set("Package", s.Name)
	p.set("Version", s.Version)
	for k, v := range s.Details {
		p.set(k, v)
	}
	return p
}

func packageToParagraph(pkg *Package) *paragraph {
	p := &paragraph{fields: make(map[string]string)}
	p.set("Package", pkg.Name)
	p.set("Version", pkg.Version)
	if pkg.Priority >= 0 && pkg.Priority < len(priorities) {
		p.set("Priority", priorities[pkg.Priority])
	}
	if pkg.Source != "" && pkg.Source != pkg.Name {
		if pkg.SourceVersion != "" && pkg.SourceVersion != pkg.Version {
			p.set("Source", fmt.Sprintf("%s (%s)", pkg.Source, pkg.SourceVersion))
		} else {
			p.set("Source", pkg.Source)
		}
	}
	if pkg.ArchAll {
		p.set("Architecture", "all")
	}
	if len(pkg.Depends[PreDepends]) > 0 {
		p.set("Pre-Depends", joinDeplistlist(pkg.Depends[PreDepends]))
	}
	if len(pkg.Depends[Depends]) > 0 {
		p.set("Depends", joinDeplistlist(pkg.Depends[Depends]))
	}
	if len(pkg.Depends[Recommends]) > 0 {
		p.set("Recommends", joinDeplistlist(pkg.Depends[Recommends]))
	}
	if len(pkg.Depends[Suggests]) > 0 {
		p.set("Suggests", joinDeplistlist(pkg.Depends[Suggests]))
	}
	if len(pkg.Conflicts) > 0 {
		atoms := make([]string, len(pkg.Conflicts))
		for i, a := range pkg.Conflicts {
			atoms[i] = a.String()
		}
		p.set("Conflicts", strings.Join(atoms, ", "))
	}
	if len(pkg.Provides) > 0 {
		p.set("Provides", strings.Join(pkg.Provides, ", "))
	}
	for k, v := range pkg.Details {
		p.set(k, v)
	}
	return p
}

func joinDeplistlist(clauses []Clause) string {
	parts := make([]string, len(clauses))
	for i, c := range clauses {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}
