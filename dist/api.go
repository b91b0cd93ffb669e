package dist

import (
	"strconv"

	"github.com/golang-dep-rework/distcheck/internal/config"
)

// ParseKind maps a control-file dependency field name to a Kind.
func ParseKind(s string) (Kind, error) {
	k, err := config.ParseKind(toConfigKindString(s))
	return Kind(k), err
}

func toConfigKindString(s string) string {
	switch s {
	case "Pre-Depends":
		return "pre-depends"
	case "Depends":
		return "depends"
	case "Recommends":
		return "recommends"
	case "Suggests":
		return "suggests"
	default:
		return s
	}
}

// IsPresent reports whether name exists in u.
func (u *Universe) IsPresent(name string) bool {
	_, ok := u.Get(name)
	return ok
}

// GetVersion returns name's version, if present.
func (u *Universe) GetVersion(name string) (string, bool) {
	cp, ok := u.Get(name)
	if !ok {
		return "", false
	}
	return cp.pkg.Version, true
}

// GetSource returns name's effective source name, if present.
func (u *Universe) GetSource(name string) (string, bool) {
	cp, ok := u.Get(name)
	if !ok {
		return "", false
	}
	return cp.pkg.sourceName(), true
}

// GetSourceVersion returns name's effective source version, if present.
func (u *Universe) GetSourceVersion(name string) (string, bool) {
	cp, ok := u.Get(name)
	if !ok {
		return "", false
	}
	return cp.pkg.sourceVersion(), true
}

// IsArchAll reports whether name is an Architecture: all binary.
func (u *Universe) IsArchAll(name string) (bool, bool) {
	cp, ok := u.Get(name)
	if !ok {
		return false, false
	}
	return cp.pkg.ArchAll, true
}

// GetField returns the value of a control-file field for name. Package,
// Version and Source come from the parsed fields and Priority is returned
// as its numeric rank; any other field is looked up in the passthrough
// Details map, so the parsed Architecture, dependency, Conflicts and
// Provides fields are reported absent.
func (u *Universe) GetField(name, field string) (string, bool) {
	cp, ok := u.Get(name)
	if !ok {
		return "", false
	}
	switch field {
	case "Package":
		return cp.pkg.Name, true
	case "Version":
		return cp.pkg.Version, true
	case "Source":
		return cp.pkg.sourceName(), true
	case "Priority":
		return strconv.Itoa(cp.pkg.Priority), true
	default:
		v, ok := cp.pkg.Details[field]
		return v, ok
	}
}

// UnsatisfiedClause is one entry of UnsatisfiableDeps' report: the
// textual rendering of a dependency clause alongside the names that
// currently satisfy it in the universe being checked (empty when
// nothing does).
type UnsatisfiedClause struct {
	Clause    string
	Providers []string
}

// UnsatisfiableDeps reports, for every clause of the given kind on
// name within other, which packages in u currently satisfy it (spec
// §6's unsatisfiable_deps).
func (u *Universe) UnsatisfiableDeps(other *Universe, name string, kind Kind) ([]UnsatisfiedClause, error) {
	cp, ok := other.Get(name)
	if !ok {
		return nil, badArgument("unknown package %q", name)
	}
	clauses := cp.pkg.DependsOf(kind)
	out := make([]UnsatisfiedClause, 0, len(clauses))
	for _, clause := range clauses {
		ids := matches(u, clause)
		names := make([]string, len(ids))
		for i, id := range ids {
			names[i] = u.byID(id).pkg.Name
		}
		out = append(out, UnsatisfiedClause{Clause: clause.String(), Providers: names})
	}
	return out, nil
}

// BinaryFields is the optional, named-field equivalent of the external
// interface's positional add_binary tuple (spec §6): version, section,
// source, source_version and arch may be empty; ReverseDepends and
// ReverseConflicts are accepted for interface compatibility but ignored,
// matching indices 9-10 of the original tuple.
type BinaryFields struct {
	Version       string
	Section       string
	Source        string
	SourceVersion string
	Arch          string
	PreDepends    string
	Depends       string
	Conflicts     string
	Provides      string

	ReverseDepends   string
	ReverseConflicts string
}

// AddBinary parses fields into a Package and adds it to u. Adding a
// binary that already exists is silently ignored, first-writer wins
// (spec §7.5), and the existing CollectedPackage is returned.
func (u *Universe) AddBinary(name string, fields BinaryFields) (*CollectedPackage, error) {
	if existing, ok := u.Get(name); ok {
		return existing, nil
	}

	pkg := &Package{
		Name:          name,
		Version:       fields.Version,
		Source:        fields.Source,
		SourceVersion: fields.SourceVersion,
		Section:       fields.Section,
		ArchAll:       fields.Arch == "all",
	}
	if fields.PreDepends != "" {
		clauses, err := parseDeplistlist(fields.PreDepends)
		if err != nil {
			return nil, err
		}
		pkg.Depends[PreDepends] = clauses
	}
	if fields.Depends != "" {
		clauses, err := parseDeplistlist(fields.Depends)
		if err != nil {
			return nil, err
		}
		pkg.Depends[Depends] = clauses
	}
	if fields.Conflicts != "" {
		atoms, err := parseConflicts(fields.Conflicts)
		if err != nil {
			return nil, err
		}
		pkg.Conflicts = atoms
	}
	if fields.Provides != "" {
		pkg.Provides = parseProvides(fields.Provides)
	}

	cp, _ := u.Add(pkg)
	return cp, nil
}

// RemoveBinary removes name from u, reporting whether it was present
// (spec §7.5: removing an absent binary is a no-op that returns false).
func (u *Universe) RemoveBinary(name string) bool {
	cp, ok := u.Get(name)
	if !ok {
		return false
	}
	u.Remove(cp)
	return true
}
