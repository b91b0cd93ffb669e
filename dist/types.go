// Package dist implements the installability solver and staged-migration
// layer for a binary/source package universe, grounded on
// original_source/lib/dpkg.c (the reference implementation's
// dpkg_collected_package, dpkg_universe, dpkg_source_note types and their
// accompanying operations) and on golang-dep's gps package for the
// surrounding Go idiom: exported entity types with doc comments, a
// SourceManager-shaped catalogue, and errors routed through
// github.com/pkg/errors.
package dist

import (
	"fmt"

	"github.com/golang-dep-rework/distcheck/internal/debver"
)

// Relation is the closed set of version-constraint relations an atom can
// carry.
type Relation = debver.Relation

// The six relation constants, re-exported from internal/debver
// so callers never need to import it directly.
const (
	Any          = debver.Any
	LessThan     = debver.LessThan
	LessEqual    = debver.LessEqual
	Equal        = debver.Equal
	GreaterEqual = debver.GreaterEqual
	GreaterThan  = debver.GreaterThan
)

// Kind indexes the four dependency lists a Package carries. Only
// PreDepends and Depends participate in installability by default; a
// Config's ActiveKinds mask controls this (internal/config.Config).
type Kind int

const (
	PreDepends Kind = iota
	Depends
	Recommends
	Suggests
	numKinds
)

func (k Kind) String() string {
	switch k {
	case PreDepends:
		return "Pre-Depends"
	case Depends:
		return "Depends"
	case Recommends:
		return "Recommends"
	case Suggests:
		return "Suggests"
	default:
		return "unknown"
	}
}

// Atom is a single dependency term: package_name, an optional relation,
// and the version it is relative to. Relation == Any means the version
// is ignored and Version is empty.
type Atom struct {
	Package  string
	Relation Relation
	Version  string
}

func (a Atom) String() string {
	if a.Relation == Any {
		return a.Package
	}
	return fmt.Sprintf("%s (%s %s)", a.Package, a.Relation, a.Version)
}

// Clause is a disjunction of atoms: any one satisfies the clause.
// ("a | b | c" in control-file syntax.)
type Clause []Atom

func (c Clause) String() string {
	out := ""
	for i, a := range c {
		if i > 0 {
			out += " | "
		}
		out += a.String()
	}
	return out
}

// Package is an immutable parsed fact. Once built it is shared by
// reference across every Universe that contains it; nothing in this
// package ever copies a Package's field slices.
type Package struct {
	Name          string
	Version       string
	Source        string
	SourceVersion string
	Priority      int
	ArchAll       bool

	// Depends holds, for each Kind, an ordered list of clauses that must
	// all be satisfiable (a conjunction of disjunctions — classic DNF of
	// dependency alternatives).
	Depends [numKinds][]Clause

	// Conflicts is conjunctive: every atom independently forbids its
	// matches from being installed alongside this package.
	Conflicts []Atom

	// Provides lists virtual package names this concrete package stands
	// in for.
	Provides []string

	// Section is set only by AddBinary and is not written back out by the
	// catalogue writer. Details carries the unknown/passthrough control-file
	// fields (a parsed Section field among them), preserved verbatim for
	// round-trip output (spec §4.5).
	Section string
	Details map[string]string
}

// DependsOf returns the clause list for kind, defaulting to nil for an
// out-of-range kind rather than panicking (callers iterate 0..3 from
// config.Config.ActiveKinds, which is already range-checked).
func (p *Package) DependsOf(k Kind) []Clause {
	if k < 0 || k >= numKinds {
		return nil
	}
	return p.Depends[k]
}

// sourceName resolves the effective source name, defaulting to the
// package's own name when Source is unset (spec §3: "default to
// name/version when absent").
func (p *Package) sourceName() string {
	if p.Source != "" {
		return p.Source
	}
	return p.Name
}

func (p *Package) sourceVersion() string {
	if p.SourceVersion != "" {
		return p.SourceVersion
	}
	return p.Version
}

// Source is a parsed source-package stanza plus, for each architecture,
// the binaries it builds.
type Source struct {
	Name    string
	Version string

	// Fake marks a source synthesized because a binary declared a source
	// absent from the sources file.
	Fake bool

	Details map[string]string

	// Packages holds, per architecture index (matching
	// SourceCatalogue.Arches), the binaries this source builds there.
	Packages [][]*Package
}
