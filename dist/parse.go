package dist

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// knownFields are the field names this package interprets; everything
// else is retained verbatim in a Package's or Source's Details map for
// round-trip output (spec §4.5).
var knownFields = map[string]bool{
	"Package": true, "Version": true, "Priority": true, "Architecture": true,
	"Source": true, "Pre-Depends": true, "Depends": true, "Recommends": true,
	"Suggests": true, "Conflicts": true, "Provides": true,
}

// priorities ranks the recognized Priority values low-to-high (index 0 is
// the highest priority), matching original_source/lib/dpkg.c's static
// priorities[] table.
var priorities = []string{"required", "important", "standard", "optional", "extra"}

// parsePriority maps a control-file Priority value to its rank, or fails on
// anything not in priorities (dpkg.c's read_package dies on an unknown
// priority rather than defaulting one in).
func parsePriority(name, value string) (int, error) {
	for i, p := range priorities {
		if strings.EqualFold(p, value) {
			return i, nil
		}
	}
	return 0, parseFailure("package %q: unknown priority %q", name, value)
}

// paragraph is one RFC822-ish stanza: an ordered field list plus a lookup
// map, matching original_source's read_paragraph (blank-line-terminated
// stanzas, continuation lines begin with whitespace and are folded onto
// the previous field's value with an embedded newline).
type paragraph struct {
	order  []string
	fields map[string]string
}

func (p *paragraph) get(name string) (string, bool) {
	v, ok := p.fields[name]
	return v, ok
}

func (p *paragraph) set(name, value string) {
	if _, exists := p.fields[name]; !exists {
		p.order = append(p.order, name)
	}
	p.fields[name] = value
}

// readParagraphs splits r into stanzas separated by one or more blank
// lines, folding continuation lines (leading whitespace) onto the
// preceding field.
func readParagraphs(r io.Reader) ([]*paragraph, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var result []*paragraph
	var cur *paragraph
	var lastField string

	flush := func() {
		if cur != nil && len(cur.order) > 0 {
			result = append(result, cur)
		}
		cur = nil
		lastField = ""
	}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if line[0] == ' ' || line[0] == '\t' {
			if cur == nil || lastField == "" {
				return nil, parseFailure("line %d: continuation line before any field", lineNo)
			}
			cur.fields[lastField] += "\n" + strings.TrimSpace(line)
			continue
		}

		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			return nil, parseFailure("line %d: field has no colon: %q", lineNo, line)
		}
		name := strings.TrimSpace(line[:colon])
		value := strings.TrimSpace(line[colon+1:])

		if cur == nil {
			cur = &paragraph{fields: make(map[string]string)}
		}
		cur.set(name, value)
		lastField = name
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading paragraphs")
	}
	flush()
	return result, nil
}

// writeParagraph renders p back out in the order its fields were first
// set, each multi-line value folded back onto continuation lines. The
// catalogue writer sets the known fields in a fixed order and then the
// passthrough fields from a map, so the original order of passthrough
// fields is not kept.
func writeParagraph(w io.Writer, p *paragraph) error {
	bw := bufio.NewWriter(w)
	for _, name := range p.order {
		value := p.fields[name]
		lines := strings.Split(value, "\n")
		if _, err := bw.WriteString(name + ": " + lines[0] + "\n"); err != nil {
			return err
		}
		for _, cont := range lines[1:] {
			if _, err := bw.WriteString(" " + cont + "\n"); err != nil {
				return err
			}
		}
	}
	if _, err := bw.WriteString("\n"); err != nil {
		return err
	}
	return bw.Flush()
}

// parseRelation recognizes the grammar's relation tokens, including the
// legacy '<'/'>' aliases for '<='/'>=' (spec §4.5).
func parseRelation(s string) (Relation, string, error) {
	switch {
	case strings.HasPrefix(s, "<<"):
		return LessThan, s[2:], nil
	case strings.HasPrefix(s, "<="):
		return LessEqual, s[2:], nil
	case strings.HasPrefix(s, ">>"):
		return GreaterThan, s[2:], nil
	case strings.HasPrefix(s, ">="):
		return GreaterEqual, s[2:], nil
	case strings.HasPrefix(s, "="):
		rest := s[1:]
		// A bare '=' immediately followed by '<' or '>' is accepted for
		// robustness, per spec §4.5.
		if strings.HasPrefix(rest, "<") {
			return LessEqual, rest[1:], nil
		}
		if strings.HasPrefix(rest, ">") {
			return GreaterEqual, rest[1:], nil
		}
		return Equal, rest, nil
	case strings.HasPrefix(s, "<"):
		return LessEqual, s[1:], nil
	case strings.HasPrefix(s, ">"):
		return GreaterEqual, s[1:], nil
	default:
		return Equal, s, nil
	}
}

// parseDependency parses one "name [(relation version)]" atom.
func parseDependency(s string) (Atom, error) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open < 0 {
		if s == "" {
			return Atom{}, parseFailure("empty dependency atom")
		}
		return Atom{Package: s, Relation: Any}, nil
	}
	name := strings.TrimSpace(s[:open])
	rest := s[open+1:]
	closeIdx := strings.IndexByte(rest, ')')
	if closeIdx < 0 {
		return Atom{}, parseFailure("unterminated version in dependency %q", s)
	}
	inner := strings.TrimSpace(rest[:closeIdx])
	rel, version, err := parseRelation(inner)
	if err != nil {
		return Atom{}, err
	}
	version = strings.TrimSpace(version)
	if version == "" {
		return Atom{}, parseFailure("dependency %q: missing version", s)
	}
	return Atom{Package: name, Relation: rel, Version: version}, nil
}

// parseClause parses a '|'-separated deplist into a Clause.
func parseClause(s string) (Clause, error) {
	parts := strings.Split(s, "|")
	clause := make(Clause, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		atom, err := parseDependency(part)
		if err != nil {
			return nil, err
		}
		clause = append(clause, atom)
	}
	if len(clause) == 0 {
		return nil, parseFailure("empty dependency clause in %q", s)
	}
	return clause, nil
}

// parseDeplistlist parses a ','-separated list of '|'-deplists (the
// Depends/Pre-Depends/Recommends/Suggests grammar).
func parseDeplistlist(s string) ([]Clause, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	clauses := make([]Clause, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		clause, err := parseClause(part)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
	return clauses, nil
}

// parseConflicts parses the flat, conjunctive Conflicts field (a plain
// comma-separated list of atoms, no '|' alternation).
func parseConflicts(s string) ([]Atom, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	atoms := make([]Atom, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		atom, err := parseDependency(part)
		if err != nil {
			return nil, err
		}
		atoms = append(atoms, atom)
	}
	return atoms, nil
}

func parseProvides(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// packageFromParagraph builds a Package from one Packages_<arch> stanza,
// interning the identity fields through intern so repeated names/versions
// across a large catalogue share storage.
func packageFromParagraph(p *paragraph, in interner) (*Package, error) {
	name, ok := p.get("Package")
	if !ok || name == "" {
		return nil, parseFailure("package stanza missing Package field")
	}
	version, ok := p.get("Version")
	if !ok || version == "" {
		return nil, parseFailure("package %q missing Version field", name)
	}

	pkg := &Package{
		Name:          in.Intern(name),
		Version:       in.Intern(version),
		Source:        in.Intern(firstWord(valueOr(p, "Source", ""))),
		SourceVersion: in.Intern(sourceVersionOf(p)),
		ArchAll:       valueOr(p, "Architecture", "") == "all",
		Details:       passthrough(p),
	}

	if prio, ok := p.get("Priority"); ok {
		rank, err := parsePriority(name, prio)
		if err != nil {
			return nil, err
		}
		pkg.Priority = rank
	}

	if pre, ok := p.get("Pre-Depends"); ok {
		clauses, err := parseDeplistlist(pre)
		if err != nil {
			return nil, errors.Wrapf(err, "package %q", name)
		}
		pkg.Depends[PreDepends] = clauses
	}
	if dep, ok := p.get("Depends"); ok {
		clauses, err := parseDeplistlist(dep)
		if err != nil {
			return nil, errors.Wrapf(err, "package %q", name)
		}
		pkg.Depends[Depends] = clauses
	}
	if rec, ok := p.get("Recommends"); ok {
		clauses, err := parseDeplistlist(rec)
		if err != nil {
			return nil, errors.Wrapf(err, "package %q", name)
		}
		pkg.Depends[Recommends] = clauses
	}
	if sug, ok := p.get("Suggests"); ok {
		clauses, err := parseDeplistlist(sug)
		if err != nil {
			return nil, errors.Wrapf(err, "package %q", name)
		}
		pkg.Depends[Suggests] = clauses
	}
	if conf, ok := p.get("Conflicts"); ok {
		atoms, err := parseConflicts(conf)
		if err != nil {
			return nil, errors.Wrapf(err, "package %q", name)
		}
		pkg.Conflicts = atoms
	}
	if prov, ok := p.get("Provides"); ok {
		pkg.Provides = parseProvides(prov)
	}
	return pkg, nil
}

// interner is the subset of *intern.Interner that the parser needs,
// expressed as an interface so tests can supply a no-op stand-in.
type interner interface {
	Intern(string) string
}

func valueOr(p *paragraph, field, def string) string {
	if v, ok := p.get(field); ok {
		return v
	}
	return def
}

// firstWord extracts the source package name from a "name (version)"
// Source field, or returns s unchanged if there is no parenthesized
// version.
func firstWord(s string) string {
	if i := strings.IndexByte(s, '('); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

func sourceVersionOf(p *paragraph) string {
	s, ok := p.get("Source")
	if !ok {
		return ""
	}
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return ""
	}
	closeIdx := strings.IndexByte(s, ')')
	if closeIdx < open {
		return ""
	}
	return strings.TrimSpace(s[open+1 : closeIdx])
}

func passthrough(p *paragraph) map[string]string {
	out := make(map[string]string)
	for _, k := range p.order {
		if !knownFields[k] {
			out[k] = p.fields[k]
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
