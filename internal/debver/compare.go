// Package debver implements the version-comparison oracle that the solver
// and catalogue treat as an external contract (spec §4.5, §6): given two
// version strings, report their relative order.
//
// This is not grounded on original_source, because the original's
// versioncmp is genuinely external — dpkg.h only declares its prototype,
// the body is linked from elsewhere and never appears in the pack. This
// package is a from-scratch implementation of the well-known Debian version
// ordering (epoch, upstream, debian-revision) so the rest of the module has
// a concrete oracle to test against, rather than a stub.
package debver

import "strings"

// Compare returns -1, 0, or +1 according to whether left sorts before,
// the same as, or after right, under the epoch:upstream-revision ordering.
func Compare(left, right string) int {
	le, lu, lr := split(left)
	re, ru, rr := split(right)

	if c := compareInt(le, re); c != 0 {
		return c
	}
	if c := compareFragment(lu, ru); c != 0 {
		return c
	}
	return compareFragment(lr, rr)
}

// split breaks a version into epoch, upstream, and debian-revision parts.
// A version without a ':' has epoch 0; a version without a final '-' has
// revision "0" (matching dpkg's treatment of a missing revision as "0").
func split(v string) (epoch int, upstream, revision string) {
	rest := v
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		epoch = atoiPrefix(rest[:i])
		rest = rest[i+1:]
	}
	if i := strings.LastIndexByte(rest, '-'); i >= 0 {
		return epoch, rest[:i], rest[i+1:]
	}
	return epoch, rest, "0"
}

func atoiPrefix(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// order assigns a sort weight to a single byte under dpkg's comparison
// rules: '~' sorts before everything, including the empty string; letters
// sort before all non-letter, non-tilde bytes; everything else sorts by its
// plain byte value shifted above the letter range so that, e.g., '+' and
// '.' fall after letters, as dpkg orders non-alphanumerics by ASCII value
// and above letters. Running out of string (endOfString) sorts below every
// byte except '~', so "1.0" < "1.0a".
func order(b byte) int {
	switch {
	case b == '~':
		return -2
	case isDigit(b):
		return 0
	case isAlpha(b):
		return int(b)
	default:
		return int(b) + 256
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }

// compareFragment implements dpkg's alternating digit/non-digit comparison:
// walk matched runs of non-digit characters (compared byte-by-byte using
// order(), with '~' sorting lowest of all, even below end-of-string) and
// runs of digits (compared numerically), in strict alternation starting
// with a non-digit run.
func compareFragment(a, b string) int {
	for len(a) > 0 || len(b) > 0 {
		// Non-digit run.
		var ai, bi int
		for ai < len(a) && !isDigit(a[ai]) {
			ai++
		}
		for bi < len(b) && !isDigit(b[bi]) {
			bi++
		}
		if c := compareNonDigitRun(a[:ai], b[:bi]); c != 0 {
			return c
		}
		a, b = a[ai:], b[bi:]

		// Digit run.
		ai = 0
		for ai < len(a) && isDigit(a[ai]) {
			ai++
		}
		bi = 0
		for bi < len(b) && isDigit(b[bi]) {
			bi++
		}
		if c := compareInt(atoiPrefix(a[:ai]), atoiPrefix(b[:bi])); c != 0 {
			return c
		}
		a, b = a[ai:], b[bi:]
	}
	return 0
}

func compareNonDigitRun(a, b string) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		var ca, cb int
		if i < len(a) {
			ca = order(a[i])
		} else {
			// end of string: treat as above tilde but below every other
			// byte (endOfString), per dpkg, i.e. the
			// shorter string sorts first unless the longer one continues
			// with a tilde, in which case the longer one (with the tilde)
			// sorts first.
			ca = endOfString
		}
		if i < len(b) {
			cb = order(b[i])
		} else {
			cb = endOfString
		}
		if ca != cb {
			return compareInt(ca, cb)
		}
	}
	return 0
}

// endOfString must sort above '~' (order -2) but below every other byte, so
// that "1.0~" < "1.0" (a version ending right after the tilde is "longer"
// in the tilde direction) while "1.0" < "1.0a" (running out of string
// sorts below continuing with an ordinary character).
const endOfString = -1

// Satisfies reports whether candidate satisfies the given relational
// constraint against constraintVersion, per the atom relations of spec §3.
func Satisfies(candidate string, relation Relation, constraintVersion string) bool {
	c := Compare(candidate, constraintVersion)
	switch relation {
	case Any:
		return true
	case LessThan:
		return c < 0
	case LessEqual:
		return c <= 0
	case Equal:
		return c == 0
	case GreaterEqual:
		return c >= 0
	case GreaterThan:
		return c > 0
	default:
		return false
	}
}

// Relation is the closed set of version-constraint relations an atom can
// carry (spec §3: relation ∈ {ANY, <, ≤, =, ≥, >}).
type Relation uint8

const (
	Any Relation = iota
	LessThan
	LessEqual
	Equal
	GreaterEqual
	GreaterThan
)

func (r Relation) String() string {
	switch r {
	case Any:
		return ""
	case LessThan:
		return "<<"
	case LessEqual:
		return "<="
	case Equal:
		return "="
	case GreaterEqual:
		return ">="
	case GreaterThan:
		return ">>"
	default:
		return "?"
	}
}
