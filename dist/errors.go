package dist

import "github.com/pkg/errors"

// ErrorKind classifies a failure per the error-handling design: allocation
// failures and parse failures are fatal, bad arguments are surfaced as
// typed, recoverable errors. A solver call that exhausts its iteration
// budget is not an error at all — it is the GaveUp Result, since callers
// need to treat it like "not installable" rather than abort on it.
type ErrorKind int

const (
	// KindBadArgument covers an unknown architecture or an unknown
	// package/source where a valid one was required. The operation that
	// raised it has no effect.
	KindBadArgument ErrorKind = iota

	// KindParseFailure covers bad field syntax, an unknown priority, or
	// an unterminated version. Fatal in the reference design; this
	// module surfaces it as an error rather than aborting the process,
	// since an embedding Go program should decide that for itself.
	KindParseFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindBadArgument:
		return "bad argument"
	case KindParseFailure:
		return "parse failure"
	default:
		return "unknown error"
	}
}

// Error is the typed error this package returns for every recoverable
// failure category. Callers that care about the category type-assert or
// use errors.As against *Error and inspect Kind.
type Error struct {
	Kind ErrorKind
	msg  string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return e.msg + ": " + e.Wrapped.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.Wrapped }

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, msg: errors.Errorf(format, args...).Error()}
}

func badArgument(format string, args ...interface{}) error {
	return newError(KindBadArgument, format, args...)
}

func parseFailure(format string, args ...interface{}) error {
	return newError(KindParseFailure, format, args...)
}
