package snapconfig

import "fmt"

//============================================= Errors

// Kind identifies the category of an Error, per spec's error taxonomy.
type Kind int

const (
	KindUnknown Kind = iota
	KindSourceMissing
	KindParseError
	KindIoError
	KindCorruptImage
	KindCapacityExceeded
	KindEncodingError
	KindKeyMissing
	KindIndexOutOfRange
	KindTypeMismatch
	KindPathTypeMismatch
)

func (k Kind) String() string {
	switch k {
	case KindSourceMissing:
		return "SourceMissing"
	case KindParseError:
		return "ParseError"
	case KindIoError:
		return "IoError"
	case KindCorruptImage:
		return "CorruptImage"
	case KindCapacityExceeded:
		return "CapacityExceeded"
	case KindEncodingError:
		return "EncodingError"
	case KindKeyMissing:
		return "KeyMissing"
	case KindIndexOutOfRange:
		return "IndexOutOfRange"
	case KindTypeMismatch:
		return "TypeMismatch"
	case KindPathTypeMismatch:
		return "PathTypeMismatch"
	default:
		return "Unknown"
	}
}

// Error is the single error type snapconfig returns. Callers distinguish
// cases with errors.As and inspect Kind rather than matching on message text.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("snapconfig: %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("snapconfig: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, snapconfig.KeyMissing) style checks via the Kind
// sentinels below.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Sentinel Kind values, usable as errors.Is(err, snapconfig.KeyMissing).
var (
	SourceMissing    = &Error{Kind: KindSourceMissing}
	ParseErrorKind   = &Error{Kind: KindParseError}
	IoErrorKind      = &Error{Kind: KindIoError}
	CorruptImage     = &Error{Kind: KindCorruptImage}
	CapacityExceeded = &Error{Kind: KindCapacityExceeded}
	EncodingError    = &Error{Kind: KindEncodingError}
	KeyMissing       = &Error{Kind: KindKeyMissing}
	IndexOutOfRange  = &Error{Kind: KindIndexOutOfRange}
	TypeMismatch     = &Error{Kind: KindTypeMismatch}
	PathTypeMismatch = &Error{Kind: KindPathTypeMismatch}
)
