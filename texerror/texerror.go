package texerror

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure
type Kind int

const (
	// Unknown is never produced by this module, it is the zero value
	Unknown Kind = iota
	// InvalidInput is raised for bad arguments before any network or rendering work
	InvalidInput
	// TransportFailure covers connection, DNS and timeout failures
	TransportFailure
	// CompilationFailure means the service answered but did not produce a PDF
	CompilationFailure
	// CorruptDocument means the PDF bytes could not be opened for rasterization
	CorruptDocument
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid input"
	case TransportFailure:
		return "transport failure"
	case CompilationFailure:
		return "compilation failure"
	case CorruptDocument:
		return "corrupt document"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is, they match any *Error of the same Kind
var (
	ErrInvalidInput       = &Error{Kind: InvalidInput}
	ErrTransportFailure   = &Error{Kind: TransportFailure}
	ErrCompilationFailure = &Error{Kind: CompilationFailure}
	ErrCorruptDocument    = &Error{Kind: CorruptDocument}
)

// ErrPageOutOfRange is wrapped by InvalidInput errors for pages past the end of a document
var ErrPageOutOfRange = errors.New("page out of range")

// Error is the error type returned by the compiler and raster packages
type Error struct {
	Kind Kind
	Op   string // "compile" or "convert"

	// StatusCode is the HTTP status of the compilation service, 0 if none was received
	StatusCode int
	// Message and Log are the service diagnostics, kept verbatim
	Message string
	Log     string

	Timeout   bool
	Retryable bool

	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same Kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == "" && t.Err == nil && t.StatusCode == 0
}

// New builds an error of the given kind wrapping err
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Invalid builds an InvalidInput error with a formatted reason
func Invalid(op, format string, args ...any) *Error {
	return &Error{Kind: InvalidInput, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// IsTimeout reports whether err is a transport failure caused by a timeout
func IsTimeout(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == TransportFailure && e.Timeout
}

// IsRetryable reports whether the caller may reasonably try again.
// Nothing in this module retries on its own.
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == TransportFailure || e.Retryable
}
