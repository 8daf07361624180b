package tender

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Use errors.Is(err, ErrXxx) to classify a failure.
// Every *Error also matches ErrAcquisition.
var (
	// ErrAcquisition is the base kind shared by all acquisition failures.
	ErrAcquisition = errors.New("acquisition error")

	// ErrValidation indicates a caller-supplied argument is invalid. Never retried.
	ErrValidation = errors.New("validation error")

	// ErrAPI indicates the tender API was unreachable or answered with an
	// unexpected shape.
	ErrAPI = errors.New("api error")

	// ErrDocumentNotFound indicates no qualifying document exists in a list.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrDownload indicates a document transfer failed.
	ErrDownload = errors.New("download error")

	// ErrExtraction indicates an archive was unreadable or had no qualifying member.
	ErrExtraction = errors.New("extraction error")

	// ErrConversion indicates every conversion strategy was exhausted.
	ErrConversion = errors.New("conversion error")
)

// Error is a classified acquisition failure.
type Error struct {
	// Kind is one of the sentinel errors above.
	Kind error
	// Op names the step that failed (e.g. "list documents", "extract zip").
	Op string
	// Err carries the message and the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target kind or the base kind.
func (e *Error) Is(target error) bool {
	return target == ErrAcquisition || errors.Is(e.Kind, target)
}

// Errorf builds a classified error. The format supports %w.
func Errorf(kind error, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the sentinel kind of err, or nil when err is not an *Error.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}
