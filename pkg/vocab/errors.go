package vocab

import (
	"errors"
	"fmt"
)

// Kind names one of the error categories callers should switch on;
// CoreError.Error() text is for logs, not control flow.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindExhausted        Kind = "exhausted"
	KindInvalidArgument  Kind = "invalid_argument"
	KindDeadlineExceeded Kind = "deadline_exceeded"
	KindInternal         Kind = "internal"
)

// CoreError wraps an error kind with an operation label and the underlying
// cause, following the fmt.Errorf("...: %w", err) wrapping convention used
// throughout the repository layer.
type CoreError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *CoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *CoreError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, vocab.ErrNotFound) match any CoreError of the same
// kind regardless of operation or wrapped cause.
func (e *CoreError) Is(target error) bool {
	t, ok := target.(*CoreError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(op string, kind Kind, err error) *CoreError {
	return &CoreError{Op: op, Kind: kind, Err: err}
}

// NewError builds a CoreError, exported for storage-layer implementations
// outside this package that need to report NotFound/Conflict/Exhausted
// from repository code in the same shape Core itself returns.
func NewError(op string, kind Kind, err error) *CoreError {
	return newErr(op, kind, err)
}

// CoreErrorKind extracts the Kind a storage-layer error was reported with
// (storage wraps its failures in *CoreError via NewError), falling back to
// KindInternal for anything else so a plain driver error still classifies
// as a storage fault rather than panicking a type assertion.
func CoreErrorKind(err error) Kind {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}

// Sentinel CoreErrors for errors.Is comparisons; Op is irrelevant for Is.
var (
	ErrNotFound         = &CoreError{Kind: KindNotFound}
	ErrConflict         = &CoreError{Kind: KindConflict}
	ErrExhausted        = &CoreError{Kind: KindExhausted}
	ErrInvalidArgument  = &CoreError{Kind: KindInvalidArgument}
	ErrDeadlineExceeded = &CoreError{Kind: KindDeadlineExceeded}
	ErrInternal         = &CoreError{Kind: KindInternal}
)
