package ledger

import (
	"errors"
	"fmt"
)

// Store sentinels. Implementations return (or wrap) these so the service can
// translate them into caller-facing errors.
var (
	ErrNotFound             = errors.New("record not found")
	ErrInsufficientQuantity = errors.New("insufficient quantity on hand")
	ErrStaleState           = errors.New("record changed state concurrently")
	ErrDuplicate            = errors.New("record already exists")
	// ErrInUse is returned when a delete would orphan ledger records.
	ErrInUse                = errors.New("record is still referenced")
)

// Kind classifies an Error for the transport layer.
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	// KindConflict is a wrong-status transition. It is reported like a
	// validation failure.
	KindConflict
	KindNotFound
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	default:
		return "unexpected"
	}
}

// Error is returned by every Service operation that fails.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func notFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func unexpected(op string, err error) *Error {
	return &Error{Kind: KindUnexpected, Message: "Internal server error", Err: fmt.Errorf("%s: %w", op, err)}
}

// KindOf reports the Kind of err. Errors that are not *Error are unexpected.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindUnexpected
}

// lookup translates a store read error. Missing records become NotFound with
// the given message.
func lookup(err error, op, missing string) error {
	if errors.Is(err, ErrNotFound) {
		return notFound(missing)
	}
	return unexpected(op, err)
}
