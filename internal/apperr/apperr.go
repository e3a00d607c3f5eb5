// Package apperr defines the application error type and its taxonomy
package apperr

import "fmt"

// Kind classifies an error so that callers can decide how to react to it
// without knowing the concrete template that produced it.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindUnsupported
	KindStoreIO
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation error"
	case KindNotFound:
		return "not found"
	case KindUnsupported:
		return "environment unsupported"
	case KindStoreIO:
		return "store i/o error"
	default:
		return "error"
	}
}

// Kind sentinels. Match them with errors.Is.
var (
	Validation  = &Error{Kind: KindValidation}
	NotFound    = &Error{Kind: KindNotFound}
	Unsupported = &Error{Kind: KindUnsupported}
	StoreIO     = &Error{Kind: KindStoreIO}
)

// Error is the error type used across the application. Package level values
// act as templates: Fmt and Wrap return derived copies that still match the
// template with errors.Is.
type Error struct {
	Cause   error
	base    *Error
	Message string
	Kind    Kind
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}

	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}

	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the template e was derived from, or a kind
// sentinel with the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	if t.isSentinel() {
		return t.Kind == e.Kind
	}

	return e.origin() == t.origin()
}

// Fmt returns a copy of the error with its message formatted using args.
func (e *Error) Fmt(args ...any) *Error {
	return &Error{
		Kind:    e.Kind,
		Message: fmt.Sprintf(e.Message, args...),
		Cause:   e.Cause,
		base:    e.origin(),
	}
}

// Wrap returns a copy of the error caused by err.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		Kind:    e.Kind,
		Message: e.Message,
		Cause:   err,
		base:    e.origin(),
	}
}

func (e *Error) origin() *Error {
	if e.base != nil {
		return e.base
	}

	return e
}

func (e *Error) isSentinel() bool {
	return e.base == nil && e.Message == "" && e.Cause == nil
}
