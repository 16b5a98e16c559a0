package session

import (
	"errors"
	"fmt"
)

// ErrorKind classifies session errors.
type ErrorKind int

const (
	// DimensionMismatch: a buffer does not match the session dimensions.
	DimensionMismatch ErrorKind = iota + 1
	// CompositingFailure: the effect could not be rendered.
	CompositingFailure
	// UninitializedSession: an operation arrived before Init.
	UninitializedSession
	// InvalidDimensions: Init was called with a non-positive size.
	InvalidDimensions
	// InvalidFeedback: a feedback event has an unknown kind or bad influence.
	InvalidFeedback
	// SessionClosed: the session has been finalized.
	SessionClosed
)

func (k ErrorKind) String() string {
	switch k {
	case DimensionMismatch:
		return "dimension_mismatch"
	case CompositingFailure:
		return "compositing_failure"
	case UninitializedSession:
		return "uninitialized_session"
	case InvalidDimensions:
		return "invalid_dimensions"
	case InvalidFeedback:
		return "invalid_feedback"
	case SessionClosed:
		return "session_closed"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is returned by every Session operation.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrDimensionMismatch    = &Error{Kind: DimensionMismatch}
	ErrCompositingFailure   = &Error{Kind: CompositingFailure}
	ErrUninitializedSession = &Error{Kind: UninitializedSession}
	ErrInvalidDimensions    = &Error{Kind: InvalidDimensions}
	ErrInvalidFeedback      = &Error{Kind: InvalidFeedback}
	ErrSessionClosed        = &Error{Kind: SessionClosed}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

func newError(kind ErrorKind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}
