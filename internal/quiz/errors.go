package quiz

import (
	"errors"
	"fmt"
)

// Kind classifies engine errors so transports can map them without string
// matching.
type Kind string

const (
	KindAuthorization Kind = "authorization"
	KindState         Kind = "state"
	KindPolicy        Kind = "policy"
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
)

// Sentinels, one per kind. Every *Error of a kind matches its sentinel with
// errors.Is.
var (
	ErrForbidden            = errors.New("forbidden")
	ErrAttemptNotInProgress = errors.New("attempt is not in progress")
	ErrAttemptLimit         = errors.New("attempt limit reached")
	ErrInvalid              = errors.New("invalid input")
	ErrNotFound             = errors.New("not found")
)

var kindSentinel = map[Kind]error{
	KindAuthorization: ErrForbidden,
	KindState:         ErrAttemptNotInProgress,
	KindPolicy:        ErrAttemptLimit,
	KindValidation:    ErrInvalid,
	KindNotFound:      ErrNotFound,
}

type Error struct {
	Kind Kind
	Op   string // operation, e.g. "attempt.submit"
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return kindSentinel[e.Kind] == target
}

func newErr(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func Forbidden(op, format string, args ...any) error {
	return newErr(KindAuthorization, op, format, args...)
}

func StateError(op, format string, args ...any) error {
	return newErr(KindState, op, format, args...)
}

func PolicyError(op, format string, args ...any) error {
	return newErr(KindPolicy, op, format, args...)
}

func Invalid(op, format string, args ...any) error {
	return newErr(KindValidation, op, format, args...)
}

func NotFound(op, format string, args ...any) error {
	return newErr(KindNotFound, op, format, args...)
}

// KindOf reports the kind of the first *Error in err's chain, or "" if there
// is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
