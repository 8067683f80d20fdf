// Package poserr defines the error taxonomy shared by the POS core.
//
// Every failure surfaced by the core belongs to exactly one Kind. Callers map
// kinds to user-facing message categories; the literal text is not part of the
// contract.
package poserr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindState
	KindGateway
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindState:
		return "state"
	case KindGateway:
		return "gateway"
	default:
		return "unknown"
	}
}

// Error carries the kind, the operation that failed and, for gateway
// failures, the collaborator error it wraps.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(op, format string, args ...any) error {
	return &Error{Kind: KindValidation, Op: op, Message: fmt.Sprintf(format, args...)}
}

func NotFound(op, what string, id any) error {
	return &Error{Kind: KindNotFound, Op: op, Message: fmt.Sprintf("%s %v not found", what, id)}
}

func State(op, format string, args ...any) error {
	return &Error{Kind: KindState, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Gateway wraps a persistence or transport failure. Errors that are already
// classified pass through unchanged so a NotFound raised by an adapter keeps
// its kind. A nil err yields nil.
func Gateway(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnknown {
		return err
	}
	return &Error{Kind: KindGateway, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsState(err error) bool      { return KindOf(err) == KindState }
func IsGateway(err error) bool    { return KindOf(err) == KindGateway }
