package apierr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by how the owning component recovers from it.
type Kind string

const (
	KindAuth        Kind = "auth_failure"
	KindGeneration  Kind = "generation_failure"
	KindSubmission  Kind = "submission_failure"
	KindChat        Kind = "chat_failure"
	KindInvalid     Kind = "invalid_argument"
	KindNotFound    Kind = "not_found"
	KindUnavailable Kind = "unavailable"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidState    = errors.New("invalid state")
)

type Error struct {
	Kind   Kind
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Code)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d)", e.Kind, e.Status)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, status int, code string, err error) *Error {
	return &Error{Kind: kind, Status: status, Code: code, Err: err}
}

func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Recast tags err with kind unless it already reports an auth failure, which must reach the
// caller unchanged so the session can be dropped.
func Recast(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	if Is(err, KindAuth) || Is(err, kind) {
		return err
	}
	return Wrap(kind, err)
}
