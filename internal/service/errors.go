package service

import (
	"errors"
	"fmt"

	"restaurant-service/internal/store"
)

// Kind classifies a service failure for the transport layer.
type Kind int

const (
	KindUpstream Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	}
	return "upstream"
}

// Error is returned by every service operation that fails.
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

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func validationError(msg string) error {
	return newError(KindValidation, msg, nil)
}

func notFound(msg string) error {
	return newError(KindNotFound, msg, nil)
}

func conflict(msg string) error {
	return newError(KindConflict, msg, nil)
}

func upstream(msg string, err error) error {
	return newError(KindUpstream, msg, err)
}

// fromStore classifies a store error. Errors already classified pass through.
func fromStore(err error, msg string) error {
	if err == nil {
		return nil
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return err
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return newError(KindNotFound, msg, err)
	case errors.Is(err, store.ErrConflict):
		return newError(KindConflict, msg, err)
	}
	return newError(KindUpstream, msg, err)
}

// KindOf reports the kind of err, KindUpstream for unclassified errors.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindUpstream
}
