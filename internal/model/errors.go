package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures so callers can react without parsing messages.
type ErrorKind string

const (
	KindUnknownMethod            ErrorKind = "UnknownMethod"
	KindTiersNotConfigured       ErrorKind = "TiersNotConfigured"
	KindInvalidInstallmentCount  ErrorKind = "InvalidInstallmentCount"
	KindInvalidInput             ErrorKind = "InvalidInput"
	KindObligationNotFound       ErrorKind = "ObligationNotFound"
	KindObligationAlreadySettled ErrorKind = "ObligationAlreadySettled"
	KindOverpaymentRejected      ErrorKind = "OverpaymentRejected"
	KindConcurrentModification   ErrorKind = "ConcurrentModification"
	KindObligationCanceled       ErrorKind = "ObligationCanceled"
	KindStorageFailure           ErrorKind = "StorageFailure"
)

// Error is the typed error returned by every engine operation.
type Error struct {
	Kind    ErrorKind
	Field   string
	Message string
	Err     error
}

func NewError(kind ErrorKind, field, message string) *Error {
	return &Error{Kind: kind, Field: field, Message: message}
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind only, so sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Retryable reports whether the caller may retry the same request with fresh data.
func (e *Error) Retryable() bool {
	return e.Kind == KindConcurrentModification || e.Kind == KindStorageFailure
}

var (
	ErrUnknownMethod            = &Error{Kind: KindUnknownMethod}
	ErrTiersNotConfigured       = &Error{Kind: KindTiersNotConfigured}
	ErrInvalidInstallmentCount  = &Error{Kind: KindInvalidInstallmentCount}
	ErrInvalidInput             = &Error{Kind: KindInvalidInput}
	ErrObligationNotFound       = &Error{Kind: KindObligationNotFound}
	ErrObligationAlreadySettled = &Error{Kind: KindObligationAlreadySettled}
	ErrOverpaymentRejected      = &Error{Kind: KindOverpaymentRejected}
	ErrConcurrentModification   = &Error{Kind: KindConcurrentModification}
	ErrObligationCanceled       = &Error{Kind: KindObligationCanceled}
	ErrStorageFailure           = &Error{Kind: KindStorageFailure}
)

// StorageFailure wraps a persistence error. Errors that are already typed pass through.
func StorageFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	return &Error{Kind: KindStorageFailure, Message: op, Err: err}
}

// Errorf builds a typed error with a formatted message.
func Errorf(kind ErrorKind, field, format string, args ...any) *Error {
	return &Error{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of a typed error, or "" for anything else.
func KindOf(err error) ErrorKind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return ""
}
