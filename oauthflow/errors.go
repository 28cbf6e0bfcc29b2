package oauthflow

import (
	"errors"
	"fmt"
)

// Kind classifies why an attempt failed.
type Kind string

const (
	KindUnsupportedProvider  Kind = "unsupported_provider"
	KindInvalidState         Kind = "invalid_state"
	KindProviderDenied       Kind = "provider_denied"
	KindTokenExchangeFailed  Kind = "token_exchange_failed"
	KindProfileFetchFailed   Kind = "profile_fetch_failed"
	KindTimeout              Kind = "timeout"
	KindAccountAlreadyExists Kind = "account_already_exists"
	KindAccountNotFound      Kind = "account_not_found"
	KindPopupBlocked         Kind = "popup_blocked"
	KindInternal             Kind = "internal" // Local state or storage failure, not the provider's doing
)

// Error is the failure every attempt resolves with.
type Error struct {
	Kind     Kind
	Provider string
	Reason   string // Provider-reported text, verbatim, for KindProviderDenied
	Err      error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so errors.Is(err, ErrTimeout) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrUnsupportedProvider  = &Error{Kind: KindUnsupportedProvider}
	ErrInvalidState         = &Error{Kind: KindInvalidState}
	ErrProviderDenied       = &Error{Kind: KindProviderDenied}
	ErrTokenExchangeFailed  = &Error{Kind: KindTokenExchangeFailed}
	ErrProfileFetchFailed   = &Error{Kind: KindProfileFetchFailed}
	ErrTimeout              = &Error{Kind: KindTimeout}
	ErrAccountAlreadyExists = &Error{Kind: KindAccountAlreadyExists}
	ErrAccountNotFound      = &Error{Kind: KindAccountNotFound}
	ErrPopupBlocked         = &Error{Kind: KindPopupBlocked}
	ErrInternal             = &Error{Kind: KindInternal}
)

func newError(kind Kind, provider string, err error) *Error {
	return &Error{Kind: kind, Provider: provider, Err: err}
}

func errorf(kind Kind, provider, format string, args ...any) *Error {
	return &Error{Kind: kind, Provider: provider, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
