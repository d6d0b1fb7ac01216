package domain

import (
	"errors"
	"fmt"
)

// Token errors.
var (
	ErrMalformedToken  = errors.New("malformed token")
	ErrMissingIdentity = errors.New("token carries no usable identity")
)

// Session errors.
var (
	ErrSessionExpired   = errors.New("session expired")
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Relationship errors.
var (
	ErrRelationshipConflict  = errors.New("relationship conflict")
	ErrNotConfirmed          = errors.New("removal not confirmed")
	ErrProjectionUnavailable = errors.New("relationship projection unavailable")
)

// Availability errors.
var (
	ErrProbeSuperseded = errors.New("availability probe superseded")
)

// Storage errors.
var (
	ErrStoreUnavailable = errors.New("key-value store unavailable")
)

// AuthErrorKind classifies a failed login or registration.
type AuthErrorKind string

const (
	AuthKindValidation         AuthErrorKind = "validation"
	AuthKindInvalidCredentials AuthErrorKind = "invalid_credentials"
	AuthKindForbidden          AuthErrorKind = "forbidden"
	AuthKindConflict           AuthErrorKind = "conflict"
	AuthKindServer             AuthErrorKind = "server"
	AuthKindNetwork            AuthErrorKind = "network"
	AuthKindSession            AuthErrorKind = "session"
	AuthKindUnknown            AuthErrorKind = "unknown"
)

// AuthError carries a user-facing message for a failed authentication call.
type AuthError struct {
	Kind      AuthErrorKind
	Message   string
	Status    int
	Retryable bool
	Err       error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// StatusError is a non-2xx response from a collaborator.
type StatusError struct {
	Code      int
	Message   string
	ErrorType string
	Path      string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("collaborator returned status %d", e.Code)
	}
	return fmt.Sprintf("collaborator returned status %d: %s", e.Code, e.Message)
}

// TransportError means the collaborator could not be reached at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusCode extracts the collaborator status from err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// IsTransport reports whether err is a network-level failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
