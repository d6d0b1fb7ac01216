package usecase

import (
	"errors"
	"net/http"

	"fap-client/internal/domain"
	"fap-client/utils/validator"
)

// User-facing messages for failed login and registration.
const (
	msgNetwork            = "Network error. Please check your connection."
	msgBadRequest         = "Invalid request. Please check your input."
	msgInvalidCredentials = "invalid credentials"
	msgForbidden          = "Access denied."
	msgConflict           = "already exists"
	msgServer             = "Server error. Please try again later."
	msgUnexpected         = "An unexpected error occurred. Please try again."
	msgNoSession          = "Unable to establish a session. Please try again."
	msgSessionExpired     = "Your session has expired. Please sign in again."
)

// toAuthError maps a collaborator or validation failure to an AuthError.
func toAuthError(err error) *domain.AuthError {
	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		return authErr
	}

	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		return &domain.AuthError{Kind: domain.AuthKindValidation, Message: verr.Error(), Status: http.StatusBadRequest, Err: err}
	}

	if domain.IsTransport(err) {
		return &domain.AuthError{Kind: domain.AuthKindNetwork, Message: msgNetwork, Retryable: true, Err: err}
	}

	if errors.Is(err, domain.ErrMalformedToken) || errors.Is(err, domain.ErrMissingIdentity) {
		return &domain.AuthError{Kind: domain.AuthKindSession, Message: msgNoSession, Err: err}
	}
	if errors.Is(err, domain.ErrSessionExpired) {
		return &domain.AuthError{Kind: domain.AuthKindSession, Message: msgSessionExpired, Err: err}
	}

	var se *domain.StatusError
	if !errors.As(err, &se) {
		return &domain.AuthError{Kind: domain.AuthKindUnknown, Message: msgUnexpected, Err: err}
	}

	out := &domain.AuthError{Status: se.Code, Err: err}
	switch {
	case se.Code == http.StatusBadRequest:
		out.Kind, out.Message = domain.AuthKindValidation, orDefault(se.Message, msgBadRequest)
	case se.Code == http.StatusUnauthorized:
		out.Kind, out.Message = domain.AuthKindInvalidCredentials, msgInvalidCredentials
	case se.Code == http.StatusForbidden:
		out.Kind, out.Message = domain.AuthKindForbidden, msgForbidden
	case se.Code == http.StatusConflict:
		out.Kind, out.Message = domain.AuthKindConflict, orDefault(se.Message, msgConflict)
	case se.Code >= http.StatusInternalServerError:
		out.Kind, out.Message, out.Retryable = domain.AuthKindServer, msgServer, true
	default:
		out.Kind, out.Message = domain.AuthKindUnknown, orDefault(se.Message, msgUnexpected)
	}
	return out
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
