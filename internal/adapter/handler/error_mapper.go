package handler

import (
	"errors"
	"net/http"

	"fap-client/internal/domain"

	"github.com/labstack/echo/v4"
)

// mapDomainError converts a domain error into an appropriate echo.HTTPError.
func mapDomainError(err error) *echo.HTTPError {
	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		return echo.NewHTTPError(authStatus(authErr), authErr.Message)
	}

	switch {
	case errors.Is(err, domain.ErrNotAuthenticated),
		errors.Is(err, domain.ErrSessionExpired):
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")

	case errors.Is(err, domain.ErrNotConfirmed):
		return echo.NewHTTPError(http.StatusBadRequest, "removal requires confirmation")

	case errors.Is(err, domain.ErrRelationshipConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())

	case errors.Is(err, domain.ErrProbeSuperseded):
		return echo.NewHTTPError(http.StatusConflict, "superseded by a newer probe")

	case errors.Is(err, domain.ErrProjectionUnavailable),
		domain.IsTransport(err):
		return echo.NewHTTPError(http.StatusBadGateway, "relationship service unavailable")

	case errors.Is(err, domain.ErrStoreUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "session store unavailable")

	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func authStatus(e *domain.AuthError) int {
	switch e.Kind {
	case domain.AuthKindValidation:
		return http.StatusBadRequest
	case domain.AuthKindInvalidCredentials, domain.AuthKindSession:
		return http.StatusUnauthorized
	case domain.AuthKindForbidden:
		return http.StatusForbidden
	case domain.AuthKindConflict:
		return http.StatusConflict
	case domain.AuthKindNetwork, domain.AuthKindServer:
		return http.StatusBadGateway
	}
	if e.Status >= 400 && e.Status < 500 {
		return e.Status
	}
	return http.StatusInternalServerError
}
