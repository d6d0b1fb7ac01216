package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"fap-client/internal/domain"
	"fap-client/internal/usecase"
	"fap-client/utils/logger"
)

// Navigator decides page navigation.
type Navigator interface {
	RequireSession(ctx context.Context, target string) usecase.Navigation
	GuestOnly(ctx context.Context) usecase.Navigation
}

// SessionChecker exposes the session state after an expiry check.
type SessionChecker interface {
	CheckExpiration(ctx context.Context) bool
	State() domain.AuthState
}

// RequireSessionPage redirects unauthenticated navigation to the auth route,
// remembering the requested URL for after login.
func RequireSessionPage(nav Navigator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			decision := nav.RequireSession(c.Request().Context(), c.Request().URL.RequestURI())
			if !decision.Allowed {
				return c.Redirect(http.StatusFound, decision.RedirectTo)
			}
			return next(c)
		}
	}
}

// GuestOnlyPage redirects signed-in navigation to the landing route.
func GuestOnlyPage(nav Navigator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			decision := nav.GuestOnly(c.Request().Context())
			if !decision.Allowed {
				return c.Redirect(http.StatusFound, decision.RedirectTo)
			}
			return next(c)
		}
	}
}

// RequireSessionAPI rejects API calls without a live session with 401 and
// tags the request context with the signed-in user id.
func RequireSessionAPI(session SessionChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			session.CheckExpiration(ctx)

			userID, ok := session.State().UserID()
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			c.SetRequest(c.Request().WithContext(logger.WithUserID(ctx, userID)))
			return next(c)
		}
	}
}
