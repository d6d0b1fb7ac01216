package usecase

import (
	"context"
	"log/slog"
	"net/url"
)

// DefaultAuthRoute is where unauthenticated navigation is sent.
const DefaultAuthRoute = "/auth"

// Navigation is the outcome of a route guard check.
type Navigation struct {
	Allowed    bool
	RedirectTo string
}

// SessionGate is the part of the session manager the guard relies on.
type SessionGate interface {
	SessionReader
	CheckExpiration(ctx context.Context) bool
	RememberRedirect(ctx context.Context, url string) error
}

// RouteGuard decides whether navigation to a route may proceed.
type RouteGuard struct {
	session   SessionGate
	authRoute string
	landing   string
	logger    *slog.Logger
}

// NewRouteGuard creates a RouteGuard.
func NewRouteGuard(session SessionGate, authRoute, landing string, logger *slog.Logger) *RouteGuard {
	if authRoute == "" {
		authRoute = DefaultAuthRoute
	}
	if landing == "" {
		landing = DefaultLandingRoute
	}
	return &RouteGuard{session: session, authRoute: authRoute, landing: landing, logger: logger}
}

// RequireSession admits authenticated navigation. Otherwise target is
// remembered for after login and the caller is sent to the auth route.
func (g *RouteGuard) RequireSession(ctx context.Context, target string) Navigation {
	g.session.CheckExpiration(ctx)
	if g.session.State().IsAuthenticated {
		return Navigation{Allowed: true}
	}

	if err := g.session.RememberRedirect(ctx, target); err != nil {
		g.logger.WarnContext(ctx, "failed to remember redirect", "target", target, "error", err)
	}
	return Navigation{RedirectTo: g.authRoute + "?" + url.Values{"returnUrl": {target}}.Encode()}
}

// GuestOnly admits navigation only while signed out.
func (g *RouteGuard) GuestOnly(ctx context.Context) Navigation {
	g.session.CheckExpiration(ctx)
	if g.session.State().IsAuthenticated {
		return Navigation{RedirectTo: g.landing}
	}
	return Navigation{Allowed: true}
}
