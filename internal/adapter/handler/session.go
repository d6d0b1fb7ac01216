package handler

import (
	"context"
	"net/http"
	"time"

	"fap-client/internal/domain"

	"github.com/labstack/echo/v4"
)

// SessionService is the session manager surface used by the local API.
type SessionService interface {
	State() domain.AuthState
	Expiry() (time.Time, bool)
	CheckExpiration(ctx context.Context) bool
	Login(ctx context.Context, email, password string) (*domain.LoginResult, error)
	Register(ctx context.Context, profile domain.Profile) (*domain.User, error)
	Logout(ctx context.Context)
}

// SessionHandler exposes the session lifecycle under /api/session.
type SessionHandler struct {
	session SessionService
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(session SessionService) *SessionHandler {
	return &SessionHandler{session: session}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user,omitempty"`
	ExpiresAt     *time.Time   `json:"expiresAt,omitempty"`
	RedirectTo    string       `json:"redirectTo,omitempty"`
}

func (h *SessionHandler) current() sessionResponse {
	st := h.session.State()
	resp := sessionResponse{Authenticated: st.IsAuthenticated, User: st.User}
	if exp, ok := h.session.Expiry(); ok && st.IsAuthenticated {
		resp.ExpiresAt = &exp
	}
	return resp
}

// Get returns the current session state after an expiry check.
func (h *SessionHandler) Get(c echo.Context) error {
	h.session.CheckExpiration(c.Request().Context())
	return c.JSON(http.StatusOK, h.current())
}

// Login signs in with email and password.
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.session.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return mapDomainError(err)
	}

	resp := h.current()
	resp.RedirectTo = result.RedirectTo
	return c.JSON(http.StatusOK, resp)
}

// Logout ends the session. It succeeds when already signed out.
func (h *SessionHandler) Logout(c echo.Context) error {
	h.session.Logout(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

// Register creates an account without signing in.
func (h *SessionHandler) Register(c echo.Context) error {
	var profile domain.Profile
	if err := c.Bind(&profile); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, err := h.session.Register(c.Request().Context(), profile)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusCreated, user)
}
