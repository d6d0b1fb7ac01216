package handler

import (
	"net/http"

	"fap-client/internal/domain"

	"github.com/labstack/echo/v4"
)

// SessionState reads the current session snapshot.
type SessionState interface {
	State() domain.AuthState
}

// PagesHandler answers the guarded navigation routes. The route guard
// middleware has already decided whether the page may be shown.
type PagesHandler struct {
	session SessionState
}

// NewPagesHandler creates a new pages handler.
func NewPagesHandler(session SessionState) *PagesHandler {
	return &PagesHandler{session: session}
}

type pageResponse struct {
	Page      string       `json:"page"`
	User      *domain.User `json:"user,omitempty"`
	ReturnURL string       `json:"returnUrl,omitempty"`
}

// Auth renders the sign-in page.
func (h *PagesHandler) Auth(c echo.Context) error {
	return c.JSON(http.StatusOK, pageResponse{Page: "auth", ReturnURL: c.QueryParam("returnUrl")})
}

// Dashboard renders the signed-in landing page.
func (h *PagesHandler) Dashboard(c echo.Context) error {
	return c.JSON(http.StatusOK, pageResponse{Page: "dashboard", User: h.session.State().User})
}

// Friends renders the relationships page.
func (h *PagesHandler) Friends(c echo.Context) error {
	return c.JSON(http.StatusOK, pageResponse{Page: "friends", User: h.session.State().User})
}
