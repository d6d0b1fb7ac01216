package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Pinger checks a backing dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	store Pinger
}

// NewHealthHandler creates a new health handler. store may be nil when the
// session backend has nothing to ping.
func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// Handle processes the /health endpoint.
func (h *HealthHandler) Handle(c echo.Context) error {
	if h.store != nil {
		if err := h.store.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"store":  err.Error(),
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
