package handler

import (
	"context"
	"net/http"

	"fap-client/internal/usecase"

	"github.com/labstack/echo/v4"
)

// AvailabilityProber answers username and email availability.
type AvailabilityProber interface {
	Probe(ctx context.Context, field usecase.ProbeField, value string) (bool, error)
}

// AvailabilityHandler serves /api/availability/{username,email}.
type AvailabilityHandler struct {
	prober AvailabilityProber
}

// NewAvailabilityHandler creates a new availability handler.
func NewAvailabilityHandler(prober AvailabilityProber) *AvailabilityHandler {
	return &AvailabilityHandler{prober: prober}
}

type availabilityResponse struct {
	Field     usecase.ProbeField `json:"field"`
	Value     string             `json:"value"`
	Available bool               `json:"available"`
}

// Username checks ?value= against the username registry.
func (h *AvailabilityHandler) Username(c echo.Context) error {
	return h.probe(c, usecase.FieldUsername)
}

// Email checks ?value= against the email registry.
func (h *AvailabilityHandler) Email(c echo.Context) error {
	return h.probe(c, usecase.FieldEmail)
}

func (h *AvailabilityHandler) probe(c echo.Context, field usecase.ProbeField) error {
	value := c.QueryParam("value")
	available, err := h.prober.Probe(c.Request().Context(), field, value)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, availabilityResponse{Field: field, Value: value, Available: available})
}
