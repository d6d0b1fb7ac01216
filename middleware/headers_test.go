package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fap-client/utils/logger"
)

func TestSecurityHeaders_SetsAllHeaders(t *testing.T) {
	e := echo.New()
	e.Use(SecurityHeaders())
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "same-origin", rec.Header().Get("Cross-Origin-Resource-Policy"))
}

func TestSecurityHeaders_LocalAPIResponses(t *testing.T) {
	e := echo.New()
	e.Use(SecurityHeaders())
	e.GET("/api/session", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	})
	e.GET("/dashboard", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/auth?returnUrl=%2Fdashboard")
	})

	tests := []struct {
		name string
		path string
		code int
	}{
		{name: "api error", path: "/api/session", code: http.StatusUnauthorized},
		{name: "page redirect", path: "/dashboard", code: http.StatusFound},
		{name: "unknown route", path: "/nope", code: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
			assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
			assert.Empty(t, rec.Header().Get("Strict-Transport-Security"), "loopback API is plain HTTP")
		})
	}
}

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())

	var seen string
	e.GET("/api/session", func(c echo.Context) error {
		seen = logger.RequestIDFrom(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
}

func TestRequestID_KeepsInboundHeader(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())

	var seen string
	e.GET("/api/session", func(c echo.Context) error {
		seen = logger.RequestIDFrom(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("X-Request-ID", "client-7")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "client-7", seen)
	assert.Equal(t, "client-7", rec.Header().Get("X-Request-ID"))
}
