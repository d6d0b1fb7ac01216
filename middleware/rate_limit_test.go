package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func newRateLimitedEcho(t *testing.T, r rate.Limit, burst int) *echo.Echo {
	t.Helper()
	rl := NewRateLimiter(r, burst)
	t.Cleanup(rl.Stop)

	e := echo.New()
	e.Use(rl.Middleware())
	e.GET("/api/session", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return e
}

func serveFrom(e *echo.Echo, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	if remote != "" {
		req.RemoteAddr = remote
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	e := newRateLimitedEcho(t, rate.Limit(10), 10)

	assert.Equal(t, http.StatusOK, serveFrom(e, "").Code)
}

func TestRateLimiter_RejectsOverLimit(t *testing.T) {
	e := newRateLimitedEcho(t, rate.Limit(1), 1)

	assert.Equal(t, http.StatusOK, serveFrom(e, "").Code)

	rec := serveFrom(e, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestRateLimiter_DifferentIPsGetSeparateLimits(t *testing.T) {
	e := newRateLimitedEcho(t, rate.Limit(1), 1)

	assert.Equal(t, http.StatusOK, serveFrom(e, "1.2.3.4:1234").Code)
	assert.Equal(t, http.StatusOK, serveFrom(e, "5.6.7.8:5678").Code)
	assert.Equal(t, http.StatusTooManyRequests, serveFrom(e, "1.2.3.4:1234").Code)
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(1), 1)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}
