package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func runWithSpan(t *testing.T, handler echo.HandlerFunc) (sdktrace.ReadOnlySpan, error) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/friends", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ctx, span := tp.Tracer("test").Start(req.Context(), "request")
	c.SetRequest(req.WithContext(ctx))

	err := OTelStatusMiddleware()(handler)(c)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	return spans[0], err
}

func statusAttr(span sdktrace.ReadOnlySpan) (int64, bool) {
	for _, attr := range span.Attributes() {
		if string(attr.Key) == "http.response.status_code" {
			return attr.Value.AsInt64(), true
		}
	}
	return 0, false
}

func TestOTelStatusMiddleware_ClientErrorLeavesStatusUnset(t *testing.T) {
	span, err := runWithSpan(t, func(c echo.Context) error {
		return c.String(http.StatusConflict, "conflict")
	})

	require.NoError(t, err)
	assert.Equal(t, codes.Unset, span.Status().Code)
	code, ok := statusAttr(span)
	require.True(t, ok)
	assert.Equal(t, int64(409), code)
}

func TestOTelStatusMiddleware_ServerErrorMarksSpan(t *testing.T) {
	boom := errors.New("relationship service unavailable")
	span, err := runWithSpan(t, func(c echo.Context) error {
		c.Response().WriteHeader(http.StatusBadGateway)
		return boom
	})

	assert.Equal(t, boom, err)
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, "Bad Gateway", span.Status().Description)

	var recorded bool
	for _, ev := range span.Events() {
		if ev.Name == "exception" {
			recorded = true
		}
	}
	assert.True(t, recorded, "exception event not found in span")
}

func TestOTelStatusMiddleware_NoSpanPassesThrough(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := OTelStatusMiddleware()(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}
