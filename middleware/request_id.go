package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"fap-client/utils/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID extracts or generates a request id and carries it on the request
// context so outbound collaborator calls reuse it.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			requestID := req.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}

			ctx := logger.WithRequestID(req.Context(), requestID)
			c.SetRequest(req.WithContext(ctx))
			c.Response().Header().Set(requestIDHeader, requestID)

			return next(c)
		}
	}
}
