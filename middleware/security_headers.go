package middleware

import "github.com/labstack/echo/v4"

// localAPIHeaders are set on every response of the local API. Responses carry
// session state and are served over plain HTTP on loopback, so there is no
// HSTS and nothing may be cached, framed or read cross-origin.
var localAPIHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Cross-Origin-Resource-Policy", "same-origin"},
	{"Referrer-Policy", "no-referrer"},
	{"Cache-Control", "no-store"},
}

// SecurityHeaders adds the local API's security headers to all responses.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			for _, kv := range localAPIHeaders {
				h.Set(kv[0], kv[1])
			}
			return next(c)
		}
	}
}
