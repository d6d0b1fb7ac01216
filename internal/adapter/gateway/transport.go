package gateway

import (
	"log/slog"
	"net/http"

	"fap-client/internal/domain"
	"fap-client/utils/logger"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// Transport decorates outbound requests with a request id, reusing the one on
// the context when present, and with the session's Authorization header when
// an authorizer is configured.
type Transport struct {
	base       http.RoundTripper
	authorizer domain.Authorizer
	logger     *slog.Logger
}

// NewTransport wraps base. authorizer may be nil.
func NewTransport(base http.RoundTripper, authorizer domain.Authorizer, logger *slog.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{base: base, authorizer: authorizer, logger: logger}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	out := req.Clone(ctx)

	if out.Header.Get(requestIDHeader) == "" {
		id := logger.RequestIDFrom(ctx)
		if id == "" {
			id = uuid.NewString()
		}
		out.Header.Set(requestIDHeader, id)
	}

	authorized := false
	if t.authorizer != nil {
		t.authorizer.CheckExpiration(ctx)
		if value, ok := t.authorizer.AuthorizationValue(); ok {
			out.Header.Set("Authorization", value)
			authorized = true
		}
	}

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	if authorized && resp.StatusCode == http.StatusUnauthorized {
		t.logger.WarnContext(ctx, "collaborator rejected session token",
			"method", out.Method,
			"path", out.URL.Path,
			"request_id", out.Header.Get(requestIDHeader))
		t.authorizer.HandleUnauthorized(ctx)
	}
	return resp, nil
}
