package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fap-client/internal/domain"
	"fap-client/metrics"
)

// Options configures a collaborator gateway.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Authorizer decorates outbound requests with the session's bearer
	// token. Nil means requests are sent anonymously.
	Authorizer domain.Authorizer
	// Transport overrides the base round tripper (tests).
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// errorBody is the collaborator's JSON error envelope.
type errorBody struct {
	Path       string `json:"path"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	StatusName string `json:"statusName"`
	ErrorType  string `json:"errorType"`
}

// apiClient performs JSON requests against one collaborator.
type apiClient struct {
	name       string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func newAPIClient(name string, opts Options) *apiClient {
	base := opts.Transport
	if base == nil {
		base = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &apiClient{
		name:    name,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: NewTransport(base, opts.Authorizer, logger),
		},
		logger: logger,
	}
}

// do sends payload as JSON and decodes a 2xx body into out. Non-2xx answers
// become *domain.StatusError, network failures *domain.TransportError.
func (c *apiClient) do(ctx context.Context, method, endpoint string, query url.Values, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	op := method + " " + endpoint
	c.logger.DebugContext(ctx, "collaborator request", "collaborator", c.name, "method", method, "endpoint", endpoint)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordCollaboratorRequest(c.name, method, "transport_error", time.Since(start).Seconds())
		return &domain.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	metrics.RecordCollaboratorRequest(c.name, method, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &domain.TransportError{Op: op, Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeStatusError(resp.StatusCode, endpoint, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

func decodeStatusError(code int, endpoint string, data []byte) *domain.StatusError {
	se := &domain.StatusError{Code: code, Path: endpoint}

	var envelope errorBody
	if err := json.Unmarshal(data, &envelope); err == nil {
		se.Message = envelope.Message
		se.ErrorType = envelope.ErrorType
		if envelope.Path != "" {
			se.Path = envelope.Path
		}
		return se
	}

	// Plain-text bodies are surfaced as-is when short enough to be a message.
	if text := strings.TrimSpace(string(data)); text != "" && len(text) <= 200 {
		se.Message = text
	}
	return se
}
