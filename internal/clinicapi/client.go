package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/clinic-nexus/pkg/logging"
)

const (
	defaultTimeout  = 15 * time.Second
	maxErrorBodyLen = 300
)

var tracer = otel.Tracer("clinicnexus.internal.clinicapi")

// Client is a REST client for the clinic API (the persistence collaborator).
// Every method issues exactly one request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a clinic API client rooted at baseURL (e.g. http://localhost:8080).
func NewClient(baseURL string, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any, headers ...header) error {
	return c.do(ctx, http.MethodPost, path, body, out, headers...)
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) del(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// do performs one request. A 204 succeeds without decoding; any other
// success must carry a JSON content type.
func (c *Client) do(ctx context.Context, method, path string, body, out any, headers ...header) error {
	op := method + " " + path
	ctx, span := tracer.Start(ctx, "clinicapi.request")
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("clinic.path", path),
	)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("clinicapi: marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("clinicapi: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	reqID := requestIDFromContext(ctx)
	req.Header.Set("X-Request-ID", reqID)
	for _, h := range headers {
		req.Header.Set(h.key, h.value)
	}

	SignalSend(ctx)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		c.logger.Warn("clinic api unreachable", "op", op, "request_id", reqID, "error", err)
		return &TransportError{
			Op:      op,
			Message: "Cannot connect to backend server. Please ensure the backend is running on " + c.baseURL,
			Err:     err,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Message: "read response", Err: err}
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.logger.Debug("clinic api request",
		"op", op,
		"status", resp.StatusCode,
		"request_id", reqID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		span.SetStatus(codes.Error, resp.Status)
		return &RequestError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(resp, respBody)}
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	ct := resp.Header.Get("Content-Type")
	if !isJSON(ct) {
		if ct == "" {
			ct = "non-JSON"
		}
		span.SetStatus(codes.Error, "non-json response")
		return &TransportError{
			Op:      op,
			Message: fmt.Sprintf("Server returned %s response. Is the backend server running?", ct),
		}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &TransportError{Op: op, Message: "decode response", Err: err}
	}
	return nil
}

func errorMessage(resp *http.Response, body []byte) string {
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	if len(msg) > maxErrorBodyLen {
		msg = msg[:maxErrorBodyLen]
	}
	return msg
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "application/json")
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

type header struct {
	key   string
	value string
}

type requestIDKey struct{}

// WithRequestID carries an inbound request id onto outgoing clinic API calls.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

type sendHookKey struct{}

// WithSendHook registers fn to run once the request carrying ctx is about to
// be written to the wire.
func WithSendHook(ctx context.Context, fn func()) context.Context {
	return context.WithValue(ctx, sendHookKey{}, fn)
}

// SignalSend runs the send hook attached to ctx, if any. Backends other than
// Client call it when they issue a request.
func SignalSend(ctx context.Context) {
	if fn, ok := ctx.Value(sendHookKey{}).(func()); ok && fn != nil {
		fn()
	}
}

// segment escapes a free-text path segment the way encodeURIComponent does.
func segment(value string) string {
	return url.PathEscape(value)
}
