package dataapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/healthhub-platform/internal/observability/metrics"
	"github.com/wolfman30/healthhub-platform/pkg/logging"
)

const defaultTimeout = 10 * time.Second

var dataAPITracer = otel.Tracer("healthhub.internal.dataapi")

type tokenKey struct{}

// ContextWithToken attaches a caller bearer token that overrides the
// client's service token for requests made with ctx.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the caller token attached by ContextWithToken.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	if !ok || strings.TrimSpace(token) == "" {
		return "", false
	}
	return token, true
}

// Options configure a Client.
type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Metrics    *metrics.CoreMetrics
	Logger     *logging.Logger
}

// Client wraps the REST data API that owns providers, products, appointments
// and admin resources.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	metrics    *metrics.CoreMetrics
	logger     *logging.Logger
}

// NewClient constructs a data API client.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		metrics:    opts.Metrics,
		logger:     logger,
	}
}

// do sends the request and returns the raw 2xx body.
func (c *Client) do(ctx context.Context, operation, method, path string, body any) ([]byte, error) {
	ctx, span := dataAPITracer.Start(ctx, "dataapi."+operation)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("healthhub.dataapi.path", path),
	)

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("dataapi: %s: marshal request: %w", operation, err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("dataapi: %s: build request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokenFor(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(operation, 0, time.Since(start).Seconds())
		span.RecordError(err)
		return nil, fmt.Errorf("dataapi: %s: http request: %w", operation, err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveUpstream(operation, resp.StatusCode, time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("dataapi: %s: read response: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Operation: operation, Status: resp.StatusCode, Message: errorMessage(respBody)}
		c.logger.Warn("data API non-2xx response", "operation", operation, "status", resp.StatusCode, "path", path, "message", apiErr.Message)
		span.RecordError(apiErr)
		return nil, apiErr
	}
	return respBody, nil
}

func (c *Client) tokenFor(ctx context.Context) string {
	if token, ok := TokenFromContext(ctx); ok {
		return token
	}
	return c.token
}

func errorMessage(body []byte) string {
	var env struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 300 {
		msg = msg[:300]
	}
	return msg
}

func getEnvelope[T any](ctx context.Context, c *Client, operation, method, path string, body any) (*Envelope[T], error) {
	raw, err := c.do(ctx, operation, method, path, body)
	if err != nil {
		return nil, err
	}
	env, err := decodeEnvelope[T](operation, raw)
	if err != nil {
		c.logger.Warn("data API response did not match schema", "operation", operation, "error", err)
		return nil, err
	}
	return env, nil
}
