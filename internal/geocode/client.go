// Package geocode resolves postal addresses to coordinates.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/healthhub-platform/internal/domain"
	"github.com/wolfman30/healthhub-platform/pkg/logging"
)

const (
	defaultBaseURL = "https://maps.googleapis.com"
	defaultTimeout = 10 * time.Second
	statusOK       = "OK"
	statusZero     = "ZERO_RESULTS"
)

var geocodeTracer = otel.Tracer("healthhub.internal.geocode")

// ErrNoResults is returned when the service answers successfully with no
// matches for the address.
var ErrNoResults = errors.New("geocode: no results")

// StatusError is a non-OK service status such as OVER_QUERY_LIMIT or
// REQUEST_DENIED.
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("geocode: status %s: %s", e.Status, e.Message)
	}
	return "geocode: status " + e.Status
}

// Geocoder resolves a free-form address to a point.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*domain.GeoPoint, error)
}

// Client calls a Google-compatible geocoding endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *logging.Logger
}

// NewClient constructs a geocoding client. It returns nil when apiKey is
// blank, which callers treat as the capability being unavailable.
func NewClient(baseURL, apiKey string, logger *logging.Logger) *Client {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger,
	}
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode returns the first result for address.
func (c *Client) Geocode(ctx context.Context, address string) (*domain.GeoPoint, error) {
	ctx, span := geocodeTracer.Start(ctx, "geocode.lookup")
	defer span.End()

	q := url.Values{}
	q.Set("address", address)
	q.Set("key", c.apiKey)
	endpoint := c.baseURL + "/maps/api/geocode/json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("geocode: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("geocode: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("geocode: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := &StatusError{Status: fmt.Sprintf("HTTP_%d", resp.StatusCode)}
		span.RecordError(err)
		return nil, err
	}

	var decoded geocodeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("geocode: decode response: %w", err)
	}
	span.SetAttributes(
		attribute.String("healthhub.geocode.status", decoded.Status),
		attribute.Int("healthhub.geocode.results", len(decoded.Results)),
	)

	switch {
	case decoded.Status == statusZero:
		return nil, ErrNoResults
	case decoded.Status != statusOK:
		c.logger.Warn("geocode non-OK status", "status", decoded.Status, "message", decoded.ErrorMessage)
		return nil, &StatusError{Status: decoded.Status, Message: decoded.ErrorMessage}
	case len(decoded.Results) == 0:
		return nil, ErrNoResults
	}

	loc := decoded.Results[0].Geometry.Location
	return &domain.GeoPoint{Latitude: loc.Lat, Longitude: loc.Lng}, nil
}
