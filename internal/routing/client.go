// Package routing implements the routing collaborator against a
// Directions-style HTTP API.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/frontera-freight/frontera/internal/common"
	"github.com/frontera-freight/frontera/internal/model"
	"github.com/frontera-freight/frontera/internal/service"
)

// Client queries a Directions-style JSON API for per-leg road distances.
// It implements service.Router.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a routing client for the given API base URL.
func NewClient(baseURL, apiKey string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("routing API base URL is required: %w", common.ErrMissingConfig)
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// directions API response types
type directionsResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message"`
	Routes       []route `json:"routes"`
}

type route struct {
	Legs []routeLeg `json:"legs"`
}

type routeLeg struct {
	Distance distanceValue `json:"distance"`
}

type distanceValue struct {
	Value int64 `json:"value"` // meters
}

// RouteDistance returns the road distance of one leg in kilometers.
// Transient failures (network errors, 5xx, overloaded provider) are marked
// retryable so callers can back off and retry; definitive answers such as
// ZERO_RESULTS or a 4xx are marked permanent.
func (c *Client) RouteDistance(ctx context.Context, leg service.Leg) (float64, error) {
	params := url.Values{}
	params.Set("origin", encodeEndpoint(leg.From))
	params.Set("destination", encodeEndpoint(leg.To))
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create routing request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &common.RetryableError{
			Err:       fmt.Errorf("routing request failed: %w", err),
			Retryable: true,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 {
		return 0, &common.RetryableError{
			Err:       fmt.Errorf("routing provider returned %d", resp.StatusCode),
			Retryable: true,
		}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, &common.RetryableError{
			Err:       fmt.Errorf("routing provider returned %d: %s", resp.StatusCode, string(body)),
			Retryable: false,
		}
	}

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return 0, fmt.Errorf("failed to decode routing response: %w", err)
	}

	switch dr.Status {
	case "OK":
	case "ZERO_RESULTS", "NOT_FOUND":
		return 0, &common.RetryableError{
			Err: fmt.Errorf("no route between %s and %s: %w",
				leg.From.Name, leg.To.Name, common.ErrRouteUnavailable),
			Retryable: false,
		}
	case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR":
		return 0, &common.RetryableError{
			Err:       fmt.Errorf("routing provider status %s: %s", dr.Status, dr.ErrorMessage),
			Retryable: true,
		}
	default:
		return 0, &common.RetryableError{
			Err:       fmt.Errorf("routing provider status %s: %s", dr.Status, dr.ErrorMessage),
			Retryable: false,
		}
	}

	if len(dr.Routes) == 0 || len(dr.Routes[0].Legs) == 0 {
		return 0, fmt.Errorf("routing response has no legs: %w", common.ErrRouteUnavailable)
	}

	var meters int64
	for _, l := range dr.Routes[0].Legs {
		meters += l.Distance.Value
	}
	km := float64(meters) / 1000

	slog.Debug("Resolved routing leg",
		"from", leg.From.Name,
		"to", leg.To.Name,
		"distance_km", km)
	return km, nil
}

// encodeEndpoint renders a location reference for the API, preferring place
// ID, then coordinate, then free-text name.
func encodeEndpoint(ref model.LocationRef) string {
	switch {
	case ref.PlaceID != "":
		return "place_id:" + ref.PlaceID
	case !ref.Coordinate.IsZero():
		return ref.Coordinate.String()
	default:
		return ref.Name
	}
}
