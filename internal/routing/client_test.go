package routing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/frontera-freight/frontera/internal/common"
	"github.com/frontera-freight/frontera/internal/model"
	"github.com/frontera-freight/frontera/internal/service"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, "test-key")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestRouteDistanceSumsLegs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("key = %q, want test-key", got)
		}
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"routes": [{"legs": [
				{"distance": {"value": 320000}},
				{"distance": {"value": 25500}}
			]}]
		}`))
	})

	km, err := c.RouteDistance(context.Background(), service.Leg{
		From: model.LocationRef{Name: "Cascavel"},
		To:   model.LocationRef{Name: "Foz do Iguaçu"},
	})
	if err != nil {
		t.Fatalf("RouteDistance: %v", err)
	}
	if km != 345.5 {
		t.Errorf("distance = %v km, want 345.5", km)
	}
}

func TestRouteDistanceEndpointPreference(t *testing.T) {
	tests := []struct {
		name string
		ref  model.LocationRef
		want string
	}{
		{
			name: "place id wins",
			ref: model.LocationRef{
				Name:       "Cascavel",
				PlaceID:    "ChIJxyz",
				Coordinate: model.Coordinate{Lat: -24.95, Lng: -53.46},
			},
			want: "place_id:ChIJxyz",
		},
		{
			name: "coordinate beats name",
			ref: model.LocationRef{
				Name:       "Cascavel",
				Coordinate: model.Coordinate{Lat: -24.95, Lng: -53.46},
			},
			want: "-24.950000,-53.460000",
		},
		{
			name: "name as last resort",
			ref:  model.LocationRef{Name: "Cascavel"},
			want: "Cascavel",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotOrigin string
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotOrigin = r.URL.Query().Get("origin")
				_, _ = w.Write([]byte(`{"status":"OK","routes":[{"legs":[{"distance":{"value":1000}}]}]}`))
			})

			_, err := c.RouteDistance(context.Background(), service.Leg{
				From: tt.ref,
				To:   model.LocationRef{Name: "Asunción"},
			})
			if err != nil {
				t.Fatalf("RouteDistance: %v", err)
			}
			if gotOrigin != tt.want {
				t.Errorf("origin = %q, want %q", gotOrigin, tt.want)
			}
		})
	}
}

func TestRouteDistanceZeroResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","routes":[]}`))
	})

	_, err := c.RouteDistance(context.Background(), service.Leg{
		From: model.LocationRef{Name: "Nowhere"},
		To:   model.LocationRef{Name: "Asunción"},
	})
	if !errors.Is(err, common.ErrRouteUnavailable) {
		t.Errorf("error = %v, want ErrRouteUnavailable", err)
	}
	// A provider that definitively found no route will keep finding none.
	if common.IsRetryable(err) {
		t.Error("ZERO_RESULTS must be classified permanent")
	}
}

func TestRouteDistanceServerErrorIsRetryable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.RouteDistance(context.Background(), service.Leg{
		From: model.LocationRef{Name: "Cascavel"},
		To:   model.LocationRef{Name: "Asunción"},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !common.IsRetryable(err) {
		t.Errorf("5xx should be retryable, got %v", err)
	}
}

func TestRouteDistanceQuotaErrorIsRetryable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OVER_QUERY_LIMIT","error_message":"slow down"}`))
	})

	_, err := c.RouteDistance(context.Background(), service.Leg{
		From: model.LocationRef{Name: "Cascavel"},
		To:   model.LocationRef{Name: "Asunción"},
	})
	if !common.IsRetryable(err) {
		t.Errorf("quota errors should be retryable, got %v", err)
	}
}

func TestRouteDistanceClientErrorIsNotRetryable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.RouteDistance(context.Background(), service.Leg{
		From: model.LocationRef{Name: "Cascavel"},
		To:   model.LocationRef{Name: "Asunción"},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if common.IsRetryable(err) {
		t.Errorf("4xx should not be retryable, got %v", err)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient("", "key"); !errors.Is(err, common.ErrMissingConfig) {
		t.Errorf("error = %v, want ErrMissingConfig", err)
	}
}
