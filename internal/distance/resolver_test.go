package distance

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/frontera-freight/frontera/internal/common"
	"github.com/frontera-freight/frontera/internal/model"
	"github.com/frontera-freight/frontera/internal/service"
)

// routerFunc adapts a function to the service.Router interface.
type routerFunc func(ctx context.Context, leg service.Leg) (float64, error)

func (f routerFunc) RouteDistance(ctx context.Context, leg service.Leg) (float64, error) {
	return f(ctx, leg)
}

func fastConfig() Config {
	return Config{
		TraversalKm: 5,
		RoadFactor:  1.3,
		LegTimeout:  time.Second,
	}
}

func testCrossing() model.CrossingPoint {
	return model.CrossingPoint{
		Name:   "Foz do Iguaçu",
		Active: true,
		OriginSide: model.CrossingSide{
			Name:       "Ciudad del Este",
			Coordinate: model.Coordinate{Lat: -25.5096, Lng: -54.6038},
		},
		DestinationSide: model.CrossingSide{
			Name:       "Foz do Iguaçu",
			Coordinate: model.Coordinate{Lat: -25.5094, Lng: -54.5967},
		},
	}
}

func TestResolvePrecise(t *testing.T) {
	router := routerFunc(func(_ context.Context, leg service.Leg) (float64, error) {
		// Origin leg routes toward the crossing, destination leg away from it.
		if leg.To.Name == "Ciudad del Este" {
			return 320, nil
		}
		return 180, nil
	})

	r := NewResolver(router, fastConfig())
	origin := model.LocationRef{Name: "San Pedro"}
	dest := model.LocationRef{Name: "Toledo"}

	got, err := r.Resolve(context.Background(), origin, dest, testCrossing())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Total != 320+5+180 {
		t.Errorf("Total = %v, want %v", got.Total, 505.0)
	}
	if got.Precision != model.PrecisionExact {
		t.Errorf("Precision = %v, want exact", got.Precision)
	}
	if got.OriginToCrossing != 320 || got.CrossingToDestination != 180 {
		t.Errorf("legs = %v/%v, want 320/180", got.OriginToCrossing, got.CrossingToDestination)
	}
}

func TestResolveCoordinateFallback(t *testing.T) {
	r := NewResolver(routerFunc(func(_ context.Context, leg service.Leg) (float64, error) {
		// Name-based crossing endpoints fail; coordinate queries succeed.
		if leg.To.Coordinate.IsZero() && leg.From.Coordinate.IsZero() {
			return 0, errors.New("ambiguous place name")
		}
		return 250, nil
	}), fastConfig())

	origin := model.LocationRef{Name: "San Pedro"}
	dest := model.LocationRef{Name: "Toledo"}

	got, err := r.Resolve(context.Background(), origin, dest, testCrossing())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	// Coordinate retry is still the precise path.
	if got.Precision != model.PrecisionExact {
		t.Errorf("Precision = %v, want exact", got.Precision)
	}
	if got.Total != 250+5+250 {
		t.Errorf("Total = %v, want 505", got.Total)
	}
}

func TestResolveDegradesToApproximation(t *testing.T) {
	routerDown := routerFunc(func(_ context.Context, _ service.Leg) (float64, error) {
		return 0, errors.New("provider unavailable")
	})
	r := NewResolver(routerDown, fastConfig())

	cp := testCrossing()
	origin := model.LocationRef{
		Name:       "San Pedro",
		Coordinate: model.Coordinate{Lat: -24.2115, Lng: -56.5640},
	}
	dest := model.LocationRef{
		Name:       "Toledo",
		Coordinate: model.Coordinate{Lat: -24.7246, Lng: -53.7412},
	}

	got, err := r.Resolve(context.Background(), origin, dest, cp)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Precision != model.PrecisionApproximate {
		t.Errorf("Precision = %v, want approximate", got.Precision)
	}

	wantLeg1 := Haversine(origin.Coordinate, cp.OriginSide.Coordinate) * 1.3
	if math.Abs(got.OriginToCrossing-wantLeg1) > 1e-9 {
		t.Errorf("OriginToCrossing = %v, want %v", got.OriginToCrossing, wantLeg1)
	}
	if got.Total <= got.Traversal {
		t.Errorf("Total = %v, should exceed traversal distance", got.Total)
	}
}

func TestResolveFailsWithoutEndpointData(t *testing.T) {
	routerDown := routerFunc(func(_ context.Context, _ service.Leg) (float64, error) {
		return 0, errors.New("provider unavailable")
	})
	r := NewResolver(routerDown, fastConfig())

	// No coordinate on the origin: approximation has nothing to work with.
	origin := model.LocationRef{Name: "San Pedro"}
	dest := model.LocationRef{Coordinate: model.Coordinate{Lat: -24.7246, Lng: -53.7412}}

	_, err := r.Resolve(context.Background(), origin, dest, testCrossing())
	if !errors.Is(err, common.ErrRouteUnavailable) {
		t.Fatalf("Resolve() error = %v, want ErrRouteUnavailable", err)
	}
}

func TestResolveRejectsInvalidCrossingPoint(t *testing.T) {
	r := NewResolver(routerFunc(func(_ context.Context, _ service.Leg) (float64, error) {
		return 100, nil
	}), fastConfig())

	cp := testCrossing()
	cp.OriginSide.Coordinate = model.Coordinate{}

	_, err := r.Resolve(context.Background(), model.LocationRef{Name: "a"}, model.LocationRef{Name: "b"}, cp)
	if !errors.Is(err, common.ErrInvalidCrossingPoint) {
		t.Fatalf("Resolve() error = %v, want ErrInvalidCrossingPoint", err)
	}
}

func TestResolveOneLegFailureDoesNotMaskOther(t *testing.T) {
	calls := 0
	r := NewResolver(routerFunc(func(_ context.Context, leg service.Leg) (float64, error) {
		calls++
		if leg.From.Name == "Foz do Iguaçu" || !leg.From.Coordinate.IsZero() {
			return 0, errors.New("no route to destination")
		}
		return 300, nil
	}), fastConfig())

	origin := model.LocationRef{Name: "San Pedro"}
	dest := model.LocationRef{Name: "Nowhere"}

	_, err := r.Resolve(context.Background(), origin, dest, testCrossing())
	if !errors.Is(err, common.ErrRouteUnavailable) {
		t.Fatalf("Resolve() error = %v, want ErrRouteUnavailable", err)
	}
	// Both legs must have been attempted; the destination leg's failure does
	// not short-circuit the origin leg.
	if calls < 2 {
		t.Errorf("router called %d times, want both legs attempted", calls)
	}
}

func TestResolveDoesNotRetryPermanentFailures(t *testing.T) {
	calls := 0
	r := NewResolver(routerFunc(func(_ context.Context, _ service.Leg) (float64, error) {
		calls++
		return 0, &common.RetryableError{
			Err:       errors.New("no route found"),
			Retryable: false,
		}
	}), fastConfig())

	origin := model.LocationRef{
		Name:       "San Pedro",
		Coordinate: model.Coordinate{Lat: -24.2115, Lng: -56.5640},
	}
	dest := model.LocationRef{
		Name:       "Toledo",
		Coordinate: model.Coordinate{Lat: -24.7246, Lng: -53.7412},
	}

	got, err := r.Resolve(context.Background(), origin, dest, testCrossing())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Precision != model.PrecisionApproximate {
		t.Errorf("Precision = %v, want approximate", got.Precision)
	}
	// Name and coordinate queries per leg, one attempt each: a definitive
	// answer from the router is never retried.
	if calls != 4 {
		t.Errorf("router called %d times, want 4", calls)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// Ciudad del Este to Salto del Guaíra is roughly 160 km as the crow flies.
	a := model.Coordinate{Lat: -25.5096, Lng: -54.6038}
	b := model.Coordinate{Lat: -24.0886, Lng: -54.3368}

	got := Haversine(a, b)
	if got < 150 || got > 170 {
		t.Errorf("Haversine() = %v km, want roughly 160", got)
	}
}
