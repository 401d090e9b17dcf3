// Package distance resolves the three-segment route distance through a
// border crossing: origin to the near side, the crossing itself, and the far
// side to the destination. Precise routing is tried first; when the routing
// collaborator cannot resolve a leg, the resolver degrades to a great-circle
// approximation corrected by a road factor.
package distance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frontera-freight/frontera/internal/common"
	"github.com/frontera-freight/frontera/internal/model"
	"github.com/frontera-freight/frontera/internal/service"
)

// Config holds resolver tunables.
type Config struct {
	// TraversalKm is the fixed distance of the crossing itself. It is not
	// computed by routing; paired customs posts sit within a few km.
	TraversalKm float64
	// RoadFactor corrects great-circle distance toward road distance when
	// degrading to the approximation.
	RoadFactor float64
	// LegTimeout bounds each routing collaborator call.
	LegTimeout time.Duration
}

// DefaultConfig returns the default resolver configuration.
func DefaultConfig() Config {
	return Config{
		TraversalKm: 5,
		RoadFactor:  1.3,
		LegTimeout:  15 * time.Second,
	}
}

// Resolver computes route distances through crossing points.
type Resolver struct {
	router service.Router
	cfg    Config
}

// NewResolver creates a resolver backed by the given routing collaborator.
func NewResolver(router service.Router, cfg Config) *Resolver {
	if cfg.TraversalKm <= 0 {
		cfg.TraversalKm = DefaultConfig().TraversalKm
	}
	if cfg.RoadFactor <= 0 {
		cfg.RoadFactor = DefaultConfig().RoadFactor
	}
	if cfg.LegTimeout <= 0 {
		cfg.LegTimeout = DefaultConfig().LegTimeout
	}
	return &Resolver{router: router, cfg: cfg}
}

// legResult is the outcome of resolving one leg.
type legResult struct {
	km      float64
	precise bool
	err     error
}

// Resolve returns the three-segment distance from origin to destination via
// the given crossing point, or ErrRouteUnavailable when either leg cannot be
// resolved even approximately. A zero or negative total is reported as
// unavailable, never as a real zero-length route.
func (r *Resolver) Resolve(ctx context.Context, origin, destination model.LocationRef, cp model.CrossingPoint) (model.RouteDistance, error) {
	if err := cp.Validate(); err != nil {
		return model.RouteDistance{}, fmt.Errorf("%w: %v", common.ErrInvalidCrossingPoint, err)
	}

	// The two legs are independent: one failing must not abort the other.
	leg1 := r.resolveLeg(ctx, origin, cp.OriginSide, true)
	leg2 := r.resolveLeg(ctx, destination, cp.DestinationSide, false)

	if leg1.err != nil {
		return model.RouteDistance{}, fmt.Errorf("%w: origin leg via %s: %v", common.ErrRouteUnavailable, cp.Name, leg1.err)
	}
	if leg2.err != nil {
		return model.RouteDistance{}, fmt.Errorf("%w: destination leg via %s: %v", common.ErrRouteUnavailable, cp.Name, leg2.err)
	}

	total := leg1.km + r.cfg.TraversalKm + leg2.km
	if total <= r.cfg.TraversalKm {
		return model.RouteDistance{}, fmt.Errorf("%w: zero-length route via %s", common.ErrRouteUnavailable, cp.Name)
	}

	precision := model.PrecisionExact
	if !leg1.precise || !leg2.precise {
		precision = model.PrecisionApproximate
	}

	return model.RouteDistance{
		OriginToCrossing:      leg1.km,
		Traversal:             r.cfg.TraversalKm,
		CrossingToDestination: leg2.km,
		Total:                 total,
		Precision:             precision,
	}, nil
}

// resolveLeg routes between an external endpoint and one side of the crossing.
// toCrossing orients the leg: origin→crossing runs toward the crossing,
// crossing→destination runs away from it.
func (r *Resolver) resolveLeg(ctx context.Context, endpoint model.LocationRef, side model.CrossingSide, toCrossing bool) legResult {
	// First attempt routes against the side's name; names match how the
	// routing provider indexes customs posts.
	byName := model.LocationRef{Name: side.Name}
	km, err := r.routeLeg(ctx, endpoint, byName, toCrossing)
	if err == nil {
		return legResult{km: km, precise: true}
	}

	slog.Debug("precise leg failed by name, retrying with stored coordinate",
		"crossing_side", side.Name,
		"error", err)

	// Names are ambiguous across jurisdictions; coordinates are not.
	byCoord := model.LocationRef{Coordinate: side.Coordinate}
	km, err = r.routeLeg(ctx, endpoint, byCoord, toCrossing)
	if err == nil {
		return legResult{km: km, precise: true}
	}

	slog.Warn("precise routing unavailable for leg, degrading to approximation",
		"crossing_side", side.Name,
		"error", err)

	// Approximation needs a coordinate on the external endpoint.
	if endpoint.Coordinate.IsZero() {
		return legResult{err: fmt.Errorf("no endpoint coordinate for approximation: %w", err)}
	}

	km = Haversine(endpoint.Coordinate, side.Coordinate) * r.cfg.RoadFactor
	return legResult{km: km, precise: false}
}

// routeLeg issues a single routing query with retry and a per-call timeout.
func (r *Resolver) routeLeg(ctx context.Context, endpoint, crossing model.LocationRef, toCrossing bool) (float64, error) {
	leg := service.Leg{From: endpoint, To: crossing}
	if !toCrossing {
		leg = service.Leg{From: crossing, To: endpoint}
	}

	var km float64
	err := common.WithRetry(ctx, func() error {
		legCtx, cancel := context.WithTimeout(ctx, r.cfg.LegTimeout)
		defer cancel()

		// The router classifies its own failures; a permanent
		// classification must not be retried here.
		var routeErr error
		km, routeErr = r.router.RouteDistance(legCtx, leg)
		return routeErr
	}, service.RetryOptions{
		MaxAttempts:  2,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
	})
	if err != nil {
		return 0, err
	}
	if km <= 0 {
		return 0, fmt.Errorf("router returned non-positive distance %v", km)
	}
	return km, nil
}
