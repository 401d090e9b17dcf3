// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/frontera-freight/frontera/internal/model"
)

// Leg is a single two-point routing query. Endpoints prefer, in order,
// place ID, coordinate, free-text name.
type Leg struct {
	From model.LocationRef
	To   model.LocationRef
}

// Router is the routing collaborator. It returns the road distance of a leg
// in kilometers, or an error when the leg cannot be routed. Implementations
// are expected to be safe for concurrent use.
type Router interface {
	RouteDistance(ctx context.Context, leg Leg) (float64, error)
}

// Storage defines the contract for our persistence layer. The engine reads
// crossing points per request and never caches them.
type Storage interface {
	// Crossing point operations
	GetActiveCrossingPoints(ctx context.Context) ([]model.CrossingPoint, error)
	GetCrossingPointByName(ctx context.Context, name string) (*model.CrossingPoint, error)
	SaveCrossingPoint(ctx context.Context, cp *model.CrossingPoint) error

	// Quote operations
	SaveQuote(ctx context.Context, quote *model.Quote) error
	GetQuotes(ctx context.Context, limit int) ([]model.Quote, error)

	// Prediction feedback operations
	SavePredictionFeedback(ctx context.Context, fb *model.PredictionFeedback) error

	Close() error
}

// RetryOptions configures retry behavior for operations that may fail
// transiently.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
