// Package engine evaluates a shipment request against every candidate
// crossing point and produces a ranked recommendation.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/frontera-freight/frontera/internal/common"
	"github.com/frontera-freight/frontera/internal/fees"
	"github.com/frontera-freight/frontera/internal/model"
)

// DistanceResolver resolves the three-segment route through one crossing
// point. Satisfied by *distance.Resolver.
type DistanceResolver interface {
	Resolve(ctx context.Context, origin, destination model.LocationRef, cp model.CrossingPoint) (model.RouteDistance, error)
}

// Options configures evaluation behavior.
type Options struct {
	ParallelWorkers int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{ParallelWorkers: 4}
}

// Engine coordinates distance resolution and fee aggregation across
// candidates.
type Engine struct {
	resolver DistanceResolver
	opts     Options
}

// New creates an evaluation engine.
func New(resolver DistanceResolver, opts Options) *Engine {
	if opts.ParallelWorkers <= 0 {
		opts.ParallelWorkers = DefaultOptions().ParallelWorkers
	}
	return &Engine{resolver: resolver, opts: opts}
}

// candidateJob pairs a crossing point with its declaration position so ties
// can be broken deterministically by input order.
type candidateJob struct {
	cp    model.CrossingPoint
	index int
}

type candidateOutcome struct {
	result model.CandidateResult
	index  int
	err    error
}

// Rank evaluates every eligible candidate in parallel and returns them
// sorted ascending by comparison total. Candidates whose route cannot be
// resolved are logged and excluded; if none survive the evaluation fails
// with ErrNoRouteAvailable.
func (e *Engine) Rank(ctx context.Context, req model.ShipmentRequest, candidates []model.CrossingPoint) (*model.Recommendation, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shipment request: %w", err)
	}

	jobs, err := e.eligibleCandidates(req, candidates)
	if err != nil {
		return nil, err
	}

	slog.Info("Evaluating crossing points",
		"candidates", len(jobs),
		"tonnage", req.Tonnage,
		"origin", req.Origin.Name,
		"destination", req.Destination.Name)

	outcomes := e.evaluateParallel(ctx, req, jobs)

	valid := make([]model.CandidateResult, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.err != nil {
			slog.Warn("Excluding crossing point from comparison",
				"crossing_point", outcome.result.CrossingPoint,
				"error", outcome.err)
			continue
		}
		valid = append(valid, outcome.result)
	}

	if len(valid) == 0 {
		// A cancelled evaluation says nothing about route availability.
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("evaluation interrupted: %w", err)
		}
		return nil, fmt.Errorf("no crossing point yielded a usable route for %s → %s: %w",
			req.Origin.Name, req.Destination.Name, common.ErrNoRouteAvailable)
	}

	// Outcomes arrive in declaration order, so a stable sort breaks ties by
	// input position.
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].TotalForComparison < valid[j].TotalForComparison
	})

	best := valid[0].TotalForComparison
	for i := range valid {
		valid[i].Rank = i + 1
		if best > 0 {
			valid[i].DeltaPercent = (valid[i].TotalForComparison - best) / best * 100
		}
	}

	return &model.Recommendation{Best: &valid[0], Comparison: valid}, nil
}

// eligibleCandidates filters out inactive and misconfigured crossing points
// and applies the request's forced-crossing override.
func (e *Engine) eligibleCandidates(req model.ShipmentRequest, candidates []model.CrossingPoint) ([]candidateJob, error) {
	forced := strings.TrimSpace(req.ForcedCrossingPoint)
	jobs := make([]candidateJob, 0, len(candidates))

	for i, cp := range candidates {
		if forced != "" && !strings.EqualFold(cp.Name, forced) {
			continue
		}
		if !cp.Active {
			slog.Debug("Skipping inactive crossing point", "crossing_point", cp.Name)
			continue
		}
		if err := cp.Validate(); err != nil {
			slog.Warn("Skipping misconfigured crossing point",
				"crossing_point", cp.Name,
				"error", err)
			continue
		}
		jobs = append(jobs, candidateJob{cp: cp, index: i})
	}

	if len(jobs) == 0 {
		if forced != "" {
			return nil, fmt.Errorf("forced crossing point %q is unknown or inactive: %w",
				forced, common.ErrInvalidCrossingPoint)
		}
		return nil, fmt.Errorf("no active crossing points configured: %w", common.ErrNoRouteAvailable)
	}

	return jobs, nil
}

// evaluateParallel fans candidates out to a bounded worker pool and returns
// the outcomes in declaration order.
func (e *Engine) evaluateParallel(ctx context.Context, req model.ShipmentRequest, jobs []candidateJob) []candidateOutcome {
	workers := e.opts.ParallelWorkers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	workChan := make(chan candidateJob, len(jobs))
	for _, job := range jobs {
		workChan <- job
	}
	close(workChan)

	resultsChan := make(chan candidateOutcome, len(jobs))

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for job := range workChan {
				select {
				case <-ctx.Done():
					resultsChan <- candidateOutcome{
						result: model.CandidateResult{CrossingPoint: job.cp.Name},
						index:  job.index,
						err:    ctx.Err(),
					}
					continue
				default:
				}
				resultsChan <- e.evaluate(ctx, req, job)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	outcomes := make([]candidateOutcome, 0, len(jobs))
	for outcome := range resultsChan {
		outcomes = append(outcomes, outcome)
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].index < outcomes[j].index })
	return outcomes
}

// evaluate produces the full cost breakdown for one crossing point.
func (e *Engine) evaluate(ctx context.Context, req model.ShipmentRequest, job candidateJob) candidateOutcome {
	cp := job.cp

	dist, err := e.resolver.Resolve(ctx, req.Origin, req.Destination, cp)
	if err != nil {
		return candidateOutcome{
			result: model.CandidateResult{CrossingPoint: cp.Name},
			index:  job.index,
			err:    err,
		}
	}

	items := fees.Aggregate(cp, req, dist, req.Rates)
	totalCost, totalForComparison := fees.Totals(items)

	var costPerTon float64
	if req.Tonnage > 0 {
		costPerTon = totalCost / req.Tonnage
	}

	return candidateOutcome{
		result: model.CandidateResult{
			CrossingPoint:      cp.Name,
			PairedSide:         fmt.Sprintf("%s / %s", cp.OriginSide.Name, cp.DestinationSide.Name),
			Distance:           dist,
			Items:              items,
			TotalCost:          totalCost,
			TotalForComparison: totalForComparison,
			CostPerTon:         costPerTon,
		},
		index: job.index,
	}
}
