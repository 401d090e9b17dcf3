package model

import (
	"fmt"
	"time"
)

// LocationRef identifies an endpoint of a shipment. At least one of the three
// fields must be set; the distance resolver prefers them in the order
// place ID, coordinate, name.
type LocationRef struct {
	Name       string
	PlaceID    string
	Coordinate Coordinate
}

// IsZero reports whether the reference carries no usable data.
func (r LocationRef) IsZero() bool {
	return r.Name == "" && r.PlaceID == "" && r.Coordinate.IsZero()
}

// CustomsProcess selects the customs processing tier for a shipment.
type CustomsProcess string

// Customs process tiers. Expedited and priority add a percentage surcharge on
// top of the accumulated costs.
const (
	ProcessNormal    CustomsProcess = "normal"
	ProcessExpedited CustomsProcess = "expedited"
	ProcessPriority  CustomsProcess = "priority"
)

// PolicyFlags carries the caller's per-request cost policies.
type PolicyFlags struct {
	IncludeInsurance     bool
	SpecialHandling      bool
	CustomsProcess       CustomsProcess
	CompanyPaysTraversal bool
}

// ShipmentRequest is a single quote request. Overrides are explicit request
// fields; there is no ambient override state anywhere in the engine.
type ShipmentRequest struct {
	Tonnage     float64
	Origin      LocationRef
	Destination LocationRef
	Policy      PolicyFlags

	CarrierPaymentPerTon float64 // BRL per ton, caller-supplied
	MerchandiseValue     float64 // USD, basis for insurance
	ProfitMarginPerTon   float64 // USD per ton

	Rates ExchangeRateSet

	// ForcedCrossingPoint restricts evaluation to the named candidate.
	ForcedCrossingPoint string
	// ForceTraversalPaid makes the company pay the traversal fee regardless
	// of Policy.CompanyPaysTraversal.
	ForceTraversalPaid bool
}

// Validate checks the request for the minimum data the engine needs.
func (r *ShipmentRequest) Validate() error {
	if r.Tonnage <= 0 {
		return fmt.Errorf("tonnage must be positive, got %v", r.Tonnage)
	}
	if r.Origin.IsZero() {
		return fmt.Errorf("origin reference is empty")
	}
	if r.Destination.IsZero() {
		return fmt.Errorf("destination reference is empty")
	}
	return nil
}

// CompanyPaysTraversal resolves the effective traversal payer flag.
func (r *ShipmentRequest) CompanyPaysTraversal() bool {
	return r.ForceTraversalPaid || r.Policy.CompanyPaysTraversal
}

// CostItem is one line of an itemized quote. Amounts are always in the
// request's target currency (USD). Reference-only items are excluded from the
// itemized total but included in the comparison total used for ranking.
type CostItem struct {
	Category      string
	Details       string
	Amount        float64
	ReferenceOnly bool
}

// DistancePrecision tags which resolver stage produced a distance.
type DistancePrecision string

// Precision levels for resolved distances.
const (
	PrecisionExact       DistancePrecision = "exact"
	PrecisionApproximate DistancePrecision = "approximate"
)

// RouteDistance is the three-segment distance through a crossing point, in km.
type RouteDistance struct {
	OriginToCrossing      float64
	Traversal             float64
	CrossingToDestination float64
	Total                 float64
	Precision             DistancePrecision
}

// CandidateResult is the evaluated outcome for one crossing point. It is
// recomputed per request and never persisted.
type CandidateResult struct {
	CrossingPoint      string
	PairedSide         string
	Distance           RouteDistance
	Items              []CostItem
	TotalCost          float64 // sum of non-reference items
	TotalForComparison float64 // TotalCost + reference-only items
	CostPerTon         float64
	Rank               int
	DeltaPercent       float64 // vs. the recommended candidate
}

// Recommendation is the ranked output of a quote evaluation. Comparison is
// sorted ascending by comparison total; Best points at Comparison[0].
type Recommendation struct {
	Best       *CandidateResult
	Comparison []CandidateResult
}

// Quote is a persisted quote record.
type Quote struct {
	ID                   string
	CreatedAt            time.Time
	Origin               string
	Destination          string
	Tonnage              float64
	CrossingPoint        string
	TotalCost            float64
	TotalDistance        float64
	CarrierPaymentPerTon float64
}
