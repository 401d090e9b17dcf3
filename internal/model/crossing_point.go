// Package model defines the core domain types shared across the application.
package model

import (
	"fmt"
	"strings"
)

// Currency identifies one of the supported currencies.
type Currency string

// Supported currencies. USD is the anchor: every conversion passes through it.
const (
	CurrencyUSD Currency = "USD"
	CurrencyBRL Currency = "BRL"
	CurrencyGS  Currency = "GS"
)

// ExchangeRateSet holds the conversion factors supplied with each request.
// The core never fetches or caches rates.
type ExchangeRateSet struct {
	USDToBRL float64
	USDToGS  float64
}

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64
	Lng float64
}

// IsZero reports whether the coordinate is unset.
func (c Coordinate) IsZero() bool {
	return c.Lat == 0 && c.Lng == 0
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%f,%f", c.Lat, c.Lng)
}

// CrossingSide describes one administrative side of a border crossing.
type CrossingSide struct {
	Name       string
	Coordinate Coordinate
}

// CrossingPoint is a paired border-crossing definition. Records are created
// and edited by an administrative collaborator; the engine treats them as
// read-only.
type CrossingPoint struct {
	ID              string
	Name            string
	Active          bool
	OriginSide      CrossingSide // side facing the shipment origin
	DestinationSide CrossingSide // side facing the shipment destination
	Fees            FeeConfig
}

// Validate checks that the crossing point is eligible for evaluation.
// Both sides need coordinates; names alone are ambiguous across jurisdictions.
func (cp *CrossingPoint) Validate() error {
	if strings.TrimSpace(cp.Name) == "" {
		return fmt.Errorf("crossing point has no name")
	}
	if cp.OriginSide.Coordinate.IsZero() {
		return fmt.Errorf("crossing point %q: origin side has no coordinate", cp.Name)
	}
	if cp.DestinationSide.Coordinate.IsZero() {
		return fmt.Errorf("crossing point %q: destination side has no coordinate", cp.Name)
	}
	return nil
}

// FeeConfig bundles the independently toggleable fee categories of a crossing
// point. An enabled category whose amounts are all zero contributes nothing;
// it is never an error.
type FeeConfig struct {
	BorderFund        BorderFundFee
	Laboratory        LaboratoryFee
	Traversal         TraversalFee
	Inspection        InspectionFee
	Parking           ParkingFee
	RegulatoryTransit RegulatoryTransitFee
	AgentCommission   AgentCommissionFee
}

// BorderFundFee is charged per truck plus a tonnage-tiered lot amount,
// denominated in the crossing point's local minor currency (GS).
type BorderFundFee struct {
	Enabled     bool
	PerTruck    float64 // GS per truck
	LotUpTo1000 float64 // GS for lots up to 1000 t
	LotOver1000 float64 // GS for lots above 1000 t
}

// LotAmount selects the tier amount for the given tonnage.
func (f BorderFundFee) LotAmount(tonnage float64) float64 {
	if tonnage <= 1000 {
		return f.LotUpTo1000
	}
	return f.LotOver1000
}

// LaboratoryFee is a per-ton fee charged by some crossing points, in USD.
type LaboratoryFee struct {
	Enabled bool
	PerTon  float64 // USD per ton
}

// TraversalFee covers the physical crossing mechanism (e.g. a ferry), charged
// per truck in BRL. AlwaysCompanyPaid marks crossings where the company pays
// regardless of the caller's payer flag. AlternateDockCost, when set, replaces
// DefaultCost for crossings flagged to use their alternate dock.
type TraversalFee struct {
	Enabled           bool
	DefaultCost       float64 // BRL per truck
	AlternateDockCost float64 // BRL per truck, destination-specific dock
	UseAlternateDock  bool
	AlwaysCompanyPaid bool
}

// InspectionFee supports three configuration shapes: a plain per-ton rate, a
// fixed-plus-settlement per-ton pair, and a BRL tonnage tier. Whichever fields
// are populated are summed.
type InspectionFee struct {
	Enabled          bool
	PerTon           float64 // USD per ton
	FixedPerTon      float64 // USD per ton, fixed component
	SettlementPerTon float64 // USD per ton, settlement component
	LotUpTo1000      float64 // BRL flat for lots up to 1000 t
	LotOver1000      float64 // BRL flat for lots above 1000 t
}

// LotAmount selects the tiered BRL amount for the given tonnage.
func (f InspectionFee) LotAmount(tonnage float64) float64 {
	if tonnage <= 1000 {
		return f.LotUpTo1000
	}
	return f.LotOver1000
}

// ParkingFee is a flat per-truck fee in BRL.
type ParkingFee struct {
	Enabled  bool
	PerTruck float64 // BRL per truck
}

// RegulatoryTransitFee is a flat per-truck fee in BRL.
type RegulatoryTransitFee struct {
	Enabled  bool
	PerTruck float64 // BRL per truck
}

// AgentCommissionFee is a per-ton commission in BRL.
type AgentCommissionFee struct {
	Enabled bool
	PerTon  float64 // BRL per ton
}
