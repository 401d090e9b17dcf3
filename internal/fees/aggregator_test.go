package fees

import (
	"math"
	"testing"

	"github.com/frontera-freight/frontera/internal/model"
)

var testRates = model.ExchangeRateSet{USDToBRL: 5.40, USDToGS: 7500}

func baseRequest(tonnage float64) model.ShipmentRequest {
	return model.ShipmentRequest{
		Tonnage:     tonnage,
		Origin:      model.LocationRef{Name: "Campo Mourão"},
		Destination: model.LocationRef{Name: "Asunción"},
		Rates:       testRates,
	}
}

func routeDist(total float64) model.RouteDistance {
	return model.RouteDistance{Total: total, Precision: model.PrecisionExact}
}

func findItem(t *testing.T, items []model.CostItem, category string) model.CostItem {
	t.Helper()
	for _, item := range items {
		if item.Category == category {
			return item
		}
	}
	t.Fatalf("no %q item in %v", category, items)
	return model.CostItem{}
}

func hasItem(items []model.CostItem, category string) bool {
	for _, item := range items {
		if item.Category == category {
			return true
		}
	}
	return false
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestTruckCount(t *testing.T) {
	tests := []struct {
		tonnage float64
		want    int
	}{
		{0, 0},
		{-5, 0},
		{1, 1},
		{32, 1},
		{32.5, 2},
		{33, 2},
		{64, 2},
		{1000, 32},
	}
	for _, tt := range tests {
		if got := TruckCount(tt.tonnage); got != tt.want {
			t.Errorf("TruckCount(%v) = %d, want %d", tt.tonnage, got, tt.want)
		}
	}
}

func TestBaselineFreightIsFirstAndReferenceOnly(t *testing.T) {
	items := Aggregate(model.CrossingPoint{}, baseRequest(100), routeDist(500), testRates)
	if len(items) == 0 {
		t.Fatal("expected at least the baseline item")
	}
	first := items[0]
	if first.Category != "Baseline Freight" {
		t.Fatalf("first item = %q, want baseline freight", first.Category)
	}
	if !first.ReferenceOnly {
		t.Error("baseline item must be reference-only")
	}
	// (500 ÷ 25) × 100 = 2000
	if !almostEqual(first.Amount, 2000) {
		t.Errorf("baseline amount = %v, want 2000", first.Amount)
	}
}

func TestBorderFundLotTiers(t *testing.T) {
	cp := model.CrossingPoint{Fees: model.FeeConfig{
		BorderFund: model.BorderFundFee{
			Enabled:     true,
			PerTruck:    220000,
			LotUpTo1000: 400000,
			LotOver1000: 500000,
		},
	}}

	// 1000 t → 32 trucks, ≤1000 tier applies.
	items := Aggregate(cp, baseRequest(1000), routeDist(400), testRates)
	item := findItem(t, items, "Border Fund")
	wantGS := 32.0*220000 + 400000
	if !almostEqual(item.Amount, wantGS/7500) {
		t.Errorf("border fund = %v, want %v", item.Amount, wantGS/7500)
	}

	// 1001 t → over-1000 tier.
	items = Aggregate(cp, baseRequest(1001), routeDist(400), testRates)
	item = findItem(t, items, "Border Fund")
	wantGS = 32.0*220000 + 500000
	if !almostEqual(item.Amount, wantGS/7500) {
		t.Errorf("border fund over tier = %v, want %v", item.Amount, wantGS/7500)
	}
}

func TestEnabledCategoryWithZeroAmountsContributesNothing(t *testing.T) {
	cp := model.CrossingPoint{Fees: model.FeeConfig{
		BorderFund:        model.BorderFundFee{Enabled: true},
		Laboratory:        model.LaboratoryFee{Enabled: true},
		Parking:           model.ParkingFee{Enabled: true},
		RegulatoryTransit: model.RegulatoryTransitFee{Enabled: true},
		AgentCommission:   model.AgentCommissionFee{Enabled: true},
		Inspection:        model.InspectionFee{Enabled: true},
	}}
	items := Aggregate(cp, baseRequest(100), routeDist(300), testRates)
	if len(items) != 1 {
		t.Fatalf("expected only the baseline item, got %v", items)
	}
}

func TestTraversalPayerPrecedence(t *testing.T) {
	cp := model.CrossingPoint{Fees: model.FeeConfig{
		Traversal: model.TraversalFee{Enabled: true, DefaultCost: 300},
	}}

	// Caller does not pay, crossing is not always-company-paid: no item.
	items := Aggregate(cp, baseRequest(64), routeDist(300), testRates)
	if hasItem(items, "Traversal") {
		t.Error("traversal included although nobody pays it")
	}

	// Caller pays.
	req := baseRequest(64)
	req.Policy.CompanyPaysTraversal = true
	items = Aggregate(cp, req, routeDist(300), testRates)
	item := findItem(t, items, "Traversal")
	if !almostEqual(item.Amount, 2*300/5.40) {
		t.Errorf("traversal = %v, want %v", item.Amount, 2*300/5.40)
	}

	// AlwaysCompanyPaid wins even when the caller's flag is false.
	cp.Fees.Traversal.AlwaysCompanyPaid = true
	items = Aggregate(cp, baseRequest(64), routeDist(300), testRates)
	findItem(t, items, "Traversal")

	// Per-request override behaves like the policy flag.
	cp.Fees.Traversal.AlwaysCompanyPaid = false
	req = baseRequest(64)
	req.ForceTraversalPaid = true
	items = Aggregate(cp, req, routeDist(300), testRates)
	findItem(t, items, "Traversal")
}

func TestTraversalPrefersAlternateDock(t *testing.T) {
	cp := model.CrossingPoint{Fees: model.FeeConfig{
		Traversal: model.TraversalFee{
			Enabled:           true,
			AlwaysCompanyPaid: true,
			DefaultCost:       300,
			AlternateDockCost: 450,
			UseAlternateDock:  true,
		},
	}}
	items := Aggregate(cp, baseRequest(32), routeDist(300), testRates)
	item := findItem(t, items, "Traversal (Alternate Dock)")
	if !almostEqual(item.Amount, 450/5.40) {
		t.Errorf("alternate dock traversal = %v, want %v", item.Amount, 450/5.40)
	}
	if hasItem(items, "Traversal") {
		t.Error("default traversal item should be replaced by the alternate dock item")
	}
}

func TestInspectionShapesSum(t *testing.T) {
	cp := model.CrossingPoint{Fees: model.FeeConfig{
		Inspection: model.InspectionFee{
			Enabled:          true,
			FixedPerTon:      0.30,
			SettlementPerTon: 0.20,
			LotUpTo1000:      1500,
			LotOver1000:      2000,
		},
	}}
	items := Aggregate(cp, baseRequest(100), routeDist(300), testRates)
	fixed := findItem(t, items, "Government Inspection (Fixed)")
	settlement := findItem(t, items, "Government Inspection (Settlement)")
	lot := findItem(t, items, "Government Inspection (Lot)")
	if !almostEqual(fixed.Amount, 30) {
		t.Errorf("fixed = %v, want 30", fixed.Amount)
	}
	if !almostEqual(settlement.Amount, 20) {
		t.Errorf("settlement = %v, want 20", settlement.Amount)
	}
	if !almostEqual(lot.Amount, 1500/5.40) {
		t.Errorf("lot = %v, want %v", lot.Amount, 1500/5.40)
	}
	if hasItem(items, "Government Inspection") {
		t.Error("per-ton inspection item appeared without a per-ton rate")
	}
}

func TestCarrierPaymentAndCommission(t *testing.T) {
	cp := model.CrossingPoint{Fees: model.FeeConfig{
		AgentCommission: model.AgentCommissionFee{Enabled: true, PerTon: 2},
	}}
	req := baseRequest(500)
	req.CarrierPaymentPerTon = 120
	items := Aggregate(cp, req, routeDist(600), testRates)

	carrier := findItem(t, items, "Carrier Payment")
	if !almostEqual(carrier.Amount, 500*120/5.40) {
		t.Errorf("carrier payment = %v, want %v", carrier.Amount, 500*120/5.40)
	}
	commission := findItem(t, items, "Agent Commission")
	if !almostEqual(commission.Amount, 500*2/5.40) {
		t.Errorf("commission = %v, want %v", commission.Amount, 500*2/5.40)
	}
}

func TestInsuranceAndSpecialHandling(t *testing.T) {
	req := baseRequest(200)
	req.Policy.IncludeInsurance = true
	req.Policy.SpecialHandling = true
	req.MerchandiseValue = 100000
	items := Aggregate(model.CrossingPoint{}, req, routeDist(300), testRates)

	insurance := findItem(t, items, "Insurance")
	if !almostEqual(insurance.Amount, 140) {
		t.Errorf("insurance = %v, want 140", insurance.Amount)
	}
	handling := findItem(t, items, "Special Handling")
	if !almostEqual(handling.Amount, 500) {
		t.Errorf("special handling = %v, want 500", handling.Amount)
	}
}

func TestProcessSurchargeExcludesReferenceItems(t *testing.T) {
	req := baseRequest(100)
	req.CarrierPaymentPerTon = 54 // 100 t × R$54 = R$5400 → $1000
	req.Policy.CustomsProcess = model.ProcessExpedited
	items := Aggregate(model.CrossingPoint{}, req, routeDist(2500), testRates)

	surcharge := findItem(t, items, "Expedited Process")
	// 15% of the $1000 carrier payment; the $10000 baseline is excluded.
	if !almostEqual(surcharge.Amount, 150) {
		t.Errorf("expedited surcharge = %v, want 150", surcharge.Amount)
	}

	req.Policy.CustomsProcess = model.ProcessPriority
	items = Aggregate(model.CrossingPoint{}, req, routeDist(2500), testRates)
	surcharge = findItem(t, items, "Priority Process")
	if !almostEqual(surcharge.Amount, 300) {
		t.Errorf("priority surcharge = %v, want 300", surcharge.Amount)
	}
}

func TestProfitMarginAppliedAfterSurcharge(t *testing.T) {
	req := baseRequest(100)
	req.CarrierPaymentPerTon = 54
	req.ProfitMarginPerTon = 3
	req.Policy.CustomsProcess = model.ProcessExpedited
	items := Aggregate(model.CrossingPoint{}, req, routeDist(1000), testRates)

	margin := findItem(t, items, "Profit Margin")
	if !almostEqual(margin.Amount, 300) {
		t.Errorf("margin = %v, want 300", margin.Amount)
	}
	surcharge := findItem(t, items, "Expedited Process")
	// Surcharge base stays the carrier payment alone.
	if !almostEqual(surcharge.Amount, 150) {
		t.Errorf("surcharge = %v, want 150 (margin must not be surcharged)", surcharge.Amount)
	}
}

func TestTotalsSplitReferenceItems(t *testing.T) {
	items := []model.CostItem{
		{Category: "Baseline Freight", Amount: 2000, ReferenceOnly: true},
		{Category: "Carrier Payment", Amount: 1000},
		{Category: "Parking", Amount: 50},
	}
	total, comparison := Totals(items)
	if !almostEqual(total, 1050) {
		t.Errorf("total = %v, want 1050", total)
	}
	if !almostEqual(comparison, 3050) {
		t.Errorf("comparison = %v, want 3050", comparison)
	}
}
