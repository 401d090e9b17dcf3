// Package fees composes the itemized, currency-normalized cost list for a
// single crossing point. Every category is computed independently; an item is
// appended only when its category is enabled and its native amount is
// non-zero.
package fees

import (
	"fmt"
	"math"

	"github.com/frontera-freight/frontera/internal/currency"
	"github.com/frontera-freight/frontera/internal/model"
)

// TruckCapacityTons is the carrying capacity of a single truck.
const TruckCapacityTons = 32.0

// freightBaseDivisor converts route km into the baseline freight rate used
// for ranking comparisons.
const freightBaseDivisor = 25.0

const (
	insuranceRate         = 0.0014 // 0.14% of merchandise value
	specialHandlingPerTon = 2.5    // USD per ton
	expeditedSurcharge    = 0.15
	prioritySurcharge     = 0.30
)

// TruckCount returns the number of trucks needed for the given tonnage.
func TruckCount(tonnage float64) int {
	if tonnage <= 0 {
		return 0
	}
	return int(math.Ceil(tonnage / TruckCapacityTons))
}

// BaselineFreight is the reference-only freight estimate used to keep ranking
// consistent with the simpler quoting path: (distance ÷ 25) × tonnage.
func BaselineFreight(distanceKm, tonnage float64) float64 {
	result := distanceKm / freightBaseDivisor * tonnage
	if math.IsNaN(result) {
		return 0
	}
	return result
}

// InsuranceCost returns the insurance premium for a merchandise value in USD.
func InsuranceCost(merchandiseValueUSD float64) float64 {
	return merchandiseValueUSD * insuranceRate
}

// Aggregate produces the itemized cost list for one crossing point. All
// amounts are converted to USD with the request's rates. The baseline freight
// item comes first and is marked reference-only.
func Aggregate(cp model.CrossingPoint, req model.ShipmentRequest, dist model.RouteDistance, rates model.ExchangeRateSet) []model.CostItem {
	trucks := TruckCount(req.Tonnage)
	items := make([]model.CostItem, 0, 12)

	items = append(items, model.CostItem{
		Category:      "Baseline Freight",
		Details:       fmt.Sprintf("(%.0f km ÷ %.0f) × %.0f t, ranking reference", dist.Total, freightBaseDivisor, req.Tonnage),
		Amount:        BaselineFreight(dist.Total, req.Tonnage),
		ReferenceOnly: true,
	})

	items = appendBorderFund(items, cp.Fees.BorderFund, req.Tonnage, trucks, rates)
	items = appendLaboratory(items, cp.Fees.Laboratory, req.Tonnage)
	items = appendTraversal(items, cp.Fees.Traversal, req, trucks, rates)

	if req.CarrierPaymentPerTon > 0 {
		brl := req.CarrierPaymentPerTon * req.Tonnage
		items = append(items, model.CostItem{
			Category: "Carrier Payment",
			Details:  fmt.Sprintf("%.0f t × R$ %.2f/t", req.Tonnage, req.CarrierPaymentPerTon),
			Amount:   currency.Convert(brl, model.CurrencyBRL, model.CurrencyUSD, rates),
		})
	}

	items = appendInspection(items, cp.Fees.Inspection, req.Tonnage, rates)

	if f := cp.Fees.Parking; f.Enabled && f.PerTruck > 0 {
		brl := float64(trucks) * f.PerTruck
		items = append(items, model.CostItem{
			Category: "Parking",
			Details:  fmt.Sprintf("%d truck(s) × R$ %.2f", trucks, f.PerTruck),
			Amount:   currency.Convert(brl, model.CurrencyBRL, model.CurrencyUSD, rates),
		})
	}

	if f := cp.Fees.RegulatoryTransit; f.Enabled && f.PerTruck > 0 {
		brl := float64(trucks) * f.PerTruck
		items = append(items, model.CostItem{
			Category: "Regulatory Transit",
			Details:  fmt.Sprintf("%d truck(s) × R$ %.2f", trucks, f.PerTruck),
			Amount:   currency.Convert(brl, model.CurrencyBRL, model.CurrencyUSD, rates),
		})
	}

	if f := cp.Fees.AgentCommission; f.Enabled && f.PerTon > 0 {
		brl := req.Tonnage * f.PerTon
		items = append(items, model.CostItem{
			Category: "Agent Commission",
			Details:  fmt.Sprintf("%.0f t × R$ %.2f/t", req.Tonnage, f.PerTon),
			Amount:   currency.Convert(brl, model.CurrencyBRL, model.CurrencyUSD, rates),
		})
	}

	if req.Policy.IncludeInsurance && req.MerchandiseValue > 0 {
		items = append(items, model.CostItem{
			Category: "Insurance",
			Details:  fmt.Sprintf("$%.2f × %.2f%%", req.MerchandiseValue, insuranceRate*100),
			Amount:   InsuranceCost(req.MerchandiseValue),
		})
	}

	if req.Policy.SpecialHandling {
		items = append(items, model.CostItem{
			Category: "Special Handling",
			Details:  fmt.Sprintf("%.0f t × $%.2f/t", req.Tonnage, specialHandlingPerTon),
			Amount:   req.Tonnage * specialHandlingPerTon,
		})
	}

	items = appendProcessSurcharge(items, req.Policy.CustomsProcess)

	if req.ProfitMarginPerTon > 0 {
		items = append(items, model.CostItem{
			Category: "Profit Margin",
			Details:  fmt.Sprintf("%.0f t × $%.2f/t", req.Tonnage, req.ProfitMarginPerTon),
			Amount:   req.Tonnage * req.ProfitMarginPerTon,
		})
	}

	return items
}

func appendBorderFund(items []model.CostItem, f model.BorderFundFee, tonnage float64, trucks int, rates model.ExchangeRateSet) []model.CostItem {
	if !f.Enabled {
		return items
	}

	perTruckGS := float64(trucks) * f.PerTruck
	lotGS := f.LotAmount(tonnage)
	totalGS := perTruckGS + lotGS
	if totalGS <= 0 {
		return items
	}

	return append(items, model.CostItem{
		Category: "Border Fund",
		Details:  fmt.Sprintf("%d truck(s) × %.0f GS + %.0f GS lot", trucks, f.PerTruck, lotGS),
		Amount:   currency.Convert(totalGS, model.CurrencyGS, model.CurrencyUSD, rates),
	})
}

func appendLaboratory(items []model.CostItem, f model.LaboratoryFee, tonnage float64) []model.CostItem {
	if !f.Enabled || f.PerTon <= 0 {
		return items
	}
	return append(items, model.CostItem{
		Category: "Laboratory",
		Details:  fmt.Sprintf("%.0f t × $%.2f/t", tonnage, f.PerTon),
		Amount:   tonnage * f.PerTon,
	})
}

// appendTraversal applies the traversal (ferry) fee. The crossing point's
// AlwaysCompanyPaid flag has higher precedence than the caller's payer flag.
// A destination-specific alternate dock cost, when configured, is preferred
// over the default cost.
func appendTraversal(items []model.CostItem, f model.TraversalFee, req model.ShipmentRequest, trucks int, rates model.ExchangeRateSet) []model.CostItem {
	if !f.Enabled {
		return items
	}
	if !f.AlwaysCompanyPaid && !req.CompanyPaysTraversal() {
		return items
	}

	label := "Traversal"
	cost := f.DefaultCost
	if f.UseAlternateDock && f.AlternateDockCost > 0 {
		label = "Traversal (Alternate Dock)"
		cost = f.AlternateDockCost
	}
	if cost <= 0 {
		return items
	}

	brl := float64(trucks) * cost
	return append(items, model.CostItem{
		Category: label,
		Details:  fmt.Sprintf("%d truck(s) × R$ %.2f", trucks, cost),
		Amount:   currency.Convert(brl, model.CurrencyBRL, model.CurrencyUSD, rates),
	})
}

// appendInspection handles the three inspection fee shapes. Configurations
// may populate more than one; whichever fields are non-zero contribute.
func appendInspection(items []model.CostItem, f model.InspectionFee, tonnage float64, rates model.ExchangeRateSet) []model.CostItem {
	if !f.Enabled {
		return items
	}

	if f.PerTon > 0 {
		items = append(items, model.CostItem{
			Category: "Government Inspection",
			Details:  fmt.Sprintf("%.0f t × $%.2f/t", tonnage, f.PerTon),
			Amount:   tonnage * f.PerTon,
		})
	}

	if f.FixedPerTon > 0 {
		items = append(items, model.CostItem{
			Category: "Government Inspection (Fixed)",
			Details:  fmt.Sprintf("%.0f t × $%.2f/t", tonnage, f.FixedPerTon),
			Amount:   tonnage * f.FixedPerTon,
		})
	}
	if f.SettlementPerTon > 0 {
		items = append(items, model.CostItem{
			Category: "Government Inspection (Settlement)",
			Details:  fmt.Sprintf("%.0f t × $%.2f/t", tonnage, f.SettlementPerTon),
			Amount:   tonnage * f.SettlementPerTon,
		})
	}

	if lot := f.LotAmount(tonnage); lot > 0 {
		items = append(items, model.CostItem{
			Category: "Government Inspection (Lot)",
			Details:  fmt.Sprintf("flat R$ %.2f for %.0f t lot", lot, tonnage),
			Amount:   currency.Convert(lot, model.CurrencyBRL, model.CurrencyUSD, rates),
		})
	}

	return items
}

// appendProcessSurcharge adds the expedited/priority surcharge computed over
// the non-reference items accumulated so far.
func appendProcessSurcharge(items []model.CostItem, process model.CustomsProcess) []model.CostItem {
	var pct float64
	var label, window string
	switch process {
	case model.ProcessExpedited:
		pct, label, window = expeditedSurcharge, "Expedited Process", "3-5 days"
	case model.ProcessPriority:
		pct, label, window = prioritySurcharge, "Priority Process", "1-2 days"
	default:
		return items
	}

	var subtotal float64
	for _, item := range items {
		if item.ReferenceOnly {
			continue
		}
		subtotal += item.Amount
	}
	if subtotal <= 0 {
		return items
	}

	return append(items, model.CostItem{
		Category: label,
		Details:  fmt.Sprintf("%.0f%% surcharge (%s)", pct*100, window),
		Amount:   subtotal * pct,
	})
}

// Totals sums the items into the real total and the comparison total. The
// comparison total includes reference-only items and is the sole ranking key.
func Totals(items []model.CostItem) (totalCost, totalForComparison float64) {
	for _, item := range items {
		if item.ReferenceOnly {
			totalForComparison += item.Amount
			continue
		}
		totalCost += item.Amount
	}
	totalForComparison += totalCost
	return totalCost, totalForComparison
}
