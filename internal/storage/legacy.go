package storage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/frontera-freight/frontera/internal/model"
)

// Historic exports carry fee amounts under several alternately-named fields,
// sometimes flat on the record and sometimes nested per category, with
// numbers frequently stored as strings. NormalizeRecord folds every known
// shape into the canonical model once, at the import boundary, so business
// logic never sees the variants.

// NormalizeRecord converts one exported crossing-point document into the
// canonical model. It accepts both the nested document shape and records
// with flat legacy field names.
func NormalizeRecord(raw map[string]any) (model.CrossingPoint, error) {
	name := asString(raw, "name", "nome")
	if name == "" {
		return model.CrossingPoint{}, fmt.Errorf("record has no crossing point name")
	}

	cp := model.CrossingPoint{
		ID:     asString(raw, "id"),
		Name:   name,
		Active: boolOrDefault(raw, true, "active", "ativo"),
	}

	var err error
	if cp.OriginSide, err = parseSide(raw, "brazilianSide", "originSide"); err != nil {
		return model.CrossingPoint{}, fmt.Errorf("crossing point %q: %w", name, err)
	}
	if cp.DestinationSide, err = parseSide(raw, "paraguayanSide", "destinationSide"); err != nil {
		return model.CrossingPoint{}, fmt.Errorf("crossing point %q: %w", name, err)
	}

	cp.Fees = parseFees(raw, name)
	return cp, nil
}

func parseSide(raw map[string]any, keys ...string) (model.CrossingSide, error) {
	for _, key := range keys {
		side, ok := raw[key].(map[string]any)
		if !ok {
			continue
		}
		coords, _ := side["coordinates"].(map[string]any)
		if coords == nil {
			coords = side
		}
		return model.CrossingSide{
			Name: asString(side, "name", "nome"),
			Coordinate: model.Coordinate{
				Lat: asFloat(coords, "lat", "latitude"),
				Lng: asFloat(coords, "lng", "longitude"),
			},
		}, nil
	}
	return model.CrossingSide{}, fmt.Errorf("missing side definition (%s)", strings.Join(keys, "/"))
}

func parseFees(raw map[string]any, name string) model.FeeConfig {
	var fees model.FeeConfig

	faf := child(raw, "faf")
	fees.BorderFund = model.BorderFundFee{
		PerTruck:    firstFloat(faf, raw, "perTruck", "fafPerTruck"),
		LotUpTo1000: firstFloat(faf, raw, "lot1000", "fafLot1000"),
		LotOver1000: firstFloat(faf, raw, "lot1500", "fafLot1500"),
	}
	fees.BorderFund.Enabled = fees.BorderFund.PerTruck > 0 ||
		fees.BorderFund.LotUpTo1000 > 0 || fees.BorderFund.LotOver1000 > 0

	fula := child(raw, "fula")
	fees.Laboratory = model.LaboratoryFee{
		Enabled: asBool(fula, "enabled") || asBool(raw, "hasFula"),
		PerTon:  firstFloat(fula, raw, "costPerTon", "fulaCost"),
	}

	fees.Traversal = parseTraversal(raw, name)

	mapa := child(raw, "mapa")
	fees.Inspection = model.InspectionFee{
		PerTon:           firstFloat(mapa, raw, "costPerTon", "mapaCost"),
		FixedPerTon:      firstFloat(mapa, raw, "fixo", "mapaFixo"),
		SettlementPerTon: firstFloat(mapa, raw, "acerto", "mapaAcerto"),
		LotUpTo1000:      firstFloat(mapa, raw, "lot1000", "mapaCost1000"),
		LotOver1000:      firstFloat(mapa, raw, "lot1500", "mapaCost1500"),
	}
	fees.Inspection.Enabled = fees.Inspection.PerTon > 0 || fees.Inspection.FixedPerTon > 0 ||
		fees.Inspection.SettlementPerTon > 0 || fees.Inspection.LotUpTo1000 > 0 ||
		fees.Inspection.LotOver1000 > 0

	parking := child(raw, "estacionamento")
	fees.Parking = model.ParkingFee{
		Enabled:  asBool(parking, "enabled") || asBool(raw, "hasEstacionamento"),
		PerTruck: firstFloat(parking, raw, "costPerTruck", "estacionamentoCost"),
	}

	dinatran := child(raw, "dinatran")
	fees.RegulatoryTransit = model.RegulatoryTransitFee{
		PerTruck: firstFloat(dinatran, raw, "costPerTruck", "dinatranCost"),
	}
	fees.RegulatoryTransit.Enabled = asBool(dinatran, "enabled") || fees.RegulatoryTransit.PerTruck > 0

	commission := child(raw, "comissaoLuiz")
	fees.AgentCommission = model.AgentCommissionFee{
		Enabled: asBool(commission, "enabled") || asBool(raw, "hasComissaoLuiz"),
		PerTon:  firstFloat(commission, raw, "costPerTon", "comissaoLuiz"),
	}

	return fees
}

func parseTraversal(raw map[string]any, name string) model.TraversalFee {
	fee := model.TraversalFee{
		Enabled:          asBool(raw, "hasBalsa"),
		UseAlternateDock: asBool(raw, "useAlternateDock"),
	}

	switch balsa := raw["balsa"].(type) {
	case map[string]any:
		fee.Enabled = fee.Enabled || asBool(balsa, "enabled")
		fee.DefaultCost = asFloat(balsa, "defaultCost", "cost", "custo")
		fee.AlternateDockCost = asFloat(balsa, "puertoIndioCost", "alternateDockCost")
		fee.AlwaysCompanyPaid = asBool(balsa, "alwaysCompanyPaid")
	case float64, string:
		fee.DefaultCost = coerceFloat(balsa)
	}
	if fee.DefaultCost == 0 {
		fee.DefaultCost = asFloat(raw, "balsaCost")
	}
	// Records predating the explicit flags encoded this crossing's
	// company-paid ferry and its Puerto Indio dock preference only by name.
	if fee.Enabled && strings.Contains(strings.ToLower(name), "santa helena") {
		fee.AlwaysCompanyPaid = true
		if fee.AlternateDockCost > 0 {
			fee.UseAlternateDock = true
		}
	}
	return fee
}

func child(raw map[string]any, key string) map[string]any {
	m, _ := raw[key].(map[string]any)
	return m
}

// firstFloat reads the nested category field first, then the flat legacy
// field on the record itself.
func firstFloat(nested, flat map[string]any, nestedKey, flatKey string) float64 {
	if v := asFloat(nested, nestedKey); v != 0 {
		return v
	}
	return asFloat(flat, flatKey)
}

func asFloat(m map[string]any, keys ...string) float64 {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			if f := coerceFloat(v); f != 0 {
				return f
			}
		}
	}
	return 0
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func asBool(m map[string]any, keys ...string) bool {
	for _, key := range keys {
		if b, ok := m[key].(bool); ok && b {
			return true
		}
	}
	return false
}

func boolOrDefault(m map[string]any, def bool, keys ...string) bool {
	for _, key := range keys {
		if b, ok := m[key].(bool); ok {
			return b
		}
	}
	return def
}

func asString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
