package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/frontera-freight/frontera/internal/cli"
	"github.com/frontera-freight/frontera/internal/model"
)

type quoteFlags struct {
	origin           string
	originCoord      string
	destination      string
	destinationCoord string
	tonnage          float64
	carrierPayment   float64
	merchandiseValue float64
	profitMargin     float64
	process          string
	crossing         string
	usdToBRL         float64
	usdToGS          float64
	insurance        bool
	specialHandling  bool
	companyPaysFerry bool
	detailed         bool
	predict          bool
	save             bool
}

func quoteCmd() *cobra.Command {
	flags := &quoteFlags{}

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Compare crossing points and recommend the cheapest route",
		Example: `  frontera quote --origin "Cascavel" --destination "Asunción" --tonnage 500
  frontera quote --origin "Toledo" --destination "Ciudad del Este" --tonnage 1200 \
      --carrier-payment 120 --process expedited --predict --save`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuote(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.origin, "origin", "", "origin place name (required)")
	cmd.Flags().StringVar(&flags.originCoord, "origin-coord", "", "origin coordinate as lat,lng")
	cmd.Flags().StringVar(&flags.destination, "destination", "", "destination place name (required)")
	cmd.Flags().StringVar(&flags.destinationCoord, "destination-coord", "", "destination coordinate as lat,lng")
	cmd.Flags().Float64Var(&flags.tonnage, "tonnage", 0, "shipment weight in tons (required)")
	cmd.Flags().Float64Var(&flags.carrierPayment, "carrier-payment", 0, "carrier payment in BRL per ton")
	cmd.Flags().Float64Var(&flags.merchandiseValue, "merchandise-value", 0, "merchandise value in USD (for insurance)")
	cmd.Flags().Float64Var(&flags.profitMargin, "margin", 0, "profit margin in USD per ton")
	cmd.Flags().StringVar(&flags.process, "process", "normal", "customs process (normal, expedited, priority)")
	cmd.Flags().StringVar(&flags.crossing, "crossing", "", "restrict evaluation to one crossing point")
	cmd.Flags().Float64Var(&flags.usdToBRL, "usd-brl", 0, "USD to BRL exchange rate")
	cmd.Flags().Float64Var(&flags.usdToGS, "usd-gs", 0, "USD to GS exchange rate")
	cmd.Flags().BoolVar(&flags.insurance, "insurance", false, "include merchandise insurance")
	cmd.Flags().BoolVar(&flags.specialHandling, "special-handling", false, "include special handling")
	cmd.Flags().BoolVar(&flags.companyPaysFerry, "company-pays-ferry", false, "company pays the crossing traversal fee")
	cmd.Flags().BoolVar(&flags.detailed, "detailed", false, "show the itemized breakdown of the recommended crossing")
	cmd.Flags().BoolVar(&flags.predict, "predict", false, "suggest a carrier payment via the prediction model")
	cmd.Flags().BoolVar(&flags.save, "save", false, "persist the quote and feed it to the learning loop")

	_ = cmd.MarkFlagRequired("origin")
	_ = cmd.MarkFlagRequired("destination")
	_ = cmd.MarkFlagRequired("tonnage")

	return cmd
}

func runQuote(ctx context.Context, flags *quoteFlags) error {
	req, err := buildRequest(flags)
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	eng, err := initEngine()
	if err != nil {
		return err
	}

	candidates, err := store.GetActiveCrossingPoints(ctx)
	if err != nil {
		return err
	}

	rankCtx, cancel := context.WithTimeout(ctx, commandTimeout())
	defer cancel()

	rec, err := eng.Rank(rankCtx, req, candidates)
	if err != nil {
		return err
	}

	renderComparison(rec, req.Tonnage)
	if flags.detailed {
		renderBreakdown(rec.Best)
	}

	if flags.predict {
		// A failed prediction never blocks the quote.
		if predictErr := enrichWithPrediction(ctx, rec, req); predictErr != nil {
			fmt.Println(cli.WarningStyle.Render(
				fmt.Sprintf("Prediction unavailable: %v", predictErr)))
		}
	}

	if flags.save {
		if saveErr := saveQuote(ctx, store, rec, req); saveErr != nil {
			return saveErr
		}
		fmt.Println(cli.SuccessStyle.Render("Quote saved."))
	}

	return nil
}

func buildRequest(flags *quoteFlags) (model.ShipmentRequest, error) {
	origin := model.LocationRef{Name: flags.origin}
	destination := model.LocationRef{Name: flags.destination}

	var err error
	if flags.originCoord != "" {
		if origin.Coordinate, err = parseCoordinate(flags.originCoord); err != nil {
			return model.ShipmentRequest{}, fmt.Errorf("invalid --origin-coord: %w", err)
		}
	}
	if flags.destinationCoord != "" {
		if destination.Coordinate, err = parseCoordinate(flags.destinationCoord); err != nil {
			return model.ShipmentRequest{}, fmt.Errorf("invalid --destination-coord: %w", err)
		}
	}

	var process model.CustomsProcess
	switch flags.process {
	case "normal", "":
		process = model.ProcessNormal
	case "expedited":
		process = model.ProcessExpedited
	case "priority":
		process = model.ProcessPriority
	default:
		return model.ShipmentRequest{}, fmt.Errorf("invalid --process %q (normal, expedited, priority)", flags.process)
	}

	req := model.ShipmentRequest{
		Tonnage:     flags.tonnage,
		Origin:      origin,
		Destination: destination,
		Policy: model.PolicyFlags{
			IncludeInsurance:     flags.insurance,
			SpecialHandling:      flags.specialHandling,
			CustomsProcess:       process,
			CompanyPaysTraversal: flags.companyPaysFerry,
		},
		CarrierPaymentPerTon: flags.carrierPayment,
		MerchandiseValue:     flags.merchandiseValue,
		ProfitMarginPerTon:   flags.profitMargin,
		Rates:                requestRates(flags.usdToBRL, flags.usdToGS),
		ForcedCrossingPoint:  flags.crossing,
	}
	return req, req.Validate()
}

func parseCoordinate(raw string) (model.Coordinate, error) {
	parts := strings.SplitN(raw, ",", 2)
	if len(parts) != 2 {
		return model.Coordinate{}, fmt.Errorf("expected lat,lng")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("bad latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("bad longitude: %w", err)
	}
	return model.Coordinate{Lat: lat, Lng: lng}, nil
}

func renderComparison(rec *model.Recommendation, tonnage float64) {
	fmt.Println(cli.TitleStyle.Render("Crossing Point Comparison"))

	header := fmt.Sprintf("%-4s %-28s %10s %12s %12s %8s",
		"#", "Crossing", "Dist (km)", "Total (USD)", "USD/ton", "Δ%")
	fmt.Println(cli.HeaderStyle.Render(header))

	for _, result := range rec.Comparison {
		label := result.CrossingPoint
		if result.Distance.Precision == model.PrecisionApproximate {
			label += " ~"
		}
		row := fmt.Sprintf("%-4d %-28s %10.0f %12.2f %12.2f %7.1f%%",
			result.Rank, label, result.Distance.Total,
			result.TotalCost, result.CostPerTon, result.DeltaPercent)
		if result.Rank == 1 {
			fmt.Println(cli.RecommendedStyle.Render(row + "  ← recommended"))
		} else {
			fmt.Println(row)
		}
	}

	fmt.Println(cli.SubtleStyle.Render(
		fmt.Sprintf("\n%s via %s: %.2f USD total for %.0f t (~ marks approximated distances)",
			rec.Best.CrossingPoint, rec.Best.PairedSide, rec.Best.TotalCost, tonnage)))
}

func renderBreakdown(best *model.CandidateResult) {
	fmt.Println(cli.TitleStyle.Render("\nItemized Costs — " + best.CrossingPoint))
	for _, item := range best.Items {
		marker := ""
		if item.ReferenceOnly {
			marker = " (reference only)"
		}
		line := fmt.Sprintf("%-34s %12.2f%s", item.Category, item.Amount, marker)
		fmt.Println(line)
		if item.Details != "" {
			fmt.Println(cli.SubtleStyle.Render("    " + item.Details))
		}
	}
	fmt.Println(cli.RecommendedStyle.Render(
		fmt.Sprintf("%-34s %12.2f", "Total", best.TotalCost)))
}

func enrichWithPrediction(ctx context.Context, rec *model.Recommendation, req model.ShipmentRequest) error {
	bridge, err := initBridge()
	if err != nil {
		return err
	}

	pctx := model.PredictionContext{
		TotalDistance: rec.Best.Distance.Total,
		Tonnage:       req.Tonnage,
		Origin:        req.Origin.Coordinate,
		Destination:   req.Destination.Coordinate,
	}.WithSeason(time.Now())

	result, err := bridge.Predict(ctx, pctx)
	if err != nil {
		return err
	}

	fmt.Println(cli.TitleStyle.Render("\nSuggested Carrier Payment"))
	fmt.Printf("  %.2f BRL/ton (confidence %.0f%%, %s)\n",
		result.RecommendedValue, result.Confidence*100, result.Method)
	return nil
}

func saveQuote(ctx context.Context, store storageSaver, rec *model.Recommendation, req model.ShipmentRequest) error {
	quote := &model.Quote{
		Origin:               req.Origin.Name,
		Destination:          req.Destination.Name,
		Tonnage:              req.Tonnage,
		CrossingPoint:        rec.Best.CrossingPoint,
		TotalCost:            rec.Best.TotalCost,
		TotalDistance:        rec.Best.Distance.Total,
		CarrierPaymentPerTon: req.CarrierPaymentPerTon,
	}
	if err := store.SaveQuote(ctx, quote); err != nil {
		return err
	}

	// Feed the learning loop when a model is configured; a missing model is
	// not an error for saving.
	bridge, err := initBridge()
	if err != nil {
		return nil
	}
	bridge.NotifyQuote(model.QuoteSample{
		CarrierPaymentPerTon: req.CarrierPaymentPerTon,
		TotalDistance:        rec.Best.Distance.Total,
		Tonnage:              req.Tonnage,
		Origin:               req.Origin.Name,
		Destination:          req.Destination.Name,
	})
	return nil
}

// storageSaver is the slice of storage the save path needs.
type storageSaver interface {
	SaveQuote(ctx context.Context, quote *model.Quote) error
}
