package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/frontera-freight/frontera/internal/cli"
	"github.com/frontera-freight/frontera/internal/model"
)

func predictCmd() *cobra.Command {
	var (
		distanceKm float64
		tonnage    float64
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Ask the model for a carrier payment suggestion",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bridge, err := initBridge()
			if err != nil {
				return err
			}

			pctx := model.PredictionContext{
				TotalDistance: distanceKm,
				Tonnage:       tonnage,
			}.WithSeason(time.Now())

			result, err := bridge.Predict(cmd.Context(), pctx)
			if err != nil {
				return err
			}

			fmt.Println(cli.TitleStyle.Render("Suggested Carrier Payment"))
			fmt.Printf("  %.2f BRL/ton\n", result.RecommendedValue)
			fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf(
				"  raw %.2f, confidence %.0f%%, method %s",
				result.RawPrediction, result.Confidence*100, result.Method)))
			return nil
		},
	}

	cmd.Flags().Float64Var(&distanceKm, "distance", 0, "total route distance in km (required)")
	cmd.Flags().Float64Var(&tonnage, "tonnage", 0, "shipment weight in tons (required)")
	_ = cmd.MarkFlagRequired("distance")
	_ = cmd.MarkFlagRequired("tonnage")

	return cmd
}

func feedbackCmd() *cobra.Command {
	var (
		recommended float64
		suggested   float64
		helpful     bool
		distanceKm  float64
		tonnage     float64
		origin      string
		destination string
	)

	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Record whether a prediction was helpful",
		Long: `Stores the user's reaction to a prediction and feeds it to the learning
controller. Both helpful and unhelpful feedback count toward retraining.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFeedback(cmd.Context(), model.PredictionFeedback{
				OriginalRecommendation: recommended,
				SuggestedValue:         suggested,
				Helpful:                helpful,
				Distance:               distanceKm,
				Tonnage:                tonnage,
				Origin:                 origin,
				Destination:            destination,
			})
		},
	}

	cmd.Flags().Float64Var(&recommended, "recommended", 0, "the value the model recommended (required)")
	cmd.Flags().Float64Var(&suggested, "suggested", 0, "the value the user would have used instead")
	cmd.Flags().BoolVar(&helpful, "helpful", false, "the recommendation was helpful")
	cmd.Flags().Float64Var(&distanceKm, "distance", 0, "route distance the prediction was for")
	cmd.Flags().Float64Var(&tonnage, "tonnage", 0, "tonnage the prediction was for")
	cmd.Flags().StringVar(&origin, "origin", "", "origin place name")
	cmd.Flags().StringVar(&destination, "destination", "", "destination place name")
	_ = cmd.MarkFlagRequired("recommended")

	return cmd
}

func runFeedback(ctx context.Context, fb model.PredictionFeedback) error {
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.SavePredictionFeedback(ctx, &fb); err != nil {
		return err
	}

	if bridge, bridgeErr := initBridge(); bridgeErr == nil {
		bridge.NotifyFeedback(fb)
	}

	fmt.Println(cli.SuccessStyle.Render("Feedback recorded."))
	return nil
}

func trainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Run a model retraining pass now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bridge, err := initBridge()
			if err != nil {
				return err
			}

			fmt.Println(cli.SubtleStyle.Render("Retraining model..."))
			if err := bridge.Retrain(cmd.Context()); err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render("Model retrained."))
			return nil
		},
	}
}
