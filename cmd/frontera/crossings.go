package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/frontera-freight/frontera/internal/cli"
	"github.com/frontera-freight/frontera/internal/model"
	"github.com/frontera-freight/frontera/internal/storage"
)

func crossingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crossings",
		Short: "Manage border crossing point definitions",
	}

	cmd.AddCommand(crossingsListCmd())
	cmd.AddCommand(crossingsImportCmd())
	return cmd
}

func crossingsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active crossing points",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			points, err := store.GetActiveCrossingPoints(ctx)
			if err != nil {
				return err
			}
			if len(points) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No crossing points configured. Use 'frontera crossings import'."))
				return nil
			}

			fmt.Println(cli.TitleStyle.Render("Active Crossing Points"))
			for _, cp := range points {
				fmt.Printf("%s\n", cli.RecommendedStyle.Render(cp.Name))
				fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("    %s ↔ %s",
					cp.OriginSide.Name, cp.DestinationSide.Name)))
				fmt.Println(cli.SubtleStyle.Render("    fees: " + describeFees(cp)))
			}
			return nil
		},
	}
}

func crossingsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import crossing points from a JSON export",
		Long: `Reads a JSON array of crossing point records and upserts them by name.
Both the current nested document shape and older flat exports are accepted;
legacy field variants are normalized on the way in.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), args[0])
		},
	}
}

func runImport(ctx context.Context, path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- user-supplied import file
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("%s is not a JSON array of crossing point records: %w", path, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("%s contains no records", path)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	bar := progressbar.NewOptions(len(records),
		progressbar.OptionSetDescription("Importing crossing points"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	imported := 0
	var failures []string
	for _, raw := range records {
		_ = bar.Add(1)

		cp, normErr := storage.NormalizeRecord(raw)
		if normErr != nil {
			failures = append(failures, normErr.Error())
			continue
		}
		if saveErr := store.SaveCrossingPoint(ctx, &cp); saveErr != nil {
			failures = append(failures, saveErr.Error())
			continue
		}
		imported++
	}

	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Imported %d of %d crossing points.", imported, len(records))))
	for _, failure := range failures {
		fmt.Println(cli.WarningStyle.Render("  skipped: " + failure))
	}
	if imported == 0 {
		return fmt.Errorf("no records could be imported")
	}
	return nil
}

// describeFees lists the enabled fee categories of a crossing point.
func describeFees(cp model.CrossingPoint) string {
	var enabled []string
	if cp.Fees.BorderFund.Enabled {
		enabled = append(enabled, "border fund")
	}
	if cp.Fees.Laboratory.Enabled {
		enabled = append(enabled, "laboratory")
	}
	if cp.Fees.Traversal.Enabled {
		label := "ferry"
		if cp.Fees.Traversal.AlwaysCompanyPaid {
			label = "ferry (company paid)"
		}
		enabled = append(enabled, label)
	}
	if cp.Fees.Inspection.Enabled {
		enabled = append(enabled, "inspection")
	}
	if cp.Fees.Parking.Enabled {
		enabled = append(enabled, "parking")
	}
	if cp.Fees.RegulatoryTransit.Enabled {
		enabled = append(enabled, "regulatory transit")
	}
	if cp.Fees.AgentCommission.Enabled {
		enabled = append(enabled, "commission")
	}
	if len(enabled) == 0 {
		return "none"
	}
	return strings.Join(enabled, ", ")
}
