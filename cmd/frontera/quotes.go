package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frontera-freight/frontera/internal/cli"
)

func quotesCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "quotes",
		Short: "List recently saved quotes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			quotes, err := store.GetQuotes(ctx, limit)
			if err != nil {
				return err
			}
			if len(quotes) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No saved quotes yet."))
				return nil
			}

			fmt.Println(cli.TitleStyle.Render("Recent Quotes"))
			header := fmt.Sprintf("%-10s %-20s %-20s %8s %12s %-24s",
				"Date", "Origin", "Destination", "Tons", "Total (USD)", "Crossing")
			fmt.Println(cli.HeaderStyle.Render(header))
			for _, q := range quotes {
				fmt.Printf("%-10s %-20s %-20s %8.0f %12.2f %-24s\n",
					q.CreatedAt.Format("2006-01-02"), q.Origin, q.Destination,
					q.Tonnage, q.TotalCost, q.CrossingPoint)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of quotes to show")
	return cmd
}
