package cli

import (
	"github.com/spf13/cobra"
)

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Report entity counts and derived classification tallies",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(ctx); err != nil {
				return err
			}

			stats, err := a.stats.Collect(ctx)
			if err != nil {
				return err
			}

			cmd.Printf("parcels:        %d\n", stats.Parcels)
			cmd.Printf("people:         %d\n", stats.People)
			cmd.Printf("organizations:  %d\n", stats.Organizations)
			cmd.Printf("ownerships:     %d\n", stats.Ownerships)
			cmd.Printf("transfers:      %d bronze, %d silver\n", stats.BronzeTransfers, stats.SilverTransfers)
			cmd.Printf("listings:       %d silver, %d matched\n", stats.SilverListings, stats.MatchedListings)

			cmd.Printf("dwellings:      %d\n", stats.Dwellings)
			for source, count := range stats.DwellingsBySource {
				cmd.Printf("  %-18s %d\n", source, count)
			}

			cmd.Println("classification:")
			for classification, count := range stats.ByClassification {
				cmd.Printf("  %-18s %d\n", classification, count)
			}
			if stats.UnclassifiedUnknown > 0 {
				cmd.Printf("  %-18s %d\n", "none", stats.UnclassifiedUnknown)
			}

			cmd.Println("review queue:")
			for status, count := range stats.ReviewsByStatus {
				cmd.Printf("  %-18s %d\n", status, count)
			}
			return nil
		},
	}
}
