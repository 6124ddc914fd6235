package cli

import (
	"github.com/spf13/cobra"

	"github.com/madriverdata/parcelgraph/pkg/models"
)

func (a *app) transformCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Promote bronze rows to validated, parcel-matched silver rows",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "transfers",
		Short: "Validate and match pending bronze transfers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(ctx); err != nil {
				return err
			}
			summary, err := a.transfer.Transform(ctx)
			reportSummary(cmd, summary)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "listings",
		Short: "Match pending bronze listings to parcels",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(ctx); err != nil {
				return err
			}
			summary, err := a.listing.Transform(ctx)
			reportSummary(cmd, summary)
			return err
		},
	})

	return cmd
}

func reportSummary(cmd *cobra.Command, summary *models.BatchSummary) {
	if summary != nil {
		printSummary(cmd, summary)
	}
}
