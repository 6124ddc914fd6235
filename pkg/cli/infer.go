package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) inferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Materialize derived entities from the loaded evidence",
	}

	var (
		taxYear int
		reset   bool
	)
	dwellings := &cobra.Command{
		Use:   "dwellings",
		Short: "Infer dwellings from tax and listing signals",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.openInference(ctx, taxYear); err != nil {
				return err
			}

			stats, err := a.inference.Run(ctx, reset)
			if stats != nil {
				a.logger.Info("dwelling inference finished",
					zap.Int("parcels", stats.ParcelsTotal),
					zap.Int("created", stats.DwellingsCreated))
				cmd.Printf("parcels: %d, with dwellings: %d, without: %d\n",
					stats.ParcelsTotal, stats.ParcelsWithDwellings, stats.ParcelsWithoutDwellings)
				cmd.Printf("created: %d, skipped existing: %d, no signal: %d\n",
					stats.DwellingsCreated, stats.SkippedExisting, stats.SkippedNoSignal)
				for signal, count := range stats.BySignal {
					cmd.Printf("  %s: %d\n", signal, count)
				}
			}
			return err
		},
	}
	dwellings.Flags().IntVar(&taxYear, "tax-year", 2025, "tax year whose filings feed the signals")
	dwellings.Flags().BoolVar(&reset, "reset", false, "delete previously inferred dwellings first")

	cmd.AddCommand(dwellings)
	return cmd
}
