package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/madriverdata/parcelgraph/pkg/database"
	"github.com/madriverdata/parcelgraph/pkg/geo"
	"github.com/madriverdata/parcelgraph/pkg/models"
)

func (a *app) importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load source files into the database",
	}
	cmd.AddCommand(a.importParcelsCmd(), a.importTransfersCmd(), a.importListingsCmd())
	return cmd
}

func (a *app) importParcelsCmd() *cobra.Command {
	var (
		taxYear   int
		shapefile string
		keyField  string
	)

	cmd := &cobra.Command{
		Use:   "parcels <grand-list.csv>",
		Short: "Import the grand list: parcels, tax status, and resolved owners",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(ctx); err != nil {
				return err
			}

			rows, err := loadGrandListRows(args[0])
			if err != nil {
				return err
			}

			summary, err := a.grandList.Import(ctx, rows, taxYear)
			if summary != nil {
				a.logger.Info("grand list import finished", zap.String("summary", summary.String()))
				printSummary(cmd, summary)
			}
			if err != nil {
				return err
			}

			if shapefile == "" {
				return nil
			}
			shapes, err := geo.LoadShapefile(shapefile, keyField)
			if err != nil {
				return err
			}
			geomSummary, err := a.grandList.AttachGeometry(ctx, shapes)
			if geomSummary != nil {
				a.logger.Info("geometry attach finished", zap.String("summary", geomSummary.String()))
				printSummary(cmd, geomSummary)
			}
			return err
		},
	}

	cmd.Flags().IntVar(&taxYear, "tax-year", 2025, "tax year the grand list covers")
	cmd.Flags().StringVar(&shapefile, "shapefile", "", "parcel boundary shapefile to attach after import")
	cmd.Flags().StringVar(&keyField, "key-field", "SPAN", "shapefile attribute holding the parcel identifier")
	return cmd
}

func (a *app) importTransfersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transfers <transfers.csv>",
		Short: "Load raw property-transfer rows into the bronze table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(ctx); err != nil {
				return err
			}

			transfers, err := loadBronzeTransfers(args[0])
			if err != nil {
				return err
			}

			count, err := importInWindows(ctx, a, len(transfers), func(q database.Querier, i int) error {
				return a.transfers.CreateBronze(ctx, q, transfers[i])
			})
			if err != nil {
				return err
			}
			cmd.Printf("imported %d bronze transfers\n", count)
			return nil
		},
	}
}

func (a *app) importListingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listings <listings.csv>",
		Short: "Load scraped short-term-rental listings into the bronze table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(ctx); err != nil {
				return err
			}

			listings, err := loadBronzeListings(args[0])
			if err != nil {
				return err
			}

			count, err := importInWindows(ctx, a, len(listings), func(q database.Querier, i int) error {
				return a.listings.CreateBronze(ctx, q, listings[i])
			})
			if err != nil {
				return err
			}
			cmd.Printf("imported %d bronze listings\n", count)
			return nil
		},
	}
}

// importInWindows runs fn for each index inside commit-window
// transactions, matching the batch discipline of the transforms.
func importInWindows(ctx context.Context, a *app, total int, fn func(q database.Querier, i int) error) (int, error) {
	window := a.cfg.Batch.CommitWindow
	done := 0
	for start := 0; start < total; start += window {
		end := start + window
		if end > total {
			end = total
		}
		err := a.db.WithTx(ctx, func(q database.Querier) error {
			for i := start; i < end; i++ {
				if err := fn(q, i); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return done, fmt.Errorf("import window failed: %w", err)
		}
		done = end
	}
	return done, nil
}

func printSummary(cmd *cobra.Command, summary *models.BatchSummary) {
	cmd.Println(summary.String())
	for _, e := range summary.Errors {
		cmd.Printf("  skipped: %s\n", e)
	}
}
