package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/madriverdata/parcelgraph/pkg/database"
	"github.com/madriverdata/parcelgraph/pkg/models"
)

// TransferRepository provides data access for bronze and silver property
// transfers.
type TransferRepository interface {
	CreateBronze(ctx context.Context, q database.Querier, transfer *models.BronzeTransfer) error
	ListUnprocessedBronze(ctx context.Context, q database.Querier) ([]*models.BronzeTransfer, error)
	CreateSilver(ctx context.Context, q database.Querier, transfer *models.PropertyTransfer) error
	CountBronze(ctx context.Context, q database.Querier) (int, error)
	CountSilver(ctx context.Context, q database.Querier) (int, error)
}

type transferRepository struct{}

func NewTransferRepository() TransferRepository {
	return &transferRepository{}
}

var _ TransferRepository = (*transferRepository)(nil)

func (r *transferRepository) CreateBronze(ctx context.Context, q database.Querier, transfer *models.BronzeTransfer) error {
	if transfer.ID == uuid.Nil {
		transfer.ID = uuid.New()
	}

	query := `
		INSERT INTO bronze_transfers (
			id, span, sale_date, sale_price, buyer_name, buyer_address,
			buyer_town, buyer_state, seller_name, intended_use, property_use
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := q.Exec(ctx, query,
		transfer.ID,
		transfer.Span,
		transfer.SaleDate,
		transfer.SalePrice,
		transfer.BuyerName,
		transfer.BuyerAddress,
		transfer.BuyerTown,
		transfer.BuyerState,
		transfer.SellerName,
		transfer.IntendedUse,
		transfer.PropertyUse,
	)
	if err != nil {
		return fmt.Errorf("failed to create bronze transfer: %w", err)
	}
	return nil
}

// ListUnprocessedBronze returns bronze rows with no silver counterpart,
// oldest first. Re-runs therefore skip completed work.
func (r *transferRepository) ListUnprocessedBronze(ctx context.Context, q database.Querier) ([]*models.BronzeTransfer, error) {
	query := `
		SELECT id, span, sale_date, sale_price, buyer_name, buyer_address,
		       buyer_town, buyer_state, seller_name, intended_use, property_use, created_at
		FROM bronze_transfers
		WHERE id NOT IN (SELECT bronze_id FROM property_transfers)
		ORDER BY created_at`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list unprocessed bronze transfers: %w", err)
	}
	defer rows.Close()

	var transfers []*models.BronzeTransfer
	for rows.Next() {
		var t models.BronzeTransfer
		err := rows.Scan(
			&t.ID,
			&t.Span,
			&t.SaleDate,
			&t.SalePrice,
			&t.BuyerName,
			&t.BuyerAddress,
			&t.BuyerTown,
			&t.BuyerState,
			&t.SellerName,
			&t.IntendedUse,
			&t.PropertyUse,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bronze transfer: %w", err)
		}
		transfers = append(transfers, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bronze transfers: %w", err)
	}
	return transfers, nil
}

func (r *transferRepository) CreateSilver(ctx context.Context, q database.Querier, transfer *models.PropertyTransfer) error {
	if transfer.ID == uuid.Nil {
		transfer.ID = uuid.New()
	}

	query := `
		INSERT INTO property_transfers (
			id, bronze_id, parcel_id, span, sale_date, sale_price_cents,
			buyer_name, buyer_state, seller_name, intended_use,
			is_primary_residence, is_secondary_residence, is_out_of_state_buyer,
			validation_notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (bronze_id) DO NOTHING`

	_, err := q.Exec(ctx, query,
		transfer.ID,
		transfer.BronzeID,
		transfer.ParcelID,
		transfer.Span,
		transfer.SaleDate,
		transfer.SalePriceCents,
		transfer.BuyerName,
		transfer.BuyerState,
		transfer.SellerName,
		transfer.IntendedUse,
		transfer.IsPrimaryResidence,
		transfer.IsSecondaryResidence,
		transfer.IsOutOfStateBuyer,
		transfer.ValidationNotes,
	)
	if err != nil {
		return fmt.Errorf("failed to create property transfer: %w", err)
	}
	return nil
}

func (r *transferRepository) CountBronze(ctx context.Context, q database.Querier) (int, error) {
	var count int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM bronze_transfers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bronze transfers: %w", err)
	}
	return count, nil
}

func (r *transferRepository) CountSilver(ctx context.Context, q database.Querier) (int, error) {
	var count int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM property_transfers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count property transfers: %w", err)
	}
	return count, nil
}
