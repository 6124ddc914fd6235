package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/madriverdata/parcelgraph/pkg/models"
)

func (a *app) reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Work the short-term-rental review queue",
	}

	var reviewer, notes string
	cmd.PersistentFlags().StringVar(&reviewer, "reviewer", "", "name recorded on the review decision")
	cmd.PersistentFlags().StringVar(&notes, "notes", "", "free-form note attached to the decision")

	confirm := &cobra.Command{
		Use:   "confirm <listing-id> <dwelling-id>",
		Short: "Confirm a listing against a dwelling",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(ctx); err != nil {
				return err
			}
			listingID, dwellingID, err := parseIDs(args[0], args[1])
			if err != nil {
				return err
			}
			entry, err := a.review.Confirm(ctx, listingID, dwellingID, reviewer, notes)
			if err != nil {
				return err
			}
			cmd.Printf("listing %s confirmed to dwelling %s\n", entry.STRListingID, *entry.DwellingID)
			return nil
		},
	}

	reject := &cobra.Command{
		Use:   "reject <listing-id> <reason>",
		Short: "Reject a listing with a reason",
		Long: "Reject a listing. Reason must be one of: not_in_town, duplicate,\n" +
			"invalid_listing, cannot_determine, other.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(ctx); err != nil {
				return err
			}
			listingID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid listing id %q: %w", args[0], err)
			}
			entry, err := a.review.Reject(ctx, listingID, models.RejectionReason(args[1]), reviewer, notes)
			if err != nil {
				return err
			}
			cmd.Printf("listing %s rejected: %s\n", entry.STRListingID, *entry.RejectionReason)
			return nil
		},
	}

	skip := &cobra.Command{
		Use:   "skip <listing-id>",
		Short: "Defer a listing without deciding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(ctx); err != nil {
				return err
			}
			listingID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid listing id %q: %w", args[0], err)
			}
			if _, err := a.review.Skip(ctx, listingID, reviewer); err != nil {
				return err
			}
			cmd.Printf("listing %s skipped\n", listingID)
			return nil
		},
	}

	reset := &cobra.Command{
		Use:   "reset <listing-id>",
		Short: "Return a reviewed listing to the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(ctx); err != nil {
				return err
			}
			listingID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid listing id %q: %w", args[0], err)
			}
			if _, err := a.review.Reset(ctx, listingID); err != nil {
				return err
			}
			cmd.Printf("listing %s back in the queue\n", listingID)
			return nil
		},
	}

	var limit int
	queue := &cobra.Command{
		Use:   "queue",
		Short: "List listings awaiting review",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(ctx); err != nil {
				return err
			}
			entries, err := a.review.Queue(ctx, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				cmd.Println("review queue is empty")
				return nil
			}
			for _, e := range entries {
				cmd.Printf("%s  queued %s\n", e.STRListingID, e.CreatedAt.Format("2006-01-02"))
			}
			return nil
		},
	}
	queue.Flags().IntVar(&limit, "limit", 50, "maximum entries to list")

	cmd.AddCommand(confirm, reject, skip, reset, queue)
	return cmd
}

func parseIDs(listing, dwelling string) (uuid.UUID, uuid.UUID, error) {
	listingID, err := uuid.Parse(listing)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid listing id %q: %w", listing, err)
	}
	dwellingID, err := uuid.Parse(dwelling)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid dwelling id %q: %w", dwelling, err)
	}
	return listingID, dwellingID, nil
}
