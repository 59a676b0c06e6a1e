package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"secondlife/internal/printer"
)

var ratingsCmd = &cobra.Command{
	Use:   "ratings",
	Short: "Maintain seller rating aggregates",
}

var ratingsRecomputeCmd = &cobra.Command{
	Use:   "recompute <sellerId>...",
	Short: "Rebuild the stored rating of one or more sellers from their reviews",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		b, err := openBackend(ctx)
		if err != nil {
			return err
		}
		defer b.Close()

		failed := 0
		for _, sellerID := range args {
			rating, err := b.reviews.RecomputeSellerRating(ctx, sellerID)
			if err != nil {
				printer.Warning("%s: %v", sellerID, err)
				failed++
				continue
			}
			printer.Success("%s: %.2f from %d review(s)", sellerID, rating.Average, rating.Count)
		}
		if failed > 0 {
			return printer.Error("some ratings were not updated", "", "re-run the command for the sellers listed above")
		}
		return nil
	},
}

func init() {
	ratingsCmd.AddCommand(ratingsRecomputeCmd)
	rootCmd.AddCommand(ratingsCmd)
}
