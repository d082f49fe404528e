package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaungchi/assistant-go/internal/client"
)

var marketLocation string

var marketCmd = &cobra.Command{
	Use:   "market",
	Short: "Show current market prices",
	Long: `Show current crop prices, optionally filtered by market location.
Market queries count against the free-tier daily quota.

Examples:
  assistant market
  assistant market --location Mandalay`,
	RunE: runMarket,
}

func init() {
	marketCmd.Flags().StringVarP(&marketLocation, "location", "l", "", "filter by market location")
}

func runMarket(cmd *cobra.Command, args []string) error {
	s, err := requireSession()
	if err != nil {
		return err
	}

	prices, err := api.Market(context.Background(), s.UserID, marketLocation)
	if err != nil {
		if client.IsQuotaDenied(err) {
			return fmt.Errorf("daily market query limit reached; upgrade with 'assistant upgrade'")
		}
		return fmt.Errorf("market: %w", err)
	}

	if len(prices) == 0 {
		fmt.Println("No prices available for this location.")
		return nil
	}

	fmt.Printf("Market prices (%d):\n\n", len(prices))
	for _, p := range prices {
		fmt.Printf("  %-18s %10.0f %s / %-8s %s\n",
			p.ProductName, p.Price, p.Currency, p.Unit, p.MarketLocation)
	}
	return nil
}
