package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaungchi/assistant-go/internal/quota"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show today's remaining quota",
	RunE:  runUsage,
}

func runUsage(cmd *cobra.Command, args []string) error {
	s, err := requireSession()
	if err != nil {
		return err
	}

	limits, err := api.Limits(context.Background(), s.UserID)
	if err != nil {
		return fmt.Errorf("load limits: %w", err)
	}

	if limits.IsPaidUser {
		fmt.Println("Paid tier: unlimited messages, weather and market queries.")
		return nil
	}

	fmt.Println("Free tier usage today:")
	fmt.Printf("  Messages:        %d of %d left\n", limits.RemainingMessages, quota.FreeDailyMessages)
	fmt.Printf("  Weather queries: %s\n", allowance(limits.CanQueryWeather))
	fmt.Printf("  Market queries:  %s\n", allowance(limits.CanQueryMarket))
	fmt.Println("\nUpgrade with 'assistant upgrade' for unlimited access.")
	return nil
}

func allowance(available bool) string {
	if available {
		return "available"
	}
	return "limit reached"
}
